// Package station runs the sampling loop: it reads the inside sensor on a
// fixed period, polls the outside weather, publishes both to a Store and to
// Prometheus, and raises temperature alerts.
package station

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rubiojr/go-climate/alert"
	"github.com/rubiojr/go-climate/bme280"
	"github.com/rubiojr/go-climate/weather"
)

// Sensor produces compensated readings. *bme280.Device implements it.
type Sensor interface {
	ReadCompensated() (bme280.Measurement, error)
}

// WeatherSource returns the current outside conditions. *weather.Client
// implements it.
type WeatherSource interface {
	Current(ctx context.Context) (weather.Conditions, error)
}

// Panel shows the alert level. *display.Display implements it.
type Panel interface {
	ShowLevel(alert.Level) error
}

// Opts configures a Station. Only Interval is required.
type Opts struct {
	Interval        time.Duration
	Weather         WeatherSource
	WeatherInterval time.Duration
	Thresholds      alert.Thresholds
	Evaluator       *alert.Evaluator
	Notifier        alert.Notifier
	Panel           Panel
	Registry        *prometheus.Registry
	Logger          *zerolog.Logger
}

// Station ties the sensor to its consumers.
type Station struct {
	sensor  Sensor
	opts    Opts
	store   *Store
	reg     *prometheus.Registry
	metrics *metrics
	log     zerolog.Logger
	now     func() time.Time

	lastLevel alert.Level
	shown     bool
}

// New returns a station reading sensor.
func New(sensor Sensor, opts Opts) *Station {
	if opts.Interval <= 0 {
		opts.Interval = 1030 * time.Millisecond
	}
	if opts.WeatherInterval <= 0 {
		opts.WeatherInterval = time.Minute
	}
	if opts.Thresholds == (alert.Thresholds{}) {
		if opts.Evaluator != nil {
			opts.Thresholds = opts.Evaluator.Thresholds
		} else {
			opts.Thresholds = alert.DefaultThresholds
		}
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Station{
		sensor:  sensor,
		opts:    opts,
		store:   NewStore(),
		reg:     reg,
		metrics: newMetrics(reg),
		now:     time.Now,
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	} else {
		s.log = zerolog.New(os.Stderr).With().Timestamp().Logger()
		s.log = s.log.Level(zerolog.InfoLevel)
	}
	s.log = s.log.With().Str("component", "station").Logger()
	if opts.Notifier == nil {
		s.opts.Notifier = alert.LogNotifier{Log: s.log}
	}
	if opts.Weather != nil {
		s.setOutsideGauges(weather.Unknown())
	}
	return s
}

// Store returns the snapshot store.
func (s *Station) Store() *Store {
	return s.store
}

// Registry returns the registry holding the station metrics.
func (s *Station) Registry() *prometheus.Registry {
	return s.reg
}

// Run samples until ctx is done. Read errors are logged and counted, they
// never stop the loop.
func (s *Station) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	if s.opts.Weather != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.pollWeather(ctx)
		}()
	}

	s.log.Info().Dur("interval", s.opts.Interval).Msg("sampling started")
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		s.Sample(ctx)
		select {
		case <-ctx.Done():
			wg.Wait()
			s.log.Info().Msg("sampling stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Sample runs one measurement cycle.
func (s *Station) Sample(ctx context.Context) error {
	m, err := s.sensor.ReadCompensated()
	if err != nil {
		s.metrics.readErrors.Inc()
		s.log.Error().Err(err).Msg("sensor read failed")
		return err
	}
	level := s.opts.Thresholds.Level(m.Celsius)
	s.store.setInside(m, level, s.now())

	s.metrics.temperature.WithLabelValues("inside").Set(m.Celsius)
	s.metrics.humidity.WithLabelValues("inside").Set(m.PercentRH)
	s.metrics.pressure.Set(m.Pascals)

	s.log.Debug().
		Float64("celsius", m.Celsius).
		Float64("hpa", m.HectoPascals()).
		Float64("rh", m.PercentRH).
		Msg("sample")

	if s.opts.Evaluator != nil {
		if ev, ok := s.opts.Evaluator.Evaluate(m.Celsius); ok {
			if err := s.opts.Notifier.Notify(ctx, ev.Message); err != nil {
				s.log.Error().Err(err).Str("message", ev.Message).Msg("notification failed")
			} else {
				s.metrics.alerts.WithLabelValues(ev.Level.String()).Inc()
				s.log.Info().Str("message", ev.Message).Msg("notification sent")
			}
		}
	}

	if s.opts.Panel != nil && (!s.shown || level != s.lastLevel) {
		if err := s.opts.Panel.ShowLevel(level); err != nil {
			s.log.Warn().Err(err).Msg("display update failed")
		} else {
			s.shown = true
			s.lastLevel = level
		}
	}
	return nil
}

func (s *Station) pollWeather(ctx context.Context) {
	ticker := time.NewTicker(s.opts.WeatherInterval)
	defer ticker.Stop()
	for {
		s.FetchWeather(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// FetchWeather refreshes the outside conditions once. On failure the
// previous conditions are kept, the outside gauges stay NaN until a first
// fetch succeeds.
func (s *Station) FetchWeather(ctx context.Context) {
	if s.opts.Weather == nil {
		return
	}
	c, err := s.opts.Weather.Current(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("outside weather unavailable")
		}
		return
	}
	s.store.setOutside(c, s.now())
	s.setOutsideGauges(c)
}

func (s *Station) setOutsideGauges(c weather.Conditions) {
	s.metrics.temperature.WithLabelValues("outside").Set(c.TemperatureC)
	s.metrics.humidity.WithLabelValues("outside").Set(c.HumidityPct)
}
