package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rubiojr/go-climate/alert"
	"github.com/rubiojr/go-climate/config"
	"github.com/rubiojr/go-climate/dashboard"
	"github.com/rubiojr/go-climate/display"
	"github.com/rubiojr/go-climate/station"
	"github.com/rubiojr/go-climate/weather"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Sample continuously and serve the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, log)
		},
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	dev, bus, err := openSensor(cfg, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	// Initialization failures abort the pipeline, steady state read errors
	// are handled per cycle by the station.
	if err := dev.Start(); err != nil {
		return err
	}
	defer dev.Halt()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	opts := station.Opts{
		Interval:        cfg.Sampling.Interval,
		WeatherInterval: cfg.Weather.Interval,
		Thresholds:      thresholds(cfg),
		Registry:        reg,
		Logger:          &log,
	}

	if cfg.Weather.Enabled {
		wc := weather.New(weather.Opts{
			BaseURL:   cfg.Weather.BaseURL,
			Latitude:  cfg.Weather.Latitude,
			Longitude: cfg.Weather.Longitude,
			Timeout:   cfg.Weather.Timeout,
		})
		wc.SetLogger(log)
		opts.Weather = wc
	}

	if cfg.Alert.Enabled {
		th := thresholds(cfg)
		if err := th.Validate(); err != nil {
			return err
		}
		opts.Evaluator = alert.NewEvaluator(th, cfg.Alert.WarnCooldown, cfg.Alert.AlertCooldown)
		if cfg.Twilio.AccountSID != "" {
			n := alert.NewTwilioNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, cfg.Twilio.To)
			n.BaseURL = cfg.Twilio.BaseURL
			opts.Notifier = n
		} else {
			log.Warn().Msg("alerts enabled without twilio credentials, alerts are only logged")
		}
	}

	if cfg.Display.Enabled {
		d, err := display.Open(display.Opts{
			SPIPort:   cfg.Display.SPIPort,
			DCPin:     cfg.Display.DCPin,
			Backlight: cfg.Display.Backlight,
		})
		if err != nil {
			return errors.Wrap(err, "open display")
		}
		defer d.Close()
		if err := d.PowerOn(); err != nil {
			return err
		}
		defer d.PowerOff()
		opts.Panel = d
	}

	st := station.New(dev, opts)
	web := dashboard.New(st.Store(), reg, &log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		err := web.Run(ctx, cfg.HTTP.Listen)
		if err != nil {
			log.Error().Err(err).Msg("web server failed")
			cancel()
		}
		errc <- err
	}()

	if err := st.Run(ctx); err != nil {
		return err
	}
	cancel()
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func thresholds(cfg *config.Config) alert.Thresholds {
	return alert.Thresholds{
		Cold:     cfg.Alert.Cold,
		ColdWarn: cfg.Alert.ColdWarn,
		HotWarn:  cfg.Alert.HotWarn,
		Hot:      cfg.Alert.Hot,
	}
}
