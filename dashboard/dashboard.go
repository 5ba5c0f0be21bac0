// Package dashboard serves the latest readings over HTTP: a small auto
// refreshing HTML page, a JSON API and the Prometheus metrics.
package dashboard

import (
	"context"
	"html/template"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rubiojr/go-climate/station"
)

var page = template.Must(template.New("index").Parse(`<!doctype html>
<meta charset=utf-8>
<meta http-equiv=refresh content=10>
<title>Climate</title>
<h1>Climate Monitor</h1>
<p>Inside: {{.InsideC}} &deg;C, {{.InsideRH}} %RH, {{.InsideHPa}} hPa</p>
<p>Outside: {{.OutsideC}} &deg;C, {{.OutsideRH}} %RH</p>
<p>Diff: {{.Diff}}</p>
<p>Status: {{.Level}}</p>
{{if .UpdatedAt}}<p><small>Updated {{.UpdatedAt}}</small></p>{{end}}
`))

// Server is the dashboard HTTP server.
type Server struct {
	store    *station.Store
	gatherer prometheus.Gatherer
	engine   *gin.Engine
	log      zerolog.Logger
}

// New builds the routes. gatherer may be nil, in which case /metrics is not
// served.
func New(store *station.Store, gatherer prometheus.Gatherer, logger *zerolog.Logger) *Server {
	s := &Server{store: store, gatherer: gatherer}
	if logger != nil {
		s.log = *logger
	} else {
		s.log = zerolog.New(os.Stderr).With().Timestamp().Logger()
		s.log = s.log.Level(zerolog.InfoLevel)
	}
	s.log = s.log.With().Str("component", "dashboard").Logger()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	r.SetHTMLTemplate(page)

	r.GET("/", s.index)
	r.GET("/api/readings", s.readings)
	r.GET("/healthz", s.health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	s.engine = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("web server started")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("took", time.Since(start)).
		Msg("request")
}

type pageData struct {
	InsideC, InsideRH, InsideHPa string
	OutsideC, OutsideRH          string
	Diff                         string
	Level                        string
	UpdatedAt                    string
}

func (s *Server) index(c *gin.Context) {
	snap := s.store.Snapshot()
	d := pageData{
		InsideC:   "N/A",
		InsideRH:  "N/A",
		InsideHPa: "N/A",
		OutsideC:  format(snap.Outside.TemperatureC, 2),
		OutsideRH: format(snap.Outside.HumidityPct, 1),
		Diff:      "N/A",
		Level:     "waiting for sensor",
	}
	if snap.HasInside() {
		d.InsideC = format(snap.Inside.Celsius, 2)
		d.InsideRH = format(snap.Inside.PercentRH, 1)
		d.InsideHPa = format(snap.Inside.HectoPascals(), 2)
		d.Level = snap.Level.String()
		d.UpdatedAt = snap.InsideAt.Format(time.RFC3339)
		if diff := snap.Inside.Celsius - snap.Outside.TemperatureC; !math.IsNaN(diff) {
			d.Diff = format(diff, 2) + " °C"
		}
	}
	c.HTML(http.StatusOK, "index", d)
}

// Reading is the JSON shape of /api/readings. Unknown values are null.
type Reading struct {
	Inside  *Inside  `json:"inside"`
	Outside *Outside `json:"outside"`
	DiffC   *float64 `json:"diff_celsius"`
	Level   string   `json:"level,omitempty"`
}

// Inside is the sensor part of Reading.
type Inside struct {
	Celsius   float64   `json:"celsius"`
	Pascals   float64   `json:"pascals"`
	PercentRH float64   `json:"percent_rh"`
	At        time.Time `json:"at"`
}

// Outside is the weather part of Reading.
type Outside struct {
	Celsius   float64   `json:"celsius"`
	PercentRH float64   `json:"percent_rh"`
	At        time.Time `json:"at"`
}

func (s *Server) readings(c *gin.Context) {
	snap := s.store.Snapshot()
	var r Reading
	if snap.HasInside() {
		r.Inside = &Inside{
			Celsius:   snap.Inside.Celsius,
			Pascals:   snap.Inside.Pascals,
			PercentRH: snap.Inside.PercentRH,
			At:        snap.InsideAt,
		}
		r.Level = snap.Level.String()
	}
	if snap.Outside.Valid() && !snap.OutsideAt.IsZero() {
		r.Outside = &Outside{
			Celsius:   snap.Outside.TemperatureC,
			PercentRH: snap.Outside.HumidityPct,
			At:        snap.OutsideAt,
		}
	}
	if r.Inside != nil && r.Outside != nil {
		diff := r.Inside.Celsius - r.Outside.Celsius
		r.DiffC = &diff
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) health(c *gin.Context) {
	if !s.store.Snapshot().HasInside() {
		c.String(http.StatusServiceUnavailable, "no reading yet")
		return
	}
	c.String(http.StatusOK, "ok")
}

func format(v float64, prec int) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
