// Package weather fetches current outside conditions from the Open-Meteo
// forecast API.
package weather

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Conditions are the current outside temperature and humidity.
type Conditions struct {
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	Time         time.Time `json:"time"`
}

// Unknown is used before the first successful fetch.
func Unknown() Conditions {
	return Conditions{TemperatureC: math.NaN(), HumidityPct: math.NaN()}
}

// Valid reports whether both values are known.
func (c Conditions) Valid() bool {
	return !math.IsNaN(c.TemperatureC) && !math.IsNaN(c.HumidityPct)
}

// Opts configures a Client.
type Opts struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
	Timeout   time.Duration
}

// Client is an Open-Meteo client.
type Client struct {
	opts Opts
	http *http.Client
	log  zerolog.Logger
}

// New returns a client for the given location.
func New(opts Opts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.open-meteo.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	c := &Client{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
	}
	c.log = zerolog.New(os.Stderr).With().Timestamp().Str("component", "weather").Logger()
	c.log = c.log.Level(zerolog.InfoLevel)
	return c
}

// SetLogger replaces the client logger.
func (c *Client) SetLogger(l zerolog.Logger) {
	c.log = l.With().Str("component", "weather").Logger()
}

type forecast struct {
	Current struct {
		Time        string   `json:"time"`
		Temperature *float64 `json:"temperature_2m"`
		Humidity    *float64 `json:"relative_humidity_2m"`
	} `json:"current"`
}

// Current fetches the current conditions.
func (c *Client) Current(ctx context.Context) (Conditions, error) {
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return Unknown(), errors.Wrap(err, "bad base url")
	}
	u.Path = "/v1/forecast"
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.opts.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.opts.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Unknown(), errors.Wrap(err, "build request")
	}
	c.log.Debug().Str("url", u.String()).Msg("fetching current weather")
	resp, err := c.http.Do(req)
	if err != nil {
		return Unknown(), errors.Wrap(err, "fetch current weather")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unknown(), errors.Errorf("weather: unexpected status %s", resp.Status)
	}

	var f forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return Unknown(), errors.Wrap(err, "decode forecast")
	}
	if f.Current.Temperature == nil || f.Current.Humidity == nil {
		return Unknown(), errors.New("weather: response misses current temperature or humidity")
	}

	out := Conditions{
		TemperatureC: *f.Current.Temperature,
		HumidityPct:  *f.Current.Humidity,
	}
	// Open-Meteo reports local ISO8601 without seconds by default.
	if t, err := time.Parse("2006-01-02T15:04", f.Current.Time); err == nil {
		out.Time = t
	}
	return out, nil
}
