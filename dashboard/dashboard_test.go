package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/go-climate/bme280"
	"github.com/rubiojr/go-climate/station"
	"github.com/rubiojr/go-climate/weather"
)

type fixedSensor bme280.Measurement

func (f fixedSensor) ReadCompensated() (bme280.Measurement, error) {
	return bme280.Measurement(f), nil
}

type fixedWeather weather.Conditions

func (f fixedWeather) Current(context.Context) (weather.Conditions, error) {
	return weather.Conditions(f), nil
}

func newTestServer(t *testing.T, sample, fetch bool) *Server {
	t.Helper()
	nop := zerolog.Nop()
	st := station.New(
		fixedSensor{Celsius: 23.456, Pascals: 100653.27, PercentRH: 55.01},
		station.Opts{Weather: fixedWeather{TemperatureC: 20.5, HumidityPct: 63}, Logger: &nop},
	)
	if sample {
		require.NoError(t, st.Sample(context.Background()))
	}
	if fetch {
		st.FetchWeather(context.Background())
	}
	return New(st.Store(), st.Registry(), &nop)
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndex(t *testing.T) {
	w := get(newTestServer(t, true, true), "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "http-equiv=refresh content=10")
	assert.Contains(t, body, "Inside: 23.46 &deg;C, 55.0 %RH, 1006.53 hPa")
	assert.Contains(t, body, "Outside: 20.50 &deg;C, 63.0 %RH")
	assert.Contains(t, body, "Diff: 2.96 °C")
	assert.Contains(t, body, "Status: normal")
}

func TestIndexWithoutOutside(t *testing.T) {
	w := get(newTestServer(t, true, false), "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Outside: N/A &deg;C, N/A %RH")
	assert.Contains(t, w.Body.String(), "Diff: N/A")
}

func TestReadingsJSON(t *testing.T) {
	w := get(newTestServer(t, true, true), "/api/readings")
	require.Equal(t, http.StatusOK, w.Code)

	var r Reading
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	require.NotNil(t, r.Inside)
	require.NotNil(t, r.Outside)
	require.NotNil(t, r.DiffC)
	assert.Equal(t, 23.456, r.Inside.Celsius)
	assert.Equal(t, 63.0, r.Outside.PercentRH)
	assert.InDelta(t, 2.956, *r.DiffC, 1e-9)
	assert.Equal(t, "normal", r.Level)
}

func TestReadingsBeforeFirstSample(t *testing.T) {
	w := get(newTestServer(t, false, false), "/api/readings")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"inside": null, "outside": null, "diff_celsius": null}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, get(newTestServer(t, false, false), "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(newTestServer(t, true, false), "/healthz").Code)
}

func TestMetrics(t *testing.T) {
	w := get(newTestServer(t, true, true), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `climate_temperature_celsius{location="inside"} 23.456`)
	assert.Contains(t, body, `climate_humidity_percent{location="outside"} 63`)
	assert.Contains(t, body, "climate_pressure_pascals 100653.27")
}
