package station

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	pressure    prometheus.Gauge
	readErrors  prometheus.Counter
	alerts      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "climate_temperature_celsius",
			Help: "Air temperature (units: degrees Celsius)",
		}, []string{"location"}),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "climate_humidity_percent",
			Help: "Relative humidity (units: % RH)",
		}, []string{"location"}),
		pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "climate_pressure_pascals",
			Help: "Inside atmospheric pressure (units: Pa)",
		}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "climate_sensor_read_errors_total",
			Help: "Failed sensor sampling cycles",
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "climate_alerts_sent_total",
			Help: "Temperature notifications sent",
		}, []string{"level"}),
	}
	reg.MustRegister(m.temperature, m.humidity, m.pressure, m.readErrors, m.alerts)
	return m
}
