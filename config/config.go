// Package config loads the station configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rubiojr/go-climate/bme280"
)

// Config represents the application configuration.
type Config struct {
	Sensor   SensorConfig   `yaml:"sensor"`
	Sampling SamplingConfig `yaml:"sampling"`
	HTTP     HTTPConfig     `yaml:"http"`
	Weather  WeatherConfig  `yaml:"weather"`
	Alert    AlertConfig    `yaml:"alert"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
}

// SensorConfig describes the BME280 and the bus it sits on.
type SensorConfig struct {
	Bus          string        `yaml:"bus"` // periph bus name, empty for the first one
	Address      uint16        `yaml:"address"`
	Temperature  string        `yaml:"temperature_oversampling"`
	Pressure     string        `yaml:"pressure_oversampling"`
	Humidity     string        `yaml:"humidity_oversampling"`
	Mode         string        `yaml:"mode"`
	Standby      string        `yaml:"standby"`
	Filter       string        `yaml:"filter"`
	PollAttempts int           `yaml:"poll_attempts"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// SamplingConfig controls the measurement loop.
type SamplingConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// HTTPConfig controls the dashboard.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// WeatherConfig configures the Open-Meteo client.
type WeatherConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BaseURL   string        `yaml:"base_url"`
	Latitude  float64       `yaml:"latitude"`
	Longitude float64       `yaml:"longitude"`
	Interval  time.Duration `yaml:"interval"`
	Timeout   time.Duration `yaml:"timeout"`
}

// AlertConfig holds the temperature thresholds in °C and the cooldowns.
type AlertConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Cold          float64       `yaml:"cold"`
	ColdWarn      float64       `yaml:"cold_warn"`
	HotWarn       float64       `yaml:"hot_warn"`
	Hot           float64       `yaml:"hot"`
	WarnCooldown  time.Duration `yaml:"warn_cooldown"`
	AlertCooldown time.Duration `yaml:"alert_cooldown"`
}

// TwilioConfig holds the SMS gateway credentials.
type TwilioConfig struct {
	BaseURL    string `yaml:"base_url"`
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
}

// DisplayConfig configures the optional ST7735 panel.
type DisplayConfig struct {
	Enabled   bool   `yaml:"enabled"`
	SPIPort   string `yaml:"spi_port"`
	DCPin     string `yaml:"dc_pin"`
	Backlight string `yaml:"backlight_pin"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a default configuration matching the board firmware.
func Default() *Config {
	return &Config{
		Sensor: SensorConfig{
			Address:      bme280.AddrSecondary,
			Temperature:  "4x",
			Pressure:     "4x",
			Humidity:     "4x",
			Mode:         "normal",
			Standby:      "1s",
			Filter:       "4",
			PollAttempts: 100,
			PollInterval: time.Millisecond,
		},
		Sampling: SamplingConfig{
			Interval: 1030 * time.Millisecond, // standby + conversion time
		},
		HTTP: HTTPConfig{
			Listen: ":8080",
		},
		Weather: WeatherConfig{
			Enabled:   true,
			BaseURL:   "https://api.open-meteo.com",
			Latitude:  49.2827,
			Longitude: -123.1207,
			Interval:  time.Minute,
			Timeout:   8 * time.Second,
		},
		Alert: AlertConfig{
			Enabled:       false,
			Cold:          15.0,
			ColdWarn:      16.5,
			HotWarn:       28.5,
			Hot:           30.0,
			WarnCooldown:  30 * time.Minute,
			AlertCooldown: time.Hour,
		},
		Twilio: TwilioConfig{
			BaseURL: "https://api.twilio.com",
		},
		Display: DisplayConfig{
			SPIPort:   "SPI0.1",
			DCPin:     "GPIO9",
			Backlight: "GPIO12",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.ensureDefaults()

	if _, err := cfg.Sensor.Options(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// ensureDefaults fills zero values with the defaults.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sensor.Address == 0 {
		c.Sensor.Address = def.Sensor.Address
	}
	if c.Sensor.Temperature == "" {
		c.Sensor.Temperature = def.Sensor.Temperature
	}
	if c.Sensor.Pressure == "" {
		c.Sensor.Pressure = def.Sensor.Pressure
	}
	if c.Sensor.Humidity == "" {
		c.Sensor.Humidity = def.Sensor.Humidity
	}
	if c.Sensor.Mode == "" {
		c.Sensor.Mode = def.Sensor.Mode
	}
	if c.Sensor.Standby == "" {
		c.Sensor.Standby = def.Sensor.Standby
	}
	if c.Sensor.PollAttempts <= 0 {
		c.Sensor.PollAttempts = def.Sensor.PollAttempts
	}
	if c.Sensor.PollInterval <= 0 {
		c.Sensor.PollInterval = def.Sensor.PollInterval
	}

	if c.Sampling.Interval <= 0 {
		c.Sampling.Interval = def.Sampling.Interval
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = def.HTTP.Listen
	}

	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = def.Weather.BaseURL
	}
	if c.Weather.Interval <= 0 {
		c.Weather.Interval = def.Weather.Interval
	}
	if c.Weather.Timeout <= 0 {
		c.Weather.Timeout = def.Weather.Timeout
	}

	if c.Alert.WarnCooldown <= 0 {
		c.Alert.WarnCooldown = def.Alert.WarnCooldown
	}
	if c.Alert.AlertCooldown <= 0 {
		c.Alert.AlertCooldown = def.Alert.AlertCooldown
	}
	if c.Twilio.BaseURL == "" {
		c.Twilio.BaseURL = def.Twilio.BaseURL
	}

	if c.Display.SPIPort == "" {
		c.Display.SPIPort = def.Display.SPIPort
	}
	if c.Display.DCPin == "" {
		c.Display.DCPin = def.Display.DCPin
	}
	if c.Display.Backlight == "" {
		c.Display.Backlight = def.Display.Backlight
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Options converts the sensor section to driver options.
func (s SensorConfig) Options() (*bme280.Opts, error) {
	opts := bme280.DefaultOpts
	opts.Address = s.Address
	opts.PollAttempts = s.PollAttempts
	opts.PollInterval = s.PollInterval

	var err error
	if opts.Temperature, err = bme280.ParseOversampling(s.Temperature); err != nil {
		return nil, invalid("temperature_oversampling", err)
	}
	if opts.Pressure, err = bme280.ParseOversampling(s.Pressure); err != nil {
		return nil, invalid("pressure_oversampling", err)
	}
	if opts.Humidity, err = bme280.ParseOversampling(s.Humidity); err != nil {
		return nil, invalid("humidity_oversampling", err)
	}
	if opts.Mode, err = bme280.ParseMode(s.Mode); err != nil {
		return nil, invalid("mode", err)
	}
	if opts.Standby, err = bme280.ParseStandby(s.Standby); err != nil {
		return nil, invalid("standby", err)
	}
	if opts.Filter, err = bme280.ParseFilter(s.Filter); err != nil {
		return nil, invalid("filter", err)
	}
	return &opts, nil
}

func invalid(field string, err error) error {
	return errors.Wrap(err, fmt.Sprintf("sensor.%s", field))
}
