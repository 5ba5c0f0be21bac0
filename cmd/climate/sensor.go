package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/rubiojr/go-climate/bme280"
	"github.com/rubiojr/go-climate/config"
)

// openSensor opens the I²C bus and returns an uninitialized device on it.
func openSensor(cfg *config.Config, log zerolog.Logger) (*bme280.Device, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, errors.Wrap(err, "periph host init")
	}

	bus, err := i2creg.Open(cfg.Sensor.Bus)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open I²C bus %q", cfg.Sensor.Bus)
	}

	opts, err := cfg.Sensor.Options()
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	opts.Logger = &log
	log.Debug().Str("bus", bus.String()).Uint16("address", opts.Address).Msg("bus opened")
	return bme280.New(bme280.NewI2CBus(bus), opts), bus, nil
}
