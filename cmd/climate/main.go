// Command climate reads a BME280 and serves the readings.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rubiojr/go-climate/bme280"
	"github.com/rubiojr/go-climate/config"
)

var (
	configPath = "/etc/climate.yaml"
	logLevel   = ""
	logConsole = false
)

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	lvl := cfg.Log.Level
	if logLevel != "" {
		lvl = logLevel
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil {
		return zerolog.Logger{}, errors.Wrapf(err, "failed to parse log level %q", lvl)
	}
	zerolog.SetGlobalLevel(level)

	var log zerolog.Logger
	if logConsole {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return log.Level(level), nil
}

// setup loads the configuration and builds the logger every command uses.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log.Debug().Str("config", configPath).Msg("configuration loaded")
	return cfg, log, nil
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "climate",
		Short:         "BME280 climate station",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "config file path")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "log level (trace, debug, info, warn, error), overrides the config file")
	cmd.PersistentFlags().BoolVar(&logConsole, "log-console", logConsole, "human readable logs")

	cmd.AddCommand(
		newProbeCommand(),
		newReadCommand(),
		newRunCommand(),
	)
	return cmd
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		switch {
		case errors.Is(err, bme280.ErrIdentityMismatch):
			fmt.Fprintln(os.Stderr, "No BME280 answered. Check wiring and the sensor address (0x76 or 0x77).")
		case errors.Is(err, bme280.ErrCalibrationTimeout):
			fmt.Fprintln(os.Stderr, "The sensor never finished loading its calibration. Power cycle it.")
		}
		os.Exit(1)
	}
}
