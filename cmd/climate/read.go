package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rubiojr/go-climate/alert"
)

func newReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Take one reading and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			dev, bus, err := openSensor(cfg, log)
			if err != nil {
				return err
			}
			defer bus.Close()

			if err := dev.Start(); err != nil {
				return err
			}
			defer dev.Halt()

			// The data registers hold reset values until the first conversion,
			// about 30 ms at 4x oversampling.
			time.Sleep(50 * time.Millisecond)
			m, err := dev.ReadCompensated()
			if err != nil {
				return err
			}

			level := thresholds(cfg).Level(m.Celsius)
			temp := fmt.Sprintf("%.2f °C", m.Celsius)
			switch level {
			case alert.Warning:
				temp = color.YellowString(temp)
			case alert.Alert:
				temp = color.RedString(temp)
			default:
				temp = color.GreenString(temp)
			}

			fmt.Printf("Temperature: %s (%s)\n", temp, level)
			fmt.Printf("Pressure:    %.2f hPa\n", m.HectoPascals())
			fmt.Printf("Humidity:    %.1f %%RH\n", m.PercentRH)
			return nil
		},
	}
}
