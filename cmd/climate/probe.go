package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Verify the sensor and print its calibration",
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

			bold := color.New(color.Bold)
			if err := dev.Initialize(); err != nil {
				fmt.Printf("%s %s\n", color.RedString("FAIL"), dev)
				return err
			}
			cal, err := dev.ReadCalibration()
			if err != nil {
				fmt.Printf("%s %s\n", color.RedString("FAIL"), dev)
				return err
			}
			fmt.Printf("%s %s on %s\n", color.GreenString("OK"), dev, bus)

			bold.Println("Temperature")
			fmt.Printf("  T1 %6d  T2 %6d  T3 %6d\n", cal.T1, cal.T2, cal.T3)
			bold.Println("Pressure")
			fmt.Printf("  P1 %6d  P2 %6d  P3 %6d\n", cal.P1, cal.P2, cal.P3)
			fmt.Printf("  P4 %6d  P5 %6d  P6 %6d\n", cal.P4, cal.P5, cal.P6)
			fmt.Printf("  P7 %6d  P8 %6d  P9 %6d\n", cal.P7, cal.P8, cal.P9)
			bold.Println("Humidity")
			fmt.Printf("  H1 %6d  H2 %6d  H3 %6d\n", cal.H1, cal.H2, cal.H3)
			fmt.Printf("  H4 %6d  H5 %6d  H6 %6d\n", cal.H4, cal.H5, cal.H6)
			return nil
		},
	}
}
