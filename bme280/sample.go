package bme280

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
)

// RawSample holds the uncompensated ADC codes of one measurement cycle.
type RawSample struct {
	Pressure    int32 // 20 bits
	Temperature int32 // 20 bits
	Humidity    int32 // 16 bits
}

// DecodeRawSample decodes the 8 data registers starting at 0xF7.
func DecodeRawSample(b []byte) (RawSample, error) {
	if len(b) != dataLen {
		return RawSample{}, errors.Errorf("bme280: data burst is %d bytes, want %d", len(b), dataLen)
	}
	return RawSample{
		Pressure:    int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2])>>4,
		Temperature: int32(b[3])<<12 | int32(b[4])<<4 | int32(b[5])>>4,
		Humidity:    int32(b[6])<<8 | int32(b[7]),
	}, nil
}

// Measurement is a compensated reading.
type Measurement struct {
	Celsius   float64 `json:"celsius"`
	Pascals   float64 `json:"pascals"`
	PercentRH float64 `json:"percent_rh"`
}

// Env converts m to periph units.
func (m Measurement) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(m.Celsius*float64(physic.Celsius)),
		Pressure:    physic.Pressure(m.Pascals * float64(physic.Pascal)),
		Humidity:    physic.RelativeHumidity(m.PercentRH * float64(physic.PercentRH)),
	}
}

// HectoPascals returns the pressure in hPa.
func (m Measurement) HectoPascals() float64 {
	return m.Pascals / 100
}
