package bme280

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrIdentityMismatch is returned when the chip ID register does not hold
	// the BME280 signature. It is not retried.
	ErrIdentityMismatch = errors.New("bme280: identity mismatch")
	// ErrCalibrationTimeout is returned when the calibration image never
	// settled within the poll budget.
	ErrCalibrationTimeout = errors.New("bme280: calibration timeout")
	// ErrMeasurementTimeout is returned when a forced conversion did not
	// finish within the poll budget.
	ErrMeasurementTimeout = errors.New("bme280: measurement timeout")
	// ErrInvalidState is returned when an operation is called out of order.
	ErrInvalidState = errors.New("bme280: invalid state")
)

// IOError reports a failed bus transaction.
type IOError struct {
	Op  string
	Reg byte
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("bme280: %s 0x%02X: %v", e.Op, e.Reg, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// CalibrationReadError is an IOError raised while reading one of the two
// calibration blocks. No calibration is returned alongside it.
type CalibrationReadError struct {
	*IOError
}

func (e *CalibrationReadError) Error() string {
	return "bme280: calibration read: " + e.IOError.Error()
}

func (e *CalibrationReadError) Unwrap() error { return e.IOError }
