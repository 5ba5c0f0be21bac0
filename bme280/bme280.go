// Package bme280 drives a Bosch BME280 temperature, pressure and humidity
// sensor over a register bus.
//
// The package owns the whole conversion path: it verifies the chip, waits for
// the calibration image after a soft reset, decodes the factory coefficients
// and runs the datasheet's double precision compensation.
//
// Datasheet:
// https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bme280-ds002.pdf
package bme280

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// State is the position of a Device in its bring-up sequence.
type State uint8

const (
	Uninitialized State = iota
	IdentityVerified
	Resetting
	AwaitingCalibrationReady
	CalibrationReady
	Configured
)

var stateNames = []string{
	"uninitialized",
	"identity-verified",
	"resetting",
	"awaiting-calibration-ready",
	"calibration-ready",
	"configured",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Device is one BME280 on a bus.
//
// A Device is not safe for concurrent use. Each instance owns its own
// calibration and the fine temperature of its current cycle.
type Device struct {
	bus   RegisterBus
	opts  Opts
	state State
	cal   *Calibration
	log   zerolog.Logger
	sleep func(time.Duration)
}

// New returns an uninitialized device on bus. No I/O is done.
//
// A nil opts means DefaultOpts. Zero poll settings fall back to the defaults.
func New(bus RegisterBus, opts *Opts) *Device {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Address == 0 {
		o.Address = DefaultOpts.Address
	}
	if o.PollAttempts <= 0 {
		o.PollAttempts = DefaultOpts.PollAttempts
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultOpts.PollInterval
	}

	dev := &Device{bus: bus, opts: o, sleep: time.Sleep}
	if o.Logger != nil {
		dev.log = *o.Logger
	} else {
		dev.log = zerolog.New(os.Stderr).With().Timestamp().Logger()
		dev.log = dev.log.Level(zerolog.InfoLevel)
	}
	dev.log = dev.log.With().Str("device", "bme280").Logger()
	return dev
}

// NewI2C opens a BME280 on an I²C bus and runs the whole bring-up:
// identity check, reset, calibration read and measurement configuration.
func NewI2C(bus i2c.Bus, opts *Opts) (*Device, error) {
	dev := New(NewI2CBus(bus), opts)
	if err := dev.Start(); err != nil {
		return nil, err
	}
	return dev, nil
}

// Start runs Initialize, ReadCalibration and ConfigureMeasurement.
func (dev *Device) Start() error {
	if err := dev.Initialize(); err != nil {
		return err
	}
	if _, err := dev.ReadCalibration(); err != nil {
		return err
	}
	return dev.ConfigureMeasurement()
}

func (dev *Device) String() string {
	return fmt.Sprintf("BME280{0x%02X, %s}", dev.opts.Address, dev.state)
}

// EnableDebugging logs every state transition.
func (dev *Device) EnableDebugging() {
	dev.log = dev.log.Level(zerolog.DebugLevel)
}

// State returns the current bring-up state.
func (dev *Device) State() State {
	return dev.state
}

// Calibration returns the decoded coefficients, or nil before
// ReadCalibration succeeded.
func (dev *Device) Calibration() *Calibration {
	return dev.cal
}

// Reset forgets the calibration and returns to Uninitialized. The device has
// to be brought up again before it can be read.
func (dev *Device) Reset() {
	dev.cal = nil
	dev.setState(Uninitialized)
}

// Initialize verifies the chip identity, soft-resets it and waits until the
// calibration registers have been loaded.
//
// An identity mismatch aborts before anything is written to the device. On
// any failure the device is left Uninitialized.
func (dev *Device) Initialize() (err error) {
	if dev.state != Uninitialized {
		return errors.Wrapf(ErrInvalidState, "initialize in state %s", dev.state)
	}
	defer func() {
		if err != nil {
			dev.log.Error().Err(err).Msg("initialization failed")
			dev.setState(Uninitialized)
		}
	}()

	id, err := dev.readReg(regID)
	if err != nil {
		return err
	}
	if id != chipID {
		return errors.Wrapf(ErrIdentityMismatch, "chip id 0x%02X, want 0x%02X", id, chipID)
	}
	dev.setState(IdentityVerified)

	if err := dev.writeReg(regReset, resetCommand); err != nil {
		return err
	}
	dev.setState(Resetting)
	dev.sleep(dev.opts.ResetDelay)

	dev.setState(AwaitingCalibrationReady)
	for i := 0; i < dev.opts.PollAttempts; i++ {
		status, err := dev.readReg(regStatus)
		if err != nil {
			return err
		}
		if status&statusImUpdate == 0 {
			dev.log.Debug().Int("polls", i+1).Msg("calibration image ready")
			dev.setState(CalibrationReady)
			return nil
		}
		dev.sleep(dev.opts.PollInterval)
	}
	return errors.Wrapf(ErrCalibrationTimeout, "status bit0 still set after %d polls", dev.opts.PollAttempts)
}

// ReadCalibration reads and decodes both calibration blocks.
//
// It either returns a complete calibration or a *CalibrationReadError; the
// device keeps no partial result.
func (dev *Device) ReadCalibration() (*Calibration, error) {
	if dev.state != CalibrationReady && dev.state != Configured {
		return nil, errors.Wrapf(ErrInvalidState, "read calibration in state %s", dev.state)
	}
	tp, err := dev.readBurst(regCalibTP, calibTPLen)
	if err != nil {
		return nil, calibrationReadError(err)
	}
	h, err := dev.readBurst(regCalibH, calibHLen)
	if err != nil {
		return nil, calibrationReadError(err)
	}
	cal, err := DecodeCalibration(tp, h)
	if err != nil {
		return nil, err
	}
	dev.cal = cal
	dev.log.Debug().Interface("calibration", cal).Msg("calibration decoded")
	return cal, nil
}

func calibrationReadError(err error) error {
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return &CalibrationReadError{IOError: ioErr}
	}
	return err
}

// ConfigureMeasurement writes ctrl_hum, ctrl_meas and config, in that order.
//
// ctrl_hum only takes effect after the following ctrl_meas write, so the
// order is fixed.
func (dev *Device) ConfigureMeasurement() error {
	if dev.state != CalibrationReady && dev.state != Configured {
		return errors.Wrapf(ErrInvalidState, "configure in state %s", dev.state)
	}
	if err := dev.writeReg(regCtrlHum, dev.opts.ctrlHum()); err != nil {
		return err
	}
	if err := dev.writeReg(regCtrlMeas, dev.opts.ctrlMeas()); err != nil {
		return err
	}
	if err := dev.writeReg(regConfig, dev.opts.config()); err != nil {
		return err
	}
	if dev.opts.Mode == Sleep {
		dev.log.Warn().Msg("sleep mode configured, no measurement will run")
		dev.setState(CalibrationReady)
		return nil
	}
	dev.setState(Configured)
	dev.log.Info().
		Str("temperature", dev.opts.Temperature.String()).
		Str("pressure", dev.opts.Pressure.String()).
		Str("humidity", dev.opts.Humidity.String()).
		Str("mode", dev.opts.Mode.String()).
		Str("standby", dev.opts.Standby.String()).
		Msg("measurement configured")
	return nil
}

// ReadRaw reads the eight data registers in a single burst.
//
// In forced mode every call first triggers a conversion and waits for it to
// finish.
func (dev *Device) ReadRaw() (RawSample, error) {
	if dev.state != Configured {
		return RawSample{}, errors.Wrapf(ErrInvalidState, "read in state %s", dev.state)
	}
	if dev.opts.Mode == Forced {
		if err := dev.trigger(); err != nil {
			return RawSample{}, err
		}
	}
	b, err := dev.readBurst(regPressMSB, dataLen)
	if err != nil {
		return RawSample{}, err
	}
	return DecodeRawSample(b)
}

// ReadCompensated reads one sample and converts it.
//
// A failed read leaves the calibration untouched, the next call may succeed.
func (dev *Device) ReadCompensated() (Measurement, error) {
	if dev.cal == nil {
		return Measurement{}, errors.Wrap(ErrInvalidState, "no calibration")
	}
	s, err := dev.ReadRaw()
	if err != nil {
		return Measurement{}, err
	}
	return dev.cal.Compensate(s), nil
}

// Sense fills e with a compensated reading.
func (dev *Device) Sense(e *physic.Env) error {
	m, err := dev.ReadCompensated()
	if err != nil {
		return err
	}
	*e = m.Env()
	return nil
}

// trigger starts one forced conversion and polls until the measuring bit
// clears.
func (dev *Device) trigger() error {
	if err := dev.writeReg(regCtrlMeas, dev.opts.ctrlMeas()); err != nil {
		return err
	}
	for i := 0; i < dev.opts.PollAttempts; i++ {
		dev.sleep(dev.opts.PollInterval)
		status, err := dev.readReg(regStatus)
		if err != nil {
			return err
		}
		if status&statusMeasuring == 0 {
			return nil
		}
	}
	return errors.Wrapf(ErrMeasurementTimeout, "status bit3 still set after %d polls", dev.opts.PollAttempts)
}

// Halt puts the device to sleep mode. Reads fail with ErrInvalidState until
// ConfigureMeasurement runs again; the calibration is kept.
func (dev *Device) Halt() error {
	if dev.state != Configured {
		return nil
	}
	if err := dev.writeReg(regCtrlMeas, dev.opts.ctrlMeas()&^0x03); err != nil {
		return err
	}
	dev.setState(CalibrationReady)
	return nil
}

func (dev *Device) setState(s State) {
	if dev.state != s {
		dev.log.Debug().Str("from", dev.state.String()).Str("to", s.String()).Msg("state")
	}
	dev.state = s
}

func (dev *Device) readReg(reg byte) (byte, error) {
	b, err := dev.readBurst(reg, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (dev *Device) readBurst(reg byte, n int) ([]byte, error) {
	b, err := dev.bus.ReadBurst(dev.opts.Address, reg, n)
	if err != nil {
		return nil, &IOError{Op: "read", Reg: reg, Err: err}
	}
	if len(b) != n {
		return nil, &IOError{Op: "read", Reg: reg, Err: errors.Errorf("short read: %d of %d bytes", len(b), n)}
	}
	return b, nil
}

func (dev *Device) writeReg(reg, value byte) error {
	if err := dev.bus.Write(dev.opts.Address, reg, value); err != nil {
		return &IOError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}
