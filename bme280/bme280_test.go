package bme280

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyBus() *fakeBus {
	bus := newFakeBus()
	tp, h := encodeCalibration(&datasheetCalibration)
	bus.load(regCalibTP, tp)
	bus.load(regCalibH, h)
	bus.load(regPressMSB, datasheetBurst)
	return bus
}

func TestStartSequence(t *testing.T) {
	bus := readyBus()
	bus.status = []byte{0x01, 0x01, 0x00}
	dev := newTestDevice(bus)

	require.NoError(t, dev.Start())
	assert.Equal(t, Configured, dev.State())
	assert.Equal(t, []string{
		"R D0[1]",
		"W E0=B6",
		"R F3[1]",
		"R F3[1]",
		"R F3[1]",
		"R 88[26]",
		"R E1[7]",
		"W F2=03",
		"W F4=6F",
		"W F5=A8",
	}, bus.ops())
	for _, tx := range bus.log {
		assert.Equal(t, AddrSecondary, tx.addr)
	}
	assert.Equal(t, datasheetCalibration, *dev.Calibration())
}

func TestIdentityMismatch(t *testing.T) {
	bus := readyBus()
	bus.regs[regID] = 0x58 // BMP280
	dev := newTestDevice(bus)

	err := dev.Initialize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIdentityMismatch))
	assert.Equal(t, Uninitialized, dev.State())
	assert.Equal(t, []string{"R D0[1]"}, bus.ops(), "no reset and no calibration read")
}

func TestCalibrationTimeout(t *testing.T) {
	bus := readyBus()
	bus.status = []byte{0x09} // im_update never clears
	opts := quietOpts()
	opts.PollAttempts = 5
	dev := New(bus, opts)
	var slept int
	dev.sleep = func(time.Duration) { slept++ }

	err := dev.Initialize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCalibrationTimeout))
	assert.Equal(t, Uninitialized, dev.State())

	var polls int
	for _, tx := range bus.log {
		if tx.reg == regStatus {
			polls++
		}
	}
	assert.Equal(t, 5, polls)
	assert.Equal(t, 6, slept, "reset delay plus one sleep per poll")
}

func TestInitializeIOError(t *testing.T) {
	bus := readyBus()
	bus.failAt[regReset] = errBus
	dev := newTestDevice(bus)

	err := dev.Initialize()
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "write", ioErr.Op)
	assert.Equal(t, byte(regReset), ioErr.Reg)
	assert.True(t, errors.Is(err, errBus))
	assert.Equal(t, Uninitialized, dev.State())
}

func TestCalibrationReadAllOrNothing(t *testing.T) {
	for _, reg := range []byte{regCalibTP, regCalibH} {
		bus := readyBus()
		bus.failAt[reg] = errBus
		dev := newTestDevice(bus)
		require.NoError(t, dev.Initialize())

		cal, err := dev.ReadCalibration()
		assert.Nil(t, cal)
		assert.Nil(t, dev.Calibration())

		var calErr *CalibrationReadError
		require.True(t, errors.As(err, &calErr), "reg 0x%02X", reg)
		assert.Equal(t, reg, calErr.Reg)
		var ioErr *IOError
		assert.True(t, errors.As(err, &ioErr))
		assert.True(t, errors.Is(err, errBus))
	}
}

func TestConfigureWritesHumidityFirst(t *testing.T) {
	bus := readyBus()
	opts := quietOpts()
	opts.Humidity = O1x
	opts.Temperature = O2x
	opts.Pressure = O16x
	opts.Mode = Forced
	opts.Standby = S10ms
	opts.Filter = F16
	dev := New(bus, opts)
	dev.sleep = func(time.Duration) {}
	require.NoError(t, dev.Initialize())
	bus.log = nil

	require.NoError(t, dev.ConfigureMeasurement())
	assert.Equal(t, []string{"W F2=01", "W F4=55", "W F5=D0"}, bus.ops())
}

func TestReadCompensated(t *testing.T) {
	bus := readyBus()
	dev := newTestDevice(bus)
	require.NoError(t, dev.Start())
	bus.log = nil

	m, err := dev.ReadCompensated()
	require.NoError(t, err)
	assert.Equal(t, []string{"R F7[8]"}, bus.ops(), "one burst per sample")
	assert.InDelta(t, 25.08, m.Celsius, 1e-2)
	assert.InDelta(t, 100653.27, m.Pascals, 5e-2)
	assert.InDelta(t, 55.0007, m.PercentRH, 1e-2)
}

func TestReadFailureKeepsCalibration(t *testing.T) {
	bus := readyBus()
	dev := newTestDevice(bus)
	require.NoError(t, dev.Start())
	cal := dev.Calibration()

	bus.failAt[regPressMSB] = errBus
	_, err := dev.ReadCompensated()
	require.Error(t, err)
	assert.Same(t, cal, dev.Calibration())
	assert.Equal(t, Configured, dev.State())

	delete(bus.failAt, regPressMSB)
	_, err = dev.ReadCompensated()
	assert.NoError(t, err)
}

func TestOutOfOrderCalls(t *testing.T) {
	dev := newTestDevice(readyBus())

	_, err := dev.ReadCalibration()
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.True(t, errors.Is(dev.ConfigureMeasurement(), ErrInvalidState))
	_, err = dev.ReadCompensated()
	assert.True(t, errors.Is(err, ErrInvalidState))

	require.NoError(t, dev.Start())
	assert.True(t, errors.Is(dev.Initialize(), ErrInvalidState))

	dev.Reset()
	assert.Equal(t, Uninitialized, dev.State())
	assert.Nil(t, dev.Calibration())
	assert.NoError(t, dev.Start())
}

func TestHalt(t *testing.T) {
	bus := readyBus()
	dev := newTestDevice(bus)
	require.NoError(t, dev.Start())
	bus.log = nil

	require.NoError(t, dev.Halt())
	assert.Equal(t, []string{"W F4=6C"}, bus.ops())
	assert.Equal(t, CalibrationReady, dev.State())

	_, err := dev.ReadCompensated()
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, []string{"W F4=6C"}, bus.ops(), "no read after halt")
	assert.NotNil(t, dev.Calibration())

	require.NoError(t, dev.ConfigureMeasurement())
	_, err = dev.ReadCompensated()
	assert.NoError(t, err)
}

func TestForcedModeTriggersEveryRead(t *testing.T) {
	bus := readyBus()
	opts := quietOpts()
	opts.Mode = Forced
	dev := New(bus, opts)
	dev.sleep = func(time.Duration) {}
	require.NoError(t, dev.Start())
	bus.log = nil
	bus.status = []byte{0x08, 0x08, 0x00}

	m, err := dev.ReadCompensated()
	require.NoError(t, err)
	assert.InDelta(t, 25.08, m.Celsius, 1e-2)
	_, err = dev.ReadCompensated()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"W F4=6D",
		"R F3[1]",
		"R F3[1]",
		"R F3[1]",
		"R F7[8]",
		"W F4=6D",
		"R F3[1]",
		"R F7[8]",
	}, bus.ops())
}

func TestForcedModeTimeout(t *testing.T) {
	bus := readyBus()
	opts := quietOpts()
	opts.Mode = Forced
	opts.PollAttempts = 3
	dev := New(bus, opts)
	dev.sleep = func(time.Duration) {}
	require.NoError(t, dev.Start())
	bus.log = nil
	bus.status = []byte{0x08}

	_, err := dev.ReadRaw()
	assert.True(t, errors.Is(err, ErrMeasurementTimeout))
	assert.Equal(t, []string{"W F4=6D", "R F3[1]", "R F3[1]", "R F3[1]"}, bus.ops())
	assert.Equal(t, Configured, dev.State(), "the next read may succeed")
}

func TestSleepModeNeverReads(t *testing.T) {
	bus := readyBus()
	opts := quietOpts()
	opts.Mode = Sleep
	dev := New(bus, opts)
	dev.sleep = func(time.Duration) {}

	require.NoError(t, dev.Start())
	assert.Equal(t, CalibrationReady, dev.State())
	bus.log = nil

	_, err := dev.ReadRaw()
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Empty(t, bus.ops())
}

func TestOptsRegisterValues(t *testing.T) {
	o := DefaultOpts
	assert.Equal(t, byte(0x03), o.ctrlHum())
	assert.Equal(t, byte(0x6F), o.ctrlMeas())
	assert.Equal(t, byte(0xA8), o.config())
}

func TestParseOpts(t *testing.T) {
	os, err := ParseOversampling("16X")
	require.NoError(t, err)
	assert.Equal(t, O16x, os)
	_, err = ParseOversampling("3x")
	assert.Error(t, err)

	m, err := ParseMode("normal")
	require.NoError(t, err)
	assert.Equal(t, Normal, m)
	m, err = ParseMode("Forced")
	require.NoError(t, err)
	assert.Equal(t, Forced, m)
	_, err = ParseMode("sleep")
	assert.Error(t, err)

	s, err := ParseStandby("62.5ms")
	require.NoError(t, err)
	assert.Equal(t, S62ms, s)
	_, err = ParseStandby("2s")
	assert.Error(t, err)

	f, err := ParseFilter("8")
	require.NoError(t, err)
	assert.Equal(t, F8, f)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "configured", Configured.String())
	assert.Equal(t, "State(42)", State(42).String())
}
