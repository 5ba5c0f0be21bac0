package bme280

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Oversampling is the number of samples averaged per measurement.
type Oversampling uint8

// Possible oversampling values. Off skips the measurement entirely.
const (
	Off  Oversampling = 0
	O1x  Oversampling = 1
	O2x  Oversampling = 2
	O4x  Oversampling = 3
	O8x  Oversampling = 4
	O16x Oversampling = 5
)

var oversamplingNames = []string{"off", "1x", "2x", "4x", "8x", "16x"}

func (o Oversampling) String() string {
	if int(o) < len(oversamplingNames) {
		return oversamplingNames[o]
	}
	return fmt.Sprintf("Oversampling(%d)", uint8(o))
}

// ParseOversampling accepts the names printed by Oversampling.String.
func ParseOversampling(s string) (Oversampling, error) {
	for i, n := range oversamplingNames {
		if strings.EqualFold(s, n) {
			return Oversampling(i), nil
		}
	}
	return 0, errors.Errorf("bme280: unknown oversampling %q", s)
}

// Mode is the power mode written to ctrl_meas.
type Mode uint8

const (
	Sleep  Mode = 0
	Forced Mode = 1
	Normal Mode = 3
)

func (m Mode) String() string {
	switch m {
	case Sleep:
		return "sleep"
	case Forced:
		return "forced"
	case Normal:
		return "normal"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode accepts "forced" or "normal". Sleep is what Halt is for, a
// device configured to sleep never produces a sample.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{Forced, Normal} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, errors.Errorf("bme280: unknown mode %q", s)
}

// Standby is the inactive time between two measurements in normal mode.
type Standby uint8

const (
	S0_5ms Standby = 0
	S62ms  Standby = 1
	S125ms Standby = 2
	S250ms Standby = 3
	S500ms Standby = 4
	S1s    Standby = 5
	S10ms  Standby = 6
	S20ms  Standby = 7
)

var standbyDurations = []time.Duration{
	500 * time.Microsecond,
	62500 * time.Microsecond,
	125 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	10 * time.Millisecond,
	20 * time.Millisecond,
}

// Duration returns the standby period.
func (s Standby) Duration() time.Duration {
	if int(s) < len(standbyDurations) {
		return standbyDurations[s]
	}
	return 0
}

func (s Standby) String() string {
	return s.Duration().String()
}

// ParseStandby accepts a Go duration matching one of the standby periods,
// e.g. "1s" or "62.5ms".
func ParseStandby(s string) (Standby, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Errorf("bme280: bad standby %q: %v", s, err)
	}
	for i, v := range standbyDurations {
		if v == d {
			return Standby(i), nil
		}
	}
	return 0, errors.Errorf("bme280: unsupported standby %s", d)
}

// Filter is the IIR filter coefficient.
type Filter uint8

const (
	NoFilter Filter = 0
	F2       Filter = 1
	F4       Filter = 2
	F8       Filter = 3
	F16      Filter = 4
)

// ParseFilter accepts "off", "0", "2", "4", "8" or "16".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "off", "0", "":
		return NoFilter, nil
	case "2":
		return F2, nil
	case "4":
		return F4, nil
	case "8":
		return F8, nil
	case "16":
		return F16, nil
	}
	return 0, errors.Errorf("bme280: unknown filter %q", s)
}

// Opts configures the device.
type Opts struct {
	// Address is the 7-bit I²C address.
	Address     uint16
	Temperature Oversampling
	Pressure    Oversampling
	Humidity    Oversampling
	Mode        Mode
	Standby     Standby
	Filter      Filter

	// ResetDelay is waited after the soft reset command.
	ResetDelay time.Duration
	// PollAttempts bounds the status register poll after reset.
	PollAttempts int
	// PollInterval is slept between two status reads.
	PollInterval time.Duration

	// Logger overrides the default stderr logger.
	Logger *zerolog.Logger
}

// DefaultOpts matches the board firmware: x4 oversampling everywhere, normal
// mode, 1s standby and IIR filter 4.
var DefaultOpts = Opts{
	Address:      AddrSecondary,
	Temperature:  O4x,
	Pressure:     O4x,
	Humidity:     O4x,
	Mode:         Normal,
	Standby:      S1s,
	Filter:       F4,
	ResetDelay:   2 * time.Millisecond,
	PollAttempts: 100,
	PollInterval: time.Millisecond,
}

func (o *Opts) ctrlHum() byte {
	return byte(o.Humidity) & 0x07
}

func (o *Opts) ctrlMeas() byte {
	return byte(o.Temperature&0x07)<<5 | byte(o.Pressure&0x07)<<2 | byte(o.Mode&0x03)
}

func (o *Opts) config() byte {
	return byte(o.Standby&0x07)<<5 | byte(o.Filter&0x07)<<2
}
