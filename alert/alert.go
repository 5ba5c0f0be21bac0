// Package alert turns inside temperatures into warnings and alerts, with a
// cooldown per severity so a lingering condition does not flood the
// recipient.
package alert

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Level classifies a temperature.
type Level int

const (
	Normal Level = iota
	Warning
	Alert
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	case Alert:
		return "alert"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Thresholds in °C. Cold < ColdWarn <= HotWarn < Hot.
type Thresholds struct {
	Cold     float64
	ColdWarn float64
	HotWarn  float64
	Hot      float64
}

// DefaultThresholds are the limits for a living space.
var DefaultThresholds = Thresholds{Cold: 15.0, ColdWarn: 16.5, HotWarn: 28.5, Hot: 30.0}

// Validate checks the ordering of the limits.
func (t Thresholds) Validate() error {
	if !(t.Cold < t.ColdWarn && t.ColdWarn <= t.HotWarn && t.HotWarn < t.Hot) {
		return errors.Errorf("alert: thresholds out of order: %+v", t)
	}
	return nil
}

// Level returns the severity of celsius without touching any cooldown.
func (t Thresholds) Level(celsius float64) Level {
	switch {
	case celsius <= t.Cold || celsius >= t.Hot:
		return Alert
	case celsius <= t.ColdWarn || celsius >= t.HotWarn:
		return Warning
	}
	return Normal
}

// Event is a notification to send.
type Event struct {
	Level   Level
	Celsius float64
	Message string
}

// Evaluator applies the thresholds and tracks the two cooldowns.
type Evaluator struct {
	Thresholds    Thresholds
	WarnCooldown  time.Duration
	AlertCooldown time.Duration

	mu         sync.Mutex
	now        func() time.Time
	warnUntil  time.Time
	alertUntil time.Time
}

// NewEvaluator returns an evaluator with no cooldown running.
func NewEvaluator(t Thresholds, warnCooldown, alertCooldown time.Duration) *Evaluator {
	return &Evaluator{
		Thresholds:    t,
		WarnCooldown:  warnCooldown,
		AlertCooldown: alertCooldown,
		now:           time.Now,
	}
}

// Evaluate returns the event to send for celsius, if any, and starts the
// matching cooldown.
//
// Cold warning, cold alert, hot warning and hot alert are checked in that
// order. Warnings and alerts have separate cooldowns so an escalation is
// never suppressed by an earlier warning.
func (e *Evaluator) Evaluate(celsius float64) (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	warnIdle := !now.Before(e.warnUntil)
	alertIdle := !now.Before(e.alertUntil)
	t := e.Thresholds

	var ev Event
	switch {
	case warnIdle && celsius > t.Cold && celsius <= t.ColdWarn:
		ev = Event{Level: Warning, Celsius: celsius, Message: fmt.Sprintf("Cold Warning: Inside temperature %.1fC is below %.1fC.", celsius, t.ColdWarn)}
	case alertIdle && celsius <= t.Cold:
		ev = Event{Level: Alert, Celsius: celsius, Message: fmt.Sprintf("Cold Alert: Inside temperature %.1fC is below %.1fC.", celsius, t.Cold)}
	case warnIdle && celsius >= t.HotWarn && celsius < t.Hot:
		ev = Event{Level: Warning, Celsius: celsius, Message: fmt.Sprintf("Hot Warning: Inside temperature %.1fC is above %.1fC.", celsius, t.HotWarn)}
	case alertIdle && celsius >= t.Hot:
		ev = Event{Level: Alert, Celsius: celsius, Message: fmt.Sprintf("Hot Alert: Inside temperature %.1fC is above %.1fC.", celsius, t.Hot)}
	default:
		return Event{}, false
	}

	if ev.Level == Warning {
		e.warnUntil = now.Add(e.WarnCooldown)
	} else {
		e.alertUntil = now.Add(e.AlertCooldown)
	}
	return ev, true
}
