package station

import (
	"sync"
	"time"

	"github.com/rubiojr/go-climate/alert"
	"github.com/rubiojr/go-climate/bme280"
	"github.com/rubiojr/go-climate/weather"
)

// Snapshot is the latest state of the station.
type Snapshot struct {
	Inside    bme280.Measurement
	InsideAt  time.Time // zero until the first good sample
	Level     alert.Level
	Outside   weather.Conditions
	OutsideAt time.Time
}

// HasInside reports whether a sample was ever stored.
func (s Snapshot) HasInside() bool {
	return !s.InsideAt.IsZero()
}

// Store holds the latest snapshot. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStore returns a store with unknown outside conditions.
func NewStore() *Store {
	return &Store{snap: Snapshot{Outside: weather.Unknown()}}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) setInside(m bme280.Measurement, level alert.Level, at time.Time) {
	s.mu.Lock()
	s.snap.Inside = m
	s.snap.Level = level
	s.snap.InsideAt = at
	s.mu.Unlock()
}

func (s *Store) setOutside(c weather.Conditions, at time.Time) {
	s.mu.Lock()
	s.snap.Outside = c
	s.snap.OutsideAt = at
	s.mu.Unlock()
}
