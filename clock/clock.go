// Package clock abstracts the wall clock so request-governance arithmetic
// can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Manual is a settable clock. The zero value is unusable; construct with
// NewManual.
type Manual struct {
	mux sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.now = m.now.Add(d)
}

func (m *Manual) Set(t time.Time) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.now = t
}
