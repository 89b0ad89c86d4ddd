// internal/clock/clock.go
package clock

import (
	"sync"
	"time"
)

// Clock is the only source of wall time for the coordinator and the idle reaper,
// so tests can drive activity timestamps without sleeping.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// New returns the system clock.
func New() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a Manual clock set to t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
