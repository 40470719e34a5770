package clock

import (
	"sync"
	"time"
)

// Clock abstracts time so the debounce, pulse and heartbeat delays can be
// simulated in tests instead of slept through.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Real delegates to the time package.
type Real struct{}

func (Real) Now() time.Time        { return time.Now() }
func (Real) Sleep(d time.Duration) { time.Sleep(d) }

// Manual is a test clock. Sleep advances the clock instantly and records
// the requested duration; Now returns the accumulated simulated time.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration

	// OnSleep, if set, is called after each Sleep with the total number
	// of sleeps so far. Tests use it to flip pin state mid-sequence or
	// to stop a loop.
	OnSleep func(n int)
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Sleep(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.sleeps = append(m.sleeps, d)
	n := len(m.sleeps)
	cb := m.OnSleep
	m.mu.Unlock()

	if cb != nil {
		cb(n)
	}
}

// Sleeps returns a copy of every duration passed to Sleep, in order.
func (m *Manual) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}
