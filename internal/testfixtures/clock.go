package testfixtures

import (
	"sync"
	"time"

	"github.com/example/facility-reservations/internal/policy"
)

// Clock is the facility clock seen by services under test. It only moves when
// a test moves it.
type Clock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewClock starts at start, or at ReferenceTime (08:00 on the reference
// Monday) when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// NowFunc is passed to services as their time source. A nil clock yields time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// SetLocal moves the clock to an HH:MM wall-clock time on day in the facility zone.
func (c *Clock) SetLocal(day policy.Date, clock string) time.Time {
	t := At(day, clock)
	c.Set(t)
	return t
}

// Advance steps the clock forward, typically past a PIN lockout expiry.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
