package clock

import (
	"sync"
	"time"
)

// Clock supplies the wall time used for schedule evaluation and log timestamps.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time. When Location is set, times are converted
// into it so that schedule windows follow the configured timezone rather
// than the host's.
type RealClock struct {
	Location *time.Location
}

func (c RealClock) Now() time.Time {
	now := time.Now()
	if c.Location != nil {
		return now.In(c.Location)
	}
	return now
}

// MockClock is a settable clock for tests. It is safe for concurrent use.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.mu.Unlock()
}

// Set jumps the clock to t.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	c.CurrentTime = t
	c.mu.Unlock()
}
