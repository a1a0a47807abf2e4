package testutil

import (
	"sync"

	"github.com/roach88/ghostledger/internal/dates"
)

// CalendarClock is a resettable business-date clock for tests and scenarios.
//
// Unlike engine.FixedClock, CalendarClock remembers its start date and can be
// reset to it, so the same scenario can run several times with identical
// event dates.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CalendarClock struct {
	mu     sync.Mutex
	start  dates.Date
	offset int
}

// NewCalendarClock creates a clock whose first Today() is start.
func NewCalendarClock(start dates.Date) *CalendarClock {
	return &CalendarClock{start: start}
}

// Today returns the current date. Implements engine.Clock.
func (c *CalendarClock) Today() dates.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.AddDays(c.offset)
}

// Advance moves the clock forward n days and returns the new date.
// Negative n is ignored; business dates never go backwards.
func (c *CalendarClock) Advance(n int) dates.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > 0 {
		c.offset += n
	}
	return c.start.AddDays(c.offset)
}

// Elapsed returns the days advanced since start.
func (c *CalendarClock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Reset returns the clock to its start date.
func (c *CalendarClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = 0
}
