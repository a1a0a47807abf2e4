package engine

import (
	"sync/atomic"
	"time"

	"github.com/roach88/ghostledger/internal/dates"
)

// Clock supplies the business date commands run on.
//
// Ledger dates are calendar days; the engine never orders events by time.
type Clock interface {
	Today() dates.Date
}

// SystemClock reads the current UTC date.
type SystemClock struct{}

// Today implements Clock.
func (SystemClock) Today() dates.Date {
	return dates.FromTime(time.Now())
}

// epoch anchors FixedClock's day counter.
var epoch = dates.New(1970, time.January, 1)

// FixedClock reports a settable date.
//
// Thread-safety: FixedClock is safe for concurrent use (atomic operations).
type FixedClock struct {
	days atomic.Int64
}

// NewFixedClock creates a clock stopped at day.
func NewFixedClock(day dates.Date) *FixedClock {
	c := &FixedClock{}
	c.Set(day)
	return c
}

// Today implements Clock.
func (c *FixedClock) Today() dates.Date {
	return epoch.AddDays(int(c.days.Load()))
}

// Set moves the clock to day.
func (c *FixedClock) Set(day dates.Date) {
	c.days.Store(int64(dates.DaysBetween(epoch, day)))
}

// Advance moves the clock forward by n days and returns the new date.
func (c *FixedClock) Advance(n int) dates.Date {
	return epoch.AddDays(int(c.days.Add(int64(n))))
}
