package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ghostledger/internal/dates"
)

var start = dates.MustParse("2026-01-01")

func TestCalendarClock_StartsAtStart(t *testing.T) {
	clock := NewCalendarClock(start)
	assert.Equal(t, "2026-01-01", clock.Today().String())
	assert.Equal(t, 0, clock.Elapsed())
}

func TestCalendarClock_Advance(t *testing.T) {
	clock := NewCalendarClock(start)

	assert.Equal(t, "2026-01-08", clock.Advance(7).String())
	assert.Equal(t, "2026-02-01", clock.Advance(24).String())
	assert.Equal(t, "2026-02-01", clock.Advance(-3).String(), "never goes backwards")
	assert.Equal(t, 31, clock.Elapsed())
}

func TestCalendarClock_Reset(t *testing.T) {
	clock := NewCalendarClock(start)
	clock.Advance(10)

	clock.Reset()
	assert.Equal(t, start, clock.Today())
}

func TestCalendarClock_ThreadSafe(t *testing.T) {
	clock := NewCalendarClock(start)
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, numGoroutines, clock.Elapsed())
	assert.Equal(t, start.AddDays(numGoroutines), clock.Today())
}
