package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ghostledger/internal/dates"
)

func TestFixedClock_Today(t *testing.T) {
	day := dates.MustParse("2026-03-15")
	c := NewFixedClock(day)
	assert.Equal(t, day, c.Today())
}

func TestFixedClock_Advance(t *testing.T) {
	c := NewFixedClock(dates.MustParse("2026-12-30"))

	assert.Equal(t, "2027-01-06", c.Advance(7).String())
	assert.Equal(t, "2027-01-06", c.Today().String())

	c.Set(dates.MustParse("2026-01-01"))
	assert.Equal(t, "2026-01-01", c.Today().String())
}

func TestFixedClock_ConcurrentAdvance(t *testing.T) {
	c := NewFixedClock(dates.MustParse("2026-01-01"))
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			c.Advance(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, "2026-02-20", c.Today().String())
}

func TestSystemClock_Today(t *testing.T) {
	got := SystemClock{}.Today()
	want := dates.FromTime(time.Now())
	assert.LessOrEqual(t, dates.DaysBetween(got, want), 1)
}
