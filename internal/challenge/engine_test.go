package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

var day0 = dates.MustParse("2026-01-01")

func active(start money.Cents) ledger.Challenge {
	return ledger.Challenge{
		ID:               "c1",
		StartDate:        day0,
		StartAmountCents: start,
		Status:           ledger.ChallengeStatusActive,
	}
}

func TestRequiredAmountDoubles(t *testing.T) {
	c := active(100)
	assert.Equal(t, money.Cents(100), RequiredAmount(c))
	c.WeekIndex = 1
	assert.Equal(t, money.Cents(200), RequiredAmount(c))
	c.WeekIndex = 3
	assert.Equal(t, money.Cents(800), RequiredAmount(c))
	c.WeekIndex = 51
	assert.Equal(t, money.Cents(100)<<51, RequiredAmount(c))
}

func TestRecordWeek(t *testing.T) {
	c := active(100)
	c, w, err := RecordWeek(c)
	require.NoError(t, err)
	assert.Equal(t, Week{AmountCents: 100, WeekIndex: 0}, w)
	assert.Equal(t, 1, c.WeekIndex)
	assert.Equal(t, money.Cents(100), c.TotalSavedCents)

	c, w, err = RecordWeek(c)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(200), w.AmountCents)
	assert.Equal(t, money.Cents(300), c.TotalSavedCents)
}

func TestFiftyTwoWeeksCompletes(t *testing.T) {
	c := active(MaxStartAmountCents)
	var err error
	var w Week
	for i := 0; i < ledger.ChallengeWeeks; i++ {
		c, w, err = RecordWeek(c)
		require.NoError(t, err)
	}
	assert.True(t, w.Completed)
	assert.Equal(t, ledger.ChallengeStatusCompleted, c.Status)
	assert.Equal(t, MaxStartAmountCents*((1<<52)-1), c.TotalSavedCents)

	_, _, err = RecordWeek(c)
	assert.True(t, ledger.IsInvalidState(err))
}

func TestFailAndQuit(t *testing.T) {
	c := active(100)
	c.WeekIndex = 4
	c.TotalSavedCents = 1500

	failed, s, err := Fail(c)
	require.NoError(t, err)
	assert.Equal(t, Settlement{PenaltyPercent: 1, PenaltyCents: 15, RedirectedToVaultCents: 1485, ScoreWeekIndex: 3}, s)
	assert.Equal(t, ledger.ChallengeStatusFailed, failed.Status)

	quit, s, err := Quit(c)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(75), s.PenaltyCents)
	assert.Equal(t, money.Cents(1425), s.RedirectedToVaultCents)
	assert.Equal(t, ledger.ChallengeStatusQuit, quit.Status)

	_, _, err = Quit(failed)
	assert.True(t, ledger.IsInvalidState(err))
	_, _, err = Fail(quit)
	assert.True(t, ledger.IsInvalidState(err))
}

func TestSettleFloorsPenalty(t *testing.T) {
	c := active(100)
	c.TotalSavedCents = 99
	_, s, err := Fail(c)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(0), s.PenaltyCents)
	assert.Equal(t, money.Cents(99), s.RedirectedToVaultCents)
	assert.Equal(t, 0, s.ScoreWeekIndex)
}

func TestValidateStart(t *testing.T) {
	assert.NoError(t, ValidateStart(1))
	assert.NoError(t, ValidateStart(MaxStartAmountCents))
	assert.True(t, ledger.IsValidation(ValidateStart(0)))
	assert.True(t, ledger.IsValidation(ValidateStart(MaxStartAmountCents+1)))
}

func TestOwedWeeks(t *testing.T) {
	c := active(100)
	assert.Equal(t, 0, OwedWeeks(c, day0.AddDays(-3)))
	assert.Equal(t, 0, OwedWeeks(c, day0.AddDays(6)))
	assert.Equal(t, 1, OwedWeeks(c, day0.AddDays(7)))
	assert.Equal(t, 3, OwedWeeks(c, day0.AddDays(21)))

	c.WeekIndex = 2
	assert.Equal(t, 1, OwedWeeks(c, day0.AddDays(21)))
	assert.Equal(t, 0, OwedWeeks(c, day0.AddDays(14)))

	assert.Equal(t, 52, OwedWeeks(active(1), day0.AddDays(7*60)))

	c.Status = ledger.ChallengeStatusQuit
	assert.Equal(t, 0, OwedWeeks(c, day0.AddDays(100)))
}

func TestWeekDate(t *testing.T) {
	c := active(100)
	assert.Equal(t, "2026-01-08", WeekDate(c, 1).String())
	assert.Equal(t, "2026-01-22", WeekDate(c, 3).String())
}
