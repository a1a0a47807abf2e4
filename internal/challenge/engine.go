// Package challenge implements the 52-week doubling savings challenge.
//
// Week k (0-based) requires start * 2^k. After 52 successful weeks the
// challenge completes. Failing a week costs 1% of the saved total and quitting
// costs 5%; the rest is redirected to a vault.
package challenge

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

const (
	FailPenaltyPercent int64 = 1
	QuitPenaltyPercent int64 = 5
	DaysPerWeek              = 7
)

// MaxStartAmountCents is the largest start amount whose full 52-week total
// still fits in int64 cents.
const MaxStartAmountCents money.Cents = math.MaxInt64 >> ledger.ChallengeWeeks

// Week is the outcome of a successful week.
type Week struct {
	AmountCents money.Cents `json:"amount_cents"`
	WeekIndex   int         `json:"week_index"`
	Completed   bool        `json:"completed"`
}

// Settlement is the outcome of a fail or quit.
type Settlement struct {
	PenaltyPercent         int64       `json:"penalty_percent"`
	PenaltyCents           money.Cents `json:"penalty_cents"`
	RedirectedToVaultCents money.Cents `json:"redirected_to_vault_cents"`
	ScoreWeekIndex         int         `json:"score_week_index"`
}

// ValidateStart checks a start amount.
func ValidateStart(amount money.Cents) error {
	if amount <= 0 {
		return ledger.NewValidationError("start amount must be > 0")
	}
	if amount > MaxStartAmountCents {
		return ledger.NewValidationError("start amount must be <= %d cents", MaxStartAmountCents)
	}
	return nil
}

// RequiredAmount returns the amount due for the current week.
func RequiredAmount(c ledger.Challenge) money.Cents {
	return money.Mul(c.StartAmountCents, decimal.NewFromInt(int64(1)<<uint(c.WeekIndex)))
}

// RecordWeek advances an ACTIVE challenge by one successful week.
func RecordWeek(c ledger.Challenge) (ledger.Challenge, Week, error) {
	if err := requireActive(c); err != nil {
		return c, Week{}, err
	}
	amount := RequiredAmount(c)
	done := c.WeekIndex
	c.WeekIndex++
	c.TotalSavedCents += amount
	if c.WeekIndex >= ledger.ChallengeWeeks {
		c.Status = ledger.ChallengeStatusCompleted
	}
	return c, Week{
		AmountCents: amount,
		WeekIndex:   done,
		Completed:   c.Status == ledger.ChallengeStatusCompleted,
	}, nil
}

// Fail terminates an ACTIVE challenge after a missed week.
func Fail(c ledger.Challenge) (ledger.Challenge, Settlement, error) {
	return settle(c, FailPenaltyPercent, ledger.ChallengeStatusFailed)
}

// Quit terminates an ACTIVE challenge at the user's request.
func Quit(c ledger.Challenge) (ledger.Challenge, Settlement, error) {
	return settle(c, QuitPenaltyPercent, ledger.ChallengeStatusQuit)
}

func settle(c ledger.Challenge, pct int64, status ledger.ChallengeStatus) (ledger.Challenge, Settlement, error) {
	if err := requireActive(c); err != nil {
		return c, Settlement{}, err
	}
	penalty, redirect := money.Split(c.TotalSavedCents, pct)
	s := Settlement{
		PenaltyPercent:         pct,
		PenaltyCents:           penalty,
		RedirectedToVaultCents: redirect,
		ScoreWeekIndex:         max(0, c.WeekIndex-1),
	}
	c.Status = status
	c.PenaltyCents = penalty
	c.RedirectedCents = redirect
	return c, s, nil
}

func requireActive(c ledger.Challenge) error {
	if c.Status != ledger.ChallengeStatusActive {
		return ledger.NewInvalidStateError("challenge", c.ID, "challenge is %s", c.Status)
	}
	return nil
}

// WeeksElapsed returns the number of whole weeks from start to today, or 0
// if today precedes start.
func WeeksElapsed(start, today dates.Date) int {
	days := dates.DaysBetween(start, today)
	if days < 0 {
		return 0
	}
	return days / DaysPerWeek
}

// OwedWeeks returns how many weeks catch-up must synthesize for c on today.
// Inactive challenges owe nothing; the total never passes 52 weeks.
func OwedWeeks(c ledger.Challenge, today dates.Date) int {
	if c.Status != ledger.ChallengeStatusActive {
		return 0
	}
	due := min(WeeksElapsed(c.StartDate, today), ledger.ChallengeWeeks)
	return max(0, due-c.WeekIndex)
}

// WeekDate returns the date the k-th week (1-based completion count) is due.
func WeekDate(c ledger.Challenge, k int) dates.Date {
	return c.StartDate.AddDays(DaysPerWeek * k)
}
