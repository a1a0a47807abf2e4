// Package vault implements the withdrawal penalty rules of savings vaults.
//
// Rules:
//   - GOAL_BASED: 0% for 30 days after the goal is first hit, then 3-10% by
//     goal size; 10% if the goal was never hit
//   - TIMED: 10% before maturity, 0% on or after
//   - UNTIL_NEED: 10% before the vault is 90 days old, 3% after
//   - Merged with RESET_TIME: at least 10% during the first 90 days
//
// Penalties use money.Pct, which floors. Deposits never reset a timer.
package vault

import (
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

const (
	EarlyPenaltyPercent     int64 = 10
	UntilNeedLatePercent    int64 = 3
	UntilNeedCommitmentDays       = 90
	GoalGraceDays                 = 30
	MergeResetDays                = 90
)

// goalTiers maps goal size ceilings to the post-grace penalty.
var goalTiers = []struct {
	maxGoal money.Cents
	percent int64
}{
	{50000, 3},
	{200000, 5},
	{1000000, 7},
}

// Decision is the outcome of a withdrawal evaluation.
type Decision struct {
	Allowed        bool             `json:"allowed"`
	PenaltyPercent int64            `json:"penalty_percent"`
	PenaltyCents   money.Cents      `json:"penalty_cents"`
	NetCents       money.Cents      `json:"net_cents"`
	Reason         string           `json:"reason"`
	Code           ledger.ErrorCode `json:"code,omitempty"`
}

// Err converts a denied decision into a domain error. It returns nil when the
// withdrawal is allowed.
func (d Decision) Err(v ledger.Vault, amount money.Cents) error {
	if d.Allowed {
		return nil
	}
	if d.Code == ledger.CodeInsufficientFunds {
		return ledger.NewInsufficientFundsError("vault", v.ID, amount, v.BalanceCents)
	}
	return ledger.NewValidationError("%s", d.Reason)
}

// ComputeWithdrawal evaluates withdrawing amount from v on today. A withdrawal
// larger than the balance is denied, never clamped.
func ComputeWithdrawal(v ledger.Vault, amount money.Cents, today dates.Date) Decision {
	if amount <= 0 {
		return Decision{Reason: "Withdrawal must be > 0.", Code: ledger.CodeValidation}
	}
	if amount > v.BalanceCents {
		return Decision{Reason: "Insufficient vault balance.", Code: ledger.CodeInsufficientFunds}
	}

	pct, reason := PenaltyPercent(v, today)
	penalty, net := money.Split(amount, pct)
	return Decision{
		Allowed:        true,
		PenaltyPercent: pct,
		PenaltyCents:   penalty,
		NetCents:       net,
		Reason:         reason,
	}
}

// PenaltyPercent returns the penalty that applies to v on today and a short
// human-readable reason.
func PenaltyPercent(v ledger.Vault, today dates.Date) (int64, string) {
	var pct int64
	var reason string
	switch v.Kind.Type {
	case ledger.KindGoalBased:
		pct = goalPenaltyPercent(v.Kind, today)
		if pct == 0 {
			reason = "Goal met: withdrawal is penalty-free (within grace)."
		} else {
			reason = "Goal-based vault penalty applies (after grace or goal not hit)."
		}
	case ledger.KindTimed:
		pct = timedPenaltyPercent(v.Kind, today)
		if pct == 0 {
			reason = "Maturity reached: penalty-free withdrawal."
		} else {
			reason = "Early withdrawal before maturity."
		}
	default:
		pct = untilNeedPenaltyPercent(v.Kind, today)
		if pct == EarlyPenaltyPercent {
			reason = "Early withdrawal before 90-day commitment."
		} else {
			reason = "After 90 days: reduced penalty applies."
		}
	}

	if v.Kind.MergePolicy == ledger.MergeResetTime && pct < EarlyPenaltyPercent {
		created := today
		if v.Kind.CreatedDate != nil {
			created = *v.Kind.CreatedDate
		}
		if dates.DaysBetween(created, today) < MergeResetDays {
			return EarlyPenaltyPercent, "Merge RESET_TIME: early-withdraw penalty enforced."
		}
	}
	return pct, reason
}

func goalPenaltyPercent(k ledger.VaultKind, today dates.Date) int64 {
	if k.GoalHitDate == nil {
		return EarlyPenaltyPercent
	}
	graceEnd := k.GoalHitDate.AddDays(GoalGraceDays)
	if today.Before(graceEnd) {
		return 0
	}
	for _, tier := range goalTiers {
		if k.GoalCents <= tier.maxGoal {
			return tier.percent
		}
	}
	return EarlyPenaltyPercent
}

func timedPenaltyPercent(k ledger.VaultKind, today dates.Date) int64 {
	if k.MaturityDate != nil && today.Before(*k.MaturityDate) {
		return EarlyPenaltyPercent
	}
	return 0
}

func untilNeedPenaltyPercent(k ledger.VaultKind, today dates.Date) int64 {
	created := today
	if k.CreatedDate != nil {
		created = *k.CreatedDate
	}
	if dates.DaysBetween(created, today) < UntilNeedCommitmentDays {
		return EarlyPenaltyPercent
	}
	return UntilNeedLatePercent
}

// ApplyDeposit credits amount to v. The first deposit that brings a
// GOAL_BASED vault to its goal records today as the goal hit date.
// Non-positive amounts leave v unchanged.
func ApplyDeposit(v ledger.Vault, amount money.Cents, today dates.Date) ledger.Vault {
	if amount <= 0 {
		return v
	}
	v.BalanceCents += amount
	v.Kind = v.Kind.AfterDeposit(v.BalanceCents, today)
	return v
}

// MergeVaults combines sources into a fresh UNTIL_NEED vault created today.
// The commitment clock restarts at the merge; policy decides whether the
// early-withdrawal floor carries over.
func MergeVaults(sources []ledger.Vault, newID, name string, policy ledger.MergePolicy, today dates.Date) ledger.Vault {
	var total money.Cents
	for _, v := range sources {
		total += v.BalanceCents
	}
	return ledger.Vault{
		ID:           newID,
		Name:         name,
		Kind:         ledger.Merged(today, policy),
		BalanceCents: total,
		CreatedOn:    today,
	}
}
