// Package debt allocates freed money across debts.
//
// Ordering is snowball: ascending remaining balance, ties broken by creation
// order. Two modes exist:
//   - GHOST_PAY sends everything to one debt, capped at its remaining balance
//   - GHOST_SPLIT spreads money evenly, caps each line, then redistributes
//     what capping freed in a single pass
//
// Every plan satisfies sum(lines) <= min(requested, available, owed).
package debt

import (
	"slices"

	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// Mode selects the allocation strategy.
type Mode string

const (
	ModeGhostPay   Mode = "GHOST_PAY"
	ModeGhostSplit Mode = "GHOST_SPLIT"
)

// ClampReason explains why a plan pays less than requested.
type ClampReason string

const (
	ClampNone           ClampReason = ""
	ClampVaultBalance   ClampReason = "VAULT_BALANCE"
	ClampDebtRemaining  ClampReason = "DEBT_REMAINING"
	ClampTotalRemaining ClampReason = "TOTAL_REMAINING"
)

// Balance is a debt's remaining balance as seen by the allocator.
type Balance struct {
	DebtID         string      `json:"debt_id"`
	RemainingCents money.Cents `json:"remaining_cents"`
}

// Line is one payment in a plan.
type Line struct {
	DebtID      string      `json:"debt_id"`
	AmountCents money.Cents `json:"amount_cents"`
}

// Request describes money to allocate.
type Request struct {
	Mode Mode

	// TargetDebtID selects the GHOST_PAY target; empty means the smallest
	// remaining balance.
	TargetDebtID string

	RequestedCents money.Cents

	// AvailableCents caps the plan by funds on hand (e.g. a vault balance).
	AvailableCents money.Cents
}

// Plan is the allocator output. Lines never contain zero amounts.
type Plan struct {
	Mode           Mode        `json:"mode"`
	TargetDebtID   string      `json:"target_debt_id,omitempty"`
	RequestedCents money.Cents `json:"requested_cents"`
	PaidCents      money.Cents `json:"paid_cents"`
	Lines          []Line      `json:"lines"`
	ClampReason    ClampReason `json:"clamp_reason,omitempty"`
}

// Balances converts replayed debts into allocator input, keeping order.
func Balances(debts []ledger.Debt) []Balance {
	out := make([]Balance, len(debts))
	for i, d := range debts {
		out[i] = Balance{DebtID: d.ID, RemainingCents: d.RemainingCents}
	}
	return out
}

// Snowball returns debts sorted ascending by remaining balance. The sort is
// stable, so equal balances keep their input order.
func Snowball(debts []Balance) []Balance {
	out := slices.Clone(debts)
	slices.SortStableFunc(out, func(a, b Balance) int {
		switch {
		case a.RemainingCents < b.RemainingCents:
			return -1
		case a.RemainingCents > b.RemainingCents:
			return 1
		}
		return 0
	})
	return out
}

// Eligible drops debts with nothing left to pay, keeping order.
func Eligible(debts []Balance) []Balance {
	out := make([]Balance, 0, len(debts))
	for _, d := range debts {
		if d.RemainingCents > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Allocate plans how req is paid across debts (given in creation order).
func Allocate(debts []Balance, req Request) (Plan, error) {
	if req.RequestedCents <= 0 {
		return Plan{}, ledger.NewValidationError("amount must be > 0")
	}
	if req.AvailableCents < 0 {
		return Plan{}, ledger.NewValidationError("available funds must be >= 0")
	}
	switch req.Mode {
	case ModeGhostPay:
		return allocatePay(debts, req)
	case ModeGhostSplit:
		return allocateSplit(debts, req)
	default:
		return Plan{}, ledger.NewValidationError("unknown allocation mode %q", req.Mode)
	}
}

func allocatePay(debts []Balance, req Request) (Plan, error) {
	eligible := Snowball(Eligible(debts))
	target := req.TargetDebtID
	var remaining money.Cents
	if target == "" {
		if len(eligible) == 0 {
			return Plan{}, ledger.NewInvalidStateError("debt", "", "no debt has a remaining balance")
		}
		target = eligible[0].DebtID
		remaining = eligible[0].RemainingCents
	} else {
		i := slices.IndexFunc(debts, func(b Balance) bool { return b.DebtID == target })
		if i < 0 {
			return Plan{}, ledger.NewNotFoundError("debt", target)
		}
		remaining = debts[i].RemainingCents
		if remaining <= 0 {
			return Plan{}, ledger.NewInvalidStateError("debt", target, "debt is already paid off")
		}
	}

	paid := money.Min(req.RequestedCents, req.AvailableCents, remaining)
	plan := Plan{
		Mode:           ModeGhostPay,
		TargetDebtID:   target,
		RequestedCents: req.RequestedCents,
		PaidCents:      paid,
		Lines:          []Line{},
	}
	if paid > 0 {
		plan.Lines = append(plan.Lines, Line{DebtID: target, AmountCents: paid})
	}
	plan.ClampReason = clampReason(req, paid, ClampDebtRemaining, remaining)
	return plan, nil
}

func allocateSplit(debts []Balance, req Request) (Plan, error) {
	eligible := Eligible(debts)
	if len(eligible) == 0 {
		return Plan{}, ledger.NewInvalidStateError("debt", "", "all selected debts are already paid off")
	}
	var owed money.Cents
	for _, d := range eligible {
		owed += d.RemainingCents
	}
	total := money.Min(req.RequestedCents, req.AvailableCents, owed)

	lines := Split(eligible, total)
	var paid money.Cents
	for _, l := range lines {
		paid += l.AmountCents
	}
	return Plan{
		Mode:           ModeGhostSplit,
		RequestedCents: req.RequestedCents,
		PaidCents:      paid,
		Lines:          lines,
		ClampReason:    clampReason(req, paid, ClampTotalRemaining, owed),
	}, nil
}

// Split spreads total evenly over eligible debts (in creation order).
//
// base = floor(total/n); the remainder goes one cent at a time from the first
// debt in snowball order; each line is capped at its debt's remaining balance;
// whatever capping freed is handed out once, in creation order, to debts
// with room left. The redistribution is a single pass. Lines are returned in
// snowball order with zero amounts dropped.
func Split(eligible []Balance, total money.Cents) []Line {
	out := []Line{}
	n := money.Cents(len(eligible))
	if n == 0 || total <= 0 {
		return out
	}
	sorted := Snowball(eligible)
	base := total / n
	rem := total - base*n

	amounts := make(map[string]money.Cents, len(sorted))
	room := make(map[string]money.Cents, len(sorted))
	var used money.Cents
	for _, d := range sorted {
		share := base
		if rem > 0 {
			share++
			rem--
		}
		amt := money.Min(share, d.RemainingCents)
		amounts[d.DebtID] = amt
		room[d.DebtID] = d.RemainingCents - amt
		used += amt
	}

	leftover := total - used
	for _, d := range eligible {
		if leftover <= 0 {
			break
		}
		if room[d.DebtID] <= 0 {
			continue
		}
		add := money.Min(room[d.DebtID], leftover)
		amounts[d.DebtID] += add
		room[d.DebtID] -= add
		leftover -= add
	}

	for _, d := range sorted {
		if amt := amounts[d.DebtID]; amt > 0 {
			out = append(out, Line{DebtID: d.DebtID, AmountCents: amt})
		}
	}
	return out
}

// clampReason names the binding limit when paid < requested. Ties report the
// vault balance.
func clampReason(req Request, paid money.Cents, owedReason ClampReason, owed money.Cents) ClampReason {
	if paid >= req.RequestedCents {
		return ClampNone
	}
	switch paid {
	case req.AvailableCents:
		return ClampVaultBalance
	case owed:
		return owedReason
	}
	return ClampNone
}
