package readmodel

import (
	"github.com/roach88/ghostledger/internal/debt"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// PaymentSchedule is one period's debt payments: every open debt's minimum
// plus extraCents split evenly across them.
type PaymentSchedule struct {
	ExtraCents money.Cents         `json:"extra_cents"`
	Plan       *debt.Plan          `json:"plan,omitempty"`
	Lines      []debt.ScheduleLine `json:"lines"`
	TotalCents money.Cents         `json:"total_cents"`
}

// SelectPaymentSchedule builds the payment schedule for the replayed debts.
// extraCents of zero yields minimums only.
func SelectPaymentSchedule(log ledger.Log, extraCents money.Cents) (PaymentSchedule, error) {
	s, err := replay(log)
	if err != nil {
		return PaymentSchedule{}, err
	}
	debts := s.DebtList()

	out := PaymentSchedule{ExtraCents: extraCents}
	var plan debt.Plan
	if extraCents > 0 {
		plan, err = debt.Allocate(debt.Balances(debts), debt.Request{
			Mode:           debt.ModeGhostSplit,
			RequestedCents: extraCents,
			AvailableCents: extraCents,
		})
		if err != nil {
			return PaymentSchedule{}, err
		}
		out.Plan = &plan
	}
	out.Lines = debt.Schedule(debts, plan)
	for _, l := range out.Lines {
		out.TotalCents += l.TotalCents
	}
	return out, nil
}
