package debt

import (
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// ScheduleLine is one debt's payment for a period: its minimum plus any
// freed money the plan assigns to it.
type ScheduleLine struct {
	DebtID       string      `json:"debt_id"`
	Name         string      `json:"name"`
	MinimumCents money.Cents `json:"minimum_cents"`
	ExtraCents   money.Cents `json:"extra_cents"`
	TotalCents   money.Cents `json:"total_cents"`
}

// Schedule lays a plan over the minimum payments of every open debt, in
// snowball order. Paid-off debts are omitted.
func Schedule(debts []ledger.Debt, plan Plan) []ScheduleLine {
	extra := make(map[string]money.Cents, len(plan.Lines))
	for _, l := range plan.Lines {
		extra[l.DebtID] += l.AmountCents
	}
	byID := make(map[string]ledger.Debt, len(debts))
	for _, d := range debts {
		byID[d.ID] = d
	}

	out := []ScheduleLine{}
	for _, b := range Snowball(Eligible(Balances(debts))) {
		d := byID[b.DebtID]
		minimum := money.Min(d.MinimumPaymentCents, d.RemainingCents)
		out = append(out, ScheduleLine{
			DebtID:       d.ID,
			Name:         d.Name,
			MinimumCents: minimum,
			ExtraCents:   extra[d.ID],
			TotalCents:   minimum + extra[d.ID],
		})
	}
	return out
}
