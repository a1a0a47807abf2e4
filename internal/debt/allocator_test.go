package debt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

func bal(id string, remaining money.Cents) Balance {
	return Balance{DebtID: id, RemainingCents: remaining}
}

func sum(lines []Line) money.Cents {
	var s money.Cents
	for _, l := range lines {
		s += l.AmountCents
	}
	return s
}

func TestSnowballStableOrder(t *testing.T) {
	got := Snowball([]Balance{bal("a", 500), bal("b", 100), bal("c", 500), bal("d", 100)})
	ids := make([]string, len(got))
	for i, b := range got {
		ids[i] = b.DebtID
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestSplitEvenWithRemainder(t *testing.T) {
	lines := Split([]Balance{bal("d1", 10000), bal("d2", 10000), bal("d3", 10000)}, 1000)
	assert.Equal(t, []Line{{"d1", 334}, {"d2", 333}, {"d3", 333}}, lines)
}

func TestSplitCapsAndRedistributes(t *testing.T) {
	debts := []Balance{bal("big", 10000), bal("tiny", 100), bal("mid", 5000)}
	lines := Split(debts, 3000)
	assert.Equal(t, []Line{{"tiny", 100}, {"mid", 1000}, {"big", 1900}}, lines)
	assert.Equal(t, money.Cents(3000), sum(lines))
}

func TestSplitDropsZeroLines(t *testing.T) {
	lines := Split([]Balance{bal("a", 100), bal("b", 100), bal("c", 100)}, 2)
	assert.Equal(t, []Line{{"a", 1}, {"b", 1}}, lines)
}

func TestAllocateGhostPay(t *testing.T) {
	debts := []Balance{bal("d1", 20000), bal("d2", 5000)}

	plan, err := Allocate(debts, Request{Mode: ModeGhostPay, RequestedCents: 3000, AvailableCents: 100000})
	require.NoError(t, err)
	assert.Equal(t, "d2", plan.TargetDebtID, "defaults to smallest remaining")
	assert.Equal(t, []Line{{"d2", 3000}}, plan.Lines)
	assert.Equal(t, ClampNone, plan.ClampReason)

	plan, err = Allocate(debts, Request{Mode: ModeGhostPay, RequestedCents: 9000, AvailableCents: 100000})
	require.NoError(t, err)
	assert.Equal(t, money.Cents(5000), plan.PaidCents, "capped at remaining, no overflow")
	assert.Equal(t, ClampDebtRemaining, plan.ClampReason)

	plan, err = Allocate(debts, Request{Mode: ModeGhostPay, TargetDebtID: "d1", RequestedCents: 9000, AvailableCents: 2500})
	require.NoError(t, err)
	assert.Equal(t, []Line{{"d1", 2500}}, plan.Lines)
	assert.Equal(t, ClampVaultBalance, plan.ClampReason)
}

func TestAllocateGhostPayErrors(t *testing.T) {
	debts := []Balance{bal("d1", 0), bal("d2", 500)}

	_, err := Allocate(debts, Request{Mode: ModeGhostPay, TargetDebtID: "nope", RequestedCents: 1, AvailableCents: 1})
	assert.True(t, ledger.IsNotFound(err))

	_, err = Allocate(debts, Request{Mode: ModeGhostPay, TargetDebtID: "d1", RequestedCents: 1, AvailableCents: 1})
	assert.True(t, ledger.IsInvalidState(err))

	_, err = Allocate([]Balance{bal("d1", 0)}, Request{Mode: ModeGhostPay, RequestedCents: 1, AvailableCents: 1})
	assert.True(t, ledger.IsInvalidState(err))

	_, err = Allocate(debts, Request{Mode: ModeGhostPay, RequestedCents: 0, AvailableCents: 1})
	assert.True(t, ledger.IsValidation(err))

	_, err = Allocate(debts, Request{Mode: "AVALANCHE", RequestedCents: 1, AvailableCents: 1})
	assert.True(t, ledger.IsValidation(err))
}

func TestAllocateGhostSplitClamps(t *testing.T) {
	debts := []Balance{bal("d1", 300), bal("d2", 0), bal("d3", 200)}

	plan, err := Allocate(debts, Request{Mode: ModeGhostSplit, RequestedCents: 10000, AvailableCents: 100000})
	require.NoError(t, err)
	assert.Equal(t, money.Cents(500), plan.PaidCents)
	assert.Equal(t, ClampTotalRemaining, plan.ClampReason)
	assert.Equal(t, []Line{{"d3", 200}, {"d1", 300}}, plan.Lines)

	plan, err = Allocate(debts, Request{Mode: ModeGhostSplit, RequestedCents: 10000, AvailableCents: 101})
	require.NoError(t, err)
	assert.Equal(t, money.Cents(101), plan.PaidCents)
	assert.Equal(t, ClampVaultBalance, plan.ClampReason)

	_, err = Allocate([]Balance{bal("d1", 0)}, Request{Mode: ModeGhostSplit, RequestedCents: 1, AvailableCents: 1})
	assert.True(t, ledger.IsInvalidState(err))
}

func TestAllocateNeverExceedsLimits(t *testing.T) {
	debts := []Balance{bal("a", 17), bal("b", 9999), bal("c", 1), bal("d", 250), bal("e", 0)}
	for _, mode := range []Mode{ModeGhostPay, ModeGhostSplit} {
		for _, requested := range []money.Cents{1, 7, 100, 333, 5000, 20000} {
			for _, available := range []money.Cents{0, 5, 260, 100000} {
				plan, err := Allocate(debts, Request{Mode: mode, RequestedCents: requested, AvailableCents: available})
				require.NoError(t, err)
				limit := money.Min(requested, available, 17+9999+1+250)
				assert.LessOrEqual(t, sum(plan.Lines), limit)
				assert.Equal(t, plan.PaidCents, sum(plan.Lines))
				for _, l := range plan.Lines {
					assert.Positive(t, int64(l.AmountCents))
				}
			}
		}
	}
}

func TestSchedule(t *testing.T) {
	debts := []ledger.Debt{
		{ID: "card", Name: "Card", RemainingCents: 50000, MinimumPaymentCents: 2500},
		{ID: "loan", Name: "Loan", RemainingCents: 1000, MinimumPaymentCents: 1500},
		{ID: "done", Name: "Done", RemainingCents: 0, MinimumPaymentCents: 100},
	}
	plan := Plan{Lines: []Line{{"loan", 1000}}}
	got := Schedule(debts, plan)
	assert.Equal(t, []ScheduleLine{
		{DebtID: "loan", Name: "Loan", MinimumCents: 1000, ExtraCents: 1000, TotalCents: 2000},
		{DebtID: "card", Name: "Card", MinimumCents: 2500, ExtraCents: 0, TotalCents: 2500},
	}, got)
}
