package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/debt"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

func withDebts(t *testing.T, log ledger.Log, balances map[string]money.Cents, order ...string) ledger.Log {
	t.Helper()
	for _, id := range order {
		events, err := CreateDebt(log, CreateDebtParams{
			DebtID: id, UserID: "u1", Name: "Debt " + id, BalanceCents: balances[id], MinimumPaymentCents: 2500, Date: day0,
		})
		log = commit(t, log, events, err)
	}
	return log
}

func TestCreateDebt(t *testing.T) {
	log := withDebts(t, nil, map[string]money.Cents{"d1": 10000}, "d1")
	_, err := CreateDebt(log, CreateDebtParams{DebtID: "d1", Name: "dup", BalanceCents: 1, Date: day0})
	assert.True(t, ledger.IsInvalidState(err))
	_, err = CreateDebt(nil, CreateDebtParams{DebtID: "d2", Name: "neg", BalanceCents: -1, Date: day0})
	assert.True(t, ledger.IsValidation(err))
}

func TestGhostPayClampsToRemaining(t *testing.T) {
	log := withDebts(t, nil, map[string]money.Cents{"d1": 500}, "d1")

	events, err := RequestGhostPay(log, GhostPayRequestParams{TransferID: "t1", UserID: "u1", DebtID: "d1", AmountCents: 800, Date: day0})
	log = commit(t, log, events, err)
	assert.Equal(t, money.Cents(500), state(t, log).Debts["d1"].RemainingCents)

	events, err = ApplyGhostPaySuccess(log, SuccessParams{TransferID: "t1", ProviderRef: "ref", Date: day0})
	log = commit(t, log, events, err)
	require.Len(t, events, 2)
	assert.Equal(t, money.Cents(500), events[1].(ledger.DebtPaymentApplied).AmountCents)
	assert.Equal(t, ledger.SourceGhostPay, events[1].(ledger.DebtPaymentApplied).Source)
	assert.Zero(t, state(t, log).Debts["d1"].RemainingCents)

	_, err = RequestGhostPay(log, GhostPayRequestParams{TransferID: "t2", UserID: "u1", DebtID: "d1", AmountCents: 100, Date: day0})
	assert.True(t, ledger.IsInvalidState(err))
}

func TestGhostPaySuccessAfterPayoffEmitsOnlySettlement(t *testing.T) {
	log := withDebts(t, nil, map[string]money.Cents{"d1": 500}, "d1")
	for _, id := range []string{"t1", "t2"} {
		events, err := RequestGhostPay(log, GhostPayRequestParams{TransferID: id, UserID: "u1", DebtID: "d1", AmountCents: 500, Date: day0})
		log = commit(t, log, events, err)
	}
	events, err := ApplyTransferSuccess(log, SuccessParams{TransferID: "t1", ProviderRef: "r1", Date: day0})
	log = commit(t, log, events, err)

	events, err = ApplyTransferSuccess(log, SuccessParams{TransferID: "t2", ProviderRef: "r2", Date: day0})
	log = commit(t, log, events, err)
	assert.Equal(t, []ledger.Type{ledger.TypeTransferSucceeded}, types(events))
	assert.Zero(t, state(t, log).Debts["d1"].RemainingCents)
}

func TestGhostSplitEvenDistribution(t *testing.T) {
	log := withDebts(t, nil, map[string]money.Cents{"d1": 10000, "d2": 10000, "d3": 10000}, "d1", "d2", "d3")

	events, plan, err := RequestGhostSplitPay(log, GhostSplitRequestParams{
		UserID: "u1", DebtIDs: []string{"d1", "d2", "d3"}, TransferIDPrefix: "t_split", AmountCents: 1000, Date: day0,
	})
	log = commit(t, log, events, err)
	assert.Equal(t, []debt.Line{{DebtID: "d1", AmountCents: 334}, {DebtID: "d2", AmountCents: 333}, {DebtID: "d3", AmountCents: 333}}, plan.Lines)
	require.Len(t, events, 3)

	for i, e := range events {
		req := e.(ledger.TransferRequested)
		assert.Equal(t, ledger.ReasonGhostDebtSplitPay, req.Reason)
		assert.Equal(t, plan.Lines[i].AmountCents, req.AmountCents)
		settled, err := ApplyGhostSplitPaySuccess(log, SuccessParams{TransferID: req.TransferID, ProviderRef: "r", Date: day0})
		log = commit(t, log, settled, err)
	}

	s := state(t, log)
	assert.Equal(t, money.Cents(9666), s.Debts["d1"].RemainingCents)
	assert.Equal(t, money.Cents(9667), s.Debts["d2"].RemainingCents)
	assert.Equal(t, money.Cents(9667), s.Debts["d3"].RemainingCents)
}

func TestGhostSplitRequestValidation(t *testing.T) {
	log := withDebts(t, nil, map[string]money.Cents{"d1": 100}, "d1")
	_, _, err := RequestGhostSplitPay(log, GhostSplitRequestParams{UserID: "u1", DebtIDs: []string{"d1"}, AmountCents: 100, Date: day0})
	assert.True(t, ledger.IsValidation(err))
	_, _, err = RequestGhostSplitPay(log, GhostSplitRequestParams{
		UserID: "u1", DebtIDs: []string{"d1"}, TransferIDs: []string{"a", "b"}, AmountCents: 100, Date: day0,
	})
	assert.True(t, ledger.IsValidation(err))
	_, _, err = RequestGhostSplitPay(log, GhostSplitRequestParams{
		UserID: "u1", DebtIDs: []string{"d1", "ghost"}, TransferIDPrefix: "p", AmountCents: 100, Date: day0,
	})
	assert.True(t, ledger.IsNotFound(err))
}

func TestGhostSplitRejectsRepeatedTransferIDs(t *testing.T) {
	log := withDebts(t, nil, map[string]money.Cents{"d1": 10000, "d2": 10000}, "d1", "d2")
	events, _, err := RequestGhostSplitPay(log, GhostSplitRequestParams{
		UserID: "u1", DebtIDs: []string{"d1", "d2"}, TransferIDs: []string{"t1", "t1"}, AmountCents: 1000, Date: day0,
	})
	assert.True(t, ledger.IsValidation(err))
	assert.Empty(t, events)
}
