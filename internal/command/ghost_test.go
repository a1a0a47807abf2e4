package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/debt"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

func TestPreviewGhostPayEmitsNothing(t *testing.T) {
	log := withDebts(t, fundedVault(t, 1000), map[string]money.Cents{"d1": 5000}, "d1")
	q, err := PreviewGhostPay(log, GhostPayParams{UserID: "u1", VaultID: "v1", DebtID: "d1", AmountCents: 2000, Date: day0})
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1000), q.Plan.PaidCents)
	assert.Equal(t, debt.ClampVaultBalance, q.Plan.ClampReason)
	assert.Equal(t, money.Cents(0), q.VaultBalanceAfterCents)
	assert.Equal(t, money.Cents(4000), q.DebtRemainingAfterCents["d1"])
	assert.Empty(t, q.TransferID)
}

func TestCommitGhostPay(t *testing.T) {
	log := withDebts(t, fundedVault(t, 10000), map[string]money.Cents{"d1": 600}, "d1")
	p := GhostPayParams{TransferID: "t_g1", UserID: "u1", VaultID: "v1", DebtID: "d1", AmountCents: 1000, Date: day0}

	events, q, err := CommitGhostPay(log, p)
	log = commit(t, log, events, err)
	assert.Equal(t, []ledger.Type{
		ledger.TypeTransferRequested, ledger.TypeTransferSucceeded, ledger.TypeVaultWithdrawn, ledger.TypeDebtPaymentApplied,
	}, types(events))
	assert.Equal(t, debt.ClampDebtRemaining, q.Plan.ClampReason)
	assert.Equal(t, "sim_t_g1", q.ProviderRef)
	assert.Zero(t, events[2].(ledger.VaultWithdrawn).PenaltyCents)

	s := state(t, log)
	assert.Equal(t, money.Cents(9400), s.Vaults["v1"].BalanceCents)
	assert.Zero(t, s.Debts["d1"].RemainingCents)

	_, _, err = CommitGhostPay(log, GhostPayParams{TransferID: "t_g2", UserID: "u1", VaultID: "v1", DebtID: "d1", AmountCents: 10, Date: day0})
	assert.True(t, ledger.IsInvalidState(err))
	_, _, err = CommitGhostPay(log, p)
	assert.Error(t, err)
}

func TestCommitGhostSplit(t *testing.T) {
	log := withDebts(t, fundedVault(t, 900), map[string]money.Cents{"a": 10000, "b": 100, "c": 10000}, "a", "b", "c")

	events, q, err := CommitGhostPay(log, GhostPayParams{
		TransferID: "t_s1", UserID: "u1", VaultID: "v1", DebtIDs: []string{"a", "b", "c"}, AmountCents: 1200, Date: day0,
	})
	log = commit(t, log, events, err)
	assert.Equal(t, debt.ModeGhostSplit, q.Plan.Mode)
	assert.Equal(t, debt.ClampVaultBalance, q.Plan.ClampReason)
	assert.Equal(t, money.Cents(900), q.Plan.PaidCents)

	req := events[0].(ledger.TransferRequested)
	assert.Equal(t, ledger.ReasonGhostDebtSplitPay, req.Reason)
	assert.Equal(t, "debts:b,a,c", req.ToAccountID)

	s := state(t, log)
	assert.Zero(t, s.Vaults["v1"].BalanceCents)
	assert.Zero(t, s.Debts["b"].RemainingCents)
	var paid money.Cents
	for _, d := range s.DebtList() {
		paid += d.OriginalCents - d.RemainingCents
	}
	assert.Equal(t, money.Cents(900), paid)
}

func TestGhostPayErrors(t *testing.T) {
	log := withDebts(t, fundedVault(t, 0), map[string]money.Cents{"d1": 100}, "d1")
	base := GhostPayParams{TransferID: "t", UserID: "u1", VaultID: "v1", DebtID: "d1", AmountCents: 50, Date: day0}

	_, err := PreviewGhostPay(log, base)
	assert.True(t, ledger.IsInsufficientFunds(err))

	both := base
	both.DebtIDs = []string{"d1"}
	_, err = PreviewGhostPay(log, both)
	assert.True(t, ledger.IsValidation(err))

	missing := base
	missing.VaultID = "nope"
	_, err = PreviewGhostPay(log, missing)
	assert.True(t, ledger.IsNotFound(err))

	noID := base
	noID.TransferID = ""
	_, _, err = CommitGhostPay(log, noID)
	assert.True(t, ledger.IsValidation(err))
}
