package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

func TestCreateVault(t *testing.T) {
	events, err := CreateVault(nil, CreateVaultParams{VaultID: "v1", Name: "Trip", Kind: ledger.VaultKind{Type: ledger.KindUntilNeed}, Date: day0})
	require.NoError(t, err)
	created := events[0].(ledger.VaultCreated)
	require.NotNil(t, created.Kind.CreatedDate)
	assert.Equal(t, day0, *created.Kind.CreatedDate)

	log := commit(t, nil, events, err)
	_, err = CreateVault(log, CreateVaultParams{VaultID: "v1", Name: "Again", Kind: ledger.UntilNeed(day0), Date: day0})
	assert.True(t, ledger.IsInvalidState(err))

	_, err = CreateVault(nil, CreateVaultParams{Name: "x", Kind: ledger.UntilNeed(day0), Date: day0})
	assert.True(t, ledger.IsValidation(err))
	_, err = CreateVault(nil, CreateVaultParams{VaultID: "v2", Name: "Goal", Kind: ledger.GoalBased(0), Date: day0})
	assert.True(t, ledger.IsValidation(err))
}

func TestVaultWithdrawSaga(t *testing.T) {
	log := fundedVault(t, 500)

	events, decision, err := RequestVaultWithdraw(log, VaultTransferParams{
		TransferID: "t1", UserID: "u1", VaultID: "v1", AmountCents: 100, Date: day0.AddDays(5),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), decision.PenaltyPercent)
	assert.Equal(t, money.Cents(10), decision.PenaltyCents)
	assert.Equal(t, money.Cents(90), decision.NetCents)
	log = commit(t, log, events, err)
	assert.Equal(t, money.Cents(500), state(t, log).Vaults["v1"].BalanceCents, "request must not move money")

	events, err = ApplyVaultWithdrawSuccess(log, SuccessParams{TransferID: "t1", ProviderRef: "ref", Date: day0.AddDays(6)})
	log = commit(t, log, events, err)
	require.Equal(t, []ledger.Type{ledger.TypeTransferSucceeded, ledger.TypeVaultWithdrawn}, types(events))
	withdrawn := events[1].(ledger.VaultWithdrawn)
	assert.Equal(t, money.Cents(10), withdrawn.PenaltyCents)
	assert.Equal(t, "t1", withdrawn.TransferID)
	assert.Equal(t, money.Cents(400), state(t, log).Vaults["v1"].BalanceCents)
}

func TestVaultWithdrawRejectsOverdraft(t *testing.T) {
	log := fundedVault(t, 500)
	_, _, err := RequestVaultWithdraw(log, VaultTransferParams{TransferID: "t1", UserID: "u1", VaultID: "v1", AmountCents: 501, Date: day0})
	assert.True(t, ledger.IsInsufficientFunds(err))
	_, _, err = WithdrawVault(log, VaultAmountParams{VaultID: "v1", AmountCents: 501, Date: day0})
	assert.True(t, ledger.IsInsufficientFunds(err))
	_, _, err = WithdrawVault(log, VaultAmountParams{VaultID: "v1", AmountCents: 0, Date: day0})
	assert.True(t, ledger.IsValidation(err))
	_, _, err = WithdrawVault(log, VaultAmountParams{VaultID: "nope", AmountCents: 10, Date: day0})
	assert.True(t, ledger.IsNotFound(err))
}

func TestDirectWithdrawPenaltyDropsAfterCommitment(t *testing.T) {
	log := fundedVault(t, 1000)
	events, d, err := WithdrawVault(log, VaultAmountParams{VaultID: "v1", AmountCents: 1000, Date: day0.AddDays(90)})
	log = commit(t, log, events, err)
	assert.Equal(t, int64(3), d.PenaltyPercent)
	assert.Equal(t, money.Cents(30), events[0].(ledger.VaultWithdrawn).PenaltyCents)
	assert.Zero(t, state(t, log).Vaults["v1"].BalanceCents)
}

func TestDepositHitsGoal(t *testing.T) {
	events, err := CreateVault(nil, CreateVaultParams{VaultID: "g", Name: "Car", Kind: ledger.GoalBased(200000), Date: day0})
	log := commit(t, nil, events, err)
	events, err = DepositVault(log, VaultAmountParams{VaultID: "g", AmountCents: 200000, Date: day0})
	log = commit(t, log, events, err)

	d, err := PreviewWithdraw(log, VaultAmountParams{VaultID: "g", AmountCents: 50000, Date: day0.AddDays(10)})
	require.NoError(t, err)
	assert.Zero(t, d.PenaltyPercent)
}

func TestMergeVaults(t *testing.T) {
	log := fundedVault(t, 300)
	events, err := CreateVault(log, CreateVaultParams{VaultID: "v2", Name: "Other", Kind: ledger.Timed(day0.AddDays(30)), Date: day0})
	log = commit(t, log, events, err)
	events, err = DepositVault(log, VaultAmountParams{VaultID: "v2", AmountCents: 700, Date: day0})
	log = commit(t, log, events, err)
	events, err = CreateVault(log, CreateVaultParams{VaultID: "empty", Name: "Empty", Kind: ledger.UntilNeed(day0), Date: day0})
	log = commit(t, log, events, err)

	events, err = MergeVaults(log, MergeVaultsParams{
		SourceVaultIDs: []string{"v1", "v2", "empty"}, VaultID: "m", Name: "Merged", Policy: ledger.MergeResetTime, Date: day0.AddDays(40),
	})
	log = commit(t, log, events, err)
	assert.Equal(t, []ledger.Type{
		ledger.TypeVaultCreated, ledger.TypeVaultWithdrawn, ledger.TypeVaultWithdrawn, ledger.TypeVaultDeposited,
	}, types(events))

	s := state(t, log)
	assert.Equal(t, money.Cents(1000), s.Vaults["m"].BalanceCents)
	assert.Zero(t, s.Vaults["v1"].BalanceCents)
	assert.Zero(t, s.Vaults["v2"].BalanceCents)
	assert.Equal(t, ledger.MergeResetTime, s.Vaults["m"].Kind.MergePolicy)

	_, err = MergeVaults(log, MergeVaultsParams{SourceVaultIDs: []string{"v1", "v1"}, VaultID: "m2", Name: "x", Policy: ledger.MergeUntilNeed, Date: day0})
	assert.True(t, ledger.IsValidation(err))
	_, err = MergeVaults(log, MergeVaultsParams{SourceVaultIDs: []string{"v1", "v2"}, VaultID: "m", Name: "x", Policy: ledger.MergeUntilNeed, Date: day0})
	assert.True(t, ledger.IsInvalidState(err))
	_, err = MergeVaults(log, MergeVaultsParams{SourceVaultIDs: []string{"v1", "v2"}, VaultID: "m3", Name: "x", Policy: "SOMETIMES", Date: day0})
	assert.True(t, ledger.IsValidation(err))
}
