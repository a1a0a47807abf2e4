package command

import (
	"slices"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
	"github.com/roach88/ghostledger/internal/vault"
)

// CreateVaultParams opens a vault.
type CreateVaultParams struct {
	VaultID string           `json:"vault_id"`
	Name    string           `json:"name"`
	Kind    ledger.VaultKind `json:"kind"`
	Date    dates.Date       `json:"date"`
}

// CreateVault emits VAULT_CREATED. An UNTIL_NEED vault without a created date
// starts its clock on the creation date.
func CreateVault(log ledger.Log, p CreateVaultParams) ([]ledger.Event, error) {
	if err := requireID("vault_id", p.VaultID); err != nil {
		return nil, err
	}
	if err := requireID("name", p.Name); err != nil {
		return nil, err
	}
	if err := requireDate(p.Date); err != nil {
		return nil, err
	}
	kind := p.Kind
	if kind.Type == ledger.KindUntilNeed && kind.CreatedDate == nil {
		created := p.Date
		kind.CreatedDate = &created
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Vaults[p.VaultID]; ok {
		return nil, ledger.NewAlreadyExistsError("vault", p.VaultID)
	}
	return []ledger.Event{ledger.VaultCreated{VaultID: p.VaultID, Name: p.Name, Kind: kind, Date: p.Date}}, nil
}

// VaultAmountParams names a vault and an amount.
type VaultAmountParams struct {
	VaultID     string      `json:"vault_id"`
	AmountCents money.Cents `json:"amount_cents"`
	Date        dates.Date  `json:"date"`
}

func (p VaultAmountParams) validate() error {
	if err := requireID("vault_id", p.VaultID); err != nil {
		return err
	}
	if err := requirePositive("amount_cents", p.AmountCents); err != nil {
		return err
	}
	return requireDate(p.Date)
}

// DepositVault emits a manual VAULT_DEPOSITED with no transfer behind it.
func DepositVault(log ledger.Log, p VaultAmountParams) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	if _, err := s.Vault(p.VaultID); err != nil {
		return nil, err
	}
	return []ledger.Event{ledger.VaultDeposited{VaultID: p.VaultID, AmountCents: p.AmountCents, Date: p.Date}}, nil
}

// PreviewWithdraw evaluates a withdrawal without emitting anything.
func PreviewWithdraw(log ledger.Log, p VaultAmountParams) (vault.Decision, error) {
	if err := p.validate(); err != nil {
		return vault.Decision{}, err
	}
	s, err := replay(log)
	if err != nil {
		return vault.Decision{}, err
	}
	v, err := s.Vault(p.VaultID)
	if err != nil {
		return vault.Decision{}, err
	}
	d := vault.ComputeWithdrawal(v, p.AmountCents, p.Date)
	return d, d.Err(v, p.AmountCents)
}

// WithdrawVault emits a manual VAULT_WITHDRAWN with the penalty in force on
// the withdrawal date. Amounts above the balance are rejected.
func WithdrawVault(log ledger.Log, p VaultAmountParams) ([]ledger.Event, vault.Decision, error) {
	d, err := PreviewWithdraw(log, p)
	if err != nil {
		return nil, d, err
	}
	return []ledger.Event{ledger.VaultWithdrawn{
		VaultID:      p.VaultID,
		AmountCents:  p.AmountCents,
		PenaltyCents: d.PenaltyCents,
		Date:         p.Date,
	}}, d, nil
}

// MergeVaultsParams merges several vaults into a new one.
type MergeVaultsParams struct {
	SourceVaultIDs []string           `json:"source_vault_ids"`
	VaultID        string             `json:"vault_id"`
	Name           string             `json:"name"`
	Policy         ledger.MergePolicy `json:"policy"`
	Date           dates.Date         `json:"date"`
}

// MergeVaults moves every source balance into a fresh UNTIL_NEED vault. The
// transfers between the caller's own vaults carry no penalty; the merge
// policy decides the new vault's early-withdrawal floor.
func MergeVaults(log ledger.Log, p MergeVaultsParams) ([]ledger.Event, error) {
	if err := requireID("vault_id", p.VaultID); err != nil {
		return nil, err
	}
	if err := requireID("name", p.Name); err != nil {
		return nil, err
	}
	if err := requireDate(p.Date); err != nil {
		return nil, err
	}
	if p.Policy != ledger.MergeResetTime && p.Policy != ledger.MergeUntilNeed {
		return nil, ledger.NewValidationError("unknown merge policy %q", p.Policy)
	}
	sources := slices.Compact(slices.Sorted(slices.Values(p.SourceVaultIDs)))
	if len(sources) < 2 || len(sources) != len(p.SourceVaultIDs) {
		return nil, ledger.NewValidationError("merge needs at least two distinct source vaults")
	}
	if slices.Contains(sources, p.VaultID) {
		return nil, ledger.NewValidationError("merged vault id must be new")
	}

	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Vaults[p.VaultID]; ok {
		return nil, ledger.NewAlreadyExistsError("vault", p.VaultID)
	}
	vaults := make([]ledger.Vault, 0, len(p.SourceVaultIDs))
	for _, id := range p.SourceVaultIDs {
		v, err := s.Vault(id)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, v)
	}

	merged := vault.MergeVaults(vaults, p.VaultID, p.Name, p.Policy, p.Date)
	out := []ledger.Event{ledger.VaultCreated{VaultID: merged.ID, Name: merged.Name, Kind: merged.Kind, Date: p.Date}}
	for _, v := range vaults {
		if v.BalanceCents <= 0 {
			continue
		}
		out = append(out, ledger.VaultWithdrawn{VaultID: v.ID, AmountCents: v.BalanceCents, Date: p.Date})
	}
	if merged.BalanceCents > 0 {
		out = append(out, ledger.VaultDeposited{VaultID: merged.ID, AmountCents: merged.BalanceCents, Date: p.Date})
	}
	return out, nil
}
