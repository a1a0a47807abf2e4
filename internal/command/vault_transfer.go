package command

import (
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
	"github.com/roach88/ghostledger/internal/vault"
)

// VaultTransferParams requests money moving into or out of a vault. Empty
// account ids default to the user's bank account and the vault account.
type VaultTransferParams struct {
	TransferID    string      `json:"transfer_id"`
	UserID        string      `json:"user_id"`
	VaultID       string      `json:"vault_id"`
	FromAccountID string      `json:"from_account_id,omitempty"`
	ToAccountID   string      `json:"to_account_id,omitempty"`
	AmountCents   money.Cents `json:"amount_cents"`
	Date          dates.Date  `json:"date"`
}

func (p VaultTransferParams) validate() error {
	if err := requireID("transfer_id", p.TransferID); err != nil {
		return err
	}
	if err := requireID("user_id", p.UserID); err != nil {
		return err
	}
	if err := requireID("vault_id", p.VaultID); err != nil {
		return err
	}
	if err := requirePositive("amount_cents", p.AmountCents); err != nil {
		return err
	}
	return requireDate(p.Date)
}

func newTransfer(s *ledger.State, id string) error {
	if _, ok := s.Transfers[id]; ok {
		return ledger.NewAlreadyExistsError("transfer", id)
	}
	return nil
}

// RequestVaultDeposit emits TRANSFER_REQUESTED for a deposit. The vault is
// credited only when the transfer succeeds.
func RequestVaultDeposit(log ledger.Log, p VaultTransferParams) ([]ledger.Event, error) {
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
	if err := newTransfer(s, p.TransferID); err != nil {
		return nil, err
	}
	return []ledger.Event{ledger.TransferRequested{
		TransferID:    p.TransferID,
		UserID:        p.UserID,
		FromAccountID: orDefault(p.FromAccountID, ledger.BankAccount(p.UserID)),
		ToAccountID:   orDefault(p.ToAccountID, ledger.VaultAccount(p.VaultID)),
		AmountCents:   p.AmountCents,
		Reason:        ledger.ReasonVaultDeposit,
		TargetID:      p.VaultID,
		Date:          p.Date,
	}}, nil
}

// RequestVaultWithdraw emits TRANSFER_REQUESTED for a withdrawal and returns
// the penalty decision as of the request date. Requests above the balance are
// rejected.
func RequestVaultWithdraw(log ledger.Log, p VaultTransferParams) ([]ledger.Event, vault.Decision, error) {
	if err := p.validate(); err != nil {
		return nil, vault.Decision{}, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, vault.Decision{}, err
	}
	v, err := s.Vault(p.VaultID)
	if err != nil {
		return nil, vault.Decision{}, err
	}
	d := vault.ComputeWithdrawal(v, p.AmountCents, p.Date)
	if err := d.Err(v, p.AmountCents); err != nil {
		return nil, d, err
	}
	if err := newTransfer(s, p.TransferID); err != nil {
		return nil, d, err
	}
	return []ledger.Event{ledger.TransferRequested{
		TransferID:    p.TransferID,
		UserID:        p.UserID,
		FromAccountID: orDefault(p.FromAccountID, ledger.VaultAccount(p.VaultID)),
		ToAccountID:   orDefault(p.ToAccountID, ledger.BankAccount(p.UserID)),
		AmountCents:   p.AmountCents,
		Reason:        ledger.ReasonVaultWithdraw,
		TargetID:      p.VaultID,
		Date:          p.Date,
	}}, d, nil
}

// ApplyVaultDepositSuccess settles a VAULT_DEPOSIT transfer and credits the
// vault with the transferred amount.
func ApplyVaultDepositSuccess(log ledger.Log, p SuccessParams) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	t, err := pendingTransfer(s, p.TransferID, ledger.ReasonVaultDeposit)
	if err != nil {
		return nil, err
	}
	return vaultDepositSuccess(s, t, p)
}

// ApplyVaultWithdrawSuccess settles a VAULT_WITHDRAW transfer and debits the
// vault. The penalty is recomputed for the settlement date.
func ApplyVaultWithdrawSuccess(log ledger.Log, p SuccessParams) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	t, err := pendingTransfer(s, p.TransferID, ledger.ReasonVaultWithdraw)
	if err != nil {
		return nil, err
	}
	return vaultWithdrawSuccess(s, t, p)
}

func vaultDepositSuccess(s *ledger.State, t ledger.Transfer, p SuccessParams) ([]ledger.Event, error) {
	if _, err := s.Vault(t.TargetID); err != nil {
		return nil, err
	}
	return []ledger.Event{
		p.event(),
		ledger.VaultDeposited{VaultID: t.TargetID, AmountCents: t.AmountCents, TransferID: t.ID, Date: p.Date},
	}, nil
}

func vaultWithdrawSuccess(s *ledger.State, t ledger.Transfer, p SuccessParams) ([]ledger.Event, error) {
	v, err := s.Vault(t.TargetID)
	if err != nil {
		return nil, err
	}
	d := vault.ComputeWithdrawal(v, t.AmountCents, p.Date)
	if err := d.Err(v, t.AmountCents); err != nil {
		return nil, err
	}
	return []ledger.Event{
		p.event(),
		ledger.VaultWithdrawn{
			VaultID:      v.ID,
			AmountCents:  t.AmountCents,
			PenaltyCents: d.PenaltyCents,
			TransferID:   t.ID,
			Date:         p.Date,
		},
	}, nil
}
