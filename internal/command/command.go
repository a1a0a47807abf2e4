// Package command turns validated requests into new ledger events.
//
// Every command takes the current log, replays it, validates the request
// against the replayed state and returns the events to append. Commands never
// mutate the log and never perform I/O; a returned error means nothing should
// be appended. Domain errors are *ledger.Error values.
//
// Money-moving commands come in pairs. A Request* command emits
// TRANSFER_REQUESTED only; the matching Apply*Success command emits
// TRANSFER_SUCCEEDED together with the effect event, so balances only ever
// reflect settled transfers.
package command

import (
	"fmt"
	"strings"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// SimulatedRefPrefix prefixes provider references minted for transfers the
// ledger settles itself (catch-up weeks, instant ghost payments).
const SimulatedRefPrefix = "sim_"

func replay(log ledger.Log) (*ledger.State, error) {
	s, err := ledger.Replay(log)
	if err != nil {
		return nil, fmt.Errorf("replay log: %w", err)
	}
	return s, nil
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ledger.NewValidationError("%s is required", field)
	}
	return nil
}

func requirePositive(field string, amount money.Cents) error {
	if amount <= 0 {
		return ledger.NewValidationError("%s must be > 0", field)
	}
	return nil
}

func requireDate(d dates.Date) error {
	if d.IsZero() {
		return ledger.NewValidationError("date is required")
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// pendingTransfer loads a transfer that must still be REQUESTED for the given
// reason.
func pendingTransfer(s *ledger.State, id string, reasons ...ledger.TransferReason) (ledger.Transfer, error) {
	if err := requireID("transfer_id", id); err != nil {
		return ledger.Transfer{}, err
	}
	t, err := s.Transfer(id)
	if err != nil {
		return ledger.Transfer{}, err
	}
	if t.Status != ledger.TransferStatusRequested {
		return ledger.Transfer{}, ledger.NewInvalidStateError("transfer", id, "transfer is %s, not REQUESTED", t.Status)
	}
	if len(reasons) > 0 {
		for _, r := range reasons {
			if t.Reason == r {
				return t, nil
			}
		}
		return ledger.Transfer{}, ledger.NewInvalidStateError("transfer", id, "transfer reason %s does not match", t.Reason)
	}
	return t, nil
}

// SuccessParams settles a transfer as succeeded.
type SuccessParams struct {
	TransferID  string     `json:"transfer_id"`
	ProviderRef string     `json:"provider_ref"`
	Date        dates.Date `json:"date"`
}

func (p SuccessParams) validate() error {
	if err := requireID("transfer_id", p.TransferID); err != nil {
		return err
	}
	if err := requireID("provider_ref", p.ProviderRef); err != nil {
		return err
	}
	return requireDate(p.Date)
}

func (p SuccessParams) event() ledger.TransferSucceeded {
	return ledger.TransferSucceeded{TransferID: p.TransferID, ProviderRef: p.ProviderRef, Date: p.Date}
}

// FailureParams settles a transfer as failed. The redirect fields only apply
// to challenge weekly transfers: when RedirectVaultID is set the failed
// challenge's redirected savings are requested into that vault.
type FailureParams struct {
	TransferID         string     `json:"transfer_id"`
	ErrorCode          string     `json:"error_code"`
	Message            string     `json:"message"`
	Date               dates.Date `json:"date"`
	RedirectVaultID    string     `json:"redirect_vault_id,omitempty"`
	RedirectTransferID string     `json:"redirect_transfer_id,omitempty"`
}

func (p FailureParams) validate() error {
	if err := requireID("transfer_id", p.TransferID); err != nil {
		return err
	}
	if err := requireID("error_code", p.ErrorCode); err != nil {
		return err
	}
	return requireDate(p.Date)
}

func (p FailureParams) event() ledger.TransferFailed {
	return ledger.TransferFailed{TransferID: p.TransferID, ErrorCode: p.ErrorCode, Message: p.Message, Date: p.Date}
}

// ApplyTransferSuccess settles any pending transfer and emits the effect its
// reason implies.
func ApplyTransferSuccess(log ledger.Log, p SuccessParams) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	t, err := pendingTransfer(s, p.TransferID)
	if err != nil {
		return nil, err
	}
	switch t.Reason {
	case ledger.ReasonVaultDeposit:
		return vaultDepositSuccess(s, t, p)
	case ledger.ReasonVaultWithdraw:
		return vaultWithdrawSuccess(s, t, p)
	case ledger.ReasonGhostDebtPay:
		return debtPaymentSuccess(s, t, p, ledger.SourceGhostPay)
	case ledger.ReasonGhostDebtSplitPay:
		return debtPaymentSuccess(s, t, p, ledger.SourceGhostSplit)
	case ledger.ReasonChallengeWeekly:
		return challengeWeeklySuccess(s, t, p)
	default:
		return nil, ledger.NewInvalidStateError("transfer", t.ID, "unknown transfer reason %q", t.Reason)
	}
}

// ApplyTransferFailure settles any pending transfer as failed. A failed
// challenge weekly transfer also fails its challenge.
func ApplyTransferFailure(log ledger.Log, p FailureParams) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	t, err := pendingTransfer(s, p.TransferID)
	if err != nil {
		return nil, err
	}
	if t.Reason == ledger.ReasonChallengeWeekly {
		return challengeWeeklyFailure(s, t, p)
	}
	return []ledger.Event{p.event()}, nil
}

// RejectTransfer settles a pending transfer as failed without touching its
// target. It is used when the transfer's effect can no longer apply, so the
// money never moved and nothing downstream should react.
func RejectTransfer(log ledger.Log, p FailureParams) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	if _, err := pendingTransfer(s, p.TransferID); err != nil {
		return nil, err
	}
	return []ledger.Event{p.event()}, nil
}
