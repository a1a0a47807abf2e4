package command

import (
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/debt"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// GhostPayParams pays debts straight from a vault. DebtID selects a single
// target (GHOST_PAY); DebtIDs selects an even split (GHOST_SPLIT). TransferID
// is only needed to commit.
type GhostPayParams struct {
	TransferID  string      `json:"transfer_id,omitempty"`
	UserID      string      `json:"user_id"`
	VaultID     string      `json:"vault_id"`
	DebtID      string      `json:"debt_id,omitempty"`
	DebtIDs     []string    `json:"debt_ids,omitempty"`
	AmountCents money.Cents `json:"amount_cents"`
	Date        dates.Date  `json:"date"`
}

// GhostQuote describes a vault-funded payment before or after it commits.
type GhostQuote struct {
	TransferID               string                 `json:"transfer_id,omitempty"`
	ProviderRef              string                 `json:"provider_ref,omitempty"`
	VaultID                  string                 `json:"vault_id"`
	Plan                     debt.Plan              `json:"plan"`
	VaultBalanceBeforeCents  money.Cents            `json:"vault_balance_before_cents"`
	VaultBalanceAfterCents   money.Cents            `json:"vault_balance_after_cents"`
	DebtRemainingBeforeCents map[string]money.Cents `json:"debt_remaining_before_cents"`
	DebtRemainingAfterCents  map[string]money.Cents `json:"debt_remaining_after_cents"`
}

func (p GhostPayParams) mode() (debt.Mode, error) {
	switch {
	case p.DebtID != "" && len(p.DebtIDs) == 0:
		return debt.ModeGhostPay, nil
	case p.DebtID == "" && len(p.DebtIDs) > 0:
		return debt.ModeGhostSplit, nil
	default:
		return "", ledger.NewValidationError("exactly one of debt_id or debt_ids is required")
	}
}

// PreviewGhostPay plans a vault-funded payment without emitting anything. The
// paid amount is min(requested, vault balance, remaining owed).
func PreviewGhostPay(log ledger.Log, p GhostPayParams) (GhostQuote, error) {
	s, err := replay(log)
	if err != nil {
		return GhostQuote{}, err
	}
	return quote(s, p)
}

func quote(s *ledger.State, p GhostPayParams) (GhostQuote, error) {
	if err := requireID("user_id", p.UserID); err != nil {
		return GhostQuote{}, err
	}
	if err := requireID("vault_id", p.VaultID); err != nil {
		return GhostQuote{}, err
	}
	if err := requirePositive("amount_cents", p.AmountCents); err != nil {
		return GhostQuote{}, err
	}
	if err := requireDate(p.Date); err != nil {
		return GhostQuote{}, err
	}
	mode, err := p.mode()
	if err != nil {
		return GhostQuote{}, err
	}
	v, err := s.Vault(p.VaultID)
	if err != nil {
		return GhostQuote{}, err
	}
	if v.BalanceCents <= 0 {
		return GhostQuote{}, ledger.NewInsufficientFundsError("vault", v.ID, p.AmountCents, v.BalanceCents)
	}

	requested := p.DebtIDs
	if mode == debt.ModeGhostPay {
		requested = []string{p.DebtID}
	}
	_, balances, err := selectDebts(s, requested)
	if err != nil {
		return GhostQuote{}, err
	}
	plan, err := debt.Allocate(balances, debt.Request{
		Mode:           mode,
		TargetDebtID:   p.DebtID,
		RequestedCents: p.AmountCents,
		AvailableCents: v.BalanceCents,
	})
	if err != nil {
		return GhostQuote{}, err
	}
	if plan.PaidCents <= 0 {
		return GhostQuote{}, ledger.NewInvalidStateError("vault", v.ID, "nothing to pay")
	}

	q := GhostQuote{
		VaultID:                  v.ID,
		Plan:                     plan,
		VaultBalanceBeforeCents:  v.BalanceCents,
		VaultBalanceAfterCents:   v.BalanceCents - plan.PaidCents,
		DebtRemainingBeforeCents: map[string]money.Cents{},
		DebtRemainingAfterCents:  map[string]money.Cents{},
	}
	for _, b := range debt.Eligible(balances) {
		q.DebtRemainingBeforeCents[b.DebtID] = b.RemainingCents
		q.DebtRemainingAfterCents[b.DebtID] = b.RemainingCents
	}
	for _, l := range plan.Lines {
		q.DebtRemainingAfterCents[l.DebtID] -= l.AmountCents
	}
	return q, nil
}

// CommitGhostPay executes a vault-funded payment as one settled transfer:
// TRANSFER_REQUESTED, TRANSFER_SUCCEEDED, a penalty-free VAULT_WITHDRAWN and
// one DEBT_PAYMENT_APPLIED per plan line.
func CommitGhostPay(log ledger.Log, p GhostPayParams) ([]ledger.Event, GhostQuote, error) {
	if err := requireID("transfer_id", p.TransferID); err != nil {
		return nil, GhostQuote{}, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, GhostQuote{}, err
	}
	q, err := quote(s, p)
	if err != nil {
		return nil, GhostQuote{}, err
	}
	if err := newTransfer(s, p.TransferID); err != nil {
		return nil, GhostQuote{}, err
	}

	reason, source, to, target := ledger.ReasonGhostDebtPay, ledger.SourceGhostPay, ledger.DebtAccount(p.DebtID), p.DebtID
	if q.Plan.Mode == debt.ModeGhostSplit {
		paid := make([]string, len(q.Plan.Lines))
		for i, l := range q.Plan.Lines {
			paid[i] = l.DebtID
		}
		reason, source, to, target = ledger.ReasonGhostDebtSplitPay, ledger.SourceGhostSplit, ledger.DebtsAccount(paid), ""
	}
	q.TransferID = p.TransferID
	q.ProviderRef = SimulatedRefPrefix + p.TransferID

	out := []ledger.Event{
		ledger.TransferRequested{
			TransferID:    p.TransferID,
			UserID:        p.UserID,
			FromAccountID: ledger.VaultAccount(p.VaultID),
			ToAccountID:   to,
			AmountCents:   q.Plan.PaidCents,
			Reason:        reason,
			TargetID:      target,
			Date:          p.Date,
		},
		ledger.TransferSucceeded{TransferID: p.TransferID, ProviderRef: q.ProviderRef, Date: p.Date},
		ledger.VaultWithdrawn{VaultID: p.VaultID, AmountCents: q.Plan.PaidCents, TransferID: p.TransferID, Date: p.Date},
	}
	for _, l := range q.Plan.Lines {
		out = append(out, ledger.DebtPaymentApplied{
			DebtID:      l.DebtID,
			AmountCents: l.AmountCents,
			Source:      source,
			TransferID:  p.TransferID,
			Date:        p.Date,
		})
	}
	return out, q, nil
}
