package command

import (
	"fmt"
	"slices"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/debt"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// CreateDebtParams registers a debt.
type CreateDebtParams struct {
	DebtID              string      `json:"debt_id"`
	UserID              string      `json:"user_id,omitempty"`
	Name                string      `json:"name"`
	BalanceCents        money.Cents `json:"balance_cents"`
	MinimumPaymentCents money.Cents `json:"minimum_payment_cents"`
	Date                dates.Date  `json:"date"`
}

// CreateDebt emits DEBT_CREATED.
func CreateDebt(log ledger.Log, p CreateDebtParams) ([]ledger.Event, error) {
	if err := requireID("debt_id", p.DebtID); err != nil {
		return nil, err
	}
	if err := requireID("name", p.Name); err != nil {
		return nil, err
	}
	if p.BalanceCents < 0 {
		return nil, ledger.NewValidationError("balance_cents must be >= 0")
	}
	if p.MinimumPaymentCents < 0 {
		return nil, ledger.NewValidationError("minimum_payment_cents must be >= 0")
	}
	if err := requireDate(p.Date); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Debts[p.DebtID]; ok {
		return nil, ledger.NewAlreadyExistsError("debt", p.DebtID)
	}
	return []ledger.Event{ledger.DebtCreated{
		DebtID:              p.DebtID,
		UserID:              p.UserID,
		Name:                p.Name,
		BalanceCents:        p.BalanceCents,
		MinimumPaymentCents: p.MinimumPaymentCents,
		Date:                p.Date,
	}}, nil
}

// GhostPayRequestParams requests a provider transfer paying one debt.
type GhostPayRequestParams struct {
	TransferID    string      `json:"transfer_id"`
	UserID        string      `json:"user_id"`
	DebtID        string      `json:"debt_id"`
	FromAccountID string      `json:"from_account_id,omitempty"`
	ToAccountID   string      `json:"to_account_id,omitempty"`
	AmountCents   money.Cents `json:"amount_cents"`
	Date          dates.Date  `json:"date"`
}

// RequestGhostPay emits TRANSFER_REQUESTED paying one debt. The payment is
// clamped to the remaining balance when the transfer settles.
func RequestGhostPay(log ledger.Log, p GhostPayRequestParams) ([]ledger.Event, error) {
	if err := requireID("transfer_id", p.TransferID); err != nil {
		return nil, err
	}
	if err := requireID("user_id", p.UserID); err != nil {
		return nil, err
	}
	if err := requireID("debt_id", p.DebtID); err != nil {
		return nil, err
	}
	if err := requirePositive("amount_cents", p.AmountCents); err != nil {
		return nil, err
	}
	if err := requireDate(p.Date); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	d, err := s.Debt(p.DebtID)
	if err != nil {
		return nil, err
	}
	if d.RemainingCents <= 0 {
		return nil, ledger.NewInvalidStateError("debt", d.ID, "debt is already paid off")
	}
	if err := newTransfer(s, p.TransferID); err != nil {
		return nil, err
	}
	return []ledger.Event{ledger.TransferRequested{
		TransferID:    p.TransferID,
		UserID:        p.UserID,
		FromAccountID: orDefault(p.FromAccountID, ledger.BankAccount(p.UserID)),
		ToAccountID:   orDefault(p.ToAccountID, ledger.DebtAccount(p.DebtID)),
		AmountCents:   p.AmountCents,
		Reason:        ledger.ReasonGhostDebtPay,
		TargetID:      p.DebtID,
		Date:          p.Date,
	}}, nil
}

// GhostSplitRequestParams requests one provider transfer per debt line of an
// even split. TransferIDs, when given, pair with DebtIDs by position;
// otherwise ids are TransferIDPrefix + "_" + 1-based position.
type GhostSplitRequestParams struct {
	UserID           string      `json:"user_id"`
	DebtIDs          []string    `json:"debt_ids"`
	TransferIDs      []string    `json:"transfer_ids,omitempty"`
	TransferIDPrefix string      `json:"transfer_id_prefix,omitempty"`
	FromAccountID    string      `json:"from_account_id,omitempty"`
	AmountCents      money.Cents `json:"amount_cents"`
	Date             dates.Date  `json:"date"`
}

// RequestGhostSplitPay allocates an even split and emits a TRANSFER_REQUESTED
// per non-zero line.
func RequestGhostSplitPay(log ledger.Log, p GhostSplitRequestParams) ([]ledger.Event, debt.Plan, error) {
	if err := requireID("user_id", p.UserID); err != nil {
		return nil, debt.Plan{}, err
	}
	if err := requirePositive("amount_cents", p.AmountCents); err != nil {
		return nil, debt.Plan{}, err
	}
	if err := requireDate(p.Date); err != nil {
		return nil, debt.Plan{}, err
	}
	if len(p.TransferIDs) > 0 && len(p.TransferIDs) != len(p.DebtIDs) {
		return nil, debt.Plan{}, ledger.NewValidationError("transfer_ids must pair with debt_ids")
	}
	if len(p.TransferIDs) == 0 && p.TransferIDPrefix == "" {
		return nil, debt.Plan{}, ledger.NewValidationError("transfer_ids or transfer_id_prefix is required")
	}
	seen := make(map[string]bool, len(p.TransferIDs))
	for _, tid := range p.TransferIDs {
		if seen[tid] {
			return nil, debt.Plan{}, ledger.NewValidationError("transfer_ids contains %s more than once", tid)
		}
		seen[tid] = true
	}
	s, err := replay(log)
	if err != nil {
		return nil, debt.Plan{}, err
	}
	ids, balances, err := selectDebts(s, p.DebtIDs)
	if err != nil {
		return nil, debt.Plan{}, err
	}
	plan, err := debt.Allocate(balances, debt.Request{
		Mode:           debt.ModeGhostSplit,
		RequestedCents: p.AmountCents,
		AvailableCents: p.AmountCents,
	})
	if err != nil {
		return nil, debt.Plan{}, err
	}

	transferFor := make(map[string]string, len(ids))
	for i, id := range p.DebtIDs {
		if _, seen := transferFor[id]; seen {
			continue
		}
		if len(p.TransferIDs) > 0 {
			transferFor[id] = p.TransferIDs[i]
		} else {
			transferFor[id] = fmt.Sprintf("%s_%d", p.TransferIDPrefix, i+1)
		}
	}

	out := make([]ledger.Event, 0, len(plan.Lines))
	for _, line := range plan.Lines {
		tid := transferFor[line.DebtID]
		if err := requireID("transfer_id", tid); err != nil {
			return nil, debt.Plan{}, err
		}
		if err := newTransfer(s, tid); err != nil {
			return nil, debt.Plan{}, err
		}
		out = append(out, ledger.TransferRequested{
			TransferID:    tid,
			UserID:        p.UserID,
			FromAccountID: orDefault(p.FromAccountID, ledger.BankAccount(p.UserID)),
			ToAccountID:   ledger.DebtAccount(line.DebtID),
			AmountCents:   line.AmountCents,
			Reason:        ledger.ReasonGhostDebtSplitPay,
			TargetID:      line.DebtID,
			Date:          p.Date,
		})
	}
	return out, plan, nil
}

// ApplyGhostPaySuccess settles a GHOST_DEBT_PAY transfer and applies the
// payment, clamped to what the debt still owes.
func ApplyGhostPaySuccess(log ledger.Log, p SuccessParams) ([]ledger.Event, error) {
	return applyDebtSuccess(log, p, ledger.ReasonGhostDebtPay, ledger.SourceGhostPay)
}

// ApplyGhostSplitPaySuccess settles one GHOST_DEBT_SPLIT_PAY line.
func ApplyGhostSplitPaySuccess(log ledger.Log, p SuccessParams) ([]ledger.Event, error) {
	return applyDebtSuccess(log, p, ledger.ReasonGhostDebtSplitPay, ledger.SourceGhostSplit)
}

func applyDebtSuccess(log ledger.Log, p SuccessParams, reason ledger.TransferReason, source ledger.PaymentSource) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	t, err := pendingTransfer(s, p.TransferID, reason)
	if err != nil {
		return nil, err
	}
	return debtPaymentSuccess(s, t, p, source)
}

// debtPaymentSuccess clamps the payment to what the debt still owes. A debt
// paid off since the request gets no payment line.
func debtPaymentSuccess(s *ledger.State, t ledger.Transfer, p SuccessParams, source ledger.PaymentSource) ([]ledger.Event, error) {
	d, err := s.Debt(t.TargetID)
	if err != nil {
		return nil, err
	}
	out := []ledger.Event{p.event()}
	if applied := money.Min(t.AmountCents, d.RemainingCents); applied > 0 {
		out = append(out, ledger.DebtPaymentApplied{
			DebtID:      d.ID,
			AmountCents: applied,
			Source:      source,
			TransferID:  t.ID,
			Date:        p.Date,
		})
	}
	return out, nil
}

// selectDebts resolves requested debt ids, dropping duplicates and keeping
// first-seen order. Unknown ids are NotFound.
func selectDebts(s *ledger.State, ids []string) ([]string, []debt.Balance, error) {
	if len(ids) == 0 {
		return nil, nil, ledger.NewValidationError("debt_ids must not be empty")
	}
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := requireID("debt_id", id); err != nil {
			return nil, nil, err
		}
		if !slices.Contains(unique, id) {
			unique = append(unique, id)
		}
	}
	balances := make([]debt.Balance, 0, len(unique))
	for _, id := range unique {
		d, err := s.Debt(id)
		if err != nil {
			return nil, nil, err
		}
		balances = append(balances, debt.Balance{DebtID: d.ID, RemainingCents: d.RemainingCents})
	}
	return unique, balances, nil
}
