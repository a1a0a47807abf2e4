package ledger

import (
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/money"
)

// Type is the discriminator of an event record.
type Type string

const (
	TypeVaultCreated         Type = "VAULT_CREATED"
	TypeVaultDeposited       Type = "VAULT_DEPOSITED"
	TypeVaultWithdrawn       Type = "VAULT_WITHDRAWN"
	TypeChallengeStarted     Type = "CHALLENGE_STARTED"
	TypeChallengeWeekSuccess Type = "CHALLENGE_WEEK_SUCCESS"
	TypeChallengeFailed      Type = "CHALLENGE_FAILED"
	TypeChallengeQuit        Type = "CHALLENGE_QUIT"
	TypeDebtCreated          Type = "DEBT_CREATED"
	TypeDebtPaymentApplied   Type = "DEBT_PAYMENT_APPLIED"
	TypeTransferRequested    Type = "TRANSFER_REQUESTED"
	TypeTransferSucceeded    Type = "TRANSFER_SUCCEEDED"
	TypeTransferFailed       Type = "TRANSFER_FAILED"
)

// AllTypes lists every event type in declaration order.
func AllTypes() []Type {
	return []Type{
		TypeVaultCreated, TypeVaultDeposited, TypeVaultWithdrawn,
		TypeChallengeStarted, TypeChallengeWeekSuccess, TypeChallengeFailed, TypeChallengeQuit,
		TypeDebtCreated, TypeDebtPaymentApplied,
		TypeTransferRequested, TypeTransferSucceeded, TypeTransferFailed,
	}
}

// Event is a single immutable fact in the log.
//
// This is a sealed interface - only types in this package can implement it.
type Event interface {
	Type() Type
	EventDate() dates.Date
	accept(v Visitor) error
}

// Visitor handles every event variant. Implementations get a compile error
// when a variant is added, which keeps reducers and projections exhaustive.
type Visitor interface {
	VisitVaultCreated(VaultCreated) error
	VisitVaultDeposited(VaultDeposited) error
	VisitVaultWithdrawn(VaultWithdrawn) error
	VisitChallengeStarted(ChallengeStarted) error
	VisitChallengeWeekSuccess(ChallengeWeekSuccess) error
	VisitChallengeFailed(ChallengeFailed) error
	VisitChallengeQuit(ChallengeQuit) error
	VisitDebtCreated(DebtCreated) error
	VisitDebtPaymentApplied(DebtPaymentApplied) error
	VisitTransferRequested(TransferRequested) error
	VisitTransferSucceeded(TransferSucceeded) error
	VisitTransferFailed(TransferFailed) error
}

// Visit dispatches e to the matching Visitor method.
func Visit(e Event, v Visitor) error {
	return e.accept(v)
}

// VaultCreated opens a vault with its commitment policy.
type VaultCreated struct {
	VaultID string     `json:"vault_id"`
	Name    string     `json:"name"`
	Kind    VaultKind  `json:"kind"`
	Date    dates.Date `json:"date"`
}

// VaultDeposited credits a vault. TransferID is empty for manual deposits.
type VaultDeposited struct {
	VaultID     string      `json:"vault_id"`
	AmountCents money.Cents `json:"amount_cents"`
	TransferID  string      `json:"transfer_id,omitempty"`
	Date        dates.Date  `json:"date"`
}

// VaultWithdrawn debits AmountCents from a vault; PenaltyCents of it is
// forfeited.
type VaultWithdrawn struct {
	VaultID      string      `json:"vault_id"`
	AmountCents  money.Cents `json:"amount_cents"`
	PenaltyCents money.Cents `json:"penalty_cents"`
	TransferID   string      `json:"transfer_id,omitempty"`
	Date         dates.Date  `json:"date"`
}

// ChallengeStarted begins a doubling challenge at week 0.
type ChallengeStarted struct {
	ChallengeID      string      `json:"challenge_id"`
	StartAmountCents money.Cents `json:"start_amount_cents"`
	Date             dates.Date  `json:"date"`
}

// ChallengeWeekSuccess records a completed week. WeekIndex is the 0-based
// index of the week just completed.
type ChallengeWeekSuccess struct {
	ChallengeID string      `json:"challenge_id"`
	AmountCents money.Cents `json:"amount_cents"`
	WeekIndex   int         `json:"week_index"`
	TransferID  string      `json:"transfer_id,omitempty"`
	Date        dates.Date  `json:"date"`
}

// ChallengeFailed terminates a challenge after a missed week.
type ChallengeFailed struct {
	ChallengeID            string      `json:"challenge_id"`
	PenaltyCents           money.Cents `json:"penalty_cents"`
	RedirectedToVaultCents money.Cents `json:"redirected_to_vault_cents"`
	Date                   dates.Date  `json:"date"`
}

// ChallengeQuit terminates a challenge by user choice.
type ChallengeQuit struct {
	ChallengeID            string      `json:"challenge_id"`
	PenaltyCents           money.Cents `json:"penalty_cents"`
	RedirectedToVaultCents money.Cents `json:"redirected_to_vault_cents"`
	Date                   dates.Date  `json:"date"`
}

// DebtCreated registers a debt with its opening balance.
type DebtCreated struct {
	DebtID              string      `json:"debt_id"`
	UserID              string      `json:"user_id,omitempty"`
	Name                string      `json:"name"`
	BalanceCents        money.Cents `json:"balance_cents"`
	MinimumPaymentCents money.Cents `json:"minimum_payment_cents"`
	Date                dates.Date  `json:"date"`
}

// PaymentSource names what funded a debt payment.
type PaymentSource string

const (
	SourceGhostPay   PaymentSource = "GHOST_PAY"
	SourceGhostSplit PaymentSource = "GHOST_SPLIT"
	SourceManual     PaymentSource = "MANUAL"
)

// DebtPaymentApplied reduces a debt's remaining balance.
type DebtPaymentApplied struct {
	DebtID      string        `json:"debt_id"`
	AmountCents money.Cents   `json:"amount_cents"`
	Source      PaymentSource `json:"source"`
	TransferID  string        `json:"transfer_id,omitempty"`
	Date        dates.Date    `json:"date"`
}

// TransferReason names the action a transfer funds.
type TransferReason string

const (
	ReasonVaultDeposit      TransferReason = "VAULT_DEPOSIT"
	ReasonVaultWithdraw     TransferReason = "VAULT_WITHDRAW"
	ReasonChallengeWeekly   TransferReason = "CHALLENGE_WEEKLY_AUTO_WITHDRAW"
	ReasonGhostDebtPay      TransferReason = "GHOST_DEBT_PAY"
	ReasonGhostDebtSplitPay TransferReason = "GHOST_DEBT_SPLIT_PAY"
)

// Valid reports whether r is a known reason.
func (r TransferReason) Valid() bool {
	switch r {
	case ReasonVaultDeposit, ReasonVaultWithdraw, ReasonChallengeWeekly,
		ReasonGhostDebtPay, ReasonGhostDebtSplitPay:
		return true
	}
	return false
}

// TransferRequested opens a two-phase transfer. TargetID names the vault, debt
// or challenge the effect lands on once the transfer succeeds; it is empty
// for multi-debt payments settled in the same batch.
type TransferRequested struct {
	TransferID    string         `json:"transfer_id"`
	UserID        string         `json:"user_id"`
	FromAccountID string         `json:"from_account_id"`
	ToAccountID   string         `json:"to_account_id"`
	AmountCents   money.Cents    `json:"amount_cents"`
	Reason        TransferReason `json:"reason"`
	TargetID      string         `json:"target_id,omitempty"`
	Date          dates.Date     `json:"date"`
}

// TransferSucceeded settles a transfer.
type TransferSucceeded struct {
	TransferID  string     `json:"transfer_id"`
	ProviderRef string     `json:"provider_ref"`
	Date        dates.Date `json:"date"`
}

// TransferFailed settles a transfer as failed.
type TransferFailed struct {
	TransferID string     `json:"transfer_id"`
	ErrorCode  string     `json:"error_code"`
	Message    string     `json:"message"`
	Date       dates.Date `json:"date"`
}

func (VaultCreated) Type() Type         { return TypeVaultCreated }
func (VaultDeposited) Type() Type       { return TypeVaultDeposited }
func (VaultWithdrawn) Type() Type       { return TypeVaultWithdrawn }
func (ChallengeStarted) Type() Type     { return TypeChallengeStarted }
func (ChallengeWeekSuccess) Type() Type { return TypeChallengeWeekSuccess }
func (ChallengeFailed) Type() Type      { return TypeChallengeFailed }
func (ChallengeQuit) Type() Type        { return TypeChallengeQuit }
func (DebtCreated) Type() Type          { return TypeDebtCreated }
func (DebtPaymentApplied) Type() Type   { return TypeDebtPaymentApplied }
func (TransferRequested) Type() Type    { return TypeTransferRequested }
func (TransferSucceeded) Type() Type    { return TypeTransferSucceeded }
func (TransferFailed) Type() Type       { return TypeTransferFailed }

func (e VaultCreated) EventDate() dates.Date         { return e.Date }
func (e VaultDeposited) EventDate() dates.Date       { return e.Date }
func (e VaultWithdrawn) EventDate() dates.Date       { return e.Date }
func (e ChallengeStarted) EventDate() dates.Date     { return e.Date }
func (e ChallengeWeekSuccess) EventDate() dates.Date { return e.Date }
func (e ChallengeFailed) EventDate() dates.Date      { return e.Date }
func (e ChallengeQuit) EventDate() dates.Date        { return e.Date }
func (e DebtCreated) EventDate() dates.Date          { return e.Date }
func (e DebtPaymentApplied) EventDate() dates.Date   { return e.Date }
func (e TransferRequested) EventDate() dates.Date    { return e.Date }
func (e TransferSucceeded) EventDate() dates.Date    { return e.Date }
func (e TransferFailed) EventDate() dates.Date       { return e.Date }

func (e VaultCreated) accept(v Visitor) error         { return v.VisitVaultCreated(e) }
func (e VaultDeposited) accept(v Visitor) error       { return v.VisitVaultDeposited(e) }
func (e VaultWithdrawn) accept(v Visitor) error       { return v.VisitVaultWithdrawn(e) }
func (e ChallengeStarted) accept(v Visitor) error     { return v.VisitChallengeStarted(e) }
func (e ChallengeWeekSuccess) accept(v Visitor) error { return v.VisitChallengeWeekSuccess(e) }
func (e ChallengeFailed) accept(v Visitor) error      { return v.VisitChallengeFailed(e) }
func (e ChallengeQuit) accept(v Visitor) error        { return v.VisitChallengeQuit(e) }
func (e DebtCreated) accept(v Visitor) error          { return v.VisitDebtCreated(e) }
func (e DebtPaymentApplied) accept(v Visitor) error   { return v.VisitDebtPaymentApplied(e) }
func (e TransferRequested) accept(v Visitor) error    { return v.VisitTransferRequested(e) }
func (e TransferSucceeded) accept(v Visitor) error    { return v.VisitTransferSucceeded(e) }
func (e TransferFailed) accept(v Visitor) error       { return v.VisitTransferFailed(e) }
