package readmodel

import (
	"fmt"
	"strings"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// Entry is one human-readable timeline line.
type Entry struct {
	Seq         int         `json:"seq"`
	Type        ledger.Type `json:"type"`
	Date        dates.Date  `json:"date"`
	Description string      `json:"description"`
}

// Timeline maps every event to an entry, in log order. It does no arithmetic
// beyond formatting amounts, so it works on logs that do not replay.
func Timeline(log ledger.Log) []Entry {
	out := make([]Entry, 0, len(log))
	for i, e := range log {
		out = append(out, NewEntry(i+1, e))
	}
	return out
}

// NewEntry describes e as the seq-th event of its log.
func NewEntry(seq int, e ledger.Event) Entry {
	var d describer
	// describer never fails.
	_ = ledger.Visit(e, &d)
	return Entry{Seq: seq, Type: e.Type(), Date: e.EventDate(), Description: d.text}
}

// FormatTimeline renders entries one per line as "seq date TYPE description".
func FormatTimeline(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%04d %s %s %s\n", e.Seq, e.Date, e.Type, e.Description)
	}
	return b.String()
}

type describer struct {
	text string
}

func (d *describer) set(format string, args ...any) error {
	d.text = fmt.Sprintf(format, args...)
	return nil
}

func (d *describer) VisitVaultCreated(e ledger.VaultCreated) error {
	switch e.Kind.Type {
	case ledger.KindGoalBased:
		return d.set("Vault %q created (GOAL_BASED, goal %s)", e.Name, money.Format(e.Kind.GoalCents))
	case ledger.KindTimed:
		return d.set("Vault %q created (TIMED, matures %s)", e.Name, e.Kind.MaturityDate)
	}
	if e.Kind.MergePolicy != "" {
		return d.set("Vault %q created by merge (%s)", e.Name, e.Kind.MergePolicy)
	}
	return d.set("Vault %q created (UNTIL_NEED)", e.Name)
}

func (d *describer) VisitVaultDeposited(e ledger.VaultDeposited) error {
	return d.set("Vault %s credited %s", e.VaultID, money.Format(e.AmountCents))
}

func (d *describer) VisitVaultWithdrawn(e ledger.VaultWithdrawn) error {
	if e.PenaltyCents > 0 {
		return d.set("Vault %s debited %s (%s discipline)", e.VaultID, money.Format(e.AmountCents), money.Format(e.PenaltyCents))
	}
	return d.set("Vault %s debited %s", e.VaultID, money.Format(e.AmountCents))
}

func (d *describer) VisitChallengeStarted(e ledger.ChallengeStarted) error {
	return d.set("Challenge %s started at %s", e.ChallengeID, money.Format(e.StartAmountCents))
}

func (d *describer) VisitChallengeWeekSuccess(e ledger.ChallengeWeekSuccess) error {
	return d.set("Challenge %s week %d completed (%s)", e.ChallengeID, e.WeekIndex+1, money.Format(e.AmountCents))
}

func (d *describer) VisitChallengeFailed(e ledger.ChallengeFailed) error {
	return d.set("Challenge %s failed (%s discipline, %s redirected)",
		e.ChallengeID, money.Format(e.PenaltyCents), money.Format(e.RedirectedToVaultCents))
}

func (d *describer) VisitChallengeQuit(e ledger.ChallengeQuit) error {
	return d.set("Challenge %s quit (%s discipline, %s redirected)",
		e.ChallengeID, money.Format(e.PenaltyCents), money.Format(e.RedirectedToVaultCents))
}

func (d *describer) VisitDebtCreated(e ledger.DebtCreated) error {
	return d.set("Debt %q created (%s, minimum %s)", e.Name, money.Format(e.BalanceCents), money.Format(e.MinimumPaymentCents))
}

func (d *describer) VisitDebtPaymentApplied(e ledger.DebtPaymentApplied) error {
	return d.set("Debt %s paid %s (%s)", e.DebtID, money.Format(e.AmountCents), e.Source)
}

func (d *describer) VisitTransferRequested(e ledger.TransferRequested) error {
	return d.set("Transfer %s requested: %s %s -> %s (%s)",
		e.TransferID, money.Format(e.AmountCents), e.FromAccountID, e.ToAccountID, e.Reason)
}

func (d *describer) VisitTransferSucceeded(e ledger.TransferSucceeded) error {
	return d.set("Transfer %s succeeded (ref %s)", e.TransferID, e.ProviderRef)
}

func (d *describer) VisitTransferFailed(e ledger.TransferFailed) error {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorCode
	}
	return d.set("Transfer %s failed: %s", e.TransferID, msg)
}
