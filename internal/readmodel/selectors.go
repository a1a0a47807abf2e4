// Package readmodel derives views from the event log.
//
// Selectors replay the log they are given and never write. Lookups of a
// missing id return ok=false rather than an error.
package readmodel

import (
	"fmt"

	"github.com/roach88/ghostledger/internal/challenge"
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
	"github.com/roach88/ghostledger/internal/vault"
)

func replay(log ledger.Log) (*ledger.State, error) {
	s, err := ledger.Replay(log)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return s, nil
}

// VaultSummary is a vault with the penalty a withdrawal would cost today.
type VaultSummary struct {
	Vault          ledger.Vault `json:"vault"`
	BalanceCents   money.Cents  `json:"balance_cents"`
	PenaltyPercent int64        `json:"penalty_percent"`
	PenaltyReason  string       `json:"penalty_reason"`
}

// VaultBalance returns the balance of a vault.
func VaultBalance(log ledger.Log, vaultID string) (money.Cents, bool, error) {
	s, err := replay(log)
	if err != nil {
		return 0, false, err
	}
	v, ok := s.Vaults[vaultID]
	return v.BalanceCents, ok, nil
}

// SelectVaultSummary returns a vault and its current penalty on today.
func SelectVaultSummary(log ledger.Log, vaultID string, today dates.Date) (VaultSummary, bool, error) {
	s, err := replay(log)
	if err != nil {
		return VaultSummary{}, false, err
	}
	v, ok := s.Vaults[vaultID]
	if !ok {
		return VaultSummary{}, false, nil
	}
	return vaultSummary(v, today), true, nil
}

func vaultSummary(v ledger.Vault, today dates.Date) VaultSummary {
	pct, reason := vault.PenaltyPercent(v, today)
	return VaultSummary{Vault: v, BalanceCents: v.BalanceCents, PenaltyPercent: pct, PenaltyReason: reason}
}

// ChallengeSummary is a challenge with its next required deposit.
// NextRequiredCents is nil once the challenge is no longer actionable.
type ChallengeSummary struct {
	Challenge         ledger.Challenge       `json:"challenge"`
	Status            ledger.ChallengeStatus `json:"status"`
	WeekIndex         int                    `json:"week_index"`
	TotalSavedCents   money.Cents            `json:"total_saved_cents"`
	NextRequiredCents *money.Cents           `json:"next_required_cents"`
}

// SelectChallenge returns a challenge.
func SelectChallenge(log ledger.Log, challengeID string) (ledger.Challenge, bool, error) {
	s, err := replay(log)
	if err != nil {
		return ledger.Challenge{}, false, err
	}
	c, ok := s.Challenges[challengeID]
	return c, ok, nil
}

// ChallengeNextRequired returns the amount due for the current week. ok is
// false for missing, finished or non-ACTIVE challenges.
func ChallengeNextRequired(log ledger.Log, challengeID string) (money.Cents, bool, error) {
	c, ok, err := SelectChallenge(log, challengeID)
	if err != nil || !ok {
		return 0, false, err
	}
	next := nextRequired(c)
	if next == nil {
		return 0, false, nil
	}
	return *next, true, nil
}

// SelectChallengeSummary returns a challenge summary.
func SelectChallengeSummary(log ledger.Log, challengeID string) (ChallengeSummary, bool, error) {
	c, ok, err := SelectChallenge(log, challengeID)
	if err != nil || !ok {
		return ChallengeSummary{}, false, err
	}
	return challengeSummary(c), true, nil
}

func challengeSummary(c ledger.Challenge) ChallengeSummary {
	return ChallengeSummary{
		Challenge:         c,
		Status:            c.Status,
		WeekIndex:         c.WeekIndex,
		TotalSavedCents:   c.TotalSavedCents,
		NextRequiredCents: nextRequired(c),
	}
}

func nextRequired(c ledger.Challenge) *money.Cents {
	if c.Status != ledger.ChallengeStatusActive || c.WeekIndex >= ledger.ChallengeWeeks {
		return nil
	}
	amount := challenge.RequiredAmount(c)
	return &amount
}

// PendingTransfer is a transfer still waiting for its provider answer.
type PendingTransfer struct {
	TransferID    string                `json:"transfer_id"`
	Status        ledger.TransferStatus `json:"status"`
	Reason        ledger.TransferReason `json:"reason"`
	AmountCents   money.Cents           `json:"amount_cents"`
	FromAccountID string                `json:"from_account_id"`
	ToAccountID   string                `json:"to_account_id"`
	RequestedOn   dates.Date            `json:"requested_on"`
}

// PendingTransfers returns REQUESTED transfers in request order.
func PendingTransfers(log ledger.Log) ([]PendingTransfer, error) {
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	return pendingTransfers(s), nil
}

func pendingTransfers(s *ledger.State) []PendingTransfer {
	out := []PendingTransfer{}
	for _, t := range s.TransferList() {
		if t.Status != ledger.TransferStatusRequested {
			continue
		}
		out = append(out, PendingTransfer{
			TransferID:    t.ID,
			Status:        t.Status,
			Reason:        t.Reason,
			AmountCents:   t.AmountCents,
			FromAccountID: t.FromAccountID,
			ToAccountID:   t.ToAccountID,
			RequestedOn:   t.RequestedOn,
		})
	}
	return out
}

// Dashboard is the home screen: every entity in creation order plus what is
// still in flight.
type Dashboard struct {
	Vaults           []VaultSummary     `json:"vaults"`
	Debts            []ledger.Debt      `json:"debts"`
	Challenges       []ChallengeSummary `json:"challenges"`
	PendingTransfers []PendingTransfer  `json:"pending_transfers"`
	TotalSavedCents  money.Cents        `json:"total_saved_cents"`
	TotalOwedCents   money.Cents        `json:"total_owed_cents"`
}

// SelectDashboard builds the dashboard. today only affects the penalty shown
// per vault.
func SelectDashboard(log ledger.Log, today dates.Date) (Dashboard, error) {
	s, err := replay(log)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{
		Vaults:           []VaultSummary{},
		Debts:            s.DebtList(),
		Challenges:       []ChallengeSummary{},
		PendingTransfers: pendingTransfers(s),
	}
	for _, v := range s.VaultList() {
		d.Vaults = append(d.Vaults, vaultSummary(v, today))
		d.TotalSavedCents += v.BalanceCents
	}
	for _, c := range s.ChallengeList() {
		d.Challenges = append(d.Challenges, challengeSummary(c))
	}
	for _, debt := range d.Debts {
		d.TotalOwedCents += debt.RemainingCents
	}
	return d, nil
}
