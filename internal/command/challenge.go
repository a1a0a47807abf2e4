package command

import (
	"fmt"
	"strings"

	"github.com/roach88/ghostledger/internal/challenge"
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// StartChallengeParams starts a 52-week challenge on Date.
type StartChallengeParams struct {
	ChallengeID      string      `json:"challenge_id"`
	StartAmountCents money.Cents `json:"start_amount_cents"`
	Date             dates.Date  `json:"date"`
}

// StartChallenge emits CHALLENGE_STARTED.
func StartChallenge(log ledger.Log, p StartChallengeParams) ([]ledger.Event, error) {
	if err := requireID("challenge_id", p.ChallengeID); err != nil {
		return nil, err
	}
	if err := challenge.ValidateStart(p.StartAmountCents); err != nil {
		return nil, err
	}
	if err := requireDate(p.Date); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	if _, ok := s.Challenges[p.ChallengeID]; ok {
		return nil, ledger.NewAlreadyExistsError("challenge", p.ChallengeID)
	}
	return []ledger.Event{ledger.ChallengeStarted{
		ChallengeID:      p.ChallengeID,
		StartAmountCents: p.StartAmountCents,
		Date:             p.Date,
	}}, nil
}

// ChallengeWeekParams records the current week of a challenge. When VaultID
// is set the week's amount is also deposited into that vault.
type ChallengeWeekParams struct {
	ChallengeID string     `json:"challenge_id"`
	UserID      string     `json:"user_id"`
	VaultID     string     `json:"vault_id,omitempty"`
	TransferID  string     `json:"transfer_id,omitempty"`
	Date        dates.Date `json:"date"`
}

// RecordChallengeWeek records one week as an instantly settled transfer:
// TRANSFER_REQUESTED, TRANSFER_SUCCEEDED with a simulated provider reference,
// CHALLENGE_WEEK_SUCCESS and an optional VAULT_DEPOSITED. TransferID defaults
// to a deterministic id derived from the challenge, week and date.
func RecordChallengeWeek(log ledger.Log, p ChallengeWeekParams) ([]ledger.Event, error) {
	if err := requireID("challenge_id", p.ChallengeID); err != nil {
		return nil, err
	}
	if err := requireID("user_id", p.UserID); err != nil {
		return nil, err
	}
	if err := requireDate(p.Date); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	c, err := s.Challenge(p.ChallengeID)
	if err != nil {
		return nil, err
	}
	if p.VaultID != "" {
		if _, err := s.Vault(p.VaultID); err != nil {
			return nil, err
		}
	}
	if err := noPendingWeekly(s, c.ID); err != nil {
		return nil, err
	}
	id := orDefault(p.TransferID, weekTransferID(c.ID, c.WeekIndex, p.Date))
	if err := newTransfer(s, id); err != nil {
		return nil, err
	}
	return simulatedWeek(c, p.UserID, p.VaultID, id, p.Date)
}

// pendingWeekly returns the challenge's REQUESTED weekly transfer, if any.
func pendingWeekly(s *ledger.State, challengeID string) (ledger.Transfer, bool) {
	for _, t := range s.TransferList() {
		if t.Reason == ledger.ReasonChallengeWeekly && t.TargetID == challengeID && t.Status == ledger.TransferStatusRequested {
			return t, true
		}
	}
	return ledger.Transfer{}, false
}

// noPendingWeekly rejects recording a week while a weekly transfer is in
// flight; its settlement is checked against the week it was requested for.
func noPendingWeekly(s *ledger.State, challengeID string) error {
	if t, ok := pendingWeekly(s, challengeID); ok {
		return ledger.NewInvalidStateError("challenge", challengeID, "weekly transfer %s is still pending", t.ID)
	}
	return nil
}

func weekTransferID(challengeID string, week int, day dates.Date) string {
	return fmt.Sprintf("t_%s_%d_%s", challengeID, week, day)
}

// simulatedWeek builds the settled batch for c's current week.
func simulatedWeek(c ledger.Challenge, userID, vaultID, transferID string, day dates.Date) ([]ledger.Event, error) {
	_, week, err := challenge.RecordWeek(c)
	if err != nil {
		return nil, err
	}
	to := ledger.ChallengeAccount(c.ID)
	if vaultID != "" {
		to = ledger.VaultAccount(vaultID)
	}
	out := []ledger.Event{
		ledger.TransferRequested{
			TransferID:    transferID,
			UserID:        userID,
			FromAccountID: ledger.BankAccount(userID),
			ToAccountID:   to,
			AmountCents:   week.AmountCents,
			Reason:        ledger.ReasonChallengeWeekly,
			TargetID:      c.ID,
			Date:          day,
		},
		ledger.TransferSucceeded{TransferID: transferID, ProviderRef: SimulatedRefPrefix + transferID, Date: day},
		ledger.ChallengeWeekSuccess{
			ChallengeID: c.ID,
			AmountCents: week.AmountCents,
			WeekIndex:   week.WeekIndex,
			TransferID:  transferID,
			Date:        day,
		},
	}
	if vaultID != "" {
		out = append(out, ledger.VaultDeposited{
			VaultID:     vaultID,
			AmountCents: week.AmountCents,
			TransferID:  transferID,
			Date:        day,
		})
	}
	return out, nil
}

// ChallengeWeeklyRequestParams requests the current week's contribution.
// Empty account ids default to the user's bank and the challenge account.
type ChallengeWeeklyRequestParams struct {
	TransferID    string     `json:"transfer_id"`
	UserID        string     `json:"user_id"`
	ChallengeID   string     `json:"challenge_id"`
	FromAccountID string     `json:"from_account_id,omitempty"`
	ToAccountID   string     `json:"to_account_id,omitempty"`
	Date          dates.Date `json:"date"`
}

// RequestChallengeWeekly emits TRANSFER_REQUESTED for the amount the current
// week requires. Only one weekly transfer may be pending per challenge.
func RequestChallengeWeekly(log ledger.Log, p ChallengeWeeklyRequestParams) ([]ledger.Event, error) {
	if err := requireID("transfer_id", p.TransferID); err != nil {
		return nil, err
	}
	if err := requireID("user_id", p.UserID); err != nil {
		return nil, err
	}
	if err := requireID("challenge_id", p.ChallengeID); err != nil {
		return nil, err
	}
	if err := requireDate(p.Date); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	c, err := s.Challenge(p.ChallengeID)
	if err != nil {
		return nil, err
	}
	if c.Status != ledger.ChallengeStatusActive {
		return nil, ledger.NewInvalidStateError("challenge", c.ID, "challenge is %s", c.Status)
	}
	if err := noPendingWeekly(s, c.ID); err != nil {
		return nil, err
	}
	if err := newTransfer(s, p.TransferID); err != nil {
		return nil, err
	}
	return []ledger.Event{ledger.TransferRequested{
		TransferID:    p.TransferID,
		UserID:        p.UserID,
		FromAccountID: orDefault(p.FromAccountID, ledger.BankAccount(p.UserID)),
		ToAccountID:   orDefault(p.ToAccountID, ledger.ChallengeAccount(c.ID)),
		AmountCents:   challenge.RequiredAmount(c),
		Reason:        ledger.ReasonChallengeWeekly,
		TargetID:      c.ID,
		Date:          p.Date,
	}}, nil
}

// ApplyChallengeWeeklySuccess settles a weekly transfer and records the week.
func ApplyChallengeWeeklySuccess(log ledger.Log, p SuccessParams) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	t, err := pendingTransfer(s, p.TransferID, ledger.ReasonChallengeWeekly)
	if err != nil {
		return nil, err
	}
	return challengeWeeklySuccess(s, t, p)
}

func challengeWeeklySuccess(s *ledger.State, t ledger.Transfer, p SuccessParams) ([]ledger.Event, error) {
	c, err := s.Challenge(t.TargetID)
	if err != nil {
		return nil, err
	}
	_, week, err := challenge.RecordWeek(c)
	if err != nil {
		return nil, err
	}
	if week.AmountCents != t.AmountCents {
		return nil, ledger.NewInvalidStateError("transfer", t.ID,
			"transfer amount %d does not match week %d requirement %d", t.AmountCents, week.WeekIndex, week.AmountCents)
	}
	out := []ledger.Event{
		p.event(),
		ledger.ChallengeWeekSuccess{
			ChallengeID: c.ID,
			AmountCents: week.AmountCents,
			WeekIndex:   week.WeekIndex,
			TransferID:  t.ID,
			Date:        p.Date,
		},
	}
	if vaultID, ok := vaultTarget(s, t.ToAccountID); ok {
		out = append(out, ledger.VaultDeposited{
			VaultID:     vaultID,
			AmountCents: week.AmountCents,
			TransferID:  t.ID,
			Date:        p.Date,
		})
	}
	return out, nil
}

// vaultTarget reports the vault a transfer pays into, if its destination is
// an existing vault account.
func vaultTarget(s *ledger.State, accountID string) (string, bool) {
	kind, id := ledger.ParseAccount(accountID)
	if kind != ledger.AccountVault {
		return "", false
	}
	if _, ok := s.Vaults[id]; !ok {
		return "", false
	}
	return id, true
}

// ApplyChallengeWeeklyFailure fails a weekly transfer and the challenge it
// funded. See FailureParams for the optional redirect.
func ApplyChallengeWeeklyFailure(log ledger.Log, p FailureParams) ([]ledger.Event, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	t, err := pendingTransfer(s, p.TransferID, ledger.ReasonChallengeWeekly)
	if err != nil {
		return nil, err
	}
	return challengeWeeklyFailure(s, t, p)
}

func challengeWeeklyFailure(s *ledger.State, t ledger.Transfer, p FailureParams) ([]ledger.Event, error) {
	c, err := s.Challenge(t.TargetID)
	if err != nil {
		return nil, err
	}
	_, settled, err := challenge.Fail(c)
	if err != nil {
		return nil, err
	}
	out := []ledger.Event{
		p.event(),
		ledger.ChallengeFailed{
			ChallengeID:            c.ID,
			PenaltyCents:           settled.PenaltyCents,
			RedirectedToVaultCents: settled.RedirectedToVaultCents,
			Date:                   p.Date,
		},
	}
	redirect, err := redirectRequest(s, redirectParams{
		VaultID:    p.RedirectVaultID,
		TransferID: orDefault(p.RedirectTransferID, p.TransferID+"_redirect"),
		UserID:     t.UserID,
		From:       ledger.ChallengeAccount(c.ID),
		Amount:     settled.RedirectedToVaultCents,
		Date:       p.Date,
	})
	if err != nil {
		return nil, err
	}
	return append(out, redirect...), nil
}

type redirectParams struct {
	VaultID    string
	TransferID string
	UserID     string
	From       string
	Amount     money.Cents
	Date       dates.Date
}

// redirectRequest requests a settled challenge's redirected savings into a
// vault. Nothing is requested without a vault or a positive amount.
func redirectRequest(s *ledger.State, r redirectParams) ([]ledger.Event, error) {
	if r.VaultID == "" || r.Amount <= 0 {
		return nil, nil
	}
	if _, err := s.Vault(r.VaultID); err != nil {
		return nil, err
	}
	if err := requireID("user_id", r.UserID); err != nil {
		return nil, err
	}
	if err := newTransfer(s, r.TransferID); err != nil {
		return nil, err
	}
	return []ledger.Event{ledger.TransferRequested{
		TransferID:    r.TransferID,
		UserID:        r.UserID,
		FromAccountID: r.From,
		ToAccountID:   ledger.VaultAccount(r.VaultID),
		AmountCents:   r.Amount,
		Reason:        ledger.ReasonVaultDeposit,
		TargetID:      r.VaultID,
		Date:          r.Date,
	}}, nil
}

// SettleChallengeParams fails or quits a challenge. RedirectVaultID requests
// the redirected savings into that vault; the deposit lands when the
// redirect transfer succeeds. RedirectTransferID defaults to
// t_<challenge>_redirect.
type SettleChallengeParams struct {
	ChallengeID        string     `json:"challenge_id"`
	UserID             string     `json:"user_id,omitempty"`
	RedirectVaultID    string     `json:"redirect_vault_id,omitempty"`
	RedirectTransferID string     `json:"redirect_transfer_id,omitempty"`
	Date               dates.Date `json:"date"`
}

// FailChallenge emits CHALLENGE_FAILED with a 1% penalty.
func FailChallenge(log ledger.Log, p SettleChallengeParams) ([]ledger.Event, challenge.Settlement, error) {
	return settleChallenge(log, p, challenge.Fail, func(c string, st challenge.Settlement, d dates.Date) ledger.Event {
		return ledger.ChallengeFailed{ChallengeID: c, PenaltyCents: st.PenaltyCents, RedirectedToVaultCents: st.RedirectedToVaultCents, Date: d}
	})
}

// QuitChallenge emits CHALLENGE_QUIT with a 5% penalty.
func QuitChallenge(log ledger.Log, p SettleChallengeParams) ([]ledger.Event, challenge.Settlement, error) {
	return settleChallenge(log, p, challenge.Quit, func(c string, st challenge.Settlement, d dates.Date) ledger.Event {
		return ledger.ChallengeQuit{ChallengeID: c, PenaltyCents: st.PenaltyCents, RedirectedToVaultCents: st.RedirectedToVaultCents, Date: d}
	})
}

func settleChallenge(
	log ledger.Log,
	p SettleChallengeParams,
	settle func(ledger.Challenge) (ledger.Challenge, challenge.Settlement, error),
	build func(string, challenge.Settlement, dates.Date) ledger.Event,
) ([]ledger.Event, challenge.Settlement, error) {
	if err := requireID("challenge_id", p.ChallengeID); err != nil {
		return nil, challenge.Settlement{}, err
	}
	if err := requireDate(p.Date); err != nil {
		return nil, challenge.Settlement{}, err
	}
	s, err := replay(log)
	if err != nil {
		return nil, challenge.Settlement{}, err
	}
	c, err := s.Challenge(p.ChallengeID)
	if err != nil {
		return nil, challenge.Settlement{}, err
	}
	_, settled, err := settle(c)
	if err != nil {
		return nil, challenge.Settlement{}, err
	}
	redirect, err := redirectRequest(s, redirectParams{
		VaultID:    p.RedirectVaultID,
		TransferID: orDefault(p.RedirectTransferID, "t_"+c.ID+"_redirect"),
		UserID:     p.UserID,
		From:       ledger.ChallengeAccount(c.ID),
		Amount:     settled.RedirectedToVaultCents,
		Date:       p.Date,
	})
	if err != nil {
		return nil, challenge.Settlement{}, err
	}
	out := append([]ledger.Event{build(c.ID, settled, p.Date)}, redirect...)
	return out, settled, nil
}

// CatchUpParams brings a challenge up to date on Today. VaultID, when set,
// receives each synthesized week's contribution.
type CatchUpParams struct {
	ChallengeID string     `json:"challenge_id"`
	UserID      string     `json:"user_id"`
	VaultID     string     `json:"vault_id,omitempty"`
	Today       dates.Date `json:"today"`
}

// CatchUpChallenge synthesizes the settled weekly batches owed between the
// challenge's last recorded week and Today. Week k+1 is dated start + 7(k+1).
// Running it twice on the same day emits nothing the second time.
func CatchUpChallenge(log ledger.Log, p CatchUpParams) ([]ledger.Event, error) {
	if err := requireID("challenge_id", p.ChallengeID); err != nil {
		return nil, err
	}
	if err := requireID("user_id", p.UserID); err != nil {
		return nil, err
	}
	if p.Today.IsZero() {
		return nil, ledger.NewValidationError("today is required")
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	return catchUp(s, p)
}

func catchUp(s *ledger.State, p CatchUpParams) ([]ledger.Event, error) {
	c, err := s.Challenge(p.ChallengeID)
	if err != nil {
		return nil, err
	}
	if p.VaultID != "" {
		if _, err := s.Vault(p.VaultID); err != nil {
			return nil, err
		}
	}
	owed := challenge.OwedWeeks(c, p.Today)
	if owed > 0 {
		if err := noPendingWeekly(s, c.ID); err != nil {
			return nil, err
		}
	}
	var out []ledger.Event
	for range owed {
		day := challenge.WeekDate(c, c.WeekIndex+1)
		id := weekTransferID(c.ID, c.WeekIndex, day)
		if err := newTransfer(s, id); err != nil {
			return nil, err
		}
		batch, err := simulatedWeek(c, p.UserID, p.VaultID, id, day)
		if err != nil {
			return nil, err
		}
		if s, err = ledger.ReplayFrom(s, batch); err != nil {
			return nil, err
		}
		if c, err = s.Challenge(c.ID); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// CatchUpAllParams catches up every ACTIVE challenge.
type CatchUpAllParams struct {
	UserID  string     `json:"user_id"`
	VaultID string     `json:"vault_id,omitempty"`
	Today   dates.Date `json:"today"`
}

// CatchUpAll runs catch-up for every ACTIVE challenge in start order.
// Challenges with a weekly transfer still pending are left for that transfer
// to settle.
func CatchUpAll(log ledger.Log, p CatchUpAllParams) ([]ledger.Event, error) {
	if err := requireID("user_id", p.UserID); err != nil {
		return nil, err
	}
	if p.Today.IsZero() {
		return nil, ledger.NewValidationError("today is required")
	}
	s, err := replay(log)
	if err != nil {
		return nil, err
	}
	var out []ledger.Event
	for _, c := range s.ChallengeList() {
		if c.Status != ledger.ChallengeStatusActive {
			continue
		}
		if _, ok := pendingWeekly(s, c.ID); ok {
			continue
		}
		batch, err := catchUp(s, CatchUpParams{ChallengeID: c.ID, UserID: p.UserID, VaultID: p.VaultID, Today: p.Today})
		if err != nil {
			return nil, fmt.Errorf("catch up %s: %w", c.ID, err)
		}
		if s, err = ledger.ReplayFrom(s, batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// IsSimulatedRef reports whether a provider reference was minted by the
// ledger rather than a payment provider.
func IsSimulatedRef(ref string) bool {
	return strings.HasPrefix(ref, SimulatedRefPrefix)
}
