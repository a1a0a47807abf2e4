package ledger

import "fmt"

// Log is an ordered sequence of events. Commands take a Log and return the
// events they would append; they never mutate it.
type Log []Event

// Replay folds log into a fresh state.
func Replay(log []Event) (*State, error) {
	return ReplayFrom(NewState(), log)
}

// ReplayFrom folds events onto a copy of s. s itself is never modified, so
// Replay(prefix ++ suffix) equals ReplayFrom(Replay(prefix), suffix).
func ReplayFrom(s *State, events []Event) (*State, error) {
	next := s.Clone()
	for i, e := range events {
		if err := Apply(next, e); err != nil {
			return nil, fmt.Errorf("replay event %d (%s): %w", s.Applied+i+1, e.Type(), err)
		}
	}
	return next, nil
}

// Apply folds a single event into s in place. On error s is unchanged.
func Apply(s *State, e Event) error {
	if err := e.accept(reducer{s: s}); err != nil {
		return err
	}
	s.Applied++
	return nil
}

// reducer mutates state for each event variant. Every method validates
// before writing so a rejected event leaves the state untouched.
type reducer struct {
	s *State
}

var _ Visitor = reducer{}

func (r reducer) VisitVaultCreated(e VaultCreated) error {
	if _, ok := r.s.Vaults[e.VaultID]; ok {
		return NewAlreadyExistsError("vault", e.VaultID)
	}
	r.s.Vaults[e.VaultID] = Vault{
		ID:        e.VaultID,
		Name:      e.Name,
		Kind:      e.Kind,
		CreatedOn: e.Date,
	}
	r.s.VaultOrder = append(r.s.VaultOrder, e.VaultID)
	return nil
}

func (r reducer) VisitVaultDeposited(e VaultDeposited) error {
	v, err := r.s.Vault(e.VaultID)
	if err != nil {
		return err
	}
	if err := r.requireSettled(e.TransferID); err != nil {
		return err
	}
	v.BalanceCents += e.AmountCents
	v.Kind = v.Kind.AfterDeposit(v.BalanceCents, e.Date)
	r.s.Vaults[v.ID] = v
	return nil
}

func (r reducer) VisitVaultWithdrawn(e VaultWithdrawn) error {
	v, err := r.s.Vault(e.VaultID)
	if err != nil {
		return err
	}
	if err := r.requireSettled(e.TransferID); err != nil {
		return err
	}
	v.BalanceCents -= e.AmountCents
	r.s.Vaults[v.ID] = v
	return nil
}

func (r reducer) VisitChallengeStarted(e ChallengeStarted) error {
	if _, ok := r.s.Challenges[e.ChallengeID]; ok {
		return NewAlreadyExistsError("challenge", e.ChallengeID)
	}
	r.s.Challenges[e.ChallengeID] = Challenge{
		ID:               e.ChallengeID,
		StartDate:        e.Date,
		StartAmountCents: e.StartAmountCents,
		Status:           ChallengeStatusActive,
	}
	r.s.ChallengeOrder = append(r.s.ChallengeOrder, e.ChallengeID)
	return nil
}

func (r reducer) VisitChallengeWeekSuccess(e ChallengeWeekSuccess) error {
	c, err := r.activeChallenge(e.ChallengeID)
	if err != nil {
		return err
	}
	if e.WeekIndex != c.WeekIndex {
		return NewInvalidStateError("challenge", c.ID, "week %d recorded while week %d is due", e.WeekIndex, c.WeekIndex)
	}
	if err := r.requireSettled(e.TransferID); err != nil {
		return err
	}
	c.WeekIndex++
	c.TotalSavedCents += e.AmountCents
	if c.WeekIndex >= ChallengeWeeks {
		c.Status = ChallengeStatusCompleted
	}
	r.s.Challenges[c.ID] = c
	return nil
}

func (r reducer) VisitChallengeFailed(e ChallengeFailed) error {
	c, err := r.activeChallenge(e.ChallengeID)
	if err != nil {
		return err
	}
	c.Status = ChallengeStatusFailed
	c.PenaltyCents = e.PenaltyCents
	c.RedirectedCents = e.RedirectedToVaultCents
	r.s.Challenges[c.ID] = c
	return nil
}

func (r reducer) VisitChallengeQuit(e ChallengeQuit) error {
	c, err := r.activeChallenge(e.ChallengeID)
	if err != nil {
		return err
	}
	c.Status = ChallengeStatusQuit
	c.PenaltyCents = e.PenaltyCents
	c.RedirectedCents = e.RedirectedToVaultCents
	r.s.Challenges[c.ID] = c
	return nil
}

func (r reducer) VisitDebtCreated(e DebtCreated) error {
	if _, ok := r.s.Debts[e.DebtID]; ok {
		return NewAlreadyExistsError("debt", e.DebtID)
	}
	r.s.Debts[e.DebtID] = Debt{
		ID:                  e.DebtID,
		UserID:              e.UserID,
		Name:                e.Name,
		OriginalCents:       e.BalanceCents,
		RemainingCents:      e.BalanceCents,
		MinimumPaymentCents: e.MinimumPaymentCents,
		CreatedOn:           e.Date,
	}
	r.s.DebtOrder = append(r.s.DebtOrder, e.DebtID)
	return nil
}

func (r reducer) VisitDebtPaymentApplied(e DebtPaymentApplied) error {
	d, err := r.s.Debt(e.DebtID)
	if err != nil {
		return err
	}
	if err := r.requireSettled(e.TransferID); err != nil {
		return err
	}
	d.RemainingCents -= e.AmountCents
	if d.RemainingCents < 0 {
		d.RemainingCents = 0
	}
	r.s.Debts[d.ID] = d
	return nil
}

func (r reducer) VisitTransferRequested(e TransferRequested) error {
	if _, ok := r.s.Transfers[e.TransferID]; ok {
		return NewAlreadyExistsError("transfer", e.TransferID)
	}
	r.s.Transfers[e.TransferID] = Transfer{
		ID:            e.TransferID,
		UserID:        e.UserID,
		FromAccountID: e.FromAccountID,
		ToAccountID:   e.ToAccountID,
		AmountCents:   e.AmountCents,
		Reason:        e.Reason,
		TargetID:      e.TargetID,
		Status:        TransferStatusRequested,
		RequestedOn:   e.Date,
	}
	r.s.TransferOrder = append(r.s.TransferOrder, e.TransferID)
	return nil
}

func (r reducer) VisitTransferSucceeded(e TransferSucceeded) error {
	t, err := r.pendingTransfer(e.TransferID)
	if err != nil {
		return err
	}
	t.Status = TransferStatusSucceeded
	t.ProviderRef = e.ProviderRef
	r.s.Transfers[t.ID] = t
	return nil
}

func (r reducer) VisitTransferFailed(e TransferFailed) error {
	t, err := r.pendingTransfer(e.TransferID)
	if err != nil {
		return err
	}
	t.Status = TransferStatusFailed
	t.ErrorCode = e.ErrorCode
	t.Message = e.Message
	r.s.Transfers[t.ID] = t
	return nil
}

func (r reducer) activeChallenge(id string) (Challenge, error) {
	c, err := r.s.Challenge(id)
	if err != nil {
		return Challenge{}, err
	}
	if c.Status != ChallengeStatusActive {
		return Challenge{}, NewInvalidStateError("challenge", id, "challenge is %s", c.Status)
	}
	return c, nil
}

func (r reducer) pendingTransfer(id string) (Transfer, error) {
	t, err := r.s.Transfer(id)
	if err != nil {
		return Transfer{}, err
	}
	if t.Status != TransferStatusRequested {
		return Transfer{}, NewInvalidStateError("transfer", id, "transfer already %s", t.Status)
	}
	return t, nil
}

// requireSettled checks the causal link of an effect event. Effects without a
// transfer id are manual and always allowed.
func (r reducer) requireSettled(transferID string) error {
	if transferID == "" {
		return nil
	}
	t, err := r.s.Transfer(transferID)
	if err != nil {
		return err
	}
	if t.Status != TransferStatusSucceeded {
		return NewInvalidStateError("transfer", transferID, "effect applied to %s transfer", t.Status)
	}
	return nil
}
