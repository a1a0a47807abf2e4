package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/dates"
)

func TestReplayEmpty(t *testing.T) {
	s, err := Replay(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Vaults)
	assert.Empty(t, s.Debts)
	assert.Empty(t, s.Challenges)
	assert.Empty(t, s.Transfers)
	assert.Equal(t, 0, s.Applied)
}

func TestReplaySampleLog(t *testing.T) {
	s, err := Replay(sampleEvents())
	require.NoError(t, err)

	v, err := s.Vault("v1")
	require.NoError(t, err)
	assert.Equal(t, "Emergency", v.Name)
	assert.Equal(t, cents(40000), v.BalanceCents)

	c1, err := s.Challenge("c1")
	require.NoError(t, err)
	assert.Equal(t, ChallengeStatusFailed, c1.Status)
	assert.Equal(t, 1, c1.WeekIndex)
	assert.Equal(t, cents(100), c1.TotalSavedCents)
	assert.Equal(t, cents(99), c1.RedirectedCents)

	c2, err := s.Challenge("c2")
	require.NoError(t, err)
	assert.Equal(t, ChallengeStatusQuit, c2.Status)

	d, err := s.Debt("d1")
	require.NoError(t, err)
	assert.Equal(t, cents(15000), d.RemainingCents)
	assert.Equal(t, cents(20000), d.OriginalCents)

	t1, err := s.Transfer("t1")
	require.NoError(t, err)
	assert.Equal(t, TransferStatusSucceeded, t1.Status)
	assert.Equal(t, "sim_t1", t1.ProviderRef)

	t2, err := s.Transfer("t2")
	require.NoError(t, err)
	assert.Equal(t, TransferStatusFailed, t2.Status)
	assert.Equal(t, "NSF", t2.ErrorCode)

	assert.Equal(t, []string{"t1", "t2"}, s.TransferOrder)
	assert.Equal(t, len(sampleEvents()), s.Applied)
}

func TestReplayIsDeterministic(t *testing.T) {
	a, err := Replay(sampleEvents())
	require.NoError(t, err)
	b, err := Replay(sampleEvents())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	ha, err := StateHash(a)
	require.NoError(t, err)
	hb, err := StateHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestReplayFromComposes(t *testing.T) {
	events := sampleEvents()
	full, err := Replay(events)
	require.NoError(t, err)

	for split := 0; split <= len(events); split++ {
		prefix, err := Replay(events[:split])
		require.NoError(t, err)
		before, err := StateHash(prefix)
		require.NoError(t, err)

		got, err := ReplayFrom(prefix, events[split:])
		require.NoError(t, err)
		assert.Equal(t, full, got, "split at %d", split)

		after, err := StateHash(prefix)
		require.NoError(t, err)
		assert.Equal(t, before, after, "ReplayFrom must not mutate its input")
	}
}

func TestReplayUnknownEntities(t *testing.T) {
	tests := []struct {
		name  string
		event Event
	}{
		{"deposit", VaultDeposited{VaultID: "nope", AmountCents: 1, Date: day0}},
		{"withdraw", VaultWithdrawn{VaultID: "nope", AmountCents: 1, Date: day0}},
		{"week", ChallengeWeekSuccess{ChallengeID: "nope", AmountCents: 1, Date: day0}},
		{"fail", ChallengeFailed{ChallengeID: "nope", Date: day0}},
		{"quit", ChallengeQuit{ChallengeID: "nope", Date: day0}},
		{"payment", DebtPaymentApplied{DebtID: "nope", AmountCents: 1, Date: day0}},
		{"succeed", TransferSucceeded{TransferID: "nope", Date: day0}},
		{"fail transfer", TransferFailed{TransferID: "nope", Date: day0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Replay([]Event{tt.event})
			require.Error(t, err)
			assert.True(t, IsNotFound(err), "got %v", err)
		})
	}
}

func TestReplayTransferSettlesOnce(t *testing.T) {
	base := []Event{
		TransferRequested{TransferID: "t1", AmountCents: 5, Reason: ReasonVaultDeposit, TargetID: "v1", Date: day0},
		TransferSucceeded{TransferID: "t1", ProviderRef: "r", Date: day0},
	}
	_, err := Replay(append(base, TransferFailed{TransferID: "t1", Date: day0}))
	assert.True(t, IsInvalidState(err))

	_, err = Replay(append(base, TransferSucceeded{TransferID: "t1", Date: day0}))
	assert.True(t, IsInvalidState(err))

	_, err = Replay(append(base, TransferRequested{TransferID: "t1", Date: day0}))
	assert.True(t, IsInvalidState(err))
}

func TestReplayDuplicateCreation(t *testing.T) {
	created := VaultCreated{VaultID: "v1", Name: "a", Kind: UntilNeed(day0), Date: day0}
	_, err := Replay([]Event{created, created})
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReplayEffectRequiresSettledTransfer(t *testing.T) {
	events := []Event{
		VaultCreated{VaultID: "v1", Name: "a", Kind: UntilNeed(day0), Date: day0},
		TransferRequested{TransferID: "t1", AmountCents: 5, Reason: ReasonVaultDeposit, TargetID: "v1", Date: day0},
		VaultDeposited{VaultID: "v1", AmountCents: 5, TransferID: "t1", Date: day0},
	}
	_, err := Replay(events)
	assert.True(t, IsInvalidState(err))

	_, err = Replay([]Event{events[0], VaultDeposited{VaultID: "v1", AmountCents: 5, TransferID: "ghost", Date: day0}})
	assert.True(t, IsNotFound(err))
}

func TestReplayChallengeWeeks(t *testing.T) {
	events := []Event{ChallengeStarted{ChallengeID: "c1", StartAmountCents: 1, Date: day0}}
	amount := cents(1)
	for w := 0; w < ChallengeWeeks; w++ {
		events = append(events, ChallengeWeekSuccess{
			ChallengeID: "c1", AmountCents: amount, WeekIndex: w, Date: day0.AddDays(7 * (w + 1)),
		})
		amount *= 2
	}
	s, err := Replay(events)
	require.NoError(t, err)
	c := s.Challenges["c1"]
	assert.Equal(t, ChallengeStatusCompleted, c.Status)
	assert.Equal(t, ChallengeWeeks, c.WeekIndex)
	assert.Equal(t, amount-1, c.TotalSavedCents)

	_, err = Replay(append(events, ChallengeWeekSuccess{ChallengeID: "c1", AmountCents: 1, WeekIndex: 52, Date: day0}))
	assert.True(t, IsInvalidState(err))

	_, err = Replay([]Event{events[0], ChallengeWeekSuccess{ChallengeID: "c1", AmountCents: 1, WeekIndex: 3, Date: day0}})
	assert.True(t, IsInvalidState(err), "out-of-order week index")
}

func TestReplayGoalHitDate(t *testing.T) {
	hitDay := dates.MustParse("2026-02-01")
	events := []Event{
		VaultCreated{VaultID: "g", Name: "Trip", Kind: GoalBased(10000), Date: day0},
		VaultDeposited{VaultID: "g", AmountCents: 6000, Date: day0},
		VaultDeposited{VaultID: "g", AmountCents: 4000, Date: hitDay},
		VaultDeposited{VaultID: "g", AmountCents: 4000, Date: hitDay.AddDays(3)},
	}
	s, err := Replay(events)
	require.NoError(t, err)
	v := s.Vaults["g"]
	require.NotNil(t, v.Kind.GoalHitDate)
	assert.Equal(t, hitDay, *v.Kind.GoalHitDate)
	assert.Equal(t, cents(14000), v.BalanceCents)
}

func TestApplyLeavesStateOnError(t *testing.T) {
	s, err := Replay(sampleEvents()[:2])
	require.NoError(t, err)
	before := s.Clone()
	err = Apply(s, ChallengeWeekSuccess{ChallengeID: "missing", Date: day0})
	require.Error(t, err)
	assert.Equal(t, before, s)
}
