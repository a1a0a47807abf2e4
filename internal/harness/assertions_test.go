package harness

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
)

var day = dates.MustParse("2026-01-01")

func sampleResult(t *testing.T) *Result {
	t.Helper()
	log := ledger.Log{
		ledger.VaultCreated{VaultID: "v1", Name: "Rainy", Kind: ledger.UntilNeed(day), Date: day},
		ledger.VaultDeposited{VaultID: "v1", AmountCents: 2500, Date: day},
		ledger.VaultWithdrawn{VaultID: "v1", AmountCents: 1000, PenaltyCents: 100, Date: day},
		ledger.VaultDeposited{VaultID: "v1", AmountCents: 300, Date: day},
	}
	state, err := ledger.Replay(log)
	require.NoError(t, err)
	r := NewResult()
	r.Log = log
	r.State = state
	return r
}

func TestAssertEventContains(t *testing.T) {
	r := sampleResult(t)

	assert.NoError(t, assertEventContains(r.Log, Assertion{Event: ledger.TypeVaultDeposited}))
	assert.NoError(t, assertEventContains(r.Log, Assertion{
		Event:  ledger.TypeVaultDeposited,
		Fields: map[string]any{"amount_cents": 300},
	}))
	assert.NoError(t, assertEventContains(r.Log, Assertion{
		Event:  ledger.TypeVaultWithdrawn,
		Fields: map[string]any{"penalty_cents": 100, "date": time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}))

	err := assertEventContains(r.Log, Assertion{
		Event:  ledger.TypeVaultDeposited,
		Fields: map[string]any{"amount_cents": 999},
	})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertEventContains, ae.Type)
	assert.Contains(t, ae.Error(), "Full log:")
	assert.Contains(t, ae.Error(), "[2] VAULT_DEPOSITED 2026-01-01")
}

func TestAssertEventOrder(t *testing.T) {
	r := sampleResult(t)

	assert.NoError(t, assertEventOrder(r.Log, Assertion{
		Events: []ledger.Type{ledger.TypeVaultCreated, ledger.TypeVaultWithdrawn, ledger.TypeVaultDeposited},
	}))

	err := assertEventOrder(r.Log, Assertion{
		Events: []ledger.Type{ledger.TypeVaultWithdrawn, ledger.TypeVaultCreated},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no VAULT_CREATED after [VAULT_WITHDRAWN]")
}

func TestAssertEventCount(t *testing.T) {
	r := sampleResult(t)

	assert.NoError(t, assertEventCount(r.Log, Assertion{Event: ledger.TypeVaultDeposited, Count: 2}))
	assert.NoError(t, assertEventCount(r.Log, Assertion{Event: ledger.TypeDebtCreated, Count: 0}))

	err := assertEventCount(r.Log, Assertion{Event: ledger.TypeVaultDeposited, Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestAssertFinalState(t *testing.T) {
	r := sampleResult(t)

	assert.NoError(t, assertFinalState(r.State, Assertion{
		Entity: "vault", ID: "v1",
		Expect: map[string]any{"balance_cents": 1800, "kind": map[string]any{"type": "UNTIL_NEED"}},
	}))

	err := assertFinalState(r.State, Assertion{Entity: "vault", ID: "v1", Expect: map[string]any{"balance_cents": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balance_cents:1")

	err = assertFinalState(r.State, Assertion{Entity: "debt", ID: "d1", Expect: map[string]any{"name": "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debt d1 to exist")
}

func TestEvaluateAssertions(t *testing.T) {
	r := sampleResult(t)

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertEventCount, Event: ledger.TypeVaultCreated, Count: 1},
		{Type: AssertEventCount, Event: ledger.TypeVaultCreated, Count: 2},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertion 1:")
	assert.Contains(t, errs[1], "unknown assertion type: bogus")

	r.State = nil
	errs = EvaluateAssertions(r, []Assertion{{Type: AssertFinalState, Entity: "vault", ID: "v1"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a replayed state")
}

func TestMatchSubset(t *testing.T) {
	actual := normalize(map[string]any{
		"a": 1,
		"b": map[string]any{"c": "x", "d": true},
		"e": []any{1, 2},
	})

	tests := []struct {
		name     string
		expected map[string]any
		want     bool
	}{
		{"empty", map[string]any{}, true},
		{"scalar", map[string]any{"a": 1}, true},
		{"nested subset", map[string]any{"b": map[string]any{"c": "x"}}, true},
		{"array exact", map[string]any{"e": []any{1, 2}}, true},
		{"array prefix", map[string]any{"e": []any{1}}, false},
		{"wrong scalar", map[string]any{"a": 2}, false},
		{"missing key", map[string]any{"z": 1}, false},
		{"type mismatch", map[string]any{"a": "1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchSubset(actual, normalize(tt.expected)))
		})
	}
}

func TestNormalize(t *testing.T) {
	got := normalize(map[string]any{
		"n":    int64(5),
		"when": time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		"list": []any{time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC)},
	})
	assert.Equal(t, map[string]any{
		"n":    json.Number("5"),
		"when": "2026-02-03",
		"list": []any{"2026-02-04"},
	}, got)
}
