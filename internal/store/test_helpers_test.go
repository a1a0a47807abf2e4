package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
)

var day0 = dates.MustParse("2026-01-01")

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testEvents returns a short replayable log.
func testEvents() []ledger.Event {
	return []ledger.Event{
		ledger.VaultCreated{VaultID: "v1", Name: "Rainy day", Kind: ledger.UntilNeed(day0), Date: day0},
		ledger.VaultDeposited{VaultID: "v1", AmountCents: 50000, Date: day0},
		ledger.TransferRequested{
			TransferID: "t1", UserID: "u1", FromAccountID: "vault:v1", ToAccountID: "bank:u1",
			AmountCents: 10000, Reason: ledger.ReasonVaultWithdraw, TargetID: "v1", Date: day0,
		},
		ledger.TransferSucceeded{TransferID: "t1", ProviderRef: "ref_1", Date: day0.AddDays(1)},
		ledger.VaultWithdrawn{VaultID: "v1", AmountCents: 10000, PenaltyCents: 1000, TransferID: "t1", Date: day0.AddDays(1)},
	}
}
