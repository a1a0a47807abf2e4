package readmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ghostledger/internal/ledger"
)

func TestTimeline(t *testing.T) {
	entries := Timeline(sampleLog())

	want := []string{
		`Vault "Rainy day" created (UNTIL_NEED)`,
		"Vault v1 credited $25.00",
		"Challenge c1 started at $1.00",
		"Challenge c1 week 1 completed ($1.00)",
		`Debt "Visa" created ($1,000.00, minimum $25.00)`,
		"Transfer t1 requested: $25.00 bank:u1 -> vault:v1 (VAULT_DEPOSIT)",
	}
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Description
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 1, entries[0].Seq)
	assert.Equal(t, ledger.TypeTransferRequested, entries[5].Type)
	assert.Equal(t, "2026-01-08", entries[5].Date.String())
}

func TestTimelineSettlements(t *testing.T) {
	log := ledger.Log{
		ledger.TransferSucceeded{TransferID: "t1", ProviderRef: "sim_t1", Date: day0},
		ledger.TransferFailed{TransferID: "t2", ErrorCode: "NSF", Date: day0},
		ledger.TransferFailed{TransferID: "t3", ErrorCode: "NSF", Message: "insufficient funds", Date: day0},
		ledger.VaultWithdrawn{VaultID: "v1", AmountCents: 10000, PenaltyCents: 1000, Date: day0},
		ledger.VaultWithdrawn{VaultID: "v1", AmountCents: 500, Date: day0},
		ledger.DebtPaymentApplied{DebtID: "d1", AmountCents: 333, Source: ledger.SourceGhostSplit, Date: day0},
		ledger.ChallengeFailed{ChallengeID: "c1", PenaltyCents: 1, RedirectedToVaultCents: 99, Date: day0},
	}

	got := FormatTimeline(Timeline(log))
	want := "" +
		"0001 2026-01-01 TRANSFER_SUCCEEDED Transfer t1 succeeded (ref sim_t1)\n" +
		"0002 2026-01-01 TRANSFER_FAILED Transfer t2 failed: NSF\n" +
		"0003 2026-01-01 TRANSFER_FAILED Transfer t3 failed: insufficient funds\n" +
		"0004 2026-01-01 VAULT_WITHDRAWN Vault v1 debited $100.00 ($10.00 discipline)\n" +
		"0005 2026-01-01 VAULT_WITHDRAWN Vault v1 debited $5.00\n" +
		"0006 2026-01-01 DEBT_PAYMENT_APPLIED Debt d1 paid $3.33 (GHOST_SPLIT)\n" +
		"0007 2026-01-01 CHALLENGE_FAILED Challenge c1 failed ($0.01 discipline, $0.99 redirected)\n"
	assert.Equal(t, want, got)
}
