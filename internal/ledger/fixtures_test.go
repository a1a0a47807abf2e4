package ledger

import (
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/money"
)

var day0 = dates.MustParse("2026-01-01")

// sampleEvents returns one valid, replayable event of every type.
func sampleEvents() []Event {
	return []Event{
		VaultCreated{VaultID: "v1", Name: "Emergency", Kind: UntilNeed(day0), Date: day0},
		VaultDeposited{VaultID: "v1", AmountCents: 50000, Date: day0},
		TransferRequested{
			TransferID: "t1", UserID: "u1", FromAccountID: "vault:v1", ToAccountID: "bank:main",
			AmountCents: 10000, Reason: ReasonVaultWithdraw, TargetID: "v1", Date: day0,
		},
		TransferSucceeded{TransferID: "t1", ProviderRef: "sim_t1", Date: day0},
		VaultWithdrawn{VaultID: "v1", AmountCents: 10000, PenaltyCents: 1000, TransferID: "t1", Date: day0},
		ChallengeStarted{ChallengeID: "c1", StartAmountCents: 100, Date: day0},
		ChallengeWeekSuccess{ChallengeID: "c1", AmountCents: 100, WeekIndex: 0, Date: day0.AddDays(7)},
		ChallengeFailed{ChallengeID: "c1", PenaltyCents: 1, RedirectedToVaultCents: 99, Date: day0.AddDays(14)},
		ChallengeStarted{ChallengeID: "c2", StartAmountCents: 100, Date: day0},
		ChallengeQuit{ChallengeID: "c2", PenaltyCents: 0, RedirectedToVaultCents: 0, Date: day0.AddDays(1)},
		DebtCreated{DebtID: "d1", UserID: "u1", Name: "Card", BalanceCents: 20000, MinimumPaymentCents: 2500, Date: day0},
		DebtPaymentApplied{DebtID: "d1", AmountCents: 5000, Source: SourceManual, Date: day0},
		TransferRequested{
			TransferID: "t2", UserID: "u1", FromAccountID: "bank:main", ToAccountID: "vault:v1",
			AmountCents: 100, Reason: ReasonVaultDeposit, TargetID: "v1", Date: day0,
		},
		TransferFailed{TransferID: "t2", ErrorCode: "NSF", Message: "insufficient funds", Date: day0},
	}
}

func cents(n int64) money.Cents { return money.Cents(n) }
