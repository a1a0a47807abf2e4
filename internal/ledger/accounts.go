package ledger

import "strings"

// Account kinds used in transfer from/to account ids ("vault:v1").
const (
	AccountVault     = "vault"
	AccountDebt      = "debt"
	AccountDebts     = "debts"
	AccountChallenge = "challenge"
	AccountBank      = "bank"
)

// VaultAccount returns the account id of a vault.
func VaultAccount(id string) string { return AccountVault + ":" + id }

// DebtAccount returns the account id of a debt.
func DebtAccount(id string) string { return AccountDebt + ":" + id }

// DebtsAccount returns the account id of a multi-debt payment.
func DebtsAccount(ids []string) string { return AccountDebts + ":" + strings.Join(ids, ",") }

// ChallengeAccount returns the account id of a challenge.
func ChallengeAccount(id string) string { return AccountChallenge + ":" + id }

// BankAccount returns the external funding account of a user.
func BankAccount(userID string) string { return AccountBank + ":" + userID }

// ParseAccount splits an account id into kind and id. Ids without a kind
// prefix return an empty kind.
func ParseAccount(account string) (kind, id string) {
	kind, id, ok := strings.Cut(account, ":")
	if !ok {
		return "", account
	}
	return kind, id
}
