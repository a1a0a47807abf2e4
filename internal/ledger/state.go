package ledger

import (
	"maps"
	"slices"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/money"
)

// ChallengeWeeks is the number of weeks in a complete challenge.
const ChallengeWeeks = 52

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengeStatusActive    ChallengeStatus = "ACTIVE"
	ChallengeStatusCompleted ChallengeStatus = "COMPLETED"
	ChallengeStatusFailed    ChallengeStatus = "FAILED"
	ChallengeStatusQuit      ChallengeStatus = "QUIT"
)

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferStatusRequested TransferStatus = "REQUESTED"
	TransferStatusSucceeded TransferStatus = "SUCCEEDED"
	TransferStatusFailed    TransferStatus = "FAILED"
)

// Vault is the replayed view of a vault.
type Vault struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Kind         VaultKind   `json:"kind"`
	BalanceCents money.Cents `json:"balance_cents"`
	CreatedOn    dates.Date  `json:"created_on"`
}

// Debt is the replayed view of a debt.
type Debt struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"user_id,omitempty"`
	Name                string      `json:"name"`
	OriginalCents       money.Cents `json:"original_cents"`
	RemainingCents      money.Cents `json:"remaining_cents"`
	MinimumPaymentCents money.Cents `json:"minimum_payment_cents"`
	CreatedOn           dates.Date  `json:"created_on"`
}

// Challenge is the replayed view of a doubling challenge.
type Challenge struct {
	ID               string          `json:"id"`
	StartDate        dates.Date      `json:"start_date"`
	StartAmountCents money.Cents     `json:"start_amount_cents"`
	WeekIndex        int             `json:"week_index"`
	Status           ChallengeStatus `json:"status"`
	TotalSavedCents  money.Cents     `json:"total_saved_cents"`
	PenaltyCents     money.Cents     `json:"penalty_cents"`
	RedirectedCents  money.Cents     `json:"redirected_cents"`
}

// Transfer is the replayed view of a two-phase transfer.
type Transfer struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	FromAccountID string         `json:"from_account_id"`
	ToAccountID   string         `json:"to_account_id"`
	AmountCents   money.Cents    `json:"amount_cents"`
	Reason        TransferReason `json:"reason"`
	TargetID      string         `json:"target_id"`
	Status        TransferStatus `json:"status"`
	ProviderRef   string         `json:"provider_ref,omitempty"`
	ErrorCode     string         `json:"error_code,omitempty"`
	Message       string         `json:"message,omitempty"`
	RequestedOn   dates.Date     `json:"requested_on"`
}

// State is the result of replaying a log. It is never persisted.
//
// The *Order slices record creation order; snowball ordering and every
// listing view depend on it.
type State struct {
	Vaults     map[string]Vault     `json:"vaults"`
	Debts      map[string]Debt      `json:"debts"`
	Challenges map[string]Challenge `json:"challenges"`
	Transfers  map[string]Transfer  `json:"transfers"`

	VaultOrder     []string `json:"vault_order"`
	DebtOrder      []string `json:"debt_order"`
	ChallengeOrder []string `json:"challenge_order"`
	TransferOrder  []string `json:"transfer_order"`

	// Applied counts the events folded into this state.
	Applied int `json:"applied"`
}

// NewState returns the empty state.
func NewState() *State {
	return &State{
		Vaults:         map[string]Vault{},
		Debts:          map[string]Debt{},
		Challenges:     map[string]Challenge{},
		Transfers:      map[string]Transfer{},
		VaultOrder:     []string{},
		DebtOrder:      []string{},
		ChallengeOrder: []string{},
		TransferOrder:  []string{},
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := &State{
		Vaults:         maps.Clone(s.Vaults),
		Debts:          maps.Clone(s.Debts),
		Challenges:     maps.Clone(s.Challenges),
		Transfers:      maps.Clone(s.Transfers),
		VaultOrder:     slices.Clone(s.VaultOrder),
		DebtOrder:      slices.Clone(s.DebtOrder),
		ChallengeOrder: slices.Clone(s.ChallengeOrder),
		TransferOrder:  slices.Clone(s.TransferOrder),
		Applied:        s.Applied,
	}
	// VaultKind date pointers are shared; nothing mutates them in place.
	return c
}

// Vault returns the vault with id or a NotFound error.
func (s *State) Vault(id string) (Vault, error) {
	v, ok := s.Vaults[id]
	if !ok {
		return Vault{}, NewNotFoundError("vault", id)
	}
	return v, nil
}

// Debt returns the debt with id or a NotFound error.
func (s *State) Debt(id string) (Debt, error) {
	d, ok := s.Debts[id]
	if !ok {
		return Debt{}, NewNotFoundError("debt", id)
	}
	return d, nil
}

// Challenge returns the challenge with id or a NotFound error.
func (s *State) Challenge(id string) (Challenge, error) {
	c, ok := s.Challenges[id]
	if !ok {
		return Challenge{}, NewNotFoundError("challenge", id)
	}
	return c, nil
}

// Transfer returns the transfer with id or a NotFound error.
func (s *State) Transfer(id string) (Transfer, error) {
	t, ok := s.Transfers[id]
	if !ok {
		return Transfer{}, NewNotFoundError("transfer", id)
	}
	return t, nil
}

// VaultList returns vaults in creation order.
func (s *State) VaultList() []Vault {
	out := make([]Vault, 0, len(s.VaultOrder))
	for _, id := range s.VaultOrder {
		out = append(out, s.Vaults[id])
	}
	return out
}

// DebtList returns debts in creation order.
func (s *State) DebtList() []Debt {
	out := make([]Debt, 0, len(s.DebtOrder))
	for _, id := range s.DebtOrder {
		out = append(out, s.Debts[id])
	}
	return out
}

// ChallengeList returns challenges in creation order.
func (s *State) ChallengeList() []Challenge {
	out := make([]Challenge, 0, len(s.ChallengeOrder))
	for _, id := range s.ChallengeOrder {
		out = append(out, s.Challenges[id])
	}
	return out
}

// TransferList returns transfers in request order.
func (s *State) TransferList() []Transfer {
	out := make([]Transfer, 0, len(s.TransferOrder))
	for _, id := range s.TransferOrder {
		out = append(out, s.Transfers[id])
	}
	return out
}
