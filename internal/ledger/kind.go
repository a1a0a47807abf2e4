package ledger

import (
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/money"
)

// KindType names a vault commitment policy.
type KindType string

const (
	KindGoalBased KindType = "GOAL_BASED"
	KindTimed     KindType = "TIMED"
	KindUntilNeed KindType = "UNTIL_NEED"
)

// MergePolicy records how a merged vault treats the early-withdrawal window.
type MergePolicy string

const (
	// MergeResetTime keeps a 10% floor for the first 90 days after the merge.
	MergeResetTime MergePolicy = "RESET_TIME"

	// MergeUntilNeed applies the plain UNTIL_NEED rule from the merge date.
	MergeUntilNeed MergePolicy = "UNTIL_NEED"
)

// VaultKind is the commitment policy of a vault. Which optional fields are set
// depends on Type:
//   - GOAL_BASED: GoalCents, and GoalHitDate once the goal is first reached
//   - TIMED: MaturityDate
//   - UNTIL_NEED: CreatedDate, and MergePolicy for merged vaults
type VaultKind struct {
	Type         KindType    `json:"type"`
	GoalCents    money.Cents `json:"goal_cents,omitempty"`
	GoalHitDate  *dates.Date `json:"goal_hit_date,omitempty"`
	MaturityDate *dates.Date `json:"maturity_date,omitempty"`
	CreatedDate  *dates.Date `json:"created_date,omitempty"`
	MergePolicy  MergePolicy `json:"merge_policy,omitempty"`
}

// GoalBased returns a GOAL_BASED kind with the given goal.
func GoalBased(goal money.Cents) VaultKind {
	return VaultKind{Type: KindGoalBased, GoalCents: goal}
}

// Timed returns a TIMED kind maturing on maturity.
func Timed(maturity dates.Date) VaultKind {
	return VaultKind{Type: KindTimed, MaturityDate: &maturity}
}

// UntilNeed returns an UNTIL_NEED kind whose commitment clock starts on created.
func UntilNeed(created dates.Date) VaultKind {
	return VaultKind{Type: KindUntilNeed, CreatedDate: &created}
}

// Merged returns the UNTIL_NEED kind of a vault produced by a merge on day.
func Merged(day dates.Date, policy MergePolicy) VaultKind {
	k := UntilNeed(day)
	k.MergePolicy = policy
	return k
}

// Validate checks that the fields required by Type are present.
func (k VaultKind) Validate() error {
	switch k.Type {
	case KindGoalBased:
		if k.GoalCents <= 0 {
			return NewValidationError("goal vault requires goal_cents > 0")
		}
	case KindTimed:
		if k.MaturityDate == nil || k.MaturityDate.IsZero() {
			return NewValidationError("timed vault requires maturity_date")
		}
	case KindUntilNeed:
		if k.CreatedDate == nil || k.CreatedDate.IsZero() {
			return NewValidationError("until-need vault requires created_date")
		}
		switch k.MergePolicy {
		case "", MergeResetTime, MergeUntilNeed:
		default:
			return NewValidationError("unknown merge policy %q", k.MergePolicy)
		}
	default:
		return NewValidationError("unknown vault kind %q", k.Type)
	}
	return nil
}

// AfterDeposit returns the kind after a deposit brought the balance to
// newBalance on day. The first time a GOAL_BASED vault reaches its goal the
// hit date is recorded; later deposits never move it.
func (k VaultKind) AfterDeposit(newBalance money.Cents, day dates.Date) VaultKind {
	if k.Type != KindGoalBased || k.GoalHitDate != nil || newBalance < k.GoalCents {
		return k
	}
	hit := day
	k.GoalHitDate = &hit
	return k
}
