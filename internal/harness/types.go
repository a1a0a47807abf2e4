package harness

import (
	"github.com/roach88/ghostledger/internal/ledger"
)

// TraceStep records what one scenario step did.
type TraceStep struct {
	// Step is the 1-based index across setup and flow.
	Step int `json:"step"`

	// Command is the command name, or "run-transfer".
	Command string `json:"command"`

	// Outcome is "ok" or the error code the step failed with.
	Outcome string `json:"outcome"`

	// Events lists the types the step appended.
	Events []ledger.Type `json:"events"`

	// Result is the decoded command result, when there is one.
	Result any `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one entry per executed step.
	Trace []TraceStep `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Log is the final event log.
	Log ledger.Log `json:"-"`

	// State is the replayed final state.
	State *ledger.State `json:"-"`

	// StateHash is the hash of State.
	StateHash string `json:"state_hash"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceStep{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step to the trace.
func (r *Result) AddStep(step TraceStep) {
	r.Trace = append(r.Trace, step)
}
