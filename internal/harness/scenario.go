package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/transfer"
)

// Scenario defines a ledger scenario.
// Scenarios exercise a sequence of commands and assert on the resulting
// events and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Today is the business date the scenario starts on.
	Today dates.Date `yaml:"today"`

	// Provider is the simulated provider mode: "sim" (default) or "fail".
	Provider string `yaml:"provider,omitempty"`

	// FailTransfers lists transfer ids the provider declines even in sim mode.
	FailTransfers []string `yaml:"fail_transfers,omitempty"`

	// Setup contains steps run before the flow. Setup steps must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the main test flow.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final log and state.
	// Supported types: event_contains, event_order, event_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one of Command or RunTransfer is set,
// unless the step only advances the clock.
type Step struct {
	// AdvanceDays moves the clock forward before the step runs.
	AdvanceDays int `yaml:"advance_days,omitempty"`

	// Command names a request command (see request.Schema).
	Command string `yaml:"command,omitempty"`

	// Params are the command params.
	Params map[string]any `yaml:"params,omitempty"`

	// Key is the idempotency key for the command.
	Key string `yaml:"key,omitempty"`

	// RunTransfer sends a REQUESTED transfer to the provider.
	RunTransfer string `yaml:"run_transfer,omitempty"`

	// RedirectVaultID and RedirectTransferID apply when RunTransfer fails a
	// challenge weekly transfer.
	RedirectVaultID    string `yaml:"redirect_vault_id,omitempty"`
	RedirectTransferID string `yaml:"redirect_transfer_id,omitempty"`

	// Expect validates the step outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

func (s Step) name() string {
	if s.RunTransfer != "" {
		return "run-transfer"
	}
	return s.Command
}

// Expect specifies the expected step outcome.
type Expect struct {
	// Error is the expected error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Events is the exact list of event types the step appends.
	Events []ledger.Type `yaml:"events,omitempty"`

	// Result is a subset of the command result.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the final log or state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_contains": an event of Event type includes Fields
	// - "event_order": Events appear in order
	// - "event_count": Event appears exactly Count times
	// - "final_state": Entity with ID has the Expect fields
	Type string `yaml:"type"`

	// Event is the event type (event_contains, event_count).
	Event ledger.Type `yaml:"event,omitempty"`

	// Fields are the expected event fields (event_contains).
	// Subset match - only specified fields are validated.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Events is the expected type order (event_order).
	Events []ledger.Type `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (event_count).
	Count int `yaml:"count,omitempty"`

	// Entity is "vault", "debt", "challenge" or "transfer" (final_state).
	Entity string `yaml:"entity,omitempty"`

	// ID identifies the entity (final_state).
	ID string `yaml:"id,omitempty"`

	// Expect contains expected entity fields (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertFinalState    = "final_state"
)

var entities = []string{"vault", "debt", "challenge", "transfer"}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios expands paths into scenario files. Directories contribute
// their *.yaml and *.yml files in name order.
func FindScenarios(paths ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &ScenarioNotFoundError{Path: p, Err: err}
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read scenario dir: %w", err)
		}
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				out = append(out, filepath.Join(p, e.Name()))
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q not found: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ScenarioNotFoundError) Unwrap() error { return e.Err }

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\ `) {
		return fmt.Errorf("name %q must not contain spaces or path separators", s.Name)
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Today.IsZero() {
		return fmt.Errorf("today is required")
	}

	if _, err := transfer.ParseMode(s.Provider); err != nil {
		return fmt.Errorf("provider: %w", err)
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps must succeed and take no expect", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(s Step) error {
	if s.AdvanceDays < 0 {
		return fmt.Errorf("advance_days must be non-negative")
	}
	switch {
	case s.Command != "" && s.RunTransfer != "":
		return fmt.Errorf("command and run_transfer are mutually exclusive")
	case s.Command == "" && s.RunTransfer == "":
		if s.AdvanceDays == 0 {
			return fmt.Errorf("command, run_transfer or advance_days is required")
		}
		if s.Expect != nil || s.Params != nil {
			return fmt.Errorf("a clock-only step takes no params or expect")
		}
	case s.RunTransfer != "" && s.Params != nil:
		return fmt.Errorf("run_transfer takes no params")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_contains", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertFinalState:
		if !slices.Contains(entities, a.Entity) {
			return fmt.Errorf("assertions[%d]: entity must be one of %v for final_state", index, entities)
		}
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
