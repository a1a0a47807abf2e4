package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/roach88/ghostledger/internal/ledger"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Log      ledger.Log // Full log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Log) > 0 {
		fmt.Fprintf(&buf, "\nFull log:\n")
		for i, event := range e.Log {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, event.Type(), event.EventDate())
		}
	}

	return buf.String()
}

// assertEventContains checks if the log contains an event of the given type
// whose fields include assertion.Fields (subset match).
func assertEventContains(log ledger.Log, assertion Assertion) error {
	want := normalize(assertion.Fields)
	for _, event := range log {
		if event.Type() != assertion.Event {
			continue
		}
		fields, err := eventFields(event)
		if err != nil {
			return err
		}
		if assertion.Fields == nil || matchSubset(fields, want) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("event %s with fields %v", assertion.Event, want),
		Actual:   "not found in log",
		Log:      log,
	}
}

// assertEventOrder checks that the types appear in the given order.
// Types don't need to be consecutive (intervening events are allowed).
func assertEventOrder(log ledger.Log, assertion Assertion) error {
	next := 0
	for _, event := range log {
		if next < len(assertion.Events) && event.Type() == assertion.Events[next] {
			next++
		}
	}
	if next == len(assertion.Events) {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("events in order: %v", assertion.Events),
		Actual:   fmt.Sprintf("no %s after %v", assertion.Events[next], assertion.Events[:next]),
		Log:      log,
	}
}

// assertEventCount checks that the type appears exactly assertion.Count times.
func assertEventCount(log ledger.Log, assertion Assertion) error {
	count := 0
	for _, event := range log {
		if event.Type() == assertion.Event {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Log:      log,
		}
	}
	return nil
}

// assertFinalState checks the replayed entity against assertion.Expect
// (subset match).
func assertFinalState(state *ledger.State, assertion Assertion) error {
	var (
		entity any
		err    error
	)
	switch assertion.Entity {
	case "vault":
		entity, err = state.Vault(assertion.ID)
	case "debt":
		entity, err = state.Debt(assertion.ID)
	case "challenge":
		entity, err = state.Challenge(assertion.ID)
	case "transfer":
		entity, err = state.Transfer(assertion.ID)
	default:
		return fmt.Errorf("unknown entity %q", assertion.Entity)
	}
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %s to exist", assertion.Entity, assertion.ID),
			Actual:   err.Error(),
		}
	}

	actual := normalize(entity)
	want := normalize(assertion.Expect)
	if !matchSubset(actual, want) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %s with %v", assertion.Entity, assertion.ID, want),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// eventFields returns the JSON fields of an event record.
func eventFields(e ledger.Event) (any, error) {
	b, err := ledger.Marshal(e)
	if err != nil {
		return nil, err
	}
	var fields any
	if err := decodeJSON(b, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.Type(), err)
	}
	return fields, nil
}

// normalize converts v to the shape encoding/json decodes into (maps,
// slices, strings, bools and json.Number) so YAML values and Go structs
// compare structurally. YAML timestamps become calendar dates.
func normalize(v any) any {
	b, err := json.Marshal(dateStrings(v))
	if err != nil {
		return v
	}
	var out any
	if err := decodeJSON(b, &out); err != nil {
		return v
	}
	return out
}

func dateStrings(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.DateOnly)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = dateStrings(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = dateStrings(val)
		}
		return out
	default:
		return v
	}
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// matchSubset reports whether actual includes expected. Objects match when
// every expected key matches; arrays must match element by element.
func matchSubset(actual, expected any) bool {
	switch want := expected.(type) {
	case map[string]any:
		got, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range want {
			a, ok := got[k]
			if !ok || !matchSubset(a, v) {
				return false
			}
		}
		return true
	case []any:
		got, ok := actual.([]any)
		if !ok || len(got) != len(want) {
			return false
		}
		for i := range want {
			if !matchSubset(got[i], want[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(actual, expected)
	}
}

// EvaluateAssertions evaluates all assertions against the result's final log
// and state. Returns a list of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventContains:
			err = assertEventContains(result.Log, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Log, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Log, assertion)
		case AssertFinalState:
			if result.State == nil {
				err = fmt.Errorf("final_state requires a replayed state")
			} else {
				err = assertFinalState(result.State, assertion)
			}
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	return errs
}
