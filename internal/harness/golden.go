package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ghostledger/internal/readmodel"
)

// Snapshot renders a result as stable text: the step trace followed by the
// timeline of the final log. Both are deterministic for a scenario run with
// the harness clock, id generator and provider.
func Snapshot(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "pass: %t\n", result.Pass)

	b.WriteString("\ntrace:\n")
	for _, step := range result.Trace {
		fmt.Fprintf(&b, "  %02d %s %s", step.Step, step.Command, step.Outcome)
		for _, e := range step.Events {
			fmt.Fprintf(&b, " %s", e)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\ntimeline:\n")
	b.WriteString(readmodel.FormatTimeline(readmodel.Timeline(result.Log)))
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
