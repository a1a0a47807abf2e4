package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/ghostledger/internal/engine"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/logging"
	"github.com/roach88/ghostledger/internal/request"
	"github.com/roach88/ghostledger/internal/store"
	"github.com/roach88/ghostledger/internal/testutil"
	"github.com/roach88/ghostledger/internal/transfer"
)

// Harness runs one scenario against a real engine.
type Harness struct {
	engine   *engine.Engine
	schema   *request.Schema
	clock    *testutil.CalendarClock
	provider *transfer.Simulated
	logger   *slog.Logger
	steps    int
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger routes engine and harness logs to l. Logs are discarded by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// stepEvent is the part of an event record the trace keeps.
type stepEvent struct {
	Type ledger.Type `json:"type"`
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Execute setup steps (any failure aborts the run)
// 3. Execute flow steps with expect validation
// 4. Replay the final log and evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	schema, err := request.Default()
	if err != nil {
		return nil, err
	}

	mode, err := transfer.ParseMode(scenario.Provider)
	if err != nil {
		return nil, err
	}
	provider := transfer.NewSimulated(mode)
	provider.FailIDs = slices.Clone(scenario.FailTransfers)

	clock := testutil.NewCalendarClock(scenario.Today)
	h := &Harness{
		schema:   schema,
		clock:    clock,
		provider: provider,
		logger:   o.logger.With("scenario", scenario.Name),
		engine: engine.New(st,
			engine.WithClock(clock),
			engine.WithIDGenerator(testutil.NewSequentialIDGenerator("t")),
			engine.WithProvider(provider),
			engine.WithLogger(o.logger),
		),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Setup {
		trace, err := h.runStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("setup step %d (%s): %w", i, step.name(), err)
		}
		result.AddStep(trace)
	}

	for i, step := range scenario.Flow {
		trace, err := h.runStep(ctx, step)
		if err != nil && errorCode(err) == "" {
			return nil, fmt.Errorf("flow step %d (%s): %w", i, step.name(), err)
		}
		result.AddStep(trace)
		for _, msg := range checkExpect(step, trace, err) {
			result.AddError(fmt.Sprintf("flow step %d (%s): %s", i, step.name(), msg))
		}
	}

	log, err := h.engine.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load final log: %w", err)
	}
	state, err := ledger.Replay(log)
	if err != nil {
		return nil, fmt.Errorf("failed to replay final log: %w", err)
	}
	hash, err := ledger.StateHash(state)
	if err != nil {
		return nil, err
	}
	result.Log = log
	result.State = state
	result.StateHash = hash

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"pass", result.Pass,
		"steps", len(result.Trace),
		"events", len(log),
	)
	return result, nil
}

// runStep executes one step. A domain or engine error is returned together
// with a trace whose Outcome carries the error code; any other error is a
// harness failure.
func (h *Harness) runStep(ctx context.Context, step Step) (TraceStep, error) {
	h.steps++
	if step.AdvanceDays > 0 {
		h.clock.Advance(step.AdvanceDays)
	}
	trace := TraceStep{Step: h.steps, Command: step.name(), Outcome: "ok", Events: []ledger.Type{}}
	if step.Command == "" && step.RunTransfer == "" {
		trace.Command = "advance-days"
		trace.Result = map[string]any{"today": h.clock.Today().String()}
		return trace, nil
	}

	resp, err := h.exec(ctx, step)
	if err != nil {
		if code := errorCode(err); code != "" {
			trace.Outcome = code
		}
		h.logger.Debug("step rejected", "step", h.steps, "command", trace.Command, "error", err)
		return trace, err
	}

	var body struct {
		Events []stepEvent `json:"events"`
		Result any         `json:"result"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return trace, fmt.Errorf("decode response: %w", err)
	}
	for _, e := range body.Events {
		trace.Events = append(trace.Events, e.Type)
	}
	trace.Result = body.Result

	h.logger.Debug("step completed", "step", h.steps, "command", trace.Command, "events", len(trace.Events))
	return trace, nil
}

func (h *Harness) exec(ctx context.Context, step Step) (json.RawMessage, error) {
	if step.RunTransfer != "" {
		return h.engine.RunTransfer(ctx, step.RunTransfer, engine.SettleOptions{
			RedirectVaultID:    step.RedirectVaultID,
			RedirectTransferID: step.RedirectTransferID,
		})
	}

	params := step.Params
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(normalize(params))
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	cmd, err := h.schema.Build(request.Request{Command: step.Command, Params: raw})
	if err != nil {
		return nil, err
	}
	return h.engine.Execute(ctx, cmd, step.Key)
}

// errorCode returns the code a step failed with, or "" when err is not a
// domain or engine error.
func errorCode(err error) string {
	if code := ledger.CodeOf(err); code != "" {
		return string(code)
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return ""
}

// checkExpect compares a flow step outcome with its expect clause. A nil
// clause requires success.
func checkExpect(step Step, trace TraceStep, err error) []string {
	want := "ok"
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if trace.Outcome != want {
		msg := fmt.Sprintf("expected outcome %s, got %s", want, trace.Outcome)
		if err != nil {
			msg += fmt.Sprintf(" (%v)", err)
		}
		return []string{msg}
	}
	if step.Expect == nil {
		return nil
	}

	var errs []string
	if step.Expect.Events != nil && !slices.Equal(step.Expect.Events, trace.Events) {
		errs = append(errs, fmt.Sprintf("expected events %v, got %v", step.Expect.Events, trace.Events))
	}
	if step.Expect.Result != nil {
		expected := normalize(step.Expect.Result)
		if !matchSubset(trace.Result, expected) {
			errs = append(errs, fmt.Sprintf("expected result to include %v, got %v", expected, trace.Result))
		}
	}
	return errs
}
