package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/ghostledger/internal/command"
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/idempotency"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/store"
	"github.com/roach88/ghostledger/internal/transfer"
)

// EventLog is the durable log the engine appends to.
// Implemented by *store.Store (SQLite) and *store.Memory (tests).
type EventLog interface {
	Load(ctx context.Context) (ledger.Log, error)
	Append(ctx context.Context, events []ledger.Event) ([]store.Record, error)
	AppendWithResponse(ctx context.Context, key string, events []ledger.Event, response json.RawMessage) (json.RawMessage, bool, error)
	idempotency.Store
}

// Env is what a command may read besides the log.
type Env struct {
	Today dates.Date
	NewID func() string
}

// Decision is a command's outcome: the events to append and a result for
// the caller.
type Decision struct {
	Events []ledger.Event
	Result any
}

// Command decides what a request appends. Decide must be pure: everything it
// reads comes from the log and env.
type Command interface {
	Name() string
	Decide(log ledger.Log, env Env) (Decision, error)
}

type funcCommand struct {
	name string
	fn   func(ledger.Log, Env) (Decision, error)
}

func (c funcCommand) Name() string { return c.name }

func (c funcCommand) Decide(log ledger.Log, env Env) (Decision, error) { return c.fn(log, env) }

// Func adapts a function to Command.
func Func(name string, fn func(ledger.Log, Env) (Decision, error)) Command {
	return funcCommand{name: name, fn: fn}
}

// Response is the JSON body Execute returns. Keyed responses are cached and
// replayed byte for byte.
type Response struct {
	Command string          `json:"command"`
	Events  json.RawMessage `json:"events"`
	Result  any             `json:"result,omitempty"`
}

// Engine executes commands against an EventLog.
//
// Thread-safety model:
//   - Execute(), RunTransfer(), Snapshot(): safe from any goroutine
//   - Commands run one at a time behind mu
//   - Transfer runs are serialized behind runMu so the pre-check and the
//     provider call see the same log
type Engine struct {
	mu       sync.Mutex
	runMu    sync.Mutex
	log      EventLog
	provider transfer.Provider
	clock    Clock
	ids      IDGenerator
	logger   *slog.Logger
	metrics  *Metrics
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithProvider sets the transfer provider used by RunTransfer.
// Default: a simulated provider that always succeeds.
func WithProvider(p transfer.Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithClock sets the business-date source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the transfer id generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the collectors. Default: unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine over log.
func New(log EventLog, opts ...Option) *Engine {
	e := &Engine{
		log:      log,
		provider: transfer.NewSimulated(transfer.ModeSucceed),
		clock:    SystemClock{},
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// Today returns the engine's business date.
func (e *Engine) Today() dates.Date {
	return e.clock.Today()
}

// Execute runs cmd and appends its events.
//
// With a non-empty key the response is cached under "<command>:<key>"; a
// repeated key returns the first response without running cmd again.
// Domain rejections are returned as *ledger.Error and leave the log
// unchanged.
func (e *Engine) Execute(ctx context.Context, cmd Command, key string) (json.RawMessage, error) {
	name := cmd.Name()
	start := time.Now()
	defer func() {
		e.metrics.Duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	var cacheKey string
	if key != "" {
		k, err := idempotency.Key(name, key)
		if err != nil {
			return nil, ledger.NewValidationError("%v", err)
		}
		cacheKey = k
		cached, ok, err := e.log.Get(ctx, cacheKey)
		if err != nil {
			return nil, fmt.Errorf("execute %s: %w", name, err)
		}
		if ok {
			e.metrics.Replayed.WithLabelValues(name).Inc()
			e.logger.Info("idempotent replay", "command", name, "key", key)
			return cached, nil
		}
	}

	log, err := e.log.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	st, err := ledger.Replay(log)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}

	decision, err := cmd.Decide(log, Env{Today: e.clock.Today(), NewID: e.ids.Generate})
	if err != nil {
		e.metrics.Commands.WithLabelValues(name, outcome(err)).Inc()
		e.logger.Debug("command rejected", "command", name, "error", err)
		return nil, err
	}

	if _, err := ledger.ReplayFrom(st, decision.Events); err != nil {
		rerr := NewRejectedEventsError(name, len(decision.Events), err)
		e.metrics.Commands.WithLabelValues(name, string(ErrCodeRejectedEvents)).Inc()
		e.logger.Error("command produced invalid events", "command", name, "error", err)
		return nil, rerr
	}

	resp, err := respond(name, decision)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}

	if cacheKey != "" {
		stored, _, err := e.log.AppendWithResponse(ctx, cacheKey, decision.Events, resp)
		if err != nil {
			return nil, fmt.Errorf("execute %s: %w", name, err)
		}
		resp = stored
	} else if _, err := e.log.Append(ctx, decision.Events); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}

	e.metrics.EventsAppended.Add(float64(len(decision.Events)))
	e.metrics.Commands.WithLabelValues(name, "ok").Inc()
	e.logger.Info("command executed",
		"command", name,
		"events", len(decision.Events),
		"applied", st.Applied+len(decision.Events),
	)
	return resp, nil
}

func respond(name string, d Decision) (json.RawMessage, error) {
	events, err := ledger.MarshalLog(d.Events)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Response{Command: name, Events: events, Result: d.Result})
}

func outcome(err error) string {
	if code := ledger.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}

// Snapshot replays the whole log and returns the current state.
func (e *Engine) Snapshot(ctx context.Context) (*ledger.State, error) {
	log, err := e.log.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	st, err := ledger.Replay(log)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return st, nil
}

// Events returns the whole log.
func (e *Engine) Events(ctx context.Context) (ledger.Log, error) {
	return e.log.Load(ctx)
}

// SettleOptions carries the optional redirect applied when a challenge
// weekly transfer fails.
type SettleOptions struct {
	RedirectVaultID    string
	RedirectTransferID string
}

// RunTransfer sends a pending transfer to the provider and settles it with
// the answer. A provider error leaves the transfer REQUESTED.
//
// Before calling the provider the success outcome is tried against the
// current log. When it no longer applies (a drained vault, a settled
// challenge) the transfer is failed with EffectRejectedCode and the provider
// is never called.
func (e *Engine) RunTransfer(ctx context.Context, transferID string, opts SettleOptions) (json.RawMessage, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	log, err := e.log.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("run transfer %s: %w", transferID, err)
	}
	st, err := ledger.Replay(log)
	if err != nil {
		return nil, fmt.Errorf("run transfer %s: %w", transferID, err)
	}
	t, err := st.Transfer(transferID)
	if err != nil {
		return nil, err
	}
	if t.Status != ledger.TransferStatusRequested {
		return nil, ledger.NewInvalidStateError("transfer", t.ID, "transfer is %s, not REQUESTED", t.Status)
	}

	if cause := e.precheck(log, st, t); cause != nil {
		if ledger.CodeOf(cause) == "" {
			return nil, fmt.Errorf("run transfer %s: %w", t.ID, cause)
		}
		return e.reject(ctx, t, cause)
	}

	settled, err := transfer.Execute(ctx, e.provider, transfer.FromTransfer(t), e.clock.Today())
	if err != nil {
		e.metrics.Transfers.WithLabelValues("error").Inc()
		e.logger.Warn("transfer provider failed", "transfer_id", t.ID, "error", err)
		return nil, NewProviderError(t.ID, err)
	}

	var cmd Command
	switch ev := settled.(type) {
	case ledger.TransferSucceeded:
		e.metrics.Transfers.WithLabelValues("succeeded").Inc()
		cmd = Func("transfer-succeed", func(log ledger.Log, _ Env) (Decision, error) {
			events, err := command.ApplyTransferSuccess(log, command.SuccessParams{
				TransferID:  ev.TransferID,
				ProviderRef: ev.ProviderRef,
				Date:        ev.Date,
			})
			return Decision{Events: events}, err
		})
	case ledger.TransferFailed:
		e.metrics.Transfers.WithLabelValues("failed").Inc()
		cmd = Func("transfer-fail", func(log ledger.Log, _ Env) (Decision, error) {
			events, err := command.ApplyTransferFailure(log, command.FailureParams{
				TransferID:         ev.TransferID,
				ErrorCode:          ev.ErrorCode,
				Message:            ev.Message,
				Date:               ev.Date,
				RedirectVaultID:    opts.RedirectVaultID,
				RedirectTransferID: opts.RedirectTransferID,
			})
			return Decision{Events: events}, err
		})
	default:
		return nil, fmt.Errorf("run transfer %s: unexpected settlement %s", t.ID, settled.Type())
	}
	return e.Execute(ctx, cmd, "")
}

// precheck returns why a success for t could not be applied, or nil.
func (e *Engine) precheck(log ledger.Log, st *ledger.State, t ledger.Transfer) error {
	events, err := command.ApplyTransferSuccess(log, command.SuccessParams{
		TransferID:  t.ID,
		ProviderRef: "precheck_" + t.ID,
		Date:        e.clock.Today(),
	})
	if err != nil {
		return err
	}
	_, err = ledger.ReplayFrom(st, events)
	return err
}

func (e *Engine) reject(ctx context.Context, t ledger.Transfer, cause error) (json.RawMessage, error) {
	e.metrics.Transfers.WithLabelValues("rejected").Inc()
	e.logger.Warn("transfer effect no longer applies", "transfer_id", t.ID, "error", cause)
	return e.Execute(ctx, Func("transfer-reject", func(log ledger.Log, _ Env) (Decision, error) {
		events, err := command.RejectTransfer(log, command.FailureParams{
			TransferID: t.ID,
			ErrorCode:  EffectRejectedCode,
			Message:    cause.Error(),
			Date:       e.clock.Today(),
		})
		return Decision{Events: events}, err
	}), "")
}

// RunPending settles every REQUESTED transfer through the provider in
// request order and returns how many were settled. A transfer that errors
// stays REQUESTED; the run keeps going and the errors are joined.
func (e *Engine) RunPending(ctx context.Context) (int, error) {
	st, err := e.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	var errs []error
	for _, t := range st.TransferList() {
		if t.Status != ledger.TransferStatusRequested {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := e.RunTransfer(ctx, t.ID, SettleOptions{}); err != nil {
			e.logger.Warn("pending transfer not settled", "transfer_id", t.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}
