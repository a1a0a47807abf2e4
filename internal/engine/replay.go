package engine

import (
	"context"
	"fmt"

	"github.com/roach88/ghostledger/internal/ledger"
)

// ReplayReport is the outcome of a full-log replay check.
type ReplayReport struct {
	Events        int    `json:"events"`
	StateHash     string `json:"state_hash"`
	Deterministic bool   `json:"deterministic"`
}

// Replay rebuilds state from the whole log twice and compares the state
// hashes.
//
// Replay is not a special mode: it is the same fold every command runs
// before deciding. Two replays of one log must hash identically; a mismatch
// means the reducer depends on something outside the log.
func (e *Engine) Replay(ctx context.Context) (ReplayReport, error) {
	log, err := e.log.Load(ctx)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}

	first, err := replayHash(log)
	if err != nil {
		return ReplayReport{}, err
	}
	second, err := replayHash(log)
	if err != nil {
		return ReplayReport{}, err
	}

	report := ReplayReport{Events: len(log), StateHash: first, Deterministic: first == second}
	if !report.Deterministic {
		e.logger.Error("replay is not deterministic", "first", first, "second", second)
	}
	return report, nil
}

func replayHash(log ledger.Log) (string, error) {
	st, err := ledger.Replay(log)
	if err != nil {
		return "", fmt.Errorf("replay: %w", err)
	}
	return ledger.StateHash(st)
}
