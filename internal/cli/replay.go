package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/store"
)

// ReplayResult holds the outcome of the replay command.
type ReplayResult struct {
	Events        int    `json:"events"`
	HeadSeq       int64  `json:"head_seq"`
	HeadHash      string `json:"head_hash,omitempty"`
	StateHash     string `json:"state_hash"`
	ChainValid    bool   `json:"chain_valid"`
	ChainError    string `json:"chain_error,omitempty"`
	Deterministic bool   `json:"deterministic"`
}

// OK reports whether the chain verified and replay was deterministic.
func (r ReplayResult) OK() bool {
	return r.ChainValid && r.Deterministic
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Verify the hash chain and replay the event log",
		Long: `Verify the event log and replay it to check determinism.

Every stored hash is recomputed from its payload and checked against its
predecessor. The log is then replayed twice and both state hashes compared.

Exit codes:
  0 - Chain verified and replay is deterministic
  1 - Chain broken or replay not deterministic
  2 - Command error (database not found, etc.)

Examples:
  ghostledger replay --db ./ghostledger.db
  ghostledger replay --db ./ghostledger.db --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				result, err := runReplay(context.Background(), s)
				if err != nil {
					return err
				}
				return outputReplay(f, result)
			})
		},
	}
}

func runReplay(ctx context.Context, s *session) (ReplayResult, error) {
	var result ReplayResult

	verified, err := s.store.Verify(ctx)
	var chainErr *store.ChainError
	switch {
	case errors.As(err, &chainErr):
		result.ChainError = chainErr.Error()
	case err != nil:
		return ReplayResult{}, err
	default:
		result.ChainValid = true
		result.HeadHash = verified.HeadHash
	}

	seq, head, err := s.store.Head(ctx)
	if err != nil {
		return ReplayResult{}, err
	}
	result.HeadSeq = seq
	if result.ChainValid && head != result.HeadHash {
		result.ChainValid = false
		result.ChainError = fmt.Sprintf("head %d hash %s does not match the verified chain", seq, head)
	}

	report, err := s.engine.Replay(ctx)
	if err != nil {
		return ReplayResult{}, err
	}
	result.Events = report.Events
	result.StateHash = report.StateHash
	result.Deterministic = report.Deterministic
	return result, nil
}

func outputReplay(f *OutputFormatter, result ReplayResult) error {
	if f.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.OK() {
			response.Status = "error"
			response.Error = &CLIError{Code: "REPLAY_FAILED", Message: replayFailure(result)}
		}
		if err := json.NewEncoder(f.Writer).Encode(response); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "Events:      %d\n", result.Events)
		fmt.Fprintf(f.Writer, "Head seq:    %d\n", result.HeadSeq)
		if result.ChainValid {
			fmt.Fprintf(f.Writer, "Head hash:   %s\n", result.HeadHash)
		}
		fmt.Fprintf(f.Writer, "State hash:  %s\n", result.StateHash)
		if result.OK() {
			fmt.Fprintln(f.Writer, "✓ Chain verified, replay is deterministic")
		} else {
			fmt.Fprintf(f.Writer, "✗ %s\n", replayFailure(result))
		}
	}
	if !result.OK() {
		return &ExitError{Code: ExitFailure, Message: replayFailure(result), Reported: true}
	}
	return nil
}

func replayFailure(result ReplayResult) string {
	if !result.ChainValid {
		return result.ChainError
	}
	return "replay is not deterministic"
}
