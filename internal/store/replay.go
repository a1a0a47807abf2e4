package store

import (
	"context"
	"fmt"

	"github.com/roach88/ghostledger/internal/ledger"
)

// ChainError reports the first stored row whose hash chain does not verify.
type ChainError struct {
	Seq    int64
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("hash chain broken at seq %d: %s", e.Seq, e.Reason)
}

// VerifyReport summarises a full-log verification.
type VerifyReport struct {
	Events    int    `json:"events"`
	HeadHash  string `json:"head_hash"`
	StateHash string `json:"state_hash"`
}

// Verify re-derives every hash from the stored payloads, checks each row
// links to its predecessor and replays the log. Any tampering with a payload,
// hash or order surfaces as a *ChainError; a log that no longer replays
// surfaces as the replay error.
func (s *Store) Verify(ctx context.Context) (VerifyReport, error) {
	records, err := s.Records(ctx, 0)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("verify: %w", err)
	}

	prev := ledger.GenesisHash
	log := make(ledger.Log, 0, len(records))
	for i, r := range records {
		if want := int64(i + 1); r.Seq != want {
			return VerifyReport{}, &ChainError{Seq: r.Seq, Reason: fmt.Sprintf("expected seq %d", want)}
		}
		if r.PrevHash != prev {
			return VerifyReport{}, &ChainError{Seq: r.Seq, Reason: "prev_hash does not match predecessor"}
		}
		e, err := r.Event()
		if err != nil {
			return VerifyReport{}, &ChainError{Seq: r.Seq, Reason: err.Error()}
		}
		if e.Type() != r.Type {
			return VerifyReport{}, &ChainError{Seq: r.Seq, Reason: "type column does not match payload"}
		}
		hash, err := ledger.Hash(prev, e)
		if err != nil {
			return VerifyReport{}, fmt.Errorf("verify: %w", err)
		}
		if hash != r.Hash {
			return VerifyReport{}, &ChainError{Seq: r.Seq, Reason: "hash does not match payload"}
		}
		log = append(log, e)
		prev = hash
	}

	st, err := ledger.Replay(log)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("verify: %w", err)
	}
	stateHash, err := ledger.StateHash(st)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("verify: %w", err)
	}
	return VerifyReport{Events: len(log), HeadHash: prev, StateHash: stateHash}, nil
}
