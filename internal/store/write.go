package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/ghostledger/internal/ledger"
)

// Record is a stored event row.
type Record struct {
	Seq      int64           `json:"seq"`
	Type     ledger.Type     `json:"type"`
	Date     string          `json:"date"`
	Payload  json.RawMessage `json:"payload"`
	PrevHash string          `json:"prev_hash"`
	Hash     string          `json:"hash"`
}

// Event decodes the record's payload.
func (r Record) Event() (ledger.Event, error) {
	e, err := ledger.Unmarshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode event %d: %w", r.Seq, err)
	}
	return e, nil
}

// Append adds events to the end of the log in a single transaction and
// returns their records. Appending nothing is a no-op.
func (s *Store) Append(ctx context.Context, events []ledger.Event) ([]Record, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	records, err := appendTx(ctx, tx, events)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append events: commit: %w", err)
	}
	return records, nil
}

// AppendWithResponse appends events and stores response under key in one
// transaction. If key already holds a response, nothing is appended and the
// stored response is returned with replayed set.
func (s *Store) AppendWithResponse(ctx context.Context, key string, events []ledger.Event, response json.RawMessage) (stored json.RawMessage, replayed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("append with response: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existing, ok, err := responseTx(ctx, tx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return existing, true, nil
	}

	if _, err := appendTx(ctx, tx, events); err != nil {
		return nil, false, err
	}
	through, _, err := headTx(ctx, tx)
	if err != nil {
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, response, through_seq)
		VALUES (?, ?, ?)
	`, key, string(response), through); err != nil {
		return nil, false, fmt.Errorf("append with response: insert key: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("append with response: commit: %w", err)
	}
	return append(json.RawMessage(nil), response...), false, nil
}

// Put stores response under key unless the key already holds one, and returns
// whichever response the key ends up with.
func (s *Store) Put(ctx context.Context, key string, response json.RawMessage) (json.RawMessage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("put response: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	through, _, err := headTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, response, through_seq)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, string(response), through); err != nil {
		return nil, fmt.Errorf("put response: %w", err)
	}
	stored, _, err := responseTx(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("put response: commit: %w", err)
	}
	return stored, nil
}

func appendTx(ctx context.Context, tx *sql.Tx, events []ledger.Event) ([]Record, error) {
	seq, prev, err := headTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(events))
	for _, e := range events {
		payload, err := ledger.Canonical(e)
		if err != nil {
			return nil, fmt.Errorf("append events: %w", err)
		}
		hash, err := ledger.Hash(prev, e)
		if err != nil {
			return nil, fmt.Errorf("append events: %w", err)
		}
		seq++
		r := Record{
			Seq:      seq,
			Type:     e.Type(),
			Date:     e.EventDate().String(),
			Payload:  payload,
			PrevHash: prev,
			Hash:     hash,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (seq, type, date, payload, prev_hash, hash)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.Seq, string(r.Type), r.Date, string(r.Payload), r.PrevHash, r.Hash); err != nil {
			return nil, fmt.Errorf("append events: insert %d: %w", r.Seq, err)
		}
		records = append(records, r)
		prev = hash
	}
	return records, nil
}

// headTx returns the last seq and hash, or 0 and the genesis hash for an
// empty log.
func headTx(ctx context.Context, tx *sql.Tx) (int64, string, error) {
	var seq int64
	var hash string
	err := tx.QueryRowContext(ctx, `
		SELECT seq, hash FROM events ORDER BY seq DESC LIMIT 1
	`).Scan(&seq, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledger.GenesisHash, nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("read head: %w", err)
	}
	return seq, hash, nil
}

func responseTx(ctx context.Context, tx *sql.Tx, key string) (json.RawMessage, bool, error) {
	var response string
	err := tx.QueryRowContext(ctx, `
		SELECT response FROM idempotency_keys WHERE key = ?
	`, key).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read response: %w", err)
	}
	return json.RawMessage(response), true, nil
}
