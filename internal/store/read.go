package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/ghostledger/internal/ledger"
)

// Load returns the whole log in append order.
func (s *Store) Load(ctx context.Context) (ledger.Log, error) {
	records, err := s.Records(ctx, 0)
	if err != nil {
		return nil, err
	}
	log := make(ledger.Log, 0, len(records))
	for _, r := range records {
		e, err := r.Event()
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		log = append(log, e)
	}
	return log, nil
}

// Records returns stored rows with seq > afterSeq, ordered by seq.
//
// Returns an empty slice (not nil) if there are no such rows.
func (s *Store) Records(ctx context.Context, afterSeq int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, date, payload, prev_hash, hash
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC
	`, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// RecordsByType returns stored rows of one event type, ordered by seq.
func (s *Store) RecordsByType(ctx context.Context, typ ledger.Type) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, date, payload, prev_hash, hash
		FROM events
		WHERE type = ?
		ORDER BY seq ASC
	`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("query events by type: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events by type: %w", err)
	}
	return records, nil
}

// Head returns the last seq and hash. An empty log returns 0 and
// ledger.GenesisHash.
func (s *Store) Head(ctx context.Context) (int64, string, error) {
	var seq int64
	var hash string
	err := s.db.QueryRowContext(ctx, `
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

// Get returns the response stored under an idempotency key.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var response string
	err := s.db.QueryRowContext(ctx, `
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

func scanRecord(rows *sql.Rows) (Record, error) {
	var r Record
	var typ, payload string
	if err := rows.Scan(&r.Seq, &typ, &r.Date, &payload, &r.PrevHash, &r.Hash); err != nil {
		return Record{}, fmt.Errorf("scan event: %w", err)
	}
	r.Type = ledger.Type(typ)
	r.Payload = json.RawMessage(payload)
	return r, nil
}
