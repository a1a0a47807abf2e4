package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/roach88/ghostledger/internal/idempotency"
	"github.com/roach88/ghostledger/internal/ledger"
)

// Memory is an in-process log with the same contract as Store. It keeps no
// hashes on disk and is meant for tests and previews.
type Memory struct {
	mu        sync.Mutex
	events    ledger.Log
	head      string
	hashed    int
	responses *idempotency.Memory
}

// NewMemory returns an empty log, optionally seeded with events.
func NewMemory(seed ...ledger.Event) *Memory {
	return &Memory{events: slices.Clone(ledger.Log(seed)), responses: idempotency.NewMemory()}
}

// Load returns a copy of the log.
func (m *Memory) Load(_ context.Context) (ledger.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events), nil
}

// Append adds events to the log.
func (m *Memory) Append(_ context.Context, events []ledger.Event) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(events)
}

// AppendWithResponse mirrors Store.AppendWithResponse.
func (m *Memory) AppendWithResponse(ctx context.Context, key string, events []ledger.Event, response json.RawMessage) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok, err := m.responses.Get(ctx, key); err != nil || ok {
		return r, ok, err
	}
	if _, err := m.appendLocked(events); err != nil {
		return nil, false, err
	}
	stored, err := m.responses.Put(ctx, key, response)
	return stored, false, err
}

// Get implements idempotency.Store.
func (m *Memory) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	return m.responses.Get(ctx, key)
}

// Put implements idempotency.Store.
func (m *Memory) Put(ctx context.Context, key string, response json.RawMessage) (json.RawMessage, error) {
	return m.responses.Put(ctx, key, response)
}

func (m *Memory) appendLocked(events []ledger.Event) ([]Record, error) {
	for ; m.hashed < len(m.events); m.hashed++ {
		h, err := ledger.Hash(m.head, m.events[m.hashed])
		if err != nil {
			return nil, err
		}
		m.head = h
	}
	prev := m.head
	records := make([]Record, 0, len(events))
	for _, e := range events {
		payload, err := ledger.Canonical(e)
		if err != nil {
			return nil, err
		}
		hash, err := ledger.Hash(prev, e)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{
			Seq:      int64(len(m.events) + len(records) + 1),
			Type:     e.Type(),
			Date:     e.EventDate().String(),
			Payload:  payload,
			PrevHash: prev,
			Hash:     hash,
		})
		prev = hash
	}
	m.events = append(m.events, events...)
	m.head = prev
	m.hashed = len(m.events)
	return records, nil
}

var (
	_ idempotency.Store = (*Store)(nil)
	_ idempotency.Store = (*Memory)(nil)
)
