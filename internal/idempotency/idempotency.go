// Package idempotency caches command responses by client-supplied key.
//
// The cache sits beside the transfer saga's own at-most-once checks. It
// exists for commands whose events carry server-minted ids, where a retried
// request would otherwise produce a second, distinct set of events. A hit
// returns the first response byte for byte and appends nothing.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
)

// ErrEmptyKey is returned for a blank client key.
var ErrEmptyKey = errors.New("idempotency key is empty")

// Key namespaces a client key by command so the same client key used for two
// different commands never collides.
func Key(command, clientKey string) (string, error) {
	if strings.TrimSpace(clientKey) == "" {
		return "", ErrEmptyKey
	}
	return command + ":" + clientKey, nil
}

// Store holds one response per key. Put never overwrites: the first response
// stored for a key wins and is returned.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Put(ctx context.Context, key string, response json.RawMessage) (json.RawMessage, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{responses: make(map[string]json.RawMessage)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[key]
	if !ok {
		return nil, false, nil
	}
	return clone(r), true, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key string, response json.RawMessage) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.responses[key]; ok {
		return clone(r), nil
	}
	m.responses[key] = clone(response)
	return clone(response), nil
}

// Len returns the number of cached responses.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

func clone(r json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), r...)
}
