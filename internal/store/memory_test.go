package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/ledger"
)

func TestMemory_MatchesStoreHashes(t *testing.T) {
	ctx := context.Background()
	events := testEvents()

	m := NewMemory(events[:1]...)
	memRecords, err := m.Append(ctx, events[1:])
	require.NoError(t, err)

	s := createTestStore(t)
	dbRecords, err := s.Append(ctx, events)
	require.NoError(t, err)

	assert.Equal(t, dbRecords[1:], memRecords)

	log, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.Log(events), log)
}

func TestMemory_AppendWithResponse(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	events := testEvents()

	_, replayed, err := m.AppendWithResponse(ctx, "k", events[:2], json.RawMessage(`{"n":1}`))
	require.NoError(t, err)
	assert.False(t, replayed)

	got, replayed, err := m.AppendWithResponse(ctx, "k", events[2:], json.RawMessage(`{"n":2}`))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, `{"n":1}`, string(got))

	log, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, log, 2)
}

func TestMemory_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(testEvents()...)
	log, err := m.Load(ctx)
	require.NoError(t, err)
	log[0] = nil

	again, err := m.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, again[0])
}
