package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ghostledger/internal/ledger"
)

func TestAppend_AssignsSeqAndChain(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	events := testEvents()

	first, err := s.Append(ctx, events[:2])
	require.NoError(t, err)
	second, err := s.Append(ctx, events[2:])
	require.NoError(t, err)

	records := append(first, second...)
	hashes, err := ledger.ChainHashes(events)
	require.NoError(t, err)
	for i, r := range records {
		assert.Equal(t, int64(i+1), r.Seq)
		assert.Equal(t, hashes[i], r.Hash)
		if i > 0 {
			assert.Equal(t, records[i-1].Hash, r.PrevHash)
		}
	}
	assert.Equal(t, ledger.GenesisHash, records[0].PrevHash)
}

func TestAppend_Empty(t *testing.T) {
	s := createTestStore(t)
	records, err := s.Append(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppend_RowsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	_, err := s.Append(ctx, testEvents())
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `UPDATE events SET payload = '{}' WHERE seq = 1`)
	assert.ErrorContains(t, err, "append-only")
	_, err = s.db.ExecContext(ctx, `DELETE FROM events WHERE seq = 2`)
	assert.ErrorContains(t, err, "append-only")
}

func TestAppendWithResponse_ReplaysFirstResponse(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	events := testEvents()

	stored, replayed, err := s.AppendWithResponse(ctx, "ghost-pay:k1", events[:2], json.RawMessage(`{"n":1}`))
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, `{"n":1}`, string(stored))

	stored, replayed, err = s.AppendWithResponse(ctx, "ghost-pay:k1", events[2:], json.RawMessage(`{"n":2}`))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, `{"n":1}`, string(stored))

	log, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, log, 2, "replayed response must not append")

	var through int64
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT through_seq FROM idempotency_keys WHERE key = ?`, "ghost-pay:k1").Scan(&through))
	assert.Equal(t, int64(2), through)
}

func TestAppendWithResponse_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	_, err := s.Append(ctx, testEvents()[:1])
	require.NoError(t, err)

	// An undated event fails to encode mid-transaction.
	bad := []ledger.Event{ledger.VaultDeposited{VaultID: "v1", AmountCents: 1}}
	_, _, err = s.AppendWithResponse(ctx, "k", bad, json.RawMessage(`{}`))
	require.Error(t, err)

	log, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, log, 1)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPut_FirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	got, err := s.Put(ctx, "k", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	got, err = s.Put(ctx, "k", json.RawMessage(`{"a":2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	_, err = s.db.ExecContext(ctx, `UPDATE idempotency_keys SET response = '{}' WHERE key = 'k'`)
	assert.ErrorContains(t, err, "immutable")
}
