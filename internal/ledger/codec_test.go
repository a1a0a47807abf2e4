package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryTypeHasDecoder(t *testing.T) {
	for _, typ := range AllTypes() {
		_, ok := decoders[typ]
		assert.True(t, ok, "no decoder for %s", typ)
	}
	assert.Len(t, decoders, len(AllTypes()))
}

func TestSampleCoversEveryType(t *testing.T) {
	seen := map[Type]bool{}
	for _, e := range sampleEvents() {
		seen[e.Type()] = true
	}
	for _, typ := range AllTypes() {
		assert.True(t, seen[typ], "sample log lacks %s", typ)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, e := range sampleEvents() {
		t.Run(string(e.Type()), func(t *testing.T) {
			data, err := Marshal(e)
			require.NoError(t, err)

			var fields map[string]any
			require.NoError(t, json.Unmarshal(data, &fields))
			assert.Equal(t, string(e.Type()), fields["type"])
			assert.Equal(t, e.EventDate().String(), fields["date"])

			got, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, e, got)
		})
	}
}

func TestMarshalShape(t *testing.T) {
	data, err := Marshal(VaultDeposited{VaultID: "v1", AmountCents: 250, Date: day0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"VAULT_DEPOSITED","vault_id":"v1","amount_cents":250,"date":"2026-01-01"}`, string(data))
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `nope`},
		{"missing type", `{"vault_id":"v1"}`},
		{"unknown type", `{"type":"VAULT_EXPLODED","date":"2026-01-01"}`},
		{"unknown field", `{"type":"VAULT_DEPOSITED","vault_id":"v1","amount_cents":1,"date":"2026-01-01","bonus":true}`},
		{"bad date", `{"type":"VAULT_DEPOSITED","vault_id":"v1","amount_cents":1,"date":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLogRoundTrip(t *testing.T) {
	data, err := MarshalLog(sampleEvents())
	require.NoError(t, err)
	got, err := UnmarshalLog(data)
	require.NoError(t, err)
	assert.Equal(t, sampleEvents(), got)
}
