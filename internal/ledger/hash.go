package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows a future
// algorithm migration.
const (
	DomainEvent = "ghostledger/event/v1"
	DomainState = "ghostledger/state/v1"
)

// GenesisHash is the chain predecessor of the first event.
const GenesisHash = ""

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	for _, d := range data {
		h.Write(d)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Hash chains e onto prev: SHA256(domain, prev, 0x00, canonical(e)).
// Changing or reordering any earlier event changes every later hash.
func Hash(prev string, e Event) (string, error) {
	canonical, err := Canonical(e)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", e.Type(), err)
	}
	return hashWithDomain(DomainEvent, []byte(prev), []byte{0x00}, canonical), nil
}

// ChainHashes returns the chained hash after each event.
func ChainHashes(events []Event) ([]string, error) {
	out := make([]string, len(events))
	prev := GenesisHash
	for i, e := range events {
		h, err := Hash(prev, e)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out[i] = h
		prev = h
	}
	return out, nil
}

// StateHash fingerprints a replayed state. Two replays of the same log must
// produce the same fingerprint.
func StateHash(s *State) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("state hash: %w", err)
	}
	canonical, err := CanonicalJSON(raw)
	if err != nil {
		return "", fmt.Errorf("state hash: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}
