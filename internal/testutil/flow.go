package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator mints "<prefix>_1", "<prefix>_2", ... and never runs
// out.
//
// This enables deterministic test execution and golden timeline comparison.
// The same scenario with a fresh generator produces byte-identical event logs.
//
// Unlike engine.FixedGenerator which panics after its list, this generator
// suits scenarios of any length.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequentialIDGenerator creates a generator. An empty prefix defaults to
// "t".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "t"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id. Implements engine.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s_%d", g.prefix, g.seq)
}

// Reset restarts the sequence at 1.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
