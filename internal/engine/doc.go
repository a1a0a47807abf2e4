// Package engine runs ledger commands against a durable event log.
//
// ARCHITECTURE:
//
// Single-Writer Execution:
// Execute serializes every command behind one mutex. A command sees the log
// as of its start and its events are appended before the next command loads.
// This ensures:
//   - Commands validate against the state their events will apply to
//   - The stored order is the order commands were accepted
//   - Replaying the stored log reproduces every accepted state
//
// Execution Flow:
//  1. Idempotency lookup: a cached response for "<command>:<key>" is
//     returned as is and nothing runs
//  2. Load the log and let the command decide its events
//  3. Validate the decided events by replaying them onto the loaded state
//  4. Append the events (and the response, when keyed) atomically
//
// Provider calls made by RunTransfer happen outside the mutex. The settlement
// they produce goes through Execute like any other command, so a transfer
// settled concurrently is rejected rather than applied twice. Before the call
// the success outcome is dry-run; a transfer whose effect no longer applies
// is failed with EFFECT_REJECTED and never reaches the provider.
//
// CRITICAL PATTERNS:
//
// Structural Idempotency:
// At-most-once settlement is enforced by the reducer (a transfer leaves
// REQUESTED exactly once). The idempotency cache only covers commands whose
// events carry server-minted ids.
//
// Logical Identity:
// Event order is the store's seq; the engine never stamps wall-clock time.
// Business dates come from the configured Clock.
package engine
