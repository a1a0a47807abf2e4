// Package store provides SQLite-backed durable storage for the ledger event
// log.
//
// The store is append-only:
//   - events: one row per ledger event, canonical JSON payload, hash chained
//     to its predecessor
//   - idempotency_keys: the first response stored for a client key
//
// # Ordering
//
// seq INTEGER is the logical clock. Every read orders by seq ASC so a load
// replays exactly the order events were appended, regardless of wall time.
//
// # Atomicity
//
// A command's events are appended in one transaction. AppendWithResponse
// also records the command's response under its idempotency key in that
// same transaction, so a crash can never leave events without their cached
// response or the other way round.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=FULL by default: a commit is fsynced before Append returns
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// Payloads are produced by ledger.Canonical and hashes by ledger.Hash using
// RFC 8785 canonical JSON and SHA-256 with domain separation.
package store
