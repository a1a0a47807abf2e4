// Package ledger defines the event-sourced core of ghostledger.
//
// The append-only event log is the single source of truth. State is never
// stored; it is recomputed by folding events through Apply, so identical
// logs always produce identical state.
//
// Key constraints:
//   - Event is a sealed union; every consumer implements Visitor, so a new
//     variant cannot be added without every consumer handling it
//   - All amounts are money.Cents, all dates are dates.Date (no wall clock)
//   - All JSON tags use snake_case; every record carries "type" and "date"
//   - Replay raises only NotFound and InvalidState errors
//
// ledger imports only money and dates; every other internal package imports
// ledger.
package ledger
