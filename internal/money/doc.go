// Package money provides integer-cent arithmetic for ghostledger.
//
// Every monetary amount in the system is a Cents value. Floating point never
// touches persisted amounts:
//   - Add and Sub are exact
//   - Mul rounds half away from zero
//   - Pct floors, so a penalty never exceeds its nominal percentage
//
// Decimal conversions at the edges (dollar strings in, formatted strings out)
// go through shopspring/decimal.
package money
