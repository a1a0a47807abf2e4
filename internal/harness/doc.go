// Package harness runs ledger scenarios against a real engine.
//
// The harness loads YAML scenarios, executes their commands through
// engine.Execute on a fresh in-memory SQLite log, and checks the emitted
// events and final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	today: "2026-01-01"
//	provider: sim
//	setup:
//	  - command: vault-create
//	    params: { vault_id: v1, name: Rainy day, kind: { type: UNTIL_NEED } }
//	flow:
//	  - command: vault-deposit-request
//	    params: { user_id: u1, vault_id: v1, amount_cents: 2500 }
//	    expect:
//	      events: [TRANSFER_REQUESTED]
//	      result: { transfer_id: t_1 }
//	  - run_transfer: t_1
//	  - advance_days: 7
//	    command: vault-withdraw
//	    params: { vault_id: v1, amount_cents: 99999 }
//	    expect:
//	      error: INSUFFICIENT_FUNDS
//	assertions:
//	  - type: event_order
//	    events: [TRANSFER_REQUESTED, TRANSFER_SUCCEEDED, VAULT_DEPOSITED]
//	  - type: final_state
//	    entity: vault
//	    id: v1
//	    expect: { balance_cents: 2500 }
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - event_contains: an event of the type exists whose fields include the given ones
//   - event_order: event types appear in the given order
//   - event_count: an event type appears exactly N times
//   - final_state: a replayed vault, debt, challenge or transfer has the given fields
//
// # Deterministic Testing
//
// Every scenario runs with:
//   - A calendar clock starting at the scenario's today (testutil.CalendarClock)
//   - Sequential transfer ids t_1, t_2, ... (testutil.SequentialIDGenerator)
//   - A simulated provider (transfer.Simulated)
//
// so two runs produce identical logs, and golden timelines can be compared
// byte for byte.
package harness
