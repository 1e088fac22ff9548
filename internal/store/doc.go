// Package store provides SQLite-backed storage for recorded simulation runs.
//
// A run is one CLI invocation of count or horizon against a circuit file:
//   - runs: the circuit's graph hash, the totals and the final answer
//   - presses: per-trigger Low/High counts and the trace digest
//   - pulses: the full delivered pulse sequence, for recorded runs only
//   - periods: the gate-input periods a horizon run found
//
// # Ordering
//
// Runs are numbered by a logical seq assigned at insert, never by wall time.
// Every read orders by (seq|press, seq) so listings and traces come back
// identically on every call.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Graph hashes and trace digests come from internal/ir.
package store
