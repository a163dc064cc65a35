// Package store provides SQLite-backed durable storage for propagation
// traces.
//
// The store is an append-only log with:
//   - Runs: one row per engine run, keyed by the engine run id
//   - Steps: one row per propagator execution, keyed by (run_id, seq)
//
// # Critical Patterns
//
// Logical Identity and Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Two runs of the same scenario compare step by step
//
// Deterministic Query Results
//   - Step queries include ORDER BY seq ASC
//   - Run listings order by id COLLATE BINARY; UUIDv7 ids sort by creation
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
