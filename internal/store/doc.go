// Package store provides SQLite-backed storage for graph snapshots and the
// evaluation audit log.
//
// Tables:
//   - snapshots: one row per frozen graph, keyed by its UUIDv7 id
//   - variables: the variables of each snapshot, types as canonical JSON
//   - evaluations: one row per (snapshot, expression hash, mode)
//
// The evaluation log is written by the engine and read only by replay and
// reporting. Nothing in evaluation consults it, so it can never act as a
// result cache.
//
// All ordering uses seq INTEGER (logical clock), never timestamps:
// reads use ORDER BY seq ASC, id ASC so results are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
