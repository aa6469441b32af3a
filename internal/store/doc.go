// Package store provides the SQLite dispatch journal.
//
// A session is one play-through. Within it the journal records:
//   - Dispatches: every cue handed to the channels, with how many failed
//   - Channel events: escalations and dispatcher state changes
//
// # Ordering
//
// All rows carry the dispatcher's seq (logical clock). Queries order by
// seq ASC, id ASC; wall-clock timestamps are informational only.
//
// # Writing
//
// Journal queues records and writes them on its own goroutine, so the
// dispatch loop never waits on the disk. Close drains the queue.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
