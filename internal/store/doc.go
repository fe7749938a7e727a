// Package store provides a SQLite-backed ledger of compiled DDL.
//
// Every compile that is recorded becomes a batch: an ordered list of
// statements tagged with the source it came from. The ledger is append-only
// and answers two questions: what did a given compile emit, and when was a
// given statement first and last emitted.
//
// # Identity
//
//   - Batch IDs are UUIDv7 by default (time-ordered, unique per compile)
//   - Statement IDs are content-addressed: SHA-256 over the NFC-normalized
//     statement text with domain separation (see StatementID)
//
// # Ordering
//
//   - Batches carry a logical seq, NEVER a timestamp, for ordering
//   - All queries include ORDER BY seq ASC, id ASC COLLATE BINARY (or the
//     statement position within a batch)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
