// Package store provides SQLite-backed storage for producer nodes and the
// event log.
//
// The store is the persistence collaborator of the generator list: it saves,
// loads and deletes nodes by id and never interprets the links it stores.
//
// # Tables
//
//   - producers: one row per node, including its next_id link and the
//     canonical JSON state of its source
//   - events: append-only log of list operations, keyed by logical seq
//
// # Critical Patterns
//
// Logical time: every event carries a seq from the pool's logical clock.
// Wall-clock timestamps are never stored, so replaying a scenario produces a
// byte-identical trace.
//
// Content hashes: SaveNode skips rows whose content hash is unchanged, which
// turns the persist-after-every-value pattern into a no-op for untouched
// nodes.
//
// Split lists: a crash between two writes can leave more than one node that
// no other node links to. Head reports this as ErrMultipleHeads instead of
// guessing.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store
