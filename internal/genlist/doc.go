// Package genlist implements a priority-ordered list of producers whose
// storage lives outside the process.
//
// The list owns exactly one in-memory node, the head. Every other node is
// addressed by identity and fetched on demand through the Load hook, and
// every change to a node's link is pushed through the Changed hook before the
// list relies on it. The eight hooks are supplied once at construction, so a
// List is independent of how nodes are stored.
//
// OPERATIONS:
//
//   - Insert walks from the head and splices a node in front of the first node
//     it is strictly better than. Equal nodes keep insertion order.
//   - GenerateNext asks the head for a value. An exhausted head is deleted and
//     its successor becomes the head; the caller retries to get a value.
//   - SweepUnwanted removes every node the removal predicate flags, anywhere in
//     the list, keeping the relative order of survivors.
//
// CONCURRENCY:
//
// A List has no lock. Callers must serialize every call (see internal/pool for
// a single-writer loop). WithDebug enables assertion checks that panic with an
// *InvariantError when the list is corrupted or touched from a second
// goroutine.
//
// DURABILITY:
//
// Each link change is persisted before the next dependent step runs, but a
// sequence of changes is not atomic. Recovering from a crash between two
// writes is the storage layer's job.
package genlist
