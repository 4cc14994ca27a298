package genlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/petermattis/goid"
)

// Walk calls fn for each node from the head to the tail, loading successors
// through Hooks.Load. It stops at the first error from fn or from Load.
//
// Walk returns an *InvariantError with ErrCodeCycleDetected if a node id is
// reached twice.
func (l *List[ID, V, N]) Walk(ctx context.Context, fn func(N) error) error {
	seen := make(map[ID]struct{}, l.count)
	cur, ok := l.head, l.hasHead
	for ok {
		id := l.hooks.ID(cur)
		if _, dup := seen[id]; dup {
			return &InvariantError{
				Code:    ErrCodeCycleDetected,
				Message: "node reached twice while walking",
				Node:    id,
			}
		}
		seen[id] = struct{}{}

		if err := fn(cur); err != nil {
			return err
		}

		var err error
		cur, ok, err = l.successor(ctx, cur)
		if err != nil {
			return err
		}
	}
	return nil
}

// Check walks the list and verifies its invariants: sort order under
// Hooks.Better, no cycles, and that Len matches the reachable node count.
//
// Violations are returned as *InvariantError. Load failures are returned
// as-is.
func (l *List[ID, V, N]) Check(ctx context.Context) error {
	var (
		prev    N
		hasPrev bool
		n       int
	)
	err := l.Walk(ctx, func(cur N) error {
		if hasPrev && l.hooks.Better(cur, prev) {
			return &InvariantError{
				Code:    ErrCodeOrderViolation,
				Message: fmt.Sprintf("node outranks its predecessor %v", l.hooks.ID(prev)),
				Node:    l.hooks.ID(cur),
			}
		}
		prev, hasPrev = cur, true
		n++
		return nil
	})
	if err != nil {
		return err
	}

	if n != l.count {
		return &InvariantError{
			Code:    ErrCodeCountMismatch,
			Message: fmt.Sprintf("count is %d but %d nodes are reachable", l.count, n),
		}
	}
	return nil
}

// assert runs Check in debug mode and panics on a violation.
func (l *List[ID, V, N]) assert(ctx context.Context) {
	if !l.debug {
		return
	}
	err := l.Check(ctx)
	if err == nil {
		return
	}
	var ie *InvariantError
	if errors.As(err, &ie) {
		l.log.Error("assertion failed", "code", ie.Code, "error", ie.Message)
		panic(ie)
	}
	// Storage failed during the check itself; that is not a list bug.
	l.log.Warn("assertion skipped", "error", err)
}

// enter pins a debug list to the goroutine that first uses it.
func (l *List[ID, V, N]) enter() {
	if !l.debug {
		return
	}
	gid := goid.Get()
	if l.owner == 0 {
		l.owner = gid
		return
	}
	if gid != l.owner {
		panic(&InvariantError{
			Code:    ErrCodeForeignGoroutine,
			Message: fmt.Sprintf("list owned by goroutine %d, called from goroutine %d", l.owner, gid),
		})
	}
}
