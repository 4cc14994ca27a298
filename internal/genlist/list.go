package genlist

import (
	"context"
	"fmt"
	"log/slog"
)

type options struct {
	debug  bool
	logger *slog.Logger
}

// Option configures a List.
type Option func(*options)

// WithDebug turns on assertion checks. After every structural change the
// list is walked and verified, and a violation panics with *InvariantError.
// Debug lists also panic when used from more than one goroutine.
//
// Each check walks the whole list through Load, so leave this off in
// production.
func WithDebug(on bool) Option {
	return func(o *options) {
		o.debug = on
	}
}

// WithLogger sets the logger used for per-operation debug records.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// List is a descending-priority singly-linked list of producers.
//
// Only the head is held in memory. Links are identities resolved through
// Hooks.Load, so every other node lives in whatever storage the hooks use.
//
// INVARIANTS:
//   - Walking from the head, no node is Better than its predecessor.
//   - Every reachable node has a unique id and is reachable exactly once.
//   - count equals the number of reachable nodes after every call returns.
//
// A List is not safe for concurrent use.
type List[ID comparable, V any, N Producer[V]] struct {
	hooks Hooks[ID, N]

	head    N
	hasHead bool
	count   int

	debug bool
	owner int64 // goroutine pinned by the first call in debug mode
	log   *slog.Logger
}

// New creates an empty list bound to the given hooks.
// Returns ErrMissingHook if any hook is nil.
func New[ID comparable, V any, N Producer[V]](hooks Hooks[ID, N], opts ...Option) (*List[ID, V, N], error) {
	if err := hooks.validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return &List[ID, V, N]{
		hooks: hooks,
		debug: o.debug,
		log:   o.logger,
	}, nil
}

// Len returns the number of nodes reachable from the head.
func (l *List[ID, V, N]) Len() int {
	return l.count
}

// Head returns the in-memory head, or false if the list is empty.
func (l *List[ID, V, N]) Head() (N, bool) {
	return l.head, l.hasHead
}

// Insert places node in priority order.
//
// The node must not already be in the list; this is not checked. Its identity
// is taken from Hooks.ID. The walk stops at the first node that node is
// strictly Better than, so a node equal to existing nodes lands after them.
//
// The node is persisted with its new link before the predecessor (or the
// head) is pointed at it.
func (l *List[ID, V, N]) Insert(ctx context.Context, node N) error {
	l.enter()

	id := l.hooks.ID(node)

	if !l.hasHead {
		l.hooks.SetNext(node, Link[ID]{})
		if err := l.persist(ctx, node); err != nil {
			return err
		}
		l.head, l.hasHead = node, true
		l.count++
		l.log.Debug("inserted at head of empty list", "id", id)
		l.assert(ctx)
		return nil
	}

	var (
		prev    N
		hasPrev bool
		err     error
	)
	cur, hasCur := l.head, true
	for hasCur && !l.hooks.Better(node, cur) {
		prev, hasPrev = cur, true
		cur, hasCur, err = l.successor(ctx, cur)
		if err != nil {
			return err
		}
	}

	var succ Link[ID]
	if hasCur {
		succ = LinkTo(l.hooks.ID(cur))
	}
	l.hooks.SetNext(node, succ)
	if err := l.persist(ctx, node); err != nil {
		return err
	}

	if hasPrev {
		if err := l.relink(ctx, prev, LinkTo(id)); err != nil {
			return err
		}
	} else {
		l.head = node
	}
	l.count++

	l.log.Debug("inserted",
		"id", id,
		"at_head", !hasPrev,
		"at_tail", !hasCur,
		"count", l.count,
	)
	l.assert(ctx)
	return nil
}

// GenerateNext pulls one value from the head.
//
// If the head produces a value it is persisted (producers may mutate
// themselves) and the value is returned as Produced. If the head is
// exhausted it is deleted, its successor becomes the new head, and the result
// is Exhausted: no value this call, and the caller should call again. At most
// one producer is evicted per call.
//
// An empty list returns Empty without calling any hook.
func (l *List[ID, V, N]) GenerateNext(ctx context.Context) (Result[ID, V], error) {
	l.enter()

	var res Result[ID, V]
	if !l.hasHead {
		return res, nil
	}

	head := l.head
	if v, ok := head.Next(); ok {
		if err := l.persist(ctx, head); err != nil {
			return res, err
		}
		res.Outcome = Produced
		res.Value = v
		return res, nil
	}

	id := l.hooks.ID(head)
	next, hasNext, err := l.successor(ctx, head)
	if err != nil {
		return res, err
	}

	// Delete before moving the head: on failure the exhausted head stays in
	// place and the next call retries the eviction.
	if err := l.hooks.Delete(ctx, id); err != nil {
		return res, fmt.Errorf("delete %v: %w", id, err)
	}
	l.head, l.hasHead = next, hasNext
	l.count--

	l.log.Debug("evicted exhausted head", "id", id, "count", l.count)
	l.assert(ctx)

	res.Outcome = Exhausted
	res.Evicted = id
	return res, nil
}

// SweepUnwanted removes every node for which Hooks.ShouldRemove is true and
// returns how many were removed.
//
// The successor of each visited node is loaded before the node is touched.
// A removed node's surviving predecessor is relinked past it and persisted
// before the node is deleted. Survivors keep their relative order.
func (l *List[ID, V, N]) SweepUnwanted(ctx context.Context) (int, error) {
	l.enter()

	var (
		prev    N
		hasPrev bool
		removed int
	)
	cur, hasCur := l.head, l.hasHead
	for hasCur {
		next, hasNext, err := l.successor(ctx, cur)
		if err != nil {
			return removed, err
		}

		if !l.hooks.ShouldRemove(cur) {
			prev, hasPrev = cur, true
			cur, hasCur = next, hasNext
			continue
		}

		id := l.hooks.ID(cur)
		if hasPrev {
			// Unlink first; cur is unreachable from here on even if the
			// delete below fails.
			if err := l.relink(ctx, prev, l.hooks.Next(cur)); err != nil {
				return removed, err
			}
			l.count--
			removed++
			if err := l.hooks.Delete(ctx, id); err != nil {
				return removed, fmt.Errorf("delete %v: %w", id, err)
			}
		} else {
			if err := l.hooks.Delete(ctx, id); err != nil {
				return removed, fmt.Errorf("delete %v: %w", id, err)
			}
			l.head, l.hasHead = next, hasNext
			l.count--
			removed++
		}
		l.log.Debug("swept", "id", id, "count", l.count)

		cur, hasCur = next, hasNext
	}

	if removed > 0 {
		l.assert(ctx)
	}
	return removed, nil
}

// Attach adopts an already persisted list whose first node is head, and
// recounts it by walking the links. Use it to resume after a restart.
//
// Returns ErrNotEmpty if the list already has a head.
func (l *List[ID, V, N]) Attach(ctx context.Context, head N) error {
	l.enter()

	if l.hasHead {
		return ErrNotEmpty
	}

	l.head, l.hasHead = head, true
	n := 0
	if err := l.Walk(ctx, func(N) error {
		n++
		return nil
	}); err != nil {
		var zero N
		l.head, l.hasHead = zero, false
		return fmt.Errorf("attach: %w", err)
	}
	l.count = n

	l.log.Debug("attached", "head", l.hooks.ID(head), "count", n)
	l.assert(ctx)
	return nil
}

// successor loads the node n links to, if any.
func (l *List[ID, V, N]) successor(ctx context.Context, n N) (N, bool, error) {
	var zero N
	link := l.hooks.Next(n)
	if !link.Valid {
		return zero, false, nil
	}
	next, err := l.hooks.Load(ctx, link.ID)
	if err != nil {
		return zero, false, fmt.Errorf("load %v: %w", link.ID, err)
	}
	return next, true, nil
}

// persist pushes n through Changed.
func (l *List[ID, V, N]) persist(ctx context.Context, n N) error {
	if err := l.hooks.Changed(ctx, n); err != nil {
		return fmt.Errorf("persist %v: %w", l.hooks.ID(n), err)
	}
	return nil
}

// relink points n at link and persists it. If persisting fails the old link
// is put back, so memory never holds a link storage has not accepted.
func (l *List[ID, V, N]) relink(ctx context.Context, n N, link Link[ID]) error {
	old := l.hooks.Next(n)
	l.hooks.SetNext(n, link)
	if err := l.persist(ctx, n); err != nil {
		l.hooks.SetNext(n, old)
		return err
	}
	return nil
}
