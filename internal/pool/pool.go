package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/genlist/internal/genlist"
	"github.com/roach88/genlist/internal/policy"
	"github.com/roach88/genlist/internal/producer"
	"github.com/roach88/genlist/internal/store"
)

var (
	// ErrStopped is returned for jobs submitted after the loop stopped.
	ErrStopped = errors.New("pool stopped")

	// ErrOrphaned is returned by Check when storage holds nodes the list
	// cannot reach.
	ErrOrphaned = errors.New("orphaned producers in storage")
)

// list is the concrete list type the pool drives.
type list = genlist.List[string, int64, *producer.Node]

// Pool serializes access to one durable producer list.
//
// Thread-safety model:
//   - exported operations: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Pool struct {
	store   *store.Store
	policy  *policy.Policy
	list    *list
	queue   *jobQueue
	clock   Sequencer
	ids     IDGenerator
	metrics *Metrics
	log     *slog.Logger
	debug   bool

	// swept collects nodes the policy removes during one sweep.
	// Only touched from the Run goroutine.
	swept   []*producer.Node
	inSweep bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithClock sets the logical clock. Default: NewClock().
func WithClock(c Sequencer) Option {
	return func(p *Pool) { p.clock = c }
}

// WithIDs sets the id generator. Default: UUIDv7Generator.
func WithIDs(g IDGenerator) Option {
	return func(p *Pool) { p.ids = g }
}

// WithMetrics sets the collectors to update. Default: unregistered metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pool) { p.metrics = m }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// WithDebug turns on the list's invariant checks after every mutation.
func WithDebug(on bool) Option {
	return func(p *Pool) { p.debug = on }
}

// New creates a pool over s ordered and swept by pol.
// The pool starts empty; call Resume to adopt a persisted list.
func New(s *store.Store, pol *policy.Policy, opts ...Option) (*Pool, error) {
	if pol == nil {
		pol = policy.Default()
	}
	p := &Pool{
		store:  s,
		policy: pol,
		queue:  newJobQueue(),
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = NewMetrics(nil)
	}

	l, err := genlist.New[string, int64](p.hooks(),
		genlist.WithDebug(p.debug),
		genlist.WithLogger(p.log.With("component", "genlist")),
	)
	if err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	p.list = l
	return p, nil
}

// hooks binds the list's collaborators to the store and policy.
func (p *Pool) hooks() genlist.Hooks[string, *producer.Node] {
	return genlist.Hooks[string, *producer.Node]{
		ID: func(n *producer.Node) string {
			if n.ID == "" {
				n.ID = p.ids.Generate()
			}
			return n.ID
		},
		ShouldRemove: func(n *producer.Node) bool {
			rm := p.policy.ShouldRemove(n)
			if rm && p.inSweep {
				p.swept = append(p.swept, n)
			}
			return rm
		},
		Better:  p.policy.Better,
		Changed: p.store.SaveNode,
		Load:    p.store.LoadNode,
		Delete:  p.store.DeleteNode,
		Next:    (*producer.Node).Link,
		SetNext: (*producer.Node).SetLink,
	}
}

// Run starts the single-writer loop. It blocks until ctx is cancelled or
// Stop is called and the queue has drained.
//
// A failed job is logged and reported to its caller; the loop keeps going.
func (p *Pool) Run(ctx context.Context) error {
	p.log.Info("pool starting")

	for {
		if j, ok := p.queue.TryDequeue(); ok {
			p.runJob(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			p.log.Info("pool stopping: context cancelled")
			p.queue.Close()
			p.failPending()
			return ctx.Err()

		case <-p.queue.Wait():
			// Wait is closed by Close, so an empty queue here means stopped.
			if p.queue.Len() == 0 && p.closed() {
				p.log.Info("pool stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Jobs already queued still run; Run returns once
// they are done. Later submissions fail with ErrStopped.
func (p *Pool) Stop() {
	p.queue.Close()
}

// Within runs fn while the loop is running and stops the pool when fn
// returns. The first error from either side is returned.
func (p *Pool) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		defer p.Stop()
		return fn(gctx)
	})
	return g.Wait()
}

func (p *Pool) closed() bool {
	p.queue.mu.Lock()
	defer p.queue.mu.Unlock()
	return p.queue.closed
}

// failPending answers every queued job with ErrStopped.
func (p *Pool) failPending() {
	for {
		j, ok := p.queue.TryDequeue()
		if !ok {
			return
		}
		j.done <- ErrStopped
	}
}

// runJob executes j on the Run goroutine. Invariant panics raised by the
// list in debug mode are returned to the caller as errors.
func (p *Pool) runJob(ctx context.Context, j job) {
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				ie, ok := r.(*genlist.InvariantError)
				if !ok {
					panic(r)
				}
				err = ie
			}
		}()
		return j.fn(ctx)
	}()

	p.metrics.observe(j.op, time.Since(start), err)
	if err != nil {
		p.log.Warn("pool operation failed", "op", j.op, "error", err)
	}
	j.done <- err
}

// do submits fn and waits for its result or for ctx to end.
func (p *Pool) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	j := job{op: op, fn: fn, done: make(chan error, 1)}
	if !p.queue.Enqueue(j) {
		return ErrStopped
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
