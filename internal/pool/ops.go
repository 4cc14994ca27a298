package pool

import (
	"context"
	"fmt"

	"github.com/roach88/genlist/internal/genlist"
	"github.com/roach88/genlist/internal/producer"
	"github.com/roach88/genlist/internal/store"
)

// Step is the result of one or more GenerateNext calls.
type Step struct {
	Outcome    genlist.Outcome `json:"outcome"`
	Value      int64           `json:"value"`
	ProducerID string          `json:"producer_id,omitempty"`
	Label      string          `json:"label,omitempty"`
	Evicted    []string        `json:"evicted,omitempty"`
}

// NodeView is a read-only copy of a linked producer.
type NodeView struct {
	ID       string        `json:"id"`
	Next     string        `json:"next,omitempty"`
	Label    string        `json:"label"`
	Priority int64         `json:"priority"`
	Seq      int64         `json:"seq"`
	Kind     producer.Kind `json:"kind"`
	Emitted  int64         `json:"emitted"`
	Done     bool          `json:"done"`
	Retired  bool          `json:"retired"`
}

func viewOf(n *producer.Node) NodeView {
	return NodeView{
		ID:       n.ID,
		Next:     n.NextID,
		Label:    n.Label,
		Priority: n.Priority,
		Seq:      n.Seq,
		Kind:     n.Kind(),
		Emitted:  n.Emitted,
		Done:     n.Done,
		Retired:  n.Retired,
	}
}

// Resume adopts the list persisted in the store and moves the clock past
// every stored seq. It is a no-op on an empty store.
func (p *Pool) Resume(ctx context.Context) error {
	return p.do(ctx, "resume", func(ctx context.Context) error {
		maxEvent, err := p.store.MaxSeq(ctx)
		if err != nil {
			return err
		}
		maxNode, err := p.store.MaxNodeSeq(ctx)
		if err != nil {
			return err
		}
		p.clock.AdvanceTo(max(maxEvent, maxNode))

		head, ok, err := p.store.Head(ctx)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		if !ok {
			return nil
		}
		if err := p.list.Attach(ctx, head); err != nil {
			return err
		}
		p.metrics.Size.Set(float64(p.list.Len()))
		p.log.Info("pool resumed", "head", head.ID, "producers", p.list.Len(), "seq", p.clock.Current())
		return nil
	})
}

// Add builds a producer from spec, inserts it and returns its id.
func (p *Pool) Add(ctx context.Context, spec producer.Spec) (string, error) {
	n, err := spec.Build()
	if err != nil {
		return "", err
	}

	err = p.do(ctx, "add", func(ctx context.Context) error {
		n.Seq = p.clock.Next()
		if err := p.list.Insert(ctx, n); err != nil {
			return err
		}
		p.metrics.Inserted.Inc()
		p.metrics.Size.Set(float64(p.list.Len()))
		p.log.Debug("producer added", "id", n.ID, "label", n.Label, "priority", n.Priority)
		return p.record(ctx, store.Event{Seq: n.Seq, Kind: store.EventInsert, ProducerID: n.ID, Label: n.Label})
	})
	if err != nil {
		return "", err
	}
	return n.ID, nil
}

// Next performs exactly one GenerateNext: a value, one eviction, or
// nothing on an empty list.
func (p *Pool) Next(ctx context.Context) (Step, error) {
	var step Step
	err := p.do(ctx, "next", func(ctx context.Context) error {
		var err error
		step, err = p.step(ctx)
		return err
	})
	return step, err
}

// Pull calls GenerateNext until it produces a value or the list is empty.
// Evicted lists every producer dropped on the way.
func (p *Pool) Pull(ctx context.Context) (Step, error) {
	var out Step
	err := p.do(ctx, "pull", func(ctx context.Context) error {
		var evicted []string
		for {
			step, err := p.step(ctx)
			if err != nil {
				out.Evicted = evicted
				return err
			}
			if step.Outcome != genlist.Exhausted {
				step.Evicted = evicted
				out = step
				return nil
			}
			evicted = append(evicted, step.ProducerID)
		}
	})
	return out, err
}

// step runs one GenerateNext and records it. Run goroutine only.
func (p *Pool) step(ctx context.Context) (Step, error) {
	head, ok := p.list.Head()
	res, err := p.list.GenerateNext(ctx)
	if err != nil {
		return Step{}, err
	}

	switch res.Outcome {
	case genlist.Produced:
		v := res.Value
		p.metrics.Produced.Inc()
		step := Step{Outcome: res.Outcome, Value: v, ProducerID: head.ID, Label: head.Label}
		return step, p.record(ctx, store.Event{
			Seq:        p.clock.Next(),
			Kind:       store.EventProduce,
			ProducerID: head.ID,
			Label:      head.Label,
			Value:      &v,
		})

	case genlist.Exhausted:
		p.metrics.Evicted.Inc()
		p.metrics.Size.Set(float64(p.list.Len()))
		label := ""
		if ok {
			label = head.Label
		}
		step := Step{Outcome: res.Outcome, ProducerID: res.Evicted, Label: label, Evicted: []string{res.Evicted}}
		return step, p.record(ctx, store.Event{
			Seq:        p.clock.Next(),
			Kind:       store.EventEvict,
			ProducerID: res.Evicted,
			Label:      label,
		})

	default:
		return Step{Outcome: genlist.Empty}, nil
	}
}

// Sweep removes every producer the policy rejects and returns their ids in
// list order.
func (p *Pool) Sweep(ctx context.Context) ([]string, error) {
	var ids []string
	err := p.do(ctx, "sweep", func(ctx context.Context) error {
		p.swept, p.inSweep = p.swept[:0], true
		removed, err := p.list.SweepUnwanted(ctx)
		p.inSweep = false

		// A failed removal is the last node the policy matched; only the
		// first removed ones are gone.
		gone := p.swept[:min(removed, len(p.swept))]
		p.metrics.Swept.Add(float64(len(gone)))
		p.metrics.Size.Set(float64(p.list.Len()))

		for _, n := range gone {
			ids = append(ids, n.ID)
			if rerr := p.record(ctx, store.Event{
				Seq:        p.clock.Next(),
				Kind:       store.EventSweep,
				ProducerID: n.ID,
				Label:      n.Label,
			}); rerr != nil && err == nil {
				err = rerr
			}
		}
		p.swept = p.swept[:0]
		return err
	})
	return ids, err
}

// Retire flags a producer so the next sweep removes it whatever the policy
// rules say. Retiring a retired producer does nothing.
func (p *Pool) Retire(ctx context.Context, id string) error {
	return p.do(ctx, "retire", func(ctx context.Context) error {
		// The head is held in memory; flag that copy so a later persist of
		// the head does not clear the flag.
		n, isHead := p.list.Head()
		if !isHead || n.ID != id {
			var err error
			if n, err = p.store.LoadNode(ctx, id); err != nil {
				return err
			}
		}
		if n.Retired {
			return nil
		}

		n.Retired = true
		if err := p.store.SaveNode(ctx, n); err != nil {
			n.Retired = false
			return err
		}
		p.metrics.Retired.Inc()
		return p.record(ctx, store.Event{
			Seq:        p.clock.Next(),
			Kind:       store.EventRetire,
			ProducerID: n.ID,
			Label:      n.Label,
		})
	})
}

// Snapshot returns the linked producers from head to tail.
func (p *Pool) Snapshot(ctx context.Context) ([]NodeView, error) {
	views := []NodeView{}
	err := p.do(ctx, "snapshot", func(ctx context.Context) error {
		return p.list.Walk(ctx, func(n *producer.Node) error {
			views = append(views, viewOf(n))
			return nil
		})
	})
	return views, err
}

// Check verifies the list invariants and that storage holds no node the
// list cannot reach.
func (p *Pool) Check(ctx context.Context) error {
	return p.do(ctx, "check", func(ctx context.Context) error {
		if err := p.list.Check(ctx); err != nil {
			return err
		}
		stored, err := p.store.CountNodes(ctx)
		if err != nil {
			return err
		}
		if linked := p.list.Len(); stored != linked {
			return fmt.Errorf("%w: %d stored, %d linked", ErrOrphaned, stored, linked)
		}
		return nil
	})
}

// Len returns the number of linked producers.
func (p *Pool) Len(ctx context.Context) (int, error) {
	var n int
	err := p.do(ctx, "len", func(context.Context) error {
		n = p.list.Len()
		return nil
	})
	return n, err
}

// Events reads the event log. It does not go through the loop: the log is
// append-only and the store serializes its own connection.
func (p *Pool) Events(ctx context.Context, f store.EventFilter) ([]store.Event, error) {
	return p.store.ReadEvents(ctx, f)
}

// Seq returns the last logical seq issued.
func (p *Pool) Seq() int64 {
	return p.clock.Current()
}

func (p *Pool) record(ctx context.Context, e store.Event) error {
	if err := p.store.AppendEvent(ctx, e); err != nil {
		return fmt.Errorf("record %s: %w", e.Kind, err)
	}
	return nil
}
