package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/genlist/internal/genlist"
)

// ErrUnknownNode is returned by MemBackend.Load for ids it never stored.
var ErrUnknownNode = errors.New("unknown node")

// MemNode is a test producer that yields Values in order.
type MemNode struct {
	ID       string
	Label    string
	Priority int
	Values   []int
	Pos      int
	Link     genlist.Link[string]
}

// Next implements genlist.Producer.
func (n *MemNode) Next() (int, bool) {
	if n.Pos >= len(n.Values) {
		return 0, false
	}
	v := n.Values[n.Pos]
	n.Pos++
	return v, true
}

func (n *MemNode) clone() *MemNode {
	c := *n
	c.Values = slices.Clone(n.Values)
	return &c
}

// Call records one hook invocation that touched storage.
type Call struct {
	Op string // "changed", "load" or "delete"
	ID string
}

// MemBackend is an in-memory node store for genlist tests.
//
// It stores copies: Changed snapshots the node and Load returns a fresh copy,
// so any in-memory mutation the list forgets to persist is lost, just as it
// would be with real storage. Nodes rank by Priority, higher first.
type MemBackend struct {
	nodes    map[string]*MemNode
	retired  map[string]bool
	failures map[Call]error
	nextID   int

	// Calls lists storage hook invocations in order.
	Calls []Call
}

// NewMemBackend creates an empty backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{
		nodes:    make(map[string]*MemNode),
		retired:  make(map[string]bool),
		failures: make(map[Call]error),
	}
}

// Hooks returns hooks bound to this backend.
func (b *MemBackend) Hooks() genlist.Hooks[string, *MemNode] {
	return genlist.Hooks[string, *MemNode]{
		ID:           b.id,
		ShouldRemove: func(n *MemNode) bool { return b.retired[n.Label] },
		Better:       func(x, y *MemNode) bool { return x.Priority > y.Priority },
		Changed:      b.changed,
		Load:         b.load,
		Delete:       b.delete,
		Next:         func(n *MemNode) genlist.Link[string] { return n.Link },
		SetNext:      func(n *MemNode, l genlist.Link[string]) { n.Link = l },
	}
}

// Retire makes the removal predicate true for the given labels.
func (b *MemBackend) Retire(labels ...string) {
	for _, l := range labels {
		b.retired[l] = true
	}
}

// FailOn makes the next hook call for (op, id) return err. The failure fires
// once.
func (b *MemBackend) FailOn(op, id string, err error) {
	b.failures[Call{Op: op, ID: id}] = err
}

// ResetCalls clears the call log.
func (b *MemBackend) ResetCalls() {
	b.Calls = nil
}

// Stored returns a copy of the persisted node.
func (b *MemBackend) Stored(id string) (*MemNode, bool) {
	n, ok := b.nodes[id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// Len returns the number of stored nodes.
func (b *MemBackend) Len() int {
	return len(b.nodes)
}

// PersistedOrder follows the stored links from the only unreferenced node and
// returns the labels in order. It fails if storage holds more than one chain
// or a dangling link.
func (b *MemBackend) PersistedOrder() ([]string, error) {
	if len(b.nodes) == 0 {
		return nil, nil
	}
	referenced := make(map[string]bool, len(b.nodes))
	for _, n := range b.nodes {
		if n.Link.Valid {
			referenced[n.Link.ID] = true
		}
	}
	var heads []string
	for id := range b.nodes {
		if !referenced[id] {
			heads = append(heads, id)
		}
	}
	if len(heads) != 1 {
		slices.Sort(heads)
		return nil, fmt.Errorf("expected one head, found %v", heads)
	}

	var labels []string
	id, ok := heads[0], true
	for ok {
		n, found := b.nodes[id]
		if !found {
			return labels, fmt.Errorf("dangling link to %s", id)
		}
		if len(labels) > len(b.nodes) {
			return labels, fmt.Errorf("cycle through %s", id)
		}
		labels = append(labels, n.Label)
		id, ok = n.Link.ID, n.Link.Valid
	}
	if len(labels) != len(b.nodes) {
		return labels, fmt.Errorf("%d stored nodes but chain has %d", len(b.nodes), len(labels))
	}
	return labels, nil
}

func (b *MemBackend) id(n *MemNode) string {
	if n.ID == "" {
		b.nextID++
		n.ID = fmt.Sprintf("n%d", b.nextID)
	}
	return n.ID
}

func (b *MemBackend) record(op, id string) error {
	c := Call{Op: op, ID: id}
	b.Calls = append(b.Calls, c)
	if err, ok := b.failures[c]; ok {
		delete(b.failures, c)
		return err
	}
	return nil
}

func (b *MemBackend) changed(_ context.Context, n *MemNode) error {
	if err := b.record("changed", n.ID); err != nil {
		return err
	}
	b.nodes[n.ID] = n.clone()
	return nil
}

func (b *MemBackend) load(_ context.Context, id string) (*MemNode, error) {
	if err := b.record("load", id); err != nil {
		return nil, err
	}
	n, ok := b.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n.clone(), nil
}

func (b *MemBackend) delete(_ context.Context, id string) error {
	if err := b.record("delete", id); err != nil {
		return err
	}
	delete(b.nodes, id)
	return nil
}
