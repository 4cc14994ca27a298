package genlist

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingHook is returned by New when a required hook is nil.
var ErrMissingHook = errors.New("genlist: missing hook")

// Producer yields values until it is exhausted.
// Next returns ok=false once the producer is exhausted, and must keep
// returning false from then on.
type Producer[V any] interface {
	Next() (v V, ok bool)
}

// Link is a nullable reference to the next node by identity.
type Link[ID comparable] struct {
	ID    ID
	Valid bool
}

// LinkTo returns a valid link to id.
func LinkTo[ID comparable](id ID) Link[ID] {
	return Link[ID]{ID: id, Valid: true}
}

// Hooks are the collaborators through which a List reaches its nodes.
// All fields are required.
type Hooks[ID comparable, N any] struct {
	// ID returns the identity of a node. It is called when the node is
	// inserted and must return the same value on every later call, so
	// implementations typically assign an id on first call and reuse it.
	ID func(N) ID

	// ShouldRemove reports whether SweepUnwanted must evict the node.
	ShouldRemove func(N) bool

	// Better reports whether x strictly outranks y. It must be a strict
	// ordering that stays consistent across calls.
	Better func(x, y N) bool

	// Changed persists the node's current state, including its link.
	Changed func(ctx context.Context, n N) error

	// Load fetches the node with the given id. It fails if id is unknown.
	Load func(ctx context.Context, id ID) (N, error)

	// Delete permanently removes the node with the given id from storage.
	Delete func(ctx context.Context, id ID) error

	// Next returns the node's link.
	Next func(N) Link[ID]

	// SetNext overwrites the node's link in memory. The list always follows
	// it with Changed.
	SetNext func(N, Link[ID])
}

// validate reports the first missing hook.
func (h Hooks[ID, N]) validate() error {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingHook, name)
	}
	switch {
	case h.ID == nil:
		return missing("ID")
	case h.ShouldRemove == nil:
		return missing("ShouldRemove")
	case h.Better == nil:
		return missing("Better")
	case h.Changed == nil:
		return missing("Changed")
	case h.Load == nil:
		return missing("Load")
	case h.Delete == nil:
		return missing("Delete")
	case h.Next == nil:
		return missing("Next")
	case h.SetNext == nil:
		return missing("SetNext")
	}
	return nil
}
