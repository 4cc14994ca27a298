package producer

import (
	"fmt"

	"github.com/roach88/genlist/internal/canonical"
	"github.com/roach88/genlist/internal/genlist"
)

// Node is a producer stored in the list.
type Node struct {
	ID       string
	NextID   string // empty when the node is the tail
	Label    string
	Priority int64
	Seq      int64 // logical insertion stamp
	Retired  bool
	Emitted  int64
	Done     bool
	Source   Source
}

// Next implements genlist.Producer. Exhaustion is latched in Done.
func (n *Node) Next() (int64, bool) {
	if n.Done {
		return 0, false
	}
	if n.Source == nil {
		n.Done = true
		return 0, false
	}
	v, ok := n.Source.Next()
	if !ok {
		n.Done = true
		return 0, false
	}
	n.Emitted++
	return v, true
}

// Kind returns the source kind, or "" for a node without a source.
func (n *Node) Kind() Kind {
	if n.Source == nil {
		return ""
	}
	return n.Source.Kind()
}

// Link returns the node's successor link.
func (n *Node) Link() genlist.Link[string] {
	if n.NextID == "" {
		return genlist.Link[string]{}
	}
	return genlist.LinkTo(n.NextID)
}

// SetLink overwrites the node's successor link.
func (n *Node) SetLink(l genlist.Link[string]) {
	if !l.Valid {
		n.NextID = ""
		return
	}
	n.NextID = l.ID
}

// EncodeState returns the canonical JSON of the source state.
func (n *Node) EncodeState() ([]byte, error) {
	if n.Source == nil {
		return nil, fmt.Errorf("node %s has no source", n.ID)
	}
	return canonical.Marshal(n.Source.State())
}

// ContentHash hashes every persisted field, link included. Two nodes with the
// same hash store identical rows.
func (n *Node) ContentHash() (string, error) {
	if n.Source == nil {
		return "", fmt.Errorf("node %s has no source", n.ID)
	}
	return canonical.Hash(canonical.DomainProducer, map[string]any{
		"id":       n.ID,
		"next_id":  n.NextID,
		"label":    n.Label,
		"priority": n.Priority,
		"seq":      n.Seq,
		"retired":  n.Retired,
		"emitted":  n.Emitted,
		"done":     n.Done,
		"kind":     string(n.Source.Kind()),
		"state":    n.Source.State(),
	})
}
