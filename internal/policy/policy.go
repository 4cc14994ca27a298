// Package policy compiles CUE policy files into the ordering and removal
// rules of a producer list.
//
// A policy file is a CUE struct validated against an embedded #Policy schema:
//
//	order: "priority"
//	retire: {
//		labels: ["stale"]
//		max_emitted: 100
//		min_priority: 0
//	}
//
// Unknown fields are rejected. A node whose Retired flag is set is always
// removed, whatever the rules say.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/genlist/internal/producer"
)

//go:embed schema.cue
var schemaCUE string

// Order selects how inserted nodes are placed.
type Order string

const (
	OrderPriority Order = "priority"
	OrderFIFO     Order = "fifo"
	OrderLIFO     Order = "lifo"
)

// Retire holds the removal rules applied by a sweep.
type Retire struct {
	Labels      []string `json:"labels,omitempty"`
	MaxEmitted  int64    `json:"max_emitted,omitempty"`
	MinPriority *int64   `json:"min_priority,omitempty"`
}

// Policy is a compiled policy file.
type Policy struct {
	Order  Order  `json:"order"`
	Retire Retire `json:"retire"`
}

// Default orders by priority and only removes retired nodes.
func Default() *Policy {
	return &Policy{Order: OrderPriority}
}

// Better reports whether x belongs strictly before y. FIFO and LIFO compare
// insertion seq, so a newcomer lands at the tail or at the head.
func (p *Policy) Better(x, y *producer.Node) bool {
	switch p.Order {
	case OrderFIFO:
		return x.Seq < y.Seq
	case OrderLIFO:
		return x.Seq > y.Seq
	default:
		return x.Priority > y.Priority
	}
}

// ShouldRemove reports whether a sweep drops n.
func (p *Policy) ShouldRemove(n *producer.Node) bool {
	if n.Retired {
		return true
	}
	if slices.Contains(p.Retire.Labels, n.Label) {
		return true
	}
	if p.Retire.MaxEmitted > 0 && n.Emitted >= p.Retire.MaxEmitted {
		return true
	}
	if p.Retire.MinPriority != nil && n.Priority < *p.Retire.MinPriority {
		return true
	}
	return false
}

// Load reads and compiles a policy file.
func Load(path string) (*Policy, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(path, src)
}

// Parse compiles policy source. filename is used in error positions only.
func Parse(filename string, src []byte) (*Policy, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("policy schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Policy"))

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var p Policy
	if err := unified.Decode(&p); err != nil {
		return nil, formatCUEError(err)
	}
	return &p, nil
}

// Error is a policy compile error with its CUE source position.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{Message: first.Error(), Pos: positions[0]}
	}
	return &Error{Message: first.Error()}
}
