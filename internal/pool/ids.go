package pool

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator assigns identities to new producers.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 ids.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predictable ids for tests and golden traces.
//
// With explicit ids it hands them out in order and panics when they run
// out. Without ids it counts: prefix-1, prefix-2, ...
type FixedGenerator struct {
	mu     sync.Mutex
	prefix string
	ids    []string
	idx    int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NewCountingGenerator creates a generator that never runs out.
func NewCountingGenerator(prefix string) *FixedGenerator {
	return &FixedGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ids == nil {
		g.idx++
		return fmt.Sprintf("%s-%d", g.prefix, g.idx)
	}
	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
