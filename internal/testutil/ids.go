package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out "<prefix>-0001", "<prefix>-0002", ... and satisfies
// pool.IDGenerator. Use it wherever a golden file or assertion needs stable
// producer ids.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "p".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "p"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
