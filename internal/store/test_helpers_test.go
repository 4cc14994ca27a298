package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/genlist/internal/producer"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestNode creates a list-backed node with minimal required fields.
func createTestNode(id, next string, priority, seq int64, values ...int64) *producer.Node {
	return &producer.Node{
		ID:       id,
		NextID:   next,
		Label:    "label-" + id,
		Priority: priority,
		Seq:      seq,
		Source:   producer.NewList(values...),
	}
}

func int64Ptr(v int64) *int64 { return &v }
