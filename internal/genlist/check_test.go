package genlist_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genlist/internal/genlist"
	"github.com/roach88/genlist/internal/testutil"
)

// invertibleList returns a list whose ordering can be flipped after the fact,
// which lets tests corrupt the sort invariant on purpose.
func invertibleList(t *testing.T, opts ...genlist.Option) (*memList, *bool) {
	t.Helper()
	b := testutil.NewMemBackend()
	hooks := b.Hooks()
	inverted := new(bool)
	hooks.Better = func(x, y *testutil.MemNode) bool {
		if *inverted {
			return x.Priority < y.Priority
		}
		return x.Priority > y.Priority
	}
	l, err := genlist.New[string, int](hooks, opts...)
	require.NoError(t, err)
	return l, inverted
}

func recoverInvariant(fn func()) (ie *genlist.InvariantError) {
	defer func() {
		if r := recover(); r != nil {
			ie, _ = r.(*genlist.InvariantError)
		}
	}()
	fn()
	return nil
}

func TestCheck_DetectsOrderViolation(t *testing.T) {
	l, inverted := invertibleList(t)
	insertAll(t, l, node("a", 3), node("b", 2))
	require.NoError(t, l.Check(context.Background()))

	*inverted = true
	err := l.Check(context.Background())

	require.Error(t, err)
	assert.True(t, genlist.IsInvariantError(err))
	assert.Equal(t, genlist.ErrCodeOrderViolation, genlist.InvariantCode(err))
}

func TestCheck_DetectsCycle(t *testing.T) {
	b := testutil.NewMemBackend()
	hooks := b.Hooks()
	l, err := genlist.New[string, int](hooks)
	require.NoError(t, err)
	ctx := context.Background()

	a, c := node("a", 2), node("c", 1)
	insertAll(t, l, a, c)

	// Corrupt storage so c points back at a.
	loaded, err := hooks.Load(ctx, c.ID)
	require.NoError(t, err)
	hooks.SetNext(loaded, genlist.LinkTo(a.ID))
	require.NoError(t, hooks.Changed(ctx, loaded))

	err = l.Check(ctx)
	assert.Equal(t, genlist.ErrCodeCycleDetected, genlist.InvariantCode(err))
}

func TestDebug_PanicsOnCorruption(t *testing.T) {
	l, inverted := invertibleList(t, genlist.WithDebug(true))
	insertAll(t, l, node("a", 3), node("b", 2))
	*inverted = true

	ie := recoverInvariant(func() {
		_ = l.Insert(context.Background(), node("c", 1))
	})

	require.NotNil(t, ie, "expected an invariant panic")
	assert.Equal(t, genlist.ErrCodeOrderViolation, ie.Code)
}

func TestDebug_PanicsOnForeignGoroutine(t *testing.T) {
	l, _ := newList(t, genlist.WithDebug(true))
	insertAll(t, l, node("a", 1))

	got := make(chan *genlist.InvariantError, 1)
	go func() {
		got <- recoverInvariant(func() {
			_, _ = l.GenerateNext(context.Background())
		})
	}()

	ie := <-got
	require.NotNil(t, ie)
	assert.Equal(t, genlist.ErrCodeForeignGoroutine, ie.Code)
}

func TestNonDebug_AllowsHandoffBetweenGoroutines(t *testing.T) {
	l, _ := newList(t)
	insertAll(t, l, node("a", 1, 4))

	done := make(chan error, 1)
	go func() {
		_, err := l.GenerateNext(context.Background())
		done <- err
	}()

	assert.NoError(t, <-done)
}

func TestInvariantError_Error(t *testing.T) {
	withNode := &genlist.InvariantError{Code: genlist.ErrCodeCycleDetected, Message: "loop", Node: "n1"}
	assert.Equal(t, "CYCLE_DETECTED: loop (node=n1)", withNode.Error())

	bare := &genlist.InvariantError{Code: genlist.ErrCodeCountMismatch, Message: "off by one"}
	assert.Equal(t, "COUNT_MISMATCH: off by one", bare.Error())

	wrapped := fmt.Errorf("attach: %w", bare)
	assert.True(t, genlist.IsInvariantError(wrapped))
	assert.Equal(t, genlist.ErrCodeCountMismatch, genlist.InvariantCode(wrapped))
	assert.Equal(t, genlist.InvariantErrorCode(""), genlist.InvariantCode(errBoom))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "empty", genlist.Empty.String())
	assert.Equal(t, "produced", genlist.Produced.String())
	assert.Equal(t, "exhausted", genlist.Exhausted.String())
	assert.Equal(t, "unknown", genlist.Outcome(42).String())
}

func TestOutcome_MarshalText(t *testing.T) {
	b, err := genlist.Exhausted.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "exhausted", string(b))

	var o genlist.Outcome
	require.NoError(t, o.UnmarshalText([]byte("produced")))
	assert.Equal(t, genlist.Produced, o)
	assert.Error(t, o.UnmarshalText([]byte("bogus")))
}
