package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genlist/internal/producer"
)

func node(label string, priority, emitted int64) *producer.Node {
	return &producer.Node{Label: label, Priority: priority, Emitted: emitted, Source: producer.NewList()}
}

func stamped(priority, seq int64) *producer.Node {
	return &producer.Node{Label: "n", Priority: priority, Seq: seq, Source: producer.NewList()}
}

func TestParse(t *testing.T) {
	minPri := int64(2)

	tests := []struct {
		name string
		src  string
		want *Policy
	}{
		{
			name: "empty file takes defaults",
			src:  ``,
			want: &Policy{Order: OrderPriority},
		},
		{
			name: "fifo",
			src:  `order: "fifo"`,
			want: &Policy{Order: OrderFIFO},
		},
		{
			name: "full",
			src: `
order: "lifo"
retire: {
	labels: ["stale", "old"]
	max_emitted: 10
	min_priority: 2
}`,
			want: &Policy{
				Order: OrderLIFO,
				Retire: Retire{
					Labels:      []string{"stale", "old"},
					MaxEmitted:  10,
					MinPriority: &minPri,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse("test.cue", []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unknown order", src: `order: "random"`},
		{name: "unknown field", src: `speed: 3`},
		{name: "unknown retire field", src: `retire: ttl: 5`},
		{name: "zero max_emitted", src: `retire: max_emitted: 0`},
		{name: "syntax error", src: `order: [`},
		{name: "wrong type", src: `retire: labels: "stale"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.cue", []byte(tt.src))
			require.Error(t, err)
			var perr *Error
			assert.True(t, errors.As(err, &perr), "want *policy.Error, got %T", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.cue")
	require.NoError(t, os.WriteFile(path, []byte(`order: "fifo"`), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, OrderFIFO, p.Order)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}

func TestBetter(t *testing.T) {
	hi, lo := stamped(5, 2), stamped(1, 1)
	eq := stamped(5, 3)

	p := Default()
	assert.True(t, p.Better(hi, lo))
	assert.False(t, p.Better(lo, hi))
	assert.False(t, p.Better(eq, hi), "equal priority is not strictly better")
	assert.False(t, p.Better(hi, eq))

	// Newer nodes have larger seq.
	fifo := &Policy{Order: OrderFIFO}
	assert.False(t, fifo.Better(hi, lo), "newcomer goes behind")
	assert.True(t, fifo.Better(lo, hi))

	lifo := &Policy{Order: OrderLIFO}
	assert.True(t, lifo.Better(hi, lo), "newcomer goes in front")
	assert.False(t, lifo.Better(lo, hi))

	for _, pol := range []*Policy{p, fifo, lifo} {
		assert.False(t, pol.Better(hi, hi), "%s must be irreflexive", pol.Order)
	}
}

func TestShouldRemove(t *testing.T) {
	minPri := int64(3)
	p := &Policy{Retire: Retire{Labels: []string{"stale"}, MaxEmitted: 4, MinPriority: &minPri}}

	retired := node("ok", 9, 0)
	retired.Retired = true

	tests := []struct {
		name string
		n    *producer.Node
		want bool
	}{
		{"keeps healthy", node("ok", 5, 1), false},
		{"retired flag", retired, true},
		{"label", node("stale", 5, 0), true},
		{"emitted limit", node("ok", 5, 4), true},
		{"below emitted limit", node("ok", 5, 3), false},
		{"below min priority", node("ok", 2, 0), true},
		{"at min priority", node("ok", 3, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ShouldRemove(tt.n))
		})
	}

	assert.True(t, Default().ShouldRemove(retired))
	assert.False(t, Default().ShouldRemove(node("stale", 0, 100)))
}
