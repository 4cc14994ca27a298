package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_NewClockAt(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(42), c.Next())
}

func TestClock_AdvanceTo(t *testing.T) {
	c := NewClockAt(10)
	c.AdvanceTo(5)
	assert.Equal(t, int64(10), c.Current(), "never moves backwards")
	c.AdvanceTo(20)
	assert.Equal(t, int64(21), c.Next())
}

func TestClock_Concurrent(t *testing.T) {
	c := NewClock()
	var wg sync.WaitGroup
	seen := make(chan int64, 1000)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				seen <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, 1000)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })

	c := NewCountingGenerator("n")
	assert.Equal(t, "n-1", c.Generate())
	assert.Equal(t, "n-2", c.Generate())
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}
