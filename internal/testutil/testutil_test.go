package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())

	clock.Reset()
	assert.Equal(t, int64(1), clock.Next())

	assert.Equal(t, int64(11), StartAt(10).Next())
}

func TestSequentialIDGenerator(t *testing.T) {
	gen := NewSequentialIDGenerator("")
	assert.Equal(t, "batch-0001", gen.Generate())
	assert.Equal(t, "batch-0002", gen.Generate())

	assert.Equal(t, "run-0001", NewSequentialIDGenerator("run").Generate())
}

func TestSequentialIDGeneratorConcurrent(t *testing.T) {
	gen := NewSequentialIDGenerator("c")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 500)
}
