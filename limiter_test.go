package rewrite

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdewolff/test"
)

func TestMemoryLimiter(t *testing.T) {
	l := NewSharedMemoryLimiter(10)
	test.T(t, l.Max(), 10)
	test.That(t, l.TryConsume(4))
	test.That(t, l.TryConsume(6), "growth up to exactly the limit must be accepted")
	test.T(t, l.Used(), 10)
	test.That(t, !l.TryConsume(1), "growth past the limit must be rejected")
	test.T(t, l.Used(), 10, "rejected requests must not reserve anything")

	l.Release(5)
	test.T(t, l.Used(), 5)
	test.That(t, !l.TryConsume(6))
	test.That(t, l.TryConsume(5))
	test.That(t, l.TryConsume(0), "empty requests always succeed")
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	const workers, rounds, budget = 8, 1000, 64
	l := NewSharedMemoryLimiter(budget)

	var wg sync.WaitGroup
	var mu sync.Mutex
	peak := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				if l.TryConsume(16) {
					used := l.Used()
					mu.Lock()
					peak = max(peak, used)
					mu.Unlock()
					l.Release(16)
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, l.Used(), "every reservation must be released")
	assert.LessOrEqual(t, peak, budget, "usage must never exceed the budget")
}
