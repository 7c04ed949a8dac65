package rewrite

import (
	"sync/atomic"
)

// MemoryLimiter is a byte budget shared by every stream that holds it. All methods are safe for
// concurrent use; it is the only state streams share.
type MemoryLimiter struct {
	used atomic.Int64
	max  int64
}

// NewSharedMemoryLimiter returns a limiter that allows at most maxBytes bytes to be reserved at any time.
func NewSharedMemoryLimiter(maxBytes int) *MemoryLimiter {
	return &MemoryLimiter{
		max: int64(maxBytes),
	}
}

// TryConsume reserves n bytes and returns true if used+n does not exceed the maximum. Otherwise
// nothing is reserved and it returns false.
func (l *MemoryLimiter) TryConsume(n int) bool {
	if n <= 0 {
		return true
	}
	for {
		used := l.used.Load()
		if used+int64(n) > l.max {
			return false
		}
		if l.used.CompareAndSwap(used, used+int64(n)) {
			return true
		}
	}
}

// Release returns n previously reserved bytes to the budget.
func (l *MemoryLimiter) Release(n int) {
	if n > 0 {
		l.used.Add(-int64(n))
	}
}

// Used returns the number of bytes currently reserved.
func (l *MemoryLimiter) Used() int {
	return int(l.used.Load())
}

// Max returns the budget.
func (l *MemoryLimiter) Max() int {
	return int(l.max)
}
