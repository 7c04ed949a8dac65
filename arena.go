package rewrite

import (
	"fmt"
)

// Arena is a byte buffer whose capacity is reserved from a MemoryLimiter. It retains the bytes of a
// stream that could not be processed yet; processed bytes are shifted out from the front.
type Arena struct {
	limiter *MemoryLimiter
	buf     []byte
}

// NewArena returns an arena that preallocates size bytes, or an error when the limiter refuses them.
func NewArena(limiter *MemoryLimiter, size int) (*Arena, error) {
	a := &Arena{
		limiter: limiter,
	}
	if 0 < size {
		if !limiter.TryConsume(size) {
			return nil, a.exceeded(size)
		}
		a.buf = make([]byte, 0, size)
	}
	return a, nil
}

// Bytes returns the retained bytes. They are valid until the next Append or Shift.
func (a *Arena) Bytes() []byte {
	return a.buf
}

// Len returns the number of retained bytes.
func (a *Arena) Len() int {
	return len(a.buf)
}

// Cap returns the number of bytes reserved from the limiter.
func (a *Arena) Cap() int {
	return cap(a.buf)
}

// Append appends b, growing the buffer when needed. Growth doubles the capacity if the limiter
// allows, otherwise it grows to exactly the needed size. When even that is refused the arena is left
// unchanged and an error wrapping ErrMemoryLimitExceeded is returned.
func (a *Arena) Append(b []byte) error {
	need := len(a.buf) + len(b)
	if c := cap(a.buf); c < need {
		grow := max(2*c, need) - c
		if !a.limiter.TryConsume(grow) {
			grow = need - c
			if !a.limiter.TryConsume(grow) {
				return a.exceeded(grow)
			}
		}
		buf := make([]byte, len(a.buf), c+grow)
		copy(buf, a.buf)
		a.buf = buf
	}
	a.buf = append(a.buf, b...)
	return nil
}

// Shift drops the first n bytes and moves the remainder to the front, keeping the capacity.
func (a *Arena) Shift(n int) {
	if n <= 0 {
		return
	} else if n >= len(a.buf) {
		a.buf = a.buf[:0]
		return
	}
	a.buf = a.buf[:copy(a.buf, a.buf[n:])]
}

// Release returns the capacity to the limiter. The arena is empty afterwards and can grow again.
func (a *Arena) Release() {
	a.limiter.Release(cap(a.buf))
	a.buf = nil
}

func (a *Arena) exceeded(n int) error {
	return fmt.Errorf("%w: requested %d bytes with %d of %d in use", ErrMemoryLimitExceeded, n, a.limiter.Used(), a.limiter.Max())
}
