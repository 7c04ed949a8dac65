package rewrite

import (
	"errors"
	"testing"

	"github.com/tdewolff/test"
)

func TestArena(t *testing.T) {
	l := NewSharedMemoryLimiter(64)
	a, err := NewArena(l, 4)
	test.Error(t, err)
	test.T(t, l.Used(), 4)

	test.Error(t, a.Append([]byte("abc")))
	test.T(t, a.Cap(), 4)
	test.Error(t, a.Append([]byte("defg")))
	test.T(t, a.Cap(), 8, "capacity must double")
	test.T(t, l.Used(), 8)
	test.String(t, string(a.Bytes()), "abcdefg")

	a.Shift(3)
	test.String(t, string(a.Bytes()), "defg")
	test.T(t, a.Cap(), 8, "shifting keeps the capacity")
	a.Shift(10)
	test.T(t, a.Len(), 0)

	a.Release()
	test.T(t, l.Used(), 0)
}

func TestArenaExactGrowth(t *testing.T) {
	l := NewSharedMemoryLimiter(10)
	a, _ := NewArena(l, 4)
	test.Error(t, a.Append([]byte("abcde")))
	test.T(t, a.Cap(), 8)
	test.Error(t, a.Append([]byte("fg")))
	test.Error(t, a.Append([]byte("hij"))) // doubling to 16 is refused, growing to exactly 10 is not
	test.T(t, a.Cap(), 10)
	test.T(t, l.Used(), 10)

	err := a.Append([]byte("k"))
	test.That(t, errors.Is(err, ErrMemoryLimitExceeded), "growth past the limit must fail")
	test.String(t, string(a.Bytes()), "abcdefghij", "failed growth must leave the arena unchanged")
	test.T(t, l.Used(), 10)
}

func TestArenaPreallocationRefused(t *testing.T) {
	l := NewSharedMemoryLimiter(10)
	_, err := NewArena(l, 11)
	test.That(t, errors.Is(err, ErrMemoryLimitExceeded))
	test.T(t, l.Used(), 0)
}

func TestArenaShared(t *testing.T) {
	l := NewSharedMemoryLimiter(16)
	a, _ := NewArena(l, 0)
	b, _ := NewArena(l, 0)
	test.Error(t, a.Append(make([]byte, 10)))
	err := b.Append(make([]byte, 7))
	test.That(t, errors.Is(err, ErrMemoryLimitExceeded), "arenas sharing a limiter must share its budget")
	test.Error(t, b.Append(make([]byte, 6)))
	a.Release()
	test.Error(t, b.Append(make([]byte, 10)))
}
