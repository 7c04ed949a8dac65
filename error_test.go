package rewrite

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tdewolff/test"
)

func TestControllerError(t *testing.T) {
	inner := errors.New("boom")
	err := error(&ControllerError{Err: inner, Offset: 42})
	test.String(t, err.Error(), "controller failed at offset 42: boom")
	test.That(t, errors.Is(err, inner), "must unwrap to the controller's error")

	var ce *ControllerError
	test.That(t, errors.As(fmt.Errorf("write: %w", err), &ce), "must be found in a chain")
	test.T(t, ce.Offset, int64(42))
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("%w: requested 10 bytes", ErrMemoryLimitExceeded)
	test.That(t, errors.Is(err, ErrMemoryLimitExceeded))
	test.That(t, !errors.Is(err, ErrRetryLater))
}
