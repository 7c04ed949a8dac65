package rewrite

import (
	"errors"
	"fmt"
)

// ErrMemoryLimitExceeded is returned when a buffer would grow past the limit of its MemoryLimiter.
// A stream that returned it is unusable and must be discarded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// ErrRetryLater is returned by a controller's start tag handler to pause the stream before that tag.
// The stream will ask again for the same tag on its next Write, Resume or End.
var ErrRetryLater = errors.New("retry later")

// ErrUnresolvedPause is returned when the input ends while the controller still pauses on a start tag.
var ErrUnresolvedPause = errors.New("stream ended while paused")

// ErrStreamEnded is returned when writing to a stream after End.
var ErrStreamEnded = errors.New("stream has ended")

// ControllerError is a failure reported by a transform controller. It is returned unchanged by every
// later call on the stream that encountered it.
type ControllerError struct {
	Err    error
	Offset int64 // offset in the document of the unit being handled
}

// Error returns the error string, containing the document offset.
func (e *ControllerError) Error() string {
	return fmt.Sprintf("controller failed at offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the error reported by the controller.
func (e *ControllerError) Unwrap() error {
	return e.Err
}
