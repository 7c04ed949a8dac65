// Package transform drives HTML documents through a tokenizer and a Controller, writing the
// rewritten document to an OutputSink as it streams in.
package transform // import "github.com/tdewolff/rewrite/transform"

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tdewolff/rewrite"
	"github.com/tdewolff/rewrite/html"
)

// DefaultInitialBufferSize is the size of the output buffer, reserved from the memory limiter when a
// stream is created.
var DefaultInitialBufferSize = 1024

// DefaultMemoryLimit is the limit of streams created without a MemoryLimiter.
var DefaultMemoryLimit = 10 * 1024 * 1024

// Settings configures a Stream. Zero fields take the defaults.
type Settings struct {
	InitialBufferSize int
	Encoding          *html.Encoding
	MemoryLimiter     *rewrite.MemoryLimiter
	Logger            *slog.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)

// Stream rewrites one document. It is not safe for concurrent use, streams sharing a MemoryLimiter
// can run concurrently.
type Stream struct {
	ctrl    Controller
	parser  *html.Parser
	arena   *rewrite.Arena
	out     output
	limiter *rewrite.MemoryLimiter
	log     *slog.Logger

	in       int64
	err      error
	paused   bool
	ended    bool
	released bool
}

// NewStream returns a new Stream writing to sink. It fails with an error wrapping
// rewrite.ErrMemoryLimitExceeded when the output buffer cannot be reserved.
func NewStream(ctrl Controller, sink OutputSink, s Settings) (*Stream, error) {
	size := cmp.Or(s.InitialBufferSize, DefaultInitialBufferSize)
	limiter := s.MemoryLimiter
	if limiter == nil {
		limiter = rewrite.NewSharedMemoryLimiter(DefaultMemoryLimit)
	}
	if !limiter.TryConsume(size) {
		return nil, fmt.Errorf("%w: output buffer of %d bytes with %d of %d in use", rewrite.ErrMemoryLimitExceeded, size, limiter.Used(), limiter.Max())
	}
	arena, err := rewrite.NewArena(limiter, 0)
	if err != nil {
		limiter.Release(size)
		return nil, err
	}

	st := &Stream{
		ctrl:    ctrl,
		arena:   arena,
		out:     newOutput(sink, size),
		limiter: limiter,
		log:     cmp.Or(s.Logger, discardLogger),
	}
	st.parser = html.NewParser((*dispatcher)(st), cmp.Or(s.Encoding, html.UTF8), ctrl.InitialCaptureFlags())
	return st, nil
}

// Parser returns the tokenizer, to set its text type or last start tag before the first Write.
func (st *Stream) Parser() *html.Parser {
	return st.parser
}

// Paused returns true when the controller paused the stream before a start tag.
func (st *Stream) Paused() bool {
	return st.paused
}

// BytesIn returns the number of bytes written to the stream.
func (st *Stream) BytesIn() int64 {
	return st.in
}

// BytesOut returns the number of bytes passed to the sink.
func (st *Stream) BytesOut() int64 {
	return st.out.n
}

// Write processes the next chunk of the document. Bytes that cannot be processed yet are retained
// until the next call. A paused stream retains the chunk and asks the controller again.
func (st *Stream) Write(chunk []byte) error {
	if st.err != nil {
		return st.err
	} else if st.ended {
		return rewrite.ErrStreamEnded
	}
	st.in += int64(len(chunk))
	err := st.feed(chunk, false)
	st.out.flush()
	return st.fail(err)
}

// Resume asks the controller again for the start tag the stream is paused on.
func (st *Stream) Resume() error {
	if st.err != nil {
		return st.err
	} else if st.ended {
		return rewrite.ErrStreamEnded
	} else if !st.paused {
		return nil
	}
	err := st.feed(nil, false)
	st.out.flush()
	return st.fail(err)
}

// End processes the retained bytes as the end of the document, delivers the EOF token and flushes
// the output. The memory reserved by the stream is released.
func (st *Stream) End() error {
	if st.err != nil {
		return st.err
	} else if st.ended {
		return rewrite.ErrStreamEnded
	}
	err := st.feed(nil, true)
	if err == nil && st.paused {
		err = rewrite.ErrUnresolvedPause
	}
	st.out.flush()
	if err != nil {
		return st.fail(err)
	}
	st.ended = true
	st.release()
	st.log.Debug("stream ended", "in", st.in, "out", st.out.n)
	return nil
}

func (st *Stream) feed(chunk []byte, eof bool) error {
	b := chunk
	retained := st.arena.Len() != 0
	if retained {
		if err := st.arena.Append(chunk); err != nil {
			return err
		}
		b = st.arena.Bytes()
	}

	var n int
	var err error
	if eof {
		n, err = st.parser.Finish(b)
	} else {
		n, err = st.parser.Parse(b, false)
	}
	st.paused = errors.Is(err, rewrite.ErrRetryLater)
	if st.paused {
		st.log.Debug("stream paused", "offset", st.parser.Offset())
		err = nil
	} else if err != nil {
		return err
	}

	if retained {
		st.arena.Shift(n)
	} else if n < len(b) {
		return st.arena.Append(b[n:])
	}
	return nil
}

func (st *Stream) fail(err error) error {
	if err == nil {
		return nil
	}
	st.err = err
	st.release()
	if errors.Is(err, rewrite.ErrMemoryLimitExceeded) {
		st.log.Debug("stream exceeded memory limit", "error", err, "used", st.limiter.Used(), "max", st.limiter.Max())
	} else {
		st.log.Debug("stream failed", "error", err)
	}
	return err
}

func (st *Stream) release() {
	if !st.released {
		st.released = true
		st.arena.Release()
		st.limiter.Release(cap(st.out.buf))
	}
}

////////////////////////////////////////////////////////////////

// dispatcher connects the tokenizer of a stream to its controller and output.
type dispatcher Stream

func (d *dispatcher) StartTag(name html.LocalName, ns html.Namespace) (html.CaptureFlags, error) {
	flags, err := d.ctrl.HandleStartTag(name, ns)
	if err != nil && !errors.Is(err, rewrite.ErrRetryLater) {
		return flags, d.controllerError(err)
	}
	return flags, err
}

func (d *dispatcher) EndTag(name html.LocalName) (html.CaptureFlags, error) {
	return d.ctrl.HandleEndTag(name), nil
}

func (d *dispatcher) Token(t html.Token) error {
	if err := d.ctrl.HandleToken(t); err != nil {
		return d.controllerError(err)
	}
	t.Serialize(d.out.write)
	return nil
}

func (d *dispatcher) Raw(b []byte) error {
	if d.ctrl.ShouldEmitContent() {
		d.out.write(b)
	}
	return nil
}

func (d *dispatcher) controllerError(err error) error {
	return &rewrite.ControllerError{Err: err, Offset: d.parser.Offset()}
}
