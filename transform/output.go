package transform

// OutputSink receives the output of a stream in document order. The slice is only valid during the
// call and must not be retained.
type OutputSink func([]byte)

// output accumulates serialized bytes in a buffer of fixed capacity.
type output struct {
	buf  []byte
	sink OutputSink
	n    int64
}

func newOutput(sink OutputSink, size int) output {
	return output{
		buf:  make([]byte, 0, size),
		sink: sink,
	}
}

// write buffers b, flushing first when it does not fit. Slices larger than the buffer are passed to
// the sink directly.
func (o *output) write(b []byte) {
	if cap(o.buf)-len(o.buf) < len(b) {
		o.flush()
		if cap(o.buf) < len(b) {
			o.sink(b)
			o.n += int64(len(b))
			return
		}
	}
	o.buf = append(o.buf, b...)
}

func (o *output) flush() {
	if len(o.buf) != 0 {
		o.sink(o.buf)
		o.n += int64(len(o.buf))
		o.buf = o.buf[:0]
	}
}
