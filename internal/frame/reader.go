package frame

import "bytes"

// LengthFunc reports the total length of the frame at the start of buf.
// ok is false while too few bytes are buffered to know the length.
type LengthFunc func(buf []byte) (n int, ok bool)

// ChecksumFunc reports whether a complete frame is intact.
type ChecksumFunc func(frame []byte) bool

// Options configures a StreamReader.
//
// Headers lists the byte signatures a frame may start with; an empty list means frames
// start at the first buffered byte. Exactly one of Length or Footer normally delimits a
// frame. With neither, everything from the header to the end of the buffer is one frame.
type Options struct {
	Headers  [][]byte
	MinSize  int
	Footer   []byte
	Length   LengthFunc
	Checksum ChecksumFunc
}

// StreamReader reassembles frames from a byte stream that arrives in arbitrary chunks.
// It is not safe for concurrent use; Device serializes access per handler.
type StreamReader struct {
	opts   Options
	buffer []byte
}

// NewStreamReader creates a reader with the given framing options.
func NewStreamReader(opts Options) *StreamReader {
	return &StreamReader{opts: opts}
}

// Read appends data to the pending bytes and returns the next complete frame, or nil
// when more data is needed. Bytes past the returned frame stay buffered; call Read(nil)
// to drain further frames that already arrived.
func (r *StreamReader) Read(data []byte) []byte {
	if len(data) > 0 {
		r.buffer = append(r.buffer, data...)
	}

	for len(r.buffer) > 0 {
		if len(r.buffer) < r.opts.MinSize {
			return nil
		}

		if len(r.opts.Headers) > 0 {
			pos := HeaderPosition(r.buffer, r.opts.Headers)
			if pos < 0 {
				r.buffer = pendingHeaderPrefix(r.buffer, r.opts.Headers)
				return nil
			}
			if pos > 0 {
				r.buffer = r.buffer[pos:]
				continue
			}
		}

		end, next, ok := r.bounds()
		if !ok {
			return nil
		}

		f := append([]byte(nil), r.buffer[:end]...)
		if end < r.opts.MinSize {
			// runt fragment between footers
			r.consume(next)
			continue
		}
		if r.opts.Checksum != nil && !r.opts.Checksum(f) {
			r.consume(1)
			continue
		}

		r.consume(next)
		return f
	}
	return nil
}

// bounds returns the end of the frame and the offset of the following one.
func (r *StreamReader) bounds() (end, next int, ok bool) {
	switch {
	case r.opts.Length != nil:
		n, known := r.opts.Length(r.buffer)
		if !known || n <= 0 || len(r.buffer) < n {
			return 0, 0, false
		}
		return n, n, true
	case len(r.opts.Footer) > 0:
		from := r.headerLen()
		i := bytes.Index(r.buffer[from:], r.opts.Footer)
		if i < 0 {
			return 0, 0, false
		}
		return from + i, from + i + len(r.opts.Footer), true
	default:
		return len(r.buffer), len(r.buffer), true
	}
}

func (r *StreamReader) headerLen() int {
	for _, h := range r.opts.Headers {
		if bytes.HasPrefix(r.buffer, h) {
			return len(h)
		}
	}
	return 0
}

func (r *StreamReader) consume(n int) {
	if n >= len(r.buffer) {
		r.buffer = nil
		return
	}
	r.buffer = append([]byte(nil), r.buffer[n:]...)
}

// AddBuffer re-queues bytes behind the pending ones; they are scanned by the next Read.
func (r *StreamReader) AddBuffer(b []byte) {
	r.buffer = append(r.buffer, b...)
}

// Buffered returns the number of pending bytes.
func (r *StreamReader) Buffered() int {
	return len(r.buffer)
}

// Reset drops all pending bytes.
func (r *StreamReader) Reset() {
	r.buffer = nil
}
