package device

import (
	"strings"

	"github.com/srg/botlink/internal/frame"
)

// DefaultMinFrameSize is used by SetDataHandler when no minimum size is given.
const DefaultMinFrameSize = 4

// FrameCallback receives one complete frame.
type FrameCallback func(frame []byte)

// dataHandler is one registered decoder with its own reader state.
type dataHandler struct {
	key      string
	reader   *frame.StreamReader
	callback FrameCallback
}

// handlerKey derives the table key from the configured headers, e.g. "255_255|255_254".
func handlerKey(headers [][]byte) string {
	if len(headers) == 0 {
		return "*"
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = frame.HeaderKey(h)
	}
	return strings.Join(keys, "|")
}

type readyFrame struct {
	callback FrameCallback
	frame    []byte
}

// collect advances the reader over data and appends every complete frame to ready.
func (h *dataHandler) collect(data []byte, ready []readyFrame) []readyFrame {
	for f := h.reader.Read(data); f != nil; f = h.reader.Read(nil) {
		ready = append(ready, readyFrame{callback: h.callback, frame: f})
	}
	return ready
}
