package makeblock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/srg/botlink/internal/frame"
	"github.com/srg/botlink/internal/robot"
)

// FrameOptions delimits replies by header and footer. The bare acknowledgement
// `ff 55 0d 0a` is shorter than MinSize once the footer is cut and never reaches a handler.
var FrameOptions = frame.Options{
	Headers: [][]byte{Header},
	Footer:  Footer,
	MinSize: 4,
}

// ErrShortPayload is returned when a reply carries fewer bytes than its data type needs.
var ErrShortPayload = errors.New("makeblock: payload too short")

// Response is one decoded reply frame.
type Response struct {
	Index Index
	Type  DataType
	Data  []byte
}

// ParseResponse splits a frame returned by the stream reader (footer already removed).
func ParseResponse(f []byte) (Response, bool) {
	if len(f) < 4 || f[0] != Header[0] || f[1] != Header[1] {
		return Response{}, false
	}
	return Response{Index: Index(f[2]), Type: DataType(f[3]), Data: f[4:]}, true
}

// Value decodes the payload according to its data type. Floats are rounded to two
// decimals.
func (r Response) Value() (any, error) {
	d := r.Data
	switch r.Type {
	case DataByte:
		if len(d) < 1 {
			return nil, ErrShortPayload
		}
		return int(d[0]), nil
	case DataShort:
		if len(d) < 2 {
			return nil, ErrShortPayload
		}
		return int(int16(binary.LittleEndian.Uint16(d))), nil
	case DataFloat:
		return r.Float()
	case DataDouble:
		if len(d) >= 8 {
			v := math.Float64frombits(binary.LittleEndian.Uint64(d))
			return math.Round(v*100) / 100, nil
		}
		return r.Float()
	case DataLong:
		if len(d) < 4 {
			return nil, ErrShortPayload
		}
		return int(int32(binary.LittleEndian.Uint32(d))), nil
	case DataString:
		return r.String(), nil
	}
	return nil, fmt.Errorf("makeblock: unknown data type %d", r.Type)
}

// Float decodes the first four payload bytes as a float, whatever the data type.
func (r Response) Float() (float64, error) {
	if len(r.Data) < 4 {
		return 0, ErrShortPayload
	}
	return frame.Float32LE(r.Data), nil
}

// String decodes a string payload. The firmware prefixes strings with their length.
func (r Response) String() string {
	d := r.Data
	if len(d) > 0 && int(d[0]) == len(d)-1 {
		d = d[1:]
	}
	return strings.TrimRight(string(d), "\x00\r\n ")
}

// LineFollower decodes a line follower reading. A side sees the line while its byte is
// at least 64.
func LineFollower(data []byte) robot.LineFollower {
	lf := robot.LineFollower{Raw: append([]byte(nil), data...)}
	if len(data) >= 4 {
		lf.Left = data[3] >= 64
		lf.Right = data[2] >= 64
	}
	return lf
}

// Changed stores the raw payload of index in cache and reports whether it differs from
// the previous one.
func Changed(cache *robot.ValueCache, index Index, data []byte) bool {
	return cache.Changed("index/"+strconv.Itoa(int(index)), append([]byte(nil), data...))
}

// Cached returns the last payload stored for index by Changed.
func Cached(cache *robot.ValueCache, index Index) ([]byte, bool) {
	v, ok := cache.Get("index/" + strconv.Itoa(int(index)))
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}
