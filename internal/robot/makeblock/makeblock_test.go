package makeblock_test

import (
	"fmt"
	"testing"

	"github.com/srg/botlink/internal/frame"
	"github.com/srg/botlink/internal/robot"
	"github.com/srg/botlink/internal/robot/makeblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hex(b []byte) string {
	return fmt.Sprintf("% X", b)
}

func TestBufferLayout(t *testing.T) {
	got := makeblock.NewBuffer().
		WriteIndex(0x10).
		WriteAction(makeblock.ActionRun).
		WriteDevice(makeblock.DeviceEncoderBoard).
		WritePort(0x01).
		WriteSlot(makeblock.SlotTwo).
		WriteInt(-360).
		WriteShort(-100).
		WriteByte(0x1FF).
		ReadSigned()

	assert.Equal(t, "FF 55 0C 10 02 3E 01 02 98 FE FF FF 9C FF FF", hex(got),
		"request MUST be header, body length and little-endian body")
}

func TestCommands(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want string
	}{
		{"setRGBLED", makeblock.SetRGBLED(0x07, makeblock.SlotTwo, 0, 255, 0, 0), "FF 55 09 00 02 08 07 02 00 FF 00 00"},
		{"playTone", makeblock.PlayTone(524, 240), "FF 55 07 00 02 22 0C 02 F0 00"},
		{"playToneOn", makeblock.PlayToneOn(0x2d, 524, 240), "FF 55 08 00 02 22 2D 0C 02 F0 00"},
		{"getVersion", makeblock.GetVersion(), "FF 55 03 20 01 00"},
		{"getSensorData", makeblock.GetSensorData(0x10, makeblock.DeviceUltrasonic, 0x03), "FF 55 04 10 01 01 03"},
		{"reset", makeblock.Reset(), "FF 55 02 00 04"},
		{"start", makeblock.Start(), "FF 55 02 00 05"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, hex(tc.got), "%s frame MUST match", tc.name)
	}
}

func TestResponseValues(t *testing.T) {
	cases := []struct {
		name string
		f    []byte
		want any
	}{
		{"byte", []byte{0xFF, 0x55, 0x13, 0x01, 0x01}, 1},
		{"float", []byte{0xFF, 0x55, 0x10, 0x02, 0x00, 0x00, 0x48, 0x41}, 12.5},
		{"short", []byte{0xFF, 0x55, 0x10, 0x03, 0x9C, 0xFF}, -100},
		{"long", []byte{0xFF, 0x55, 0x10, 0x06, 0x98, 0xFE, 0xFF, 0xFF}, -360},
		{"double as float", []byte{0xFF, 0x55, 0x10, 0x05, 0x00, 0x00, 0x48, 0x41}, 12.5},
		{"string", append([]byte{0xFF, 0x55, 0x20, 0x04, 0x07}, "09.01.2"...), "09.01.2"},
	}
	for _, tc := range cases {
		r, ok := makeblock.ParseResponse(tc.f)
		require.True(t, ok, "%s frame MUST parse", tc.name)
		v, err := r.Value()
		require.NoError(t, err, "%s value MUST decode", tc.name)
		assert.Equal(t, tc.want, v, "%s value MUST match", tc.name)
	}

	t.Run("routing fields", func(t *testing.T) {
		r, ok := makeblock.ParseResponse([]byte{0xFF, 0x55, 0x2A, 0x02, 1, 2, 3, 4})
		require.True(t, ok)
		assert.Equal(t, makeblock.Index(0x2A), r.Index, "index MUST be the third byte")
		assert.Equal(t, makeblock.DataFloat, r.Type, "data type MUST be the fourth byte")
		assert.Equal(t, []byte{1, 2, 3, 4}, r.Data, "payload MUST follow the data type")
	})

	t.Run("malformed", func(t *testing.T) {
		_, ok := makeblock.ParseResponse([]byte{0xFF, 0x55, 0x10})
		assert.False(t, ok, "frame without data type MUST NOT parse")
		_, ok = makeblock.ParseResponse([]byte{0x00, 0x55, 0x10, 0x02})
		assert.False(t, ok, "frame without header MUST NOT parse")

		r, _ := makeblock.ParseResponse([]byte{0xFF, 0x55, 0x10, 0x02, 0x00})
		_, err := r.Value()
		assert.ErrorIs(t, err, makeblock.ErrShortPayload, "short float MUST fail")

		r, _ = makeblock.ParseResponse([]byte{0xFF, 0x55, 0x10, 0x09, 0x00})
		_, err = r.Value()
		assert.Error(t, err, "unknown data type MUST fail")
	})
}

func TestReplyFraming(t *testing.T) {
	// acknowledgement, a float split across chunks, then a line follower reading
	r := frame.NewStreamReader(makeblock.FrameOptions)
	chunks := [][]byte{
		{0xFF, 0x55, 0x0D, 0x0A, 0xFF, 0x55, 0x10, 0x02, 0x00},
		{0x00, 0x48, 0x41, 0x0D},
		{0x0A, 0xFF, 0x55, 0x11, 0x02, 0x00, 0x00, 0x20, 0x40, 0x0D, 0x0A},
	}
	var frames [][]byte
	for _, c := range chunks {
		for f := r.Read(c); f != nil; f = r.Read(nil) {
			frames = append(frames, f)
		}
	}
	require.Len(t, frames, 2, "acknowledgement MUST be dropped and both readings returned")
	assert.Equal(t, "FF 55 10 02 00 00 48 41", hex(frames[0]), "reading MUST be reassembled without footer")

	resp, ok := makeblock.ParseResponse(frames[1])
	require.True(t, ok)
	lf := makeblock.LineFollower(resp.Data)
	assert.True(t, lf.Left, "byte 3 >= 64 MUST mean the left side sees the line")
	assert.False(t, lf.Right, "byte 2 < 64 MUST mean the right side is off the line")
	assert.Equal(t, []byte{0x00, 0x00, 0x20, 0x40}, lf.Raw, "raw payload MUST be kept")
}

func TestChanged(t *testing.T) {
	c := robot.NewValueCache()
	data := []byte{1, 2, 3, 4}
	assert.True(t, makeblock.Changed(c, 0x10, data), "first payload MUST count as a change")
	assert.False(t, makeblock.Changed(c, 0x10, []byte{1, 2, 3, 4}), "same payload MUST be dropped")
	assert.True(t, makeblock.Changed(c, 0x11, []byte{1, 2, 3, 4}), "indexes MUST be tracked separately")
	assert.True(t, makeblock.Changed(c, 0x10, []byte{1, 2, 3, 5}), "new payload MUST count as a change")
}
