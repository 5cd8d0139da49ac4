package makeblock

import "github.com/srg/botlink/internal/wire"

// Buffer encodes one Makeblock request body. Multi-byte values are little-endian.
type Buffer struct {
	w *wire.Buffer
}

func NewBuffer() *Buffer {
	return &Buffer{w: wire.NewBuffer()}
}

func (b *Buffer) WriteIndex(i Index) *Buffer {
	b.w.WriteByte(byte(i))
	return b
}

func (b *Buffer) WriteAction(a Action) *Buffer {
	b.w.WriteByte(byte(a))
	return b
}

func (b *Buffer) WriteDevice(d DeviceType) *Buffer {
	b.w.WriteByte(byte(d))
	return b
}

func (b *Buffer) WritePort(p Port) *Buffer {
	b.w.WriteByte(byte(p))
	return b
}

func (b *Buffer) WriteSlot(s Slot) *Buffer {
	b.w.WriteByte(byte(s))
	return b
}

// WriteByte writes the low byte of v.
func (b *Buffer) WriteByte(v int) *Buffer {
	b.w.WriteByte(byte(v))
	return b
}

// WriteShort writes v as a signed 16-bit value.
func (b *Buffer) WriteShort(v int) *Buffer {
	b.w.WriteUint16LE(uint16(int16(v)))
	return b
}

// WriteInt writes v as a signed 32-bit value.
func (b *Buffer) WriteInt(v int) *Buffer {
	b.w.WriteInt32LE(int32(v))
	return b
}

// ReadSigned returns the request: header, body length, body.
func (b *Buffer) ReadSigned() []byte {
	body := b.w.Bytes()
	out := make([]byte, 0, len(Header)+1+len(body))
	out = append(out, Header...)
	out = append(out, byte(len(body)))
	return append(out, body...)
}
