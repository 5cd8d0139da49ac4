package ev3

import "github.com/srg/botlink/internal/wire"

// Default reply sizes of the direct command header.
const (
	defaultGlobalSize = 0x04
	defaultLocalSize  = 0x00
)

// Buffer encodes one EV3 direct command. Typed values carry their parameter prefix;
// opcodes and the header are written raw.
//
// Frame layout: len16 LE | callbackType | callbackTarget | header | byte code.
type Buffer struct {
	w              *wire.Buffer
	callbackType   CallbackType
	callbackTarget byte
}

// NewBuffer returns an empty command.
func NewBuffer() *Buffer {
	return &Buffer{w: wire.NewBuffer(), callbackTarget: byte(InputOne)}
}

// WriteHeader writes the command type and the default reply sizes. A non-zero callback
// type asks the brick for a reply.
func (b *Buffer) WriteHeader(cb CallbackType) *Buffer {
	return b.WriteHeaderSize(cb, defaultGlobalSize, defaultLocalSize)
}

// WriteHeaderSize writes the command type with explicit global/local reply sizes.
func (b *Buffer) WriteHeaderSize(cb CallbackType, globalSize, localSize int) *Buffer {
	cmdType := byte(directNoReply)
	if cb != CallbackNone {
		b.callbackType = cb
		cmdType = directReply
	}
	b.w.Write(
		cmdType,
		byte(globalSize&0xFF),
		byte(((localSize<<2)|((globalSize>>8)&0x03))&0xFF),
	)
	return b
}

// WriteCommand writes opcode bytes without a prefix.
func (b *Buffer) WriteCommand(op ...byte) *Buffer {
	b.w.Write(op...)
	return b
}

func (b *Buffer) WriteByte(v int) *Buffer {
	b.w.Write(paramByte, byte(v))
	return b
}

func (b *Buffer) WriteNullByte() *Buffer {
	return b.WriteByte(0x00)
}

func (b *Buffer) WriteSingleByte() *Buffer {
	return b.WriteByte(0x01)
}

func (b *Buffer) WriteShort(v int) *Buffer {
	b.w.WriteByte(paramShort).WriteUint16LE(uint16(int16(v)))
	return b
}

func (b *Buffer) WriteInt(v int) *Buffer {
	b.w.WriteByte(paramInt).WriteInt32LE(int32(v))
	return b
}

// WriteString writes a null-terminated string.
func (b *Buffer) WriteString(s string) *Buffer {
	b.w.WriteByte(paramString).WriteString(s)
	return b
}

// WriteIndex writes the global reply index the brick stores the result at.
func (b *Buffer) WriteIndex() *Buffer {
	b.w.Write(paramIndex, 0x00)
	return b
}

// WritePort writes a layer and a single port, and routes the reply to that port.
func (b *Buffer) WritePort(port int) *Buffer {
	b.callbackTarget = byte(port)
	return b.WriteNullByte().WriteByte(port)
}

// WritePorts writes a layer and an output port mask.
func (b *Buffer) WritePorts(ports int) *Buffer {
	return b.WriteNullByte().WriteByte(ports)
}

// ReadSigned finishes the frame with its length and callback prefix.
func (b *Buffer) ReadSigned() []byte {
	body := b.w.Bytes()
	n := len(body) + 2
	out := wire.NewBuffer().
		WriteUint16LE(uint16(n)).
		Write(byte(b.callbackType), b.callbackTarget).
		Write(body...)
	return out.Bytes()
}
