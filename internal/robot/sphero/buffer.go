package sphero

import (
	"github.com/srg/botlink/internal/frame"
	"github.com/srg/botlink/internal/wire"
)

// Buffer encodes one Sphero client command:
//
//	SOP1 | SOP2 | DID | CID | SEQ | DLEN | payload | CHK
//
// SOP2 asks for an acknowledgement when a callback type is set. SEQ carries the callback
// type, DLEN counts the payload plus the checksum.
type Buffer struct {
	payload  *wire.Buffer
	command  Command
	callback CallbackType
}

// NewBuffer returns an empty command addressed to the core ping command.
func NewBuffer() *Buffer {
	return &Buffer{payload: wire.NewBuffer(), command: Command{0x00, 0x01}}
}

// SetCallback requests an acknowledgement tagged with cb.
func (b *Buffer) SetCallback(cb CallbackType) *Buffer {
	b.callback = cb
	return b
}

func (b *Buffer) WriteCommand(c Command) *Buffer {
	b.command = c
	return b
}

func (b *Buffer) WriteByte(v int) *Buffer {
	b.payload.WriteByte(byte(v))
	return b
}

// WriteUInt writes a big-endian uint16.
func (b *Buffer) WriteUInt(v int) *Buffer {
	b.payload.WriteUint16BE(uint16(v))
	return b
}

// ReadSigned finishes the packet with its length and checksum.
func (b *Buffer) ReadSigned() []byte {
	sop2 := byte(sop2NoReply)
	if b.callback != CallbackNone {
		sop2 = sop2Reply
	}
	body := b.payload.Bytes()
	out := wire.NewBuffer().
		Write(sop1, sop2, b.command[0], b.command[1], byte(b.callback), byte(len(body)+1)).
		Write(body...)
	f := out.Bytes()
	return append(f, frame.SumComplement(f[2:]))
}
