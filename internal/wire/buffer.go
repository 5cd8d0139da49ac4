// Package wire provides the chainable byte writer shared by the robot command encoders.
package wire

import "encoding/binary"

// Buffer accumulates one outgoing command. Every write returns the same Buffer so calls
// can be chained; Bytes finishes the command.
type Buffer struct {
	data []byte
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{data: make([]byte, 0, 32)}
}

func (b *Buffer) WriteByte(v byte) *Buffer {
	b.data = append(b.data, v)
	return b
}

func (b *Buffer) WriteNullByte() *Buffer {
	return b.WriteByte(0x00)
}

func (b *Buffer) Write(p ...byte) *Buffer {
	b.data = append(b.data, p...)
	return b
}

func (b *Buffer) WriteUint16LE(v uint16) *Buffer {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
	return b
}

func (b *Buffer) WriteUint16BE(v uint16) *Buffer {
	b.data = binary.BigEndian.AppendUint16(b.data, v)
	return b
}

func (b *Buffer) WriteInt32LE(v int32) *Buffer {
	b.data = binary.LittleEndian.AppendUint32(b.data, uint32(v))
	return b
}

// WriteString writes s followed by a null terminator.
func (b *Buffer) WriteString(s string) *Buffer {
	b.data = append(b.data, s...)
	return b.WriteNullByte()
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns a copy of the written bytes.
func (b *Buffer) Bytes() []byte {
	return append([]byte(nil), b.data...)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
