// Package frame turns chunked Bluetooth byte streams into complete protocol frames.
package frame

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// BytesToInt decodes a big-endian unsigned 16-bit value.
func BytesToInt(b []byte) int {
	if len(b) < 2 {
		return 0
	}
	return int(binary.BigEndian.Uint16(b))
}

// SignedBytesToInt decodes a big-endian signed 16-bit value.
func SignedBytesToInt(b []byte) int {
	if len(b) < 2 {
		return 0
	}
	return int(int16(binary.BigEndian.Uint16(b)))
}

// Uint16LE decodes a little-endian unsigned 16-bit value.
func Uint16LE(b []byte) int {
	if len(b) < 2 {
		return 0
	}
	return int(binary.LittleEndian.Uint16(b))
}

// Float32LE decodes a little-endian IEEE 754 float, rounded to two decimals.
func Float32LE(b []byte) float64 {
	if len(b) < 4 {
		return 0
	}
	v := float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	return math.Round(v*100) / 100
}

// HeaderKey joins header bytes into the key used by handler tables, e.g. "255_85".
// An empty header yields an empty key.
func HeaderKey(header []byte) string {
	parts := make([]string, len(header))
	for i, b := range header {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, "_")
}

// HeaderPosition returns the earliest offset at which any of headers starts, or -1.
// A header is only accepted when at least one byte follows it.
func HeaderPosition(data []byte, headers [][]byte) int {
	best := -1
	for _, h := range headers {
		if len(h) == 0 || len(data) <= len(h) {
			continue
		}
		from := 0
		for from < len(data) {
			i := bytes.Index(data[from:], h)
			if i < 0 {
				break
			}
			pos := from + i
			if pos+len(h) < len(data) {
				if best < 0 || pos < best {
					best = pos
				}
				break
			}
			from = pos + 1
		}
	}
	return best
}

// BytePositions returns all offsets at which pattern occurs, non-overlapping.
func BytePositions(data, pattern []byte) []int {
	if len(pattern) == 0 {
		return nil
	}
	var positions []int
	for from := 0; from <= len(data)-len(pattern); {
		i := bytes.Index(data[from:], pattern)
		if i < 0 {
			break
		}
		positions = append(positions, from+i)
		from += i + len(pattern)
	}
	return positions
}

// pendingHeaderPrefix returns the longest tail of data that may still grow into one of headers.
func pendingHeaderPrefix(data []byte, headers [][]byte) []byte {
	keep := 0
	for _, h := range headers {
		max := len(h)
		if max > len(data) {
			max = len(data)
		}
		for n := max; n > keep; n-- {
			if bytes.Equal(data[len(data)-n:], h[:n]) {
				keep = n
				break
			}
		}
	}
	if keep == 0 {
		return nil
	}
	return append([]byte(nil), data[len(data)-keep:]...)
}
