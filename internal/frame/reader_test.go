package frame_test

import (
	"testing"

	"github.com/srg/botlink/internal/frame"
	"github.com/stretchr/testify/suite"
)

type StreamReaderTestSuite struct {
	suite.Suite
}

// spheroFrame builds a valid Sphero response: FF FF MRSP SEQ DLEN DATA... CHK
func spheroFrame(mrsp, seq byte, data ...byte) []byte {
	f := []byte{0xFF, 0xFF, mrsp, seq, byte(len(data) + 1)}
	f = append(f, data...)
	return append(f, frame.SumComplement(f[2:]))
}

func spheroOptions() frame.Options {
	return frame.Options{
		Headers: [][]byte{{0xFF, 0xFF}, {0xFF, 0xFE}},
		MinSize: 6,
		Length: func(b []byte) (int, bool) {
			if len(b) < 5 {
				return 0, false
			}
			return int(b[4]) + 5, true
		},
		Checksum: frame.SpheroChecksum,
	}
}

func (s *StreamReaderTestSuite) TestReassemblyIsIndependentOfChunking() {
	// GOAL: Verify a frame split at any chunk boundary decodes to the same bytes as one delivery
	//
	// TEST SCENARIO: Feed every 1..len split of a frame → exactly one frame equal to the whole-frame decode

	full := spheroFrame(0x00, 0x01, 0x10, 0x20, 0x30)

	whole := frame.NewStreamReader(spheroOptions()).Read(full)
	s.Require().Equal(full, whole, "single-chunk read MUST return the frame")

	for chunk := 1; chunk < len(full); chunk++ {
		r := frame.NewStreamReader(spheroOptions())
		var got [][]byte
		for i := 0; i < len(full); i += chunk {
			end := i + chunk
			if end > len(full) {
				end = len(full)
			}
			if f := r.Read(full[i:end]); f != nil {
				got = append(got, f)
			}
		}
		s.Require().Len(got, 1, "chunk size %d MUST yield exactly one frame", chunk)
		s.Equal(whole, got[0], "chunk size %d MUST decode identically", chunk)
		s.Zero(r.Buffered(), "no bytes MUST remain after a complete frame")
	}
}

func (s *StreamReaderTestSuite) TestBackToBackFramesAreSplit() {
	// GOAL: Verify two frames delivered together come out one per call without loss or duplication
	//
	// TEST SCENARIO: One chunk with two frames → Read returns first, Read(nil) returns second, then nil

	a := spheroFrame(0x00, 0x01, 0xAA)
	b := spheroFrame(0x00, 0x02, 0xBB, 0xCC)

	s.Run("single receive event", func() {
		r := frame.NewStreamReader(spheroOptions())
		s.Equal(a, r.Read(append(append([]byte{}, a...), b...)), "first Read MUST return first frame")
		s.Equal(b, r.Read(nil), "second Read MUST return second frame")
		s.Nil(r.Read(nil), "third Read MUST report no frame")
	})

	s.Run("two receive events", func() {
		r := frame.NewStreamReader(spheroOptions())
		s.Equal(a, r.Read(a), "first event MUST return first frame")
		s.Equal(b, r.Read(b), "second event MUST return second frame")
		s.Nil(r.Read(nil), "no extra frame MUST appear")
	})

	s.Run("second frame straddles events", func() {
		r := frame.NewStreamReader(spheroOptions())
		joined := append(append([]byte{}, a...), b...)
		s.Equal(a, r.Read(joined[:len(a)+3]), "first frame MUST be returned")
		s.Nil(r.Read(nil), "partial second frame MUST wait")
		s.Equal(b, r.Read(joined[len(a)+3:]), "second frame MUST complete on next event")
	})
}

func (s *StreamReaderTestSuite) TestCorruptedChecksumIsNeverReturned() {
	// GOAL: Verify a frame with a bad checksum behaves exactly like insufficient data
	//
	// TEST SCENARIO: Corrupt checksum byte → Read returns nil; a following valid frame still decodes

	bad := spheroFrame(0x00, 0x01, 0x01, 0x02)
	bad[len(bad)-1] ^= 0x55

	r := frame.NewStreamReader(spheroOptions())
	s.Nil(r.Read(bad), "corrupted frame MUST NOT be returned")

	good := spheroFrame(0x00, 0x03, 0x09)
	s.Equal(good, r.Read(good), "valid frame after corruption MUST decode")
}

func (s *StreamReaderTestSuite) TestGarbageBeforeHeaderIsSkipped() {
	// GOAL: Verify leading noise is discarded up to the first header
	//
	// TEST SCENARIO: noise + frame → frame returned

	f := spheroFrame(0x00, 0x05, 0x42)
	r := frame.NewStreamReader(spheroOptions())
	s.Equal(f, r.Read(append([]byte{0x01, 0x02, 0x03}, f...)), "frame MUST be found after noise")
}

func (s *StreamReaderTestSuite) TestHeaderSplitAcrossChunks() {
	// GOAL: Verify a header split across two chunks is not discarded as noise
	//
	// TEST SCENARIO: chunk ends with 0xFF, next chunk starts with 0xFF → frame decodes

	f := spheroFrame(0x00, 0x05, 0x42)
	r := frame.NewStreamReader(spheroOptions())
	s.Nil(r.Read([]byte{0x10, 0x11, 0xFF}), "partial header MUST wait")
	s.Equal(f, r.Read(f[1:]), "frame MUST decode once the header completes")
}

func (s *StreamReaderTestSuite) TestMinimumSize() {
	// GOAL: Verify frames shorter than the minimum size are never returned
	//
	// TEST SCENARIO: reader without delimiters, MinSize 4 → 3 bytes wait, 4th byte completes

	r := frame.NewStreamReader(frame.Options{MinSize: 4})
	s.Nil(r.Read([]byte{1, 2, 3}), "short buffer MUST NOT be returned")
	s.Equal([]byte{1, 2, 3, 4}, r.Read([]byte{4}), "buffer at minimum size MUST be returned")
}

func (s *StreamReaderTestSuite) TestFooterDelimitedFrames() {
	// GOAL: Verify footer-delimited frames (Makeblock) split on the footer and drop runts
	//
	// TEST SCENARIO: ack + value frame + partial frame → value frame returned, ack dropped, partial kept

	r := frame.NewStreamReader(frame.Options{
		Headers: [][]byte{{0xFF, 0x55}},
		Footer:  []byte{0x0D, 0x0A},
		MinSize: 4,
	})

	stream := []byte{
		0xFF, 0x55, 0x0D, 0x0A, // ack
		0xFF, 0x55, 0x10, 0x02, 0x00, 0x00, 0x20, 0x41, 0x0D, 0x0A,
		0xFF, 0x55, 0x11,
	}
	s.Equal([]byte{0xFF, 0x55, 0x10, 0x02, 0x00, 0x00, 0x20, 0x41}, r.Read(stream), "value frame MUST be returned without footer")
	s.Nil(r.Read(nil), "partial frame MUST wait")
	s.Equal([]byte{0xFF, 0x55, 0x11, 0x01, 0x03}, r.Read([]byte{0x01, 0x03, 0x0D, 0x0A}), "partial frame MUST complete")
}

func (s *StreamReaderTestSuite) TestLengthPrefixedWithoutHeader() {
	// GOAL: Verify EV3-style length-prefixed frames without header re-queue the excess
	//
	// TEST SCENARIO: two LE16-prefixed replies in one chunk → returned one at a time

	r := frame.NewStreamReader(frame.Options{
		MinSize: 5,
		Length: func(b []byte) (int, bool) {
			if len(b) < 2 {
				return 0, false
			}
			return frame.Uint16LE(b) + 2, true
		},
	})
	first := []byte{0x04, 0x00, 0x21, 0x00, 0x02, 0x55}
	second := []byte{0x03, 0x00, 0x20, 0x00, 0x02}
	s.Equal(first, r.Read(append(append([]byte{}, first...), second...)), "first reply MUST be trimmed to its length")
	s.Equal(second, r.Read(nil), "second reply MUST follow")
}

func (s *StreamReaderTestSuite) TestResetDropsPendingBytes() {
	r := frame.NewStreamReader(spheroOptions())
	r.Read([]byte{0xFF, 0xFF, 0x00})
	s.NotZero(r.Buffered(), "partial bytes MUST be buffered")
	r.Reset()
	s.Zero(r.Buffered(), "Reset MUST drop pending bytes")
}

func (s *StreamReaderTestSuite) TestAddBufferRequeues() {
	f := spheroFrame(0x00, 0x07, 0x01)
	r := frame.NewStreamReader(spheroOptions())
	r.AddBuffer(f)
	s.Equal(f, r.Read(nil), "re-queued bytes MUST be decoded by the next Read")
}

func TestStreamReaderTestSuite(t *testing.T) {
	suite.Run(t, new(StreamReaderTestSuite))
}
