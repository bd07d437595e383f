package mixer

import (
	"encoding/binary"
	"io"
)

// WriterSink adapts an io.Writer into a Sink, emitting s16le bytes.
type WriterSink struct {
	W io.Writer

	buf []byte
}

func (s *WriterSink) WritePCM(p []int16) error {
	if s.W == nil {
		return nil
	}
	n := len(p) * 2
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	b := s.buf[:n]
	for i, v := range p {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	_, err := s.W.Write(b)
	return err
}

type discard struct{}

func (discard) WritePCM([]int16) error { return nil }

// Discard consumes mixed audio without output. It serves as the live
// monitoring destination when no playback device is attached, keeping
// source positions advancing during preview.
var Discard Sink = discard{}

// CountingSink wraps a Sink and tracks how many sample frames passed
// through, which the export pipeline uses for duration accounting.
type CountingSink struct {
	Next   Sink
	Frames int64
}

func (c *CountingSink) WritePCM(p []int16) error {
	c.Frames += int64(len(p) / Channels)
	if c.Next == nil {
		return nil
	}
	return c.Next.WritePCM(p)
}
