// Package mixer implements the audio mixing graph: one gain-controlled path
// per audio-capable source, all converging on a single destination that is
// switchable between live monitoring and an export capture sink. Gain changes
// are smoothed with a short exponential ramp so per-frame updates never
// produce audible clicks.
package mixer

import "math"

// PCM bus geometry. Every path reader produces interleaved s16 samples in
// this format and the pump consumes them in 20 ms quanta.
const (
	SampleRate   = 48000
	Channels     = 2
	FrameMillis  = 20
	FrameSamples = SampleRate * FrameMillis / 1000 // per channel per quantum
)

// DefaultRampTau is the gain smoothing time constant in seconds.
const DefaultRampTau = 0.05

// PCMReader produces interleaved s16le samples. A reader that has nothing to
// play must fill with silence rather than block; short reads are zero-padded
// by the pump.
type PCMReader interface {
	ReadPCM(p []int16) (int, error)
}

// Sink receives mixed interleaved s16 samples.
type Sink interface {
	WritePCM(p []int16) error
}

// Route selects which destination the graph feeds. Paths are connected as a
// whole; the graph never writes both destinations in one pump.
type Route int

const (
	RouteLive Route = iota
	RouteCapture
)

func (r Route) String() string {
	if r == RouteCapture {
		return "capture"
	}
	return "live"
}

// Path is one gain-controlled strip in the graph.
type Path struct {
	key    string
	src    PCMReader
	gain   float64
	target float64
}

// Key returns the path's stable identity.
func (p *Path) Key() string { return p.key }

// Gain returns the current smoothed gain.
func (p *Path) Gain() float64 { return p.gain }

// Target returns the gain the path is ramping toward.
func (p *Path) Target() float64 { return p.target }

// SetTarget aims the path's gain at g. The change is applied gradually by
// the pump; call SetImmediate only when no audio is flowing.
func (p *Path) SetTarget(g float64) {
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return
	}
	if g < 0 {
		g = 0
	}
	p.target = g
}

// SetImmediate snaps gain and target to g without ramping.
func (p *Path) SetImmediate(g float64) {
	p.SetTarget(g)
	p.gain = p.target
}

// SetSource swaps the path's reader.
func (p *Path) SetSource(src PCMReader) { p.src = src }
