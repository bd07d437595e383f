package mixer

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Graph owns the full set of paths and the destination routing.
//
// Path mutation and pumping happen on the engine goroutine; only the route
// is read from other goroutines (progress reporting), so it alone is atomic.
type Graph struct {
	paths map[string]*Path
	order []string

	live    Sink
	capture Sink
	route   atomic.Int32

	rampTau float64
	alpha   float64

	scratch []int16
	acc     []int32
}

// Options configures a Graph.
type Options struct {
	// RampTau is the gain smoothing time constant in seconds.
	// Zero means DefaultRampTau.
	RampTau float64
	Live    Sink
	Capture Sink
}

// NewGraph builds an empty graph routed to the live destination.
func NewGraph(opts Options) *Graph {
	tau := opts.RampTau
	if tau <= 0 {
		tau = DefaultRampTau
	}
	g := &Graph{
		paths:   make(map[string]*Path),
		live:    opts.Live,
		capture: opts.Capture,
		rampTau: tau,
		// Per-sample-frame one-pole coefficient for the gain ramp.
		alpha: 1 - math.Exp(-1/(tau*SampleRate)),
	}
	g.route.Store(int32(RouteLive))
	return g
}

// EnsurePath returns the path for key, creating it silent when missing.
func (g *Graph) EnsurePath(key string, src PCMReader) *Path {
	if p, ok := g.paths[key]; ok {
		if src != nil {
			p.src = src
		}
		return p
	}
	p := &Path{key: key, src: src}
	g.paths[key] = p
	g.order = append(g.order, key)
	return p
}

// Path looks up a strip by key.
func (g *Graph) Path(key string) (*Path, bool) {
	p, ok := g.paths[key]
	return p, ok
}

// RemovePath drops a strip. Removing an unknown key is a no-op.
func (g *Graph) RemovePath(key string) {
	if _, ok := g.paths[key]; !ok {
		return
	}
	delete(g.paths, key)
	for i, k := range g.order {
		if k == key {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Keys returns the path keys in mix order.
func (g *Graph) Keys() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// SetTarget aims one path's gain. Unknown keys are ignored.
func (g *Graph) SetTarget(key string, gain float64) {
	if p, ok := g.paths[key]; ok {
		p.SetTarget(gain)
	}
}

// SilenceAll ramps every path toward zero.
func (g *Graph) SilenceAll() {
	for _, p := range g.paths {
		p.SetTarget(0)
	}
}

// Route switches every path to one destination. Never both.
func (g *Graph) Route(r Route) {
	g.route.Store(int32(r))
}

// Routed reports the current destination.
func (g *Graph) Routed() Route {
	return Route(g.route.Load())
}

// SetCapture installs the export capture sink.
func (g *Graph) SetCapture(s Sink) { g.capture = s }

// SetLive installs the live monitoring sink.
func (g *Graph) SetLive(s Sink) { g.live = s }

// Pump pulls frames sample-frames from every path, applies the smoothed
// gains, mixes with saturation, and writes the result to the routed
// destination. A nil destination consumes the mix silently so source
// positions keep advancing.
func (g *Graph) Pump(frames int) error {
	if frames <= 0 {
		return fmt.Errorf("pump: frames must be positive, got %d", frames)
	}

	n := frames * Channels
	if cap(g.scratch) < n {
		g.scratch = make([]int16, n)
		g.acc = make([]int32, n)
	}
	scratch := g.scratch[:n]
	acc := g.acc[:n]
	for i := range acc {
		acc[i] = 0
	}

	for _, key := range g.order {
		p := g.paths[key]
		if p.src == nil {
			p.advance(frames, g.alpha)
			continue
		}
		for i := range scratch {
			scratch[i] = 0
		}
		if _, err := p.src.ReadPCM(scratch); err != nil {
			// A failed reader is silence this quantum; the engine decides
			// whether to rebuild it.
			for i := range scratch {
				scratch[i] = 0
			}
		}
		p.mixInto(acc, scratch, g.alpha)
	}

	out := scratch // reuse: acc is the authority now
	for i, v := range acc {
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[i] = int16(v)
	}

	dest := g.live
	if g.Routed() == RouteCapture {
		dest = g.capture
	}
	if dest == nil {
		return nil
	}
	if err := dest.WritePCM(out); err != nil {
		return fmt.Errorf("write %s sink: %w", g.Routed(), err)
	}
	return nil
}

// mixInto accumulates the path's samples into acc, advancing the gain ramp
// once per sample frame.
func (p *Path) mixInto(acc []int32, in []int16, alpha float64) {
	for i := 0; i+Channels-1 < len(in); i += Channels {
		p.gain += (p.target - p.gain) * alpha
		for c := 0; c < Channels; c++ {
			acc[i+c] += int32(float64(in[i+c]) * p.gain)
		}
	}
}

// advance moves the gain ramp without audio, keeping silent paths converging.
func (p *Path) advance(frames int, alpha float64) {
	for i := 0; i < frames; i++ {
		p.gain += (p.target - p.gain) * alpha
	}
}
