package mixer

import (
	"errors"
	"math"
	"testing"
)

// constReader fills every sample with a fixed value.
type constReader struct {
	value int16
	err   error
}

func (r *constReader) ReadPCM(p []int16) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	for i := range p {
		p[i] = r.value
	}
	return len(p), nil
}

// memSink records every mixed quantum it receives.
type memSink struct {
	writes  int
	samples []int16
}

func (s *memSink) WritePCM(p []int16) error {
	s.writes++
	s.samples = append(s.samples, p...)
	return nil
}

func TestPumpMixesWithGain(t *testing.T) {
	live := &memSink{}
	g := NewGraph(Options{Live: live})

	p := g.EnsurePath("music", &constReader{value: 1000})
	p.SetImmediate(0.5)

	if err := g.Pump(FrameSamples); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if live.writes != 1 {
		t.Fatalf("writes=%d, want 1", live.writes)
	}
	if len(live.samples) != FrameSamples*Channels {
		t.Fatalf("samples=%d, want %d", len(live.samples), FrameSamples*Channels)
	}
	// Gain already converged: every sample scaled by 0.5.
	if got := live.samples[0]; got != 500 {
		t.Fatalf("sample=%d, want 500", got)
	}
}

func TestGainRampIsGradualAndMonotonic(t *testing.T) {
	g := NewGraph(Options{Live: Discard})
	p := g.EnsurePath("a", &constReader{value: 1})

	p.SetTarget(1)
	prev := p.Gain()
	if prev != 0 {
		t.Fatalf("initial gain=%v, want 0", prev)
	}

	for i := 0; i < 50; i++ {
		if err := g.Pump(FrameSamples); err != nil {
			t.Fatalf("Pump: %v", err)
		}
		got := p.Gain()
		if got < prev-1e-12 {
			t.Fatalf("gain decreased during ramp-up: %v -> %v", prev, got)
		}
		if got > 1 {
			t.Fatalf("gain overshot target: %v", got)
		}
		prev = got
	}

	// One 20ms quantum must not snap the gain to target.
	g2 := NewGraph(Options{Live: Discard})
	p2 := g2.EnsurePath("b", &constReader{value: 1})
	p2.SetTarget(1)
	if err := g2.Pump(FrameSamples); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if p2.Gain() > 0.9 {
		t.Fatalf("gain=%v after one quantum, want gradual approach", p2.Gain())
	}

	// But it converges within a couple of time constants.
	for i := 0; i < 20; i++ {
		_ = g2.Pump(FrameSamples)
	}
	if p2.Gain() < 0.95 {
		t.Fatalf("gain=%v after 400ms, want near 1", p2.Gain())
	}
}

func TestRouteExclusive(t *testing.T) {
	live := &memSink{}
	capture := &memSink{}
	g := NewGraph(Options{Live: live, Capture: capture})
	g.EnsurePath("a", &constReader{value: 10}).SetImmediate(1)

	if err := g.Pump(FrameSamples); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if live.writes != 1 || capture.writes != 0 {
		t.Fatalf("live=%d capture=%d, want 1/0", live.writes, capture.writes)
	}

	g.Route(RouteCapture)
	if err := g.Pump(FrameSamples); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if live.writes != 1 || capture.writes != 1 {
		t.Fatalf("live=%d capture=%d after reroute, want 1/1", live.writes, capture.writes)
	}

	if g.Routed() != RouteCapture {
		t.Fatalf("Routed=%v, want capture", g.Routed())
	}
}

func TestPumpSaturatesInsteadOfWrapping(t *testing.T) {
	live := &memSink{}
	g := NewGraph(Options{Live: live})
	g.EnsurePath("a", &constReader{value: math.MaxInt16}).SetImmediate(1)
	g.EnsurePath("b", &constReader{value: math.MaxInt16}).SetImmediate(1)

	if err := g.Pump(FrameSamples); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	for i, v := range live.samples {
		if v != math.MaxInt16 {
			t.Fatalf("sample[%d]=%d, want clipped to %d", i, v, math.MaxInt16)
		}
	}
}

func TestPumpFailedReaderIsSilence(t *testing.T) {
	live := &memSink{}
	g := NewGraph(Options{Live: live})
	g.EnsurePath("bad", &constReader{err: errors.New("pipe broke")}).SetImmediate(1)
	g.EnsurePath("ok", &constReader{value: 100}).SetImmediate(1)

	if err := g.Pump(FrameSamples); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if got := live.samples[0]; got != 100 {
		t.Fatalf("sample=%d, want 100 (failed path contributes silence)", got)
	}
}

func TestEnsureAndRemovePath(t *testing.T) {
	g := NewGraph(Options{Live: Discard})
	g.EnsurePath("music", nil)
	g.EnsurePath("narration/1", nil)
	g.EnsurePath("music", nil) // idempotent

	keys := g.Keys()
	if len(keys) != 2 || keys[0] != "music" || keys[1] != "narration/1" {
		t.Fatalf("Keys=%v, want [music narration/1]", keys)
	}

	g.RemovePath("music")
	if _, ok := g.Path("music"); ok {
		t.Fatalf("music path survived removal")
	}
	g.RemovePath("missing") // no-op

	if err := g.Pump(FrameSamples); err != nil {
		t.Fatalf("Pump after removal: %v", err)
	}
}

func TestSetTargetRejectsBadValues(t *testing.T) {
	g := NewGraph(Options{})
	p := g.EnsurePath("a", nil)
	p.SetImmediate(0.7)

	p.SetTarget(math.NaN())
	if p.Target() != 0.7 {
		t.Fatalf("NaN target accepted: %v", p.Target())
	}
	p.SetTarget(-3)
	if p.Target() != 0 {
		t.Fatalf("negative target=%v, want clamp to 0", p.Target())
	}
}
