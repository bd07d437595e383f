package source

import (
	"image"
	"time"
)

// Kind classifies a bound source.
type Kind int

const (
	KindVideo Kind = iota
	KindImage
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Handle is a live binding to an underlying media source. Handles emulate a
// media element: they carry a playhead that advances in wall time while
// playing, and the engine corrects it when it drifts from the timeline.
// Handle methods are not safe for concurrent use; the render loop and
// user-triggered mutators share one goroutine.
type Handle interface {
	ID() string
	Kind() Kind

	// NaturalDuration reports the source's own length once known.
	NaturalDuration() (float64, bool)

	// Ready reports whether the source can produce output at pos right now.
	// A false return skips this frame; the next step retries.
	Ready(pos float64) bool

	Position() float64
	SetPosition(pos float64) error
	Playing() bool
	Play() error
	Pause()

	Close() error
}

// FrameProvider is implemented by handles that produce pixels.
type FrameProvider interface {
	FrameAt(pos float64) (image.Image, error)
}

// PCMProvider is implemented by handles that produce interleaved s16
// samples at the mixer's rate and channel count.
type PCMProvider interface {
	ReadPCM(p []int16) (int, error)
}

// playhead is the shared media-element position emulation: position advances
// with the wall clock while playing and freezes when paused.
type playhead struct {
	base    float64
	anchor  time.Time
	playing bool
	now     func() time.Time
}

func newPlayhead(now func() time.Time) playhead {
	if now == nil {
		now = time.Now
	}
	return playhead{now: now}
}

func (p *playhead) position() float64 {
	if !p.playing {
		return p.base
	}
	return p.base + p.now().Sub(p.anchor).Seconds()
}

func (p *playhead) setPosition(pos float64) {
	if pos < 0 {
		pos = 0
	}
	p.base = pos
	p.anchor = p.now()
}

func (p *playhead) play() {
	if p.playing {
		return
	}
	p.anchor = p.now()
	p.playing = true
}

func (p *playhead) pause() {
	if !p.playing {
		return
	}
	p.base = p.position()
	p.playing = false
}
