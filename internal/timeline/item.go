package timeline

import "math"

// Kind distinguishes the two visual item flavors.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

const (
	// MinTrimGap is the smallest allowed distance between trim start and end.
	MinTrimGap = 0.1
	// MinImageDisplay is the shortest display duration for an image item.
	MinImageDisplay = 0.5

	MinScale = 0.5
	MaxScale = 3.0

	MaxOffsetX = 1280.0
	MaxOffsetY = 720.0

	MaxVolume = 2.5
)

// FadeDurations are the selectable fade lengths in seconds.
var FadeDurations = []float64{0.5, 1.0, 2.0}

// AllowedFadeDuration reports whether d is one of the selectable fade lengths.
func AllowedFadeDuration(d float64) bool {
	for _, v := range FadeDurations {
		if v == d {
			return true
		}
	}
	return false
}

// Fade is one edge fade toggle plus its duration.
type Fade struct {
	Enabled  bool
	Duration float64
}

// Transform positions the item frame on the canvas. Scale multiplies the
// letterbox base fit; X and Y offset the frame center in canvas pixels.
type Transform struct {
	Scale float64
	X     float64
	Y     float64
}

// AudioSettings carries the per-item audio controls.
type AudioSettings struct {
	Volume  float64
	Mute    bool
	FadeIn  Fade
	FadeOut Fade
}

// Item is a single visual entry in the ordered timeline sequence.
type Item struct {
	ID   string
	File string
	Kind Kind

	// Video trim state. Natural is the source's reported duration; it is
	// zero until the source has been probed. The trim range defaults to the
	// full source exactly once, when Natural first becomes known.
	Natural   float64
	TrimStart float64
	TrimEnd   float64
	trimmed   bool

	// Image display duration.
	Display float64

	Transform Transform
	Audio     AudioSettings
}

// Duration returns the item's contribution to the global timeline.
func (it *Item) Duration() float64 {
	if it.Kind == KindImage {
		return it.Display
	}
	return it.TrimEnd - it.TrimStart
}

// AdoptNatural records the source's reported duration. The first call with a
// positive duration sets the trim range to the full source; later calls only
// update Natural so an adjusted trim survives re-probing.
func (it *Item) AdoptNatural(d float64) {
	if !isFinite(d) || d <= 0 {
		return
	}
	it.Natural = d
	if it.Kind != KindVideo {
		return
	}
	if !it.trimmed {
		it.TrimStart = 0
		it.TrimEnd = d
		it.trimmed = true
		return
	}
	if it.TrimEnd > d {
		it.TrimEnd = d
	}
	if it.TrimStart > it.TrimEnd-MinTrimGap {
		it.TrimStart = math.Max(0, it.TrimEnd-MinTrimGap)
	}
}

// SetTrimStart moves the trim start, clamped to [0, TrimEnd-MinTrimGap].
func (it *Item) SetTrimStart(v float64) {
	if it.Kind != KindVideo || !isFinite(v) {
		return
	}
	upper := it.TrimEnd - MinTrimGap
	if upper < 0 {
		upper = 0
	}
	it.TrimStart = clamp(v, 0, upper)
	it.trimmed = true
}

// SetTrimEnd moves the trim end, clamped to [TrimStart+MinTrimGap, Natural].
// Passing a value at or below the trim start coerces it to the minimum gap.
func (it *Item) SetTrimEnd(v float64) {
	if it.Kind != KindVideo || !isFinite(v) {
		return
	}
	lower := it.TrimStart + MinTrimGap
	upper := it.Natural
	if upper < lower {
		upper = lower
	}
	it.TrimEnd = clamp(v, lower, upper)
	it.trimmed = true
}

// SetDisplay sets an image item's display duration, floored at MinImageDisplay.
func (it *Item) SetDisplay(v float64) {
	if it.Kind != KindImage || !isFinite(v) {
		return
	}
	if v < MinImageDisplay {
		v = MinImageDisplay
	}
	it.Display = v
}

// SetScale clamps the transform scale into [MinScale, MaxScale].
func (it *Item) SetScale(v float64) {
	if !isFinite(v) {
		return
	}
	it.Transform.Scale = clamp(v, MinScale, MaxScale)
}

// SetOffset clamps the transform offsets into the canvas movement bounds.
func (it *Item) SetOffset(x, y float64) {
	if isFinite(x) {
		it.Transform.X = clamp(x, -MaxOffsetX, MaxOffsetX)
	}
	if isFinite(y) {
		it.Transform.Y = clamp(y, -MaxOffsetY, MaxOffsetY)
	}
}

// SetVolume clamps the item volume into [0, MaxVolume].
func (it *Item) SetVolume(v float64) {
	if !isFinite(v) {
		return
	}
	it.Audio.Volume = clamp(v, 0, MaxVolume)
}

// Trimmed reports whether the trim range has ever been set, either by
// AdoptNatural's one-time default or by an explicit edit.
func (it *Item) Trimmed() bool {
	return it.trimmed
}

// MarkTrimmed flags the trim range as explicitly set. Used when restoring
// items from a saved document so re-probing does not reset edits.
func (it *Item) MarkTrimmed() {
	it.trimmed = true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
