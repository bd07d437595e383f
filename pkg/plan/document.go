// Package plan reads and writes the authored montage plan: the yaml document
// describing the visual sequence, the music and narration tracks, and the
// captions. Loading assigns identities, validates every invariant with
// document-path errors, and converts to the engine's timeline model.
package plan

// Document is the root of the authored yaml plan.
type Document struct {
	Title     string        `yaml:"title,omitempty"`
	Items     []ItemSpec    `yaml:"items"`
	Music     *TrackSpec    `yaml:"music,omitempty"`
	Narration []TrackSpec   `yaml:"narration,omitempty"`
	Captions  []CaptionSpec `yaml:"captions,omitempty"`
}

// ItemSpec is one visual entry: a trimmed video clip or a timed image.
type ItemSpec struct {
	ID   string `yaml:"id,omitempty"`
	Kind string `yaml:"kind"`
	File string `yaml:"file"`

	// Natural is the probed source duration; `montage probe` fills it so
	// trims validate without re-probing on every load.
	Natural float64   `yaml:"natural,omitempty"`
	Trim    *TrimSpec `yaml:"trim,omitempty"`

	// Duration is the display time for image items.
	Duration float64 `yaml:"duration,omitempty"`

	Scale float64 `yaml:"scale,omitempty"`
	X     float64 `yaml:"x,omitempty"`
	Y     float64 `yaml:"y,omitempty"`

	Volume  *float64  `yaml:"volume,omitempty"`
	Mute    bool      `yaml:"mute,omitempty"`
	FadeIn  *FadeSpec `yaml:"fade_in,omitempty"`
	FadeOut *FadeSpec `yaml:"fade_out,omitempty"`
}

// TrimSpec is the video trim range in source seconds.
type TrimSpec struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// FadeSpec enables one edge fade with a duration from the allowed set.
type FadeSpec struct {
	Duration float64 `yaml:"duration"`
}

// TrackSpec places an audio source on the global timeline: the single music
// track or one narration clip.
type TrackSpec struct {
	ID   string `yaml:"id,omitempty"`
	File string `yaml:"file"`

	// Start trims the head within the track's own source.
	Start float64 `yaml:"start,omitempty"`
	// Delay positions the track on the global timeline.
	Delay float64 `yaml:"delay,omitempty"`
	// Duration is the probed source length.
	Duration float64 `yaml:"duration,omitempty"`

	Volume  *float64  `yaml:"volume,omitempty"`
	Mute    bool      `yaml:"mute,omitempty"`
	FadeIn  *FadeSpec `yaml:"fade_in,omitempty"`
	FadeOut *FadeSpec `yaml:"fade_out,omitempty"`
}

// CaptionSpec is a timed text overlay with optional style overrides.
type CaptionSpec struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Text  string  `yaml:"text"`

	Size       float64 `yaml:"size,omitempty"`
	Color      string  `yaml:"color,omitempty"`
	Background string  `yaml:"background,omitempty"`
	Position   string  `yaml:"position,omitempty"`
}
