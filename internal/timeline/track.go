package timeline

// Track is an independently placed audio source: the single music track or
// one narration clip. Delay positions it on the global timeline; StartPoint
// trims its head within its own source.
type Track struct {
	ID   string
	File string

	// Duration is the natural source length, known after probing.
	Duration   float64
	StartPoint float64
	Delay      float64

	Volume  float64
	Mute    bool
	FadeIn  Fade
	FadeOut Fade
}

// PlayLength is how much of the source actually plays once started.
func (tr *Track) PlayLength() float64 {
	l := tr.Duration - tr.StartPoint
	if !isFinite(l) || l < 0 {
		return 0
	}
	return l
}

// AudibleAt reports whether global time t falls inside the track's audible
// window [Delay, Delay+PlayLength).
func (tr *Track) AudibleAt(t float64) bool {
	if !isFinite(t) || t < tr.Delay {
		return false
	}
	return t-tr.Delay < tr.PlayLength()
}

// LocalPosition maps global time t to a position within the track's own
// source: (t - Delay) + StartPoint. Valid only when AudibleAt(t).
func (tr *Track) LocalPosition(t float64) float64 {
	return (t - tr.Delay) + tr.StartPoint
}

// Gain computes the target gain for the track at global time t: volume
// scaled by the fade-in ramp against track-relative elapsed time
// and by the fade-out ramp against proximity to the global total duration.
// Outside the audible window, or muted, the gain is zero.
func (tr *Track) Gain(t, total float64) float64 {
	if tr.Mute || !tr.AudibleAt(t) {
		return 0
	}
	gain := clamp(tr.Volume, 0, MaxVolume)
	if tr.FadeIn.Enabled && tr.FadeIn.Duration > 0 {
		rel := t - tr.Delay
		if rel < tr.FadeIn.Duration {
			gain *= clamp(rel/tr.FadeIn.Duration, 0, 1)
		}
	}
	if tr.FadeOut.Enabled && tr.FadeOut.Duration > 0 && isFinite(total) && total > 0 {
		from := total - tr.FadeOut.Duration
		if t > from {
			gain *= clamp((total-t)/tr.FadeOut.Duration, 0, 1)
		}
	}
	return gain
}

// SetStartPoint clamps the head trim into [0, Duration].
func (tr *Track) SetStartPoint(v float64) {
	if !isFinite(v) {
		return
	}
	upper := tr.Duration
	if upper < 0 {
		upper = 0
	}
	tr.StartPoint = clamp(v, 0, upper)
}

// SetDelay clamps the global placement to be non-negative.
func (tr *Track) SetDelay(v float64) {
	if !isFinite(v) {
		return
	}
	if v < 0 {
		v = 0
	}
	tr.Delay = v
}

// SetVolume clamps the track volume into [0, MaxVolume].
func (tr *Track) SetVolume(v float64) {
	if !isFinite(v) {
		return
	}
	tr.Volume = clamp(v, 0, MaxVolume)
}
