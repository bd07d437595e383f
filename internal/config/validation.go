package config

import "fmt"

// captionPositions are the accepted caption anchor values.
var captionPositions = map[string]bool{"top": true, "middle": true, "bottom": true}

// Validate checks every field against its allowed range and returns one
// error per violation, each message prefixed by the yaml field path.
func (c Config) Validate() []error {
	var errs []error

	fail := func(path, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
	}

	if c.Canvas.Width <= 0 {
		fail("canvas.width", "must be positive, got %d", c.Canvas.Width)
	}
	if c.Canvas.Height <= 0 {
		fail("canvas.height", "must be positive, got %d", c.Canvas.Height)
	}
	if c.Canvas.FPS <= 0 || c.Canvas.FPS > 120 {
		fail("canvas.fps", "must be in (0, 120], got %d", c.Canvas.FPS)
	}

	if c.Playback.LiveDriftTolerance <= 0 {
		fail("playback.live_drift_tolerance", "must be positive, got %v", c.Playback.LiveDriftTolerance)
	}
	if c.Playback.ExactDriftTolerance <= 0 {
		fail("playback.exact_drift_tolerance", "must be positive, got %v", c.Playback.ExactDriftTolerance)
	}
	if c.Playback.ExactDriftTolerance > 0 && c.Playback.LiveDriftTolerance > 0 &&
		c.Playback.ExactDriftTolerance >= c.Playback.LiveDriftTolerance {
		fail("playback.exact_drift_tolerance", "must be below live_drift_tolerance (%v)", c.Playback.LiveDriftTolerance)
	}
	if c.Playback.Lookahead < 0 {
		fail("playback.lookahead", "must not be negative, got %v", c.Playback.Lookahead)
	}
	if c.Playback.MaxConsecutiveFailures < 1 {
		fail("playback.max_consecutive_failures", "must be at least 1, got %d", c.Playback.MaxConsecutiveFailures)
	}

	if c.Audio.RampMillis <= 0 || c.Audio.RampMillis > 1000 {
		fail("audio.ramp_ms", "must be in (0, 1000], got %v", c.Audio.RampMillis)
	}

	if c.Captions.Size <= 0 || c.Captions.Size > 200 {
		fail("captions.size", "must be in (0, 200], got %v", c.Captions.Size)
	}
	if !captionPositions[c.Captions.Position] {
		fail("captions.position", "must be top, middle, or bottom, got %q", c.Captions.Position)
	}

	if c.Export.Template == "" {
		fail("export.template", "must not be empty")
	}
	if c.Export.SettleMillis < 0 || c.Export.SettleMillis > 5000 {
		fail("export.settle_ms", "must be in [0, 5000], got %d", c.Export.SettleMillis)
	}
	if c.Export.ProfileTTLDays < 1 {
		fail("export.profile_ttl_days", "must be at least 1, got %d", c.Export.ProfileTTLDays)
	}

	return errs
}
