package compositor

import (
	"errors"
	"math"

	"montage/internal/source"
	"montage/internal/timeline"
)

// Mixer keys: the active item's audio path is keyed by the item id; the
// music track and each narration clip get their own strips.
const (
	MusicPathKey        = "music"
	NarrationPathPrefix = "narration/"
)

// NarrationPathKey returns the mixer strip key for a narration track.
func NarrationPathKey(id string) string {
	return NarrationPathPrefix + id
}

// render is the single composite pass shared by preview and export. It
// resolves the active item, corrects source positions under the mode's
// tolerance, draws the frame with transform and fade alpha, retargets every
// audio path, and prepositions the upcoming clip. Per-frame failures are
// collected and returned for the failure ceiling, but the pass always runs
// to completion so the canvas and graph stay consistent.
func (e *Engine) render(t float64, mode Mode) error {
	items := e.project.Items
	total := e.project.Total()

	active, ok := timeline.Resolve(items, t)
	if !ok {
		e.canvas.Clear()
		e.graph.SilenceAll()
		e.pauseAll()
		return nil
	}

	var errs []error

	// Non-active visual items pause and ramp silent before the active item
	// is touched, so a boundary crossing never plays two clips at once.
	for i := range items {
		if i == active.Index {
			continue
		}
		it := &items[i]
		if h, found := e.reg.Get(it.ID); found {
			h.Pause()
		}
		e.graph.SetTarget(it.ID, 0)
	}

	if err := e.renderActive(active, mode); err != nil {
		errs = append(errs, err)
	}

	e.preloadNext(items, active)

	if err := e.updateTracks(t, total, mode); err != nil {
		errs = append(errs, err)
	}

	if e.caps != nil {
		if visible := timeline.ActiveCaptions(e.project.Captions, t); len(visible) > 0 {
			if err := e.caps.Draw(e.canvas.Image(), visible); err != nil {
				e.log.Warnw("caption draw failed", "t", t, "error", err)
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

// renderActive positions, plays/pauses, and draws the resolved item.
func (e *Engine) renderActive(active timeline.Active, mode Mode) error {
	it := active.Item
	h, found := e.reg.Get(it.ID)
	if !found {
		// Source not bound yet; the frame is skipped and retried next step.
		e.canvas.Clear()
		e.graph.SetTarget(it.ID, 0)
		return nil
	}

	if it.Kind == timeline.KindVideo {
		target := it.TrimStart + active.Local
		if drift := math.Abs(h.Position() - target); drift > e.tolerance(mode) {
			if err := h.SetPosition(target); err != nil {
				// A failed seek is retried by the next frame's correction.
				e.log.Debugw("drift correction failed", "item", it.ID, "target", target, "error", err)
			}
		}
		switch mode {
		case ModeLive:
			if !h.Playing() {
				if err := h.Play(); err != nil {
					e.log.Debugw("resume failed", "item", it.ID, "error", err)
				}
			}
		case ModeExact:
			h.Pause()
		}
	}

	// The active item's audio follows the draw fades; exact mode forces
	// silence so a correction seek cannot pop.
	if mode == ModeExact {
		e.graph.SetTarget(it.ID, 0)
	} else {
		e.graph.SetTarget(it.ID, timeline.ItemGain(it, active.Local))
	}

	pos := active.Local
	if it.Kind == timeline.KindVideo {
		pos = it.TrimStart + active.Local
	}
	if !h.Ready(pos) {
		return nil
	}
	fp, ok := h.(source.FrameProvider)
	if !ok {
		return nil
	}

	frame, err := fp.FrameAt(pos)
	if err != nil {
		// Drawing is best-effort: the previous frame stays up and the next
		// step retries.
		e.log.Debugw("frame extraction failed", "item", it.ID, "pos", pos, "error", err)
		return err
	}

	alpha := timeline.FadeAlpha(active.Local, it.Duration(), it.Audio)
	e.canvas.Clear()
	e.canvas.DrawFrame(frame, it.Transform, alpha)
	return nil
}

// preloadNext prepositions the upcoming video clip near a boundary so the
// cut lands on a decodable frame instead of a black gap.
func (e *Engine) preloadNext(items []timeline.Item, active timeline.Active) {
	remaining := active.Item.Duration() - active.Local
	if remaining > e.cfg.Lookahead {
		return
	}
	next := active.Index + 1
	if next >= len(items) || items[next].Kind != timeline.KindVideo {
		return
	}
	it := &items[next]
	h, found := e.reg.Get(it.ID)
	if !found {
		return
	}
	if h.Playing() && h.Ready(it.TrimStart) {
		return
	}
	if err := h.SetPosition(it.TrimStart); err != nil {
		e.log.Debugw("lookahead preload failed", "item", it.ID, "error", err)
	}
}

// updateTracks processes the music track and every narration clip
// independently of the visual sequence.
func (e *Engine) updateTracks(t, total float64, mode Mode) error {
	var errs []error
	if e.project.Music != nil {
		if err := e.updateTrack(MusicPathKey, e.project.Music, t, total, mode); err != nil {
			errs = append(errs, err)
		}
	}
	for i := range e.project.Narration {
		tr := &e.project.Narration[i]
		if err := e.updateTrack(NarrationPathKey(tr.ID), tr, t, total, mode); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// updateTrack drives one audio track. The handle lives in the registry under
// the track's mixer key, the same key its strip uses in the graph.
func (e *Engine) updateTrack(key string, tr *timeline.Track, t, total float64, mode Mode) error {
	h, found := e.reg.Get(key)
	if !found {
		e.graph.SetTarget(key, 0)
		return nil
	}

	if !tr.AudibleAt(t) {
		e.graph.SetTarget(key, 0)
		h.Pause()
		return nil
	}

	local := tr.LocalPosition(t)
	if drift := math.Abs(h.Position() - local); drift > e.tolerance(mode) {
		if err := h.SetPosition(local); err != nil {
			e.log.Debugw("track reposition failed", "track", tr.ID, "target", local, "error", err)
			e.graph.SetTarget(key, 0)
			return err
		}
	}

	// Exact mode repositions but stays silent, so resuming playback is
	// instantaneous and correctly placed.
	if mode == ModeExact {
		e.graph.SetTarget(key, 0)
		h.Pause()
		return nil
	}

	if !h.Playing() {
		if err := h.Play(); err != nil {
			e.log.Debugw("track resume failed", "track", tr.ID, "error", err)
			e.graph.SetTarget(key, 0)
			return err
		}
	}
	e.graph.SetTarget(key, tr.Gain(t, total))
	return nil
}

func (e *Engine) tolerance(mode Mode) float64 {
	if mode == ModeExact {
		return e.cfg.ExactTolerance
	}
	return e.cfg.LiveTolerance
}
