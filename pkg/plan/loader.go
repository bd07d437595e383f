package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"montage/internal/timeline"
)

// ErrEmptyPlan is returned when the document has no visual items.
var ErrEmptyPlan = errors.New("plan has no items")

// Load reads and strictly decodes a plan file, assigns identities to entries
// that lack one, and validates every invariant. On validation failure the
// decoded document is returned alongside the ValidationErrors so callers can
// still report per-entry problems.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes plan bytes. Unknown yaml keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}

	doc.AssignIDs()
	if errs := doc.Validate(); len(errs) > 0 {
		return &doc, errs
	}
	return &doc, nil
}

// Save writes the document back to disk as yaml.
func Save(path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit plan: %w", err)
	}
	return nil
}

// AssignIDs fills empty item and track ids. Existing ids are kept so saved
// documents stay stable across loads.
func (d *Document) AssignIDs() {
	for i := range d.Items {
		if d.Items[i].ID == "" {
			d.Items[i].ID = uuid.NewString()
		}
	}
	if d.Music != nil && d.Music.ID == "" {
		d.Music.ID = uuid.NewString()
	}
	for i := range d.Narration {
		if d.Narration[i].ID == "" {
			d.Narration[i].ID = uuid.NewString()
		}
	}
}

// Validate checks every data-model invariant, returning one PathError per
// violation.
func (d *Document) Validate() ValidationErrors {
	var errs ValidationErrors

	fail := func(path, format string, args ...any) {
		errs = append(errs, PathError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(d.Items) == 0 {
		fail("items", "%s", ErrEmptyPlan.Error())
	}

	seen := map[string]string{}
	checkID := func(path, id string) {
		if prev, dup := seen[id]; dup {
			fail(path, "duplicate id %q (also %s)", id, prev)
			return
		}
		seen[id] = path
	}

	for i := range d.Items {
		it := &d.Items[i]
		path := fmt.Sprintf("items[%d]", i)
		checkID(path+".id", it.ID)

		switch it.Kind {
		case "video":
			if it.Duration != 0 {
				fail(path+".duration", "display duration is for image items")
			}
			if it.Trim != nil {
				validateTrim(&errs, path+".trim", it.Trim, it.Natural)
			}
		case "image":
			if it.Trim != nil {
				fail(path+".trim", "trim is for video items")
			}
			if it.Duration < timeline.MinImageDisplay {
				fail(path+".duration", "must be at least %.1fs, got %v", timeline.MinImageDisplay, it.Duration)
			}
		default:
			fail(path+".kind", "must be video or image, got %q", it.Kind)
		}

		if it.File == "" {
			fail(path+".file", "file is required")
		}
		if it.Scale != 0 && (it.Scale < timeline.MinScale || it.Scale > timeline.MaxScale) {
			fail(path+".scale", "must be in [%.1f, %.1f], got %v", timeline.MinScale, timeline.MaxScale, it.Scale)
		}
		if it.X < -timeline.MaxOffsetX || it.X > timeline.MaxOffsetX {
			fail(path+".x", "must be in [%.0f, %.0f], got %v", -timeline.MaxOffsetX, timeline.MaxOffsetX, it.X)
		}
		if it.Y < -timeline.MaxOffsetY || it.Y > timeline.MaxOffsetY {
			fail(path+".y", "must be in [%.0f, %.0f], got %v", -timeline.MaxOffsetY, timeline.MaxOffsetY, it.Y)
		}
		validateVolume(&errs, path+".volume", it.Volume)
		validateFade(&errs, path+".fade_in", it.FadeIn)
		validateFade(&errs, path+".fade_out", it.FadeOut)
	}

	if d.Music != nil {
		validateTrack(&errs, "music", d.Music, false)
		checkID("music.id", d.Music.ID)
	}
	for i := range d.Narration {
		path := fmt.Sprintf("narration[%d]", i)
		validateTrack(&errs, path, &d.Narration[i], true)
		checkID(path+".id", d.Narration[i].ID)
	}

	for i := range d.Captions {
		c := &d.Captions[i]
		path := fmt.Sprintf("captions[%d]", i)
		if c.Text == "" {
			fail(path+".text", "text is required")
		}
		if c.Start < 0 {
			fail(path+".start", "must not be negative, got %v", c.Start)
		}
		if c.End <= c.Start {
			fail(path+".end", "must be after start (%v), got %v", c.Start, c.End)
		}
		if c.Size < 0 || c.Size > 200 {
			fail(path+".size", "must be in [0, 200], got %v", c.Size)
		}
		switch c.Position {
		case "", "top", "middle", "bottom":
		default:
			fail(path+".position", "must be top, middle, or bottom, got %q", c.Position)
		}
	}

	return errs
}

func validateTrim(errs *ValidationErrors, path string, trim *TrimSpec, natural float64) {
	if trim.Start < 0 {
		*errs = append(*errs, PathError{Path: path + ".start", Message: fmt.Sprintf("must not be negative, got %v", trim.Start)})
	}
	if trim.End < trim.Start+timeline.MinTrimGap {
		*errs = append(*errs, PathError{Path: path + ".end", Message: fmt.Sprintf("must be at least %.1fs after start (%v), got %v", timeline.MinTrimGap, trim.Start, trim.End)})
	}
	if natural > 0 && trim.End > natural {
		*errs = append(*errs, PathError{Path: path + ".end", Message: fmt.Sprintf("exceeds source duration %v", natural)})
	}
}

func validateTrack(errs *ValidationErrors, path string, tr *TrackSpec, allowMute bool) {
	fail := func(field, format string, args ...any) {
		*errs = append(*errs, PathError{Path: path + "." + field, Message: fmt.Sprintf(format, args...)})
	}

	if tr.File == "" {
		fail("file", "file is required")
	}
	if tr.Delay < 0 {
		fail("delay", "must not be negative, got %v", tr.Delay)
	}
	if tr.Start < 0 {
		fail("start", "must not be negative, got %v", tr.Start)
	}
	if tr.Duration > 0 && tr.Start > tr.Duration {
		fail("start", "exceeds source duration %v", tr.Duration)
	}
	if tr.Mute && !allowMute {
		fail("mute", "the music track has no mute flag")
	}
	validateVolume(errs, path+".volume", tr.Volume)
	validateFade(errs, path+".fade_in", tr.FadeIn)
	validateFade(errs, path+".fade_out", tr.FadeOut)
}

func validateVolume(errs *ValidationErrors, path string, v *float64) {
	if v == nil {
		return
	}
	if *v < 0 || *v > timeline.MaxVolume {
		*errs = append(*errs, PathError{Path: path, Message: fmt.Sprintf("must be in [0, %.1f], got %v", timeline.MaxVolume, *v)})
	}
}

func validateFade(errs *ValidationErrors, path string, f *FadeSpec) {
	if f == nil {
		return
	}
	if !timeline.AllowedFadeDuration(f.Duration) {
		*errs = append(*errs, PathError{Path: path + ".duration", Message: fmt.Sprintf("must be one of %v, got %v", timeline.FadeDurations, f.Duration)})
	}
}

// CheckFiles verifies that every referenced media file exists, resolving
// relative paths against mediaDir.
func (d *Document) CheckFiles(mediaDir string) ValidationErrors {
	var errs ValidationErrors

	check := func(path, file string) {
		if file == "" {
			return
		}
		if _, err := os.Stat(ResolveFile(mediaDir, file)); err != nil {
			errs = append(errs, PathError{Path: path + ".file", Message: fmt.Sprintf("media file %q not found", file)})
		}
	}

	for i := range d.Items {
		check(fmt.Sprintf("items[%d]", i), d.Items[i].File)
	}
	if d.Music != nil {
		check("music", d.Music.File)
	}
	for i := range d.Narration {
		check(fmt.Sprintf("narration[%d]", i), d.Narration[i].File)
	}
	return errs
}

// ResolveFile resolves a plan media reference against the project media dir.
func ResolveFile(mediaDir, file string) string {
	if filepath.IsAbs(file) {
		return filepath.Clean(file)
	}
	return filepath.Join(mediaDir, file)
}

// ToProject converts a validated document into the engine's timeline model.
func (d *Document) ToProject() *timeline.Project {
	p := &timeline.Project{Title: d.Title}

	for i := range d.Items {
		spec := &d.Items[i]
		it := timeline.Item{
			ID:   spec.ID,
			File: spec.File,
			Transform: timeline.Transform{
				Scale: spec.Scale,
				X:     spec.X,
				Y:     spec.Y,
			},
			Audio: timeline.AudioSettings{
				Volume:  1,
				Mute:    spec.Mute,
				FadeIn:  toFade(spec.FadeIn),
				FadeOut: toFade(spec.FadeOut),
			},
		}
		if it.Transform.Scale == 0 {
			it.Transform.Scale = 1
		}
		if spec.Volume != nil {
			it.Audio.Volume = *spec.Volume
		}

		switch spec.Kind {
		case "image":
			it.Kind = timeline.KindImage
			it.Display = spec.Duration
		default:
			it.Kind = timeline.KindVideo
			if spec.Natural > 0 {
				it.AdoptNatural(spec.Natural)
			}
			// An authored trim survives later probing; validation already
			// proved the range, so the setters' clamps are bypassed.
			if spec.Trim != nil {
				it.TrimStart = spec.Trim.Start
				it.TrimEnd = spec.Trim.End
				it.MarkTrimmed()
			}
		}
		p.Items = append(p.Items, it)
	}

	if d.Music != nil {
		tr := toTrack(d.Music)
		tr.Mute = false
		p.Music = &tr
	}
	for i := range d.Narration {
		p.Narration = append(p.Narration, toTrack(&d.Narration[i]))
	}

	for i := range d.Captions {
		c := &d.Captions[i]
		p.Captions = append(p.Captions, timeline.Caption{
			Start: c.Start,
			End:   c.End,
			Text:  c.Text,
			Style: timeline.CaptionStyle{
				Size:       c.Size,
				Color:      c.Color,
				Background: c.Background,
				Position:   c.Position,
			},
		})
	}

	return p
}

func toTrack(spec *TrackSpec) timeline.Track {
	tr := timeline.Track{
		ID:         spec.ID,
		File:       spec.File,
		Duration:   spec.Duration,
		StartPoint: spec.Start,
		Delay:      spec.Delay,
		Volume:     1,
		Mute:       spec.Mute,
		FadeIn:     toFade(spec.FadeIn),
		FadeOut:    toFade(spec.FadeOut),
	}
	if spec.Volume != nil {
		tr.Volume = *spec.Volume
	}
	return tr
}

func toFade(spec *FadeSpec) timeline.Fade {
	if spec == nil {
		return timeline.Fade{}
	}
	return timeline.Fade{Enabled: true, Duration: spec.Duration}
}
