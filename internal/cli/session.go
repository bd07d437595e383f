package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"montage/internal/compositor"
	"montage/internal/config"
	"montage/internal/logx"
	"montage/internal/mixer"
	"montage/internal/paths"
	"montage/internal/source"
	"montage/internal/timeline"
	"montage/internal/tools"
	"montage/pkg/plan"
)

// session is the shared command context: resolved paths, loaded config and
// plan, and (for playback commands) the fully bound engine.
type session struct {
	pp  paths.ProjectPaths
	cfg config.Config
	doc *plan.Document

	proj   *timeline.Project
	reg    *source.Registry
	graph  *mixer.Graph
	engine *compositor.Engine

	ffmpeg  string
	ffprobe string
	// runner overrides external tool invocation; nil means real commands.
	runner source.Runner

	log      *zap.SugaredLogger
	closeLog func()
}

// openProject resolves paths and loads config and plan without touching any
// media. Commands that only inspect the project use this.
func openProject(name string) (*session, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return nil, err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return nil, fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return nil, err
	}
	pp = paths.ApplyPlan(pp, cfg.Plan)

	if err := pp.EnsureMetaDirs(); err != nil {
		return nil, err
	}

	log, closeLog, err := logx.Open(pp.LogsDir, name)
	if err != nil {
		return nil, err
	}

	doc, err := plan.Load(pp.PlanFile)
	if err != nil {
		closeLog()
		return nil, err
	}

	return &session{pp: pp, cfg: cfg, doc: doc, log: log, closeLog: closeLog}, nil
}

// openEngine builds on openProject: it detects tools, binds every media
// source, wires the mixing graph, and returns a session whose engine is
// ready to render.
func openEngine(ctx context.Context, name string) (*session, error) {
	s, err := openProject(name)
	if err != nil {
		return nil, err
	}

	if errs := s.doc.CheckFiles(s.pp.MediaDir); len(errs) > 0 {
		s.Close()
		return nil, errs
	}

	detected := tools.Detect(ctx)
	ff := detected[tools.FFmpeg]
	fp := detected[tools.FFprobe]
	if !ff.Available || !fp.Available {
		s.Close()
		return nil, fmt.Errorf("ffmpeg and ffprobe are required for playback; run `montage doctor`")
	}
	s.ffmpeg = ff.Path
	s.ffprobe = fp.Path

	s.proj = s.doc.ToProject()
	s.reg = source.NewRegistry()
	s.graph = mixer.NewGraph(mixer.Options{
		RampTau: s.cfg.Audio.RampMillis / 1000,
		Live:    mixer.Discard,
	})

	caps, err := compositor.NewCaptionRenderer(s.captionFont(), timeline.CaptionStyle{
		Size:       s.cfg.Captions.Size,
		Color:      s.cfg.Captions.Color,
		Background: s.cfg.Captions.Background,
		Position:   s.cfg.Captions.Position,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	canvas := compositor.NewCanvas(s.cfg.Canvas.Width, s.cfg.Canvas.Height)
	s.engine = compositor.NewEngine(s.proj, s.reg, s.graph, canvas, compositor.Options{
		Config: compositor.Config{
			LiveTolerance:          s.cfg.Playback.LiveDriftTolerance,
			ExactTolerance:         s.cfg.Playback.ExactDriftTolerance,
			Lookahead:              s.cfg.Playback.Lookahead,
			MaxConsecutiveFailures: s.cfg.Playback.MaxConsecutiveFailures,
		},
		Logger:   s.log,
		Captions: caps,
	})

	if err := s.bindSources(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// bindSources opens a handle per plan entry and gives each one a mixer
// strip. Probed video durations are adopted into the timeline so untrimmed
// clips default to their full length.
func (s *session) bindSources(ctx context.Context) error {
	binder := &source.Binder{FFmpeg: s.ffmpeg, FFprobe: s.ffprobe, Runner: s.runner}

	for i := range s.proj.Items {
		it := &s.proj.Items[i]
		kind := source.KindImage
		if it.Kind == timeline.KindVideo {
			kind = source.KindVideo
		}
		file := plan.ResolveFile(s.pp.MediaDir, it.File)
		h, info, err := binder.Bind(ctx, s.reg, it.ID, kind, file)
		if err != nil {
			return fmt.Errorf("bind %s: %w", it.File, err)
		}
		if it.Kind == timeline.KindVideo && info.Duration > 0 {
			it.AdoptNatural(info.Duration)
		}
		if provider, ok := h.(source.PCMProvider); ok {
			s.graph.EnsurePath(it.ID, provider)
		} else {
			s.graph.EnsurePath(it.ID, nil)
		}
	}

	bindTrack := func(key string, tr *timeline.Track) error {
		file := plan.ResolveFile(s.pp.MediaDir, tr.File)
		h, info, err := binder.Bind(ctx, s.reg, key, source.KindAudio, file)
		if err != nil {
			return fmt.Errorf("bind %s: %w", tr.File, err)
		}
		if info.Duration > 0 && tr.Duration == 0 {
			tr.Duration = info.Duration
		}
		s.graph.EnsurePath(key, h.(source.PCMProvider))
		return nil
	}

	if s.proj.Music != nil {
		if err := bindTrack(compositor.MusicPathKey, s.proj.Music); err != nil {
			return err
		}
	}
	for i := range s.proj.Narration {
		tr := &s.proj.Narration[i]
		if err := bindTrack(compositor.NarrationPathKey(tr.ID), tr); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) captionFont() []byte {
	if s.cfg.Captions.FontFile == "" {
		return nil
	}
	data, err := os.ReadFile(plan.ResolveFile(s.pp.Root, s.cfg.Captions.FontFile))
	if err != nil {
		s.log.Warnw("caption font unreadable, using bundled face", "file", s.cfg.Captions.FontFile, "error", err)
		return nil
	}
	return data
}

// negotiator builds the encoder negotiator over the project meta dir.
func (s *session) negotiator(ctx context.Context) *tools.Negotiator {
	version := ""
	if info := tools.Detect(ctx)[tools.FFmpeg]; info.Available {
		version = info.Version
	}
	return &tools.Negotiator{
		Dir:           s.pp.MetaDir,
		TTL:           time.Duration(s.cfg.Export.ProfileTTLDays) * 24 * time.Hour,
		Probe:         tools.FFmpegProber(s.ffmpeg),
		FFmpegVersion: version,
	}
}

// Close releases sources and flushes the log.
func (s *session) Close() {
	if s.reg != nil {
		s.reg.ReleaseAll()
	}
	if s.closeLog != nil {
		s.closeLog()
	}
}
