package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"montage/internal/compositor"
	"montage/internal/config"
	"montage/internal/mixer"
	"montage/internal/paths"
	"montage/internal/source"
	"montage/internal/tools"
)

// ErrNothingToExport is returned when the timeline has zero duration.
var ErrNothingToExport = errors.New("timeline is empty, nothing to export")

// Options controls one export run.
type Options struct {
	Reporter Reporter
}

// Service drives a full export: prime, record, finalize. One run at a time;
// the service owns the engine for the duration of Run.
type Service struct {
	Paths  paths.ProjectPaths
	Config config.Config
	Engine *compositor.Engine
	Graph  *mixer.Graph
	Reg    *source.Registry

	// Negotiator picks the encoder; nil falls back to the built-in writer.
	Negotiator *tools.Negotiator
	FFmpeg     string

	Log   *zap.SugaredLogger
	Clock func() time.Time

	// OpenCapture is the backend factory; nil selects by negotiation.
	OpenCapture func(ctx context.Context, opts CaptureOptions) (Capture, error)
}

// Run executes the export state machine and returns the finished artifact.
func (s *Service) Run(ctx context.Context, opts Options) (Result, error) {
	rep := opts.Reporter
	if rep == nil {
		rep = NopReporter{}
	}
	log := s.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}

	fail := func(err error) (Result, error) {
		s.Graph.Route(mixer.RouteLive)
		rep.Failed(err)
		rep.StateChanged(StateFailed)
		log.Errorw("export failed", "error", err)
		return Result{}, err
	}

	rep.StateChanged(StatePriming)

	total := s.Engine.Project().Total()
	if total <= 0 {
		return fail(ErrNothingToExport)
	}

	// Priming: exact render at zero, every video source forced to its trim
	// start, audio rerouted to capture before any samples flow.
	s.Engine.Seek(0)
	s.primeSources()
	s.Graph.Route(mixer.RouteCapture)
	if err := s.settle(ctx); err != nil {
		return fail(err)
	}

	sel, err := s.selection(ctx)
	if err != nil {
		log.Warnw("encoder negotiation failed, using built-in writer", "error", err)
		sel = tools.FallbackSelection()
	}

	fps := s.Config.Canvas.FPS
	base := ArtifactBaseName(s.Config.Export.Template, s.Engine.Project().Title, clock())
	capOpts := CaptureOptions{
		Dir:       s.Paths.ExportsDir,
		BaseName:  base,
		Width:     s.Config.Canvas.Width,
		Height:    s.Config.Canvas.Height,
		FPS:       fps,
		Selection: sel,
		FFmpeg:    s.FFmpeg,
	}
	capture, err := s.openCapture(ctx, capOpts)
	if err != nil {
		return fail(err)
	}
	log.Infow("export started", "codec", sel.Codec, "container", sel.Container, "builtin", sel.Builtin, "base", base)

	counting := &mixer.CountingSink{Next: capture.AudioSink()}
	s.Graph.SetCapture(counting)

	rep.StateChanged(StateRecording)

	// The drive loop feeds the engine synthetic frame-paced timestamps, so
	// the recording is deterministic even when encoding runs slower than
	// real time. Each frame also pumps exactly its share of audio.
	frames := 0
	loop := s.Engine.Start(0)
	epoch := clock()
	frameDur := time.Second / time.Duration(fps)
	var pumped int64
	for {
		if err := ctx.Err(); err != nil {
			capture.Abort()
			s.Engine.Stop()
			return fail(err)
		}

		res := loop.Step(epoch.Add(time.Duration(frames) * frameDur))
		if res.Err != nil {
			capture.Abort()
			return fail(fmt.Errorf("render loop: %w", res.Err))
		}
		if res.Ended || res.Stale {
			break
		}

		if err := capture.WriteFrame(s.Engine.Canvas().Image()); err != nil {
			capture.Abort()
			s.Engine.Stop()
			return fail(err)
		}

		due := int64(frames+1) * mixer.SampleRate / int64(fps)
		if n := int(due - pumped); n > 0 {
			if err := s.Graph.Pump(n); err != nil {
				capture.Abort()
				s.Engine.Stop()
				return fail(fmt.Errorf("pump audio: %w", err))
			}
			pumped = due
		}

		frames++
		rep.FrameCaptured(Progress{Frame: frames, Time: res.Time, Total: total})
	}

	rep.StateChanged(StateFinalizing)
	s.Graph.Route(mixer.RouteLive)

	artifact, extras, err := capture.Finalize(ctx)
	if err != nil {
		return fail(err)
	}

	chunks, size := capture.Stats()
	result := Result{
		Artifact:  artifact,
		Extras:    extras,
		Selection: sel,
		Frames:    frames,
		Chunks:    chunks,
		Bytes:     size,
		Duration:  float64(counting.Frames) / mixer.SampleRate,
	}
	rep.Finished(result)
	rep.StateChanged(StateDone)
	log.Infow("export finished", "artifact", artifact, "frames", frames, "duration", result.Duration)
	return result, nil
}

// primeSources rewinds every video source so the first recorded frame shows
// the first clip's trim start, not wherever preview left the playhead.
func (s *Service) primeSources() {
	for _, id := range s.Reg.IDs() {
		h, ok := s.Reg.Get(id)
		if !ok || h.Kind() != source.KindVideo {
			continue
		}
		start := 0.0
		if item, ok := s.Engine.Project().ItemByID(id); ok {
			start = item.TrimStart
		}
		h.Pause()
		if err := h.SetPosition(start); err != nil && s.Log != nil {
			s.Log.Debugw("prime source", "id", id, "error", err)
		}
	}
}

func (s *Service) settle(ctx context.Context) error {
	ms := s.Config.Export.SettleMillis
	if ms <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) selection(ctx context.Context) (tools.Selection, error) {
	if s.Negotiator == nil {
		return tools.FallbackSelection(), nil
	}
	return s.Negotiator.Resolve(ctx)
}

func (s *Service) openCapture(ctx context.Context, opts CaptureOptions) (Capture, error) {
	if s.OpenCapture != nil {
		return s.OpenCapture(ctx, opts)
	}
	if opts.Selection.Builtin {
		return NewMJPEGCapture(ctx, opts)
	}
	return NewFFmpegCapture(ctx, opts)
}
