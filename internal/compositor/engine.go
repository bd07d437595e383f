// Package compositor drives the synchronized render loop: it maps the
// global timeline to an active visual item, keeps source playheads and
// audio gains consistent with it under two precision regimes, and draws the
// composited frame.
//
// The Engine owns all mutable playback state and is not safe for concurrent
// use. Exactly one goroutine drives it: a preview loop, the export service,
// or a TUI update loop. Other goroutines talk to that driver by message
// passing, never to the Engine directly.
package compositor

import (
	"math"
	"time"

	"go.uber.org/zap"

	"montage/internal/mixer"
	"montage/internal/source"
	"montage/internal/timeline"
)

// Mode selects the timing regime for one render pass.
type Mode int

const (
	// ModeLive favors smoothness: positions are corrected only past a wide
	// drift tolerance and paused sources are resumed opportunistically.
	ModeLive Mode = iota
	// ModeExact favors correctness: any drift past a tight tolerance is
	// corrected, non-active sources pause, and the active source is
	// silenced so seeks cannot pop.
	ModeExact
)

func (m Mode) String() string {
	if m == ModeExact {
		return "exact"
	}
	return "live"
}

// Config carries the engine tolerances.
type Config struct {
	// LiveTolerance is the drift allowed during live playback before a
	// source is re-seeked.
	LiveTolerance float64
	// ExactTolerance is the drift allowed in exact mode.
	ExactTolerance float64
	// Lookahead is how close to a clip boundary the next video source is
	// prepositioned.
	Lookahead float64
	// MaxConsecutiveFailures stops the loop once this many steps in a row
	// fail, instead of failing silently forever. Zero means the default.
	MaxConsecutiveFailures int
}

const (
	defaultLiveTolerance  = 0.8
	defaultExactTolerance = 0.05
	defaultLookahead      = 1.5
	defaultFailureCeiling = 120
)

func (c Config) withDefaults() Config {
	if c.LiveTolerance <= 0 {
		c.LiveTolerance = defaultLiveTolerance
	}
	if c.ExactTolerance <= 0 {
		c.ExactTolerance = defaultExactTolerance
	}
	if c.Lookahead <= 0 {
		c.Lookahead = defaultLookahead
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = defaultFailureCeiling
	}
	return c
}

// Options wires an Engine.
type Options struct {
	Config   Config
	Logger   *zap.SugaredLogger
	Clock    func() time.Time
	Captions *CaptionRenderer
}

// Engine is the orchestrator: given a query time and a mode it resolves the
// active item, positions sources, draws the frame, and updates every audio
// path's gain target.
type Engine struct {
	cfg     Config
	project *timeline.Project
	reg     *source.Registry
	graph   *mixer.Graph
	canvas  *Canvas
	caps    *CaptionRenderer
	log     *zap.SugaredLogger
	now     func() time.Time

	current  float64
	playing  bool
	anchor   time.Time
	gen      uint64
	failures int
}

// NewEngine builds an engine over the given project, registry, graph, and
// canvas.
func NewEngine(project *timeline.Project, reg *source.Registry, graph *mixer.Graph, canvas *Canvas, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:     opts.Config.withDefaults(),
		project: project,
		reg:     reg,
		graph:   graph,
		canvas:  canvas,
		caps:    opts.Captions,
		log:     log,
		now:     now,
	}
}

// CurrentTime is the externally visible playback position.
func (e *Engine) CurrentTime() float64 { return e.current }

// Playing reports whether a live loop is active.
func (e *Engine) Playing() bool { return e.playing }

// Canvas exposes the drawing surface for capture.
func (e *Engine) Canvas() *Canvas { return e.canvas }

// Project exposes the played project.
func (e *Engine) Project() *timeline.Project { return e.project }

// Loop is a handle to one playback session. A Loop from before the most
// recent Start/Stop/Seek is stale: its steps do nothing, which is how a new
// start cancels any step still scheduled from the previous session.
type Loop struct {
	engine *Engine
	gen    uint64
}

// StepResult reports what one scheduled step did.
type StepResult struct {
	// Stale means the loop was superseded; nothing happened.
	Stale bool
	// Ended means playback reached the end of the timeline (or the item
	// list emptied) and the loop stopped.
	Ended bool
	// Time is the playback position after the step.
	Time float64
	// Err is set only when the consecutive-failure ceiling stopped the
	// loop. Per-frame errors never surface here.
	Err error
}

// Start anchors a live playback session at the given position and returns
// its loop handle. Any previously scheduled step becomes stale.
func (e *Engine) Start(from float64) *Loop {
	if from < 0 || math.IsNaN(from) || math.IsInf(from, 0) {
		from = 0
	}
	e.gen++
	e.playing = true
	e.failures = 0
	e.current = from
	e.anchor = e.now().Add(-time.Duration(from * float64(time.Second)))
	e.log.Debugw("playback started", "from", from, "generation", e.gen)
	return &Loop{engine: e, gen: e.gen}
}

// Stop ends the current session: pending steps become stale, sources pause,
// and every gain ramps to silence.
func (e *Engine) Stop() {
	e.gen++
	e.playing = false
	e.pauseAll()
	e.graph.SilenceAll()
	e.log.Debugw("playback stopped", "at", e.current)
}

// Seek forces one exact-mode render at t. Playback pauses; a pending step
// from a live loop becomes stale.
func (e *Engine) Seek(t float64) {
	total := e.project.Total()
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > total {
		t = total
	}
	e.gen++
	e.playing = false
	e.current = t
	if err := e.render(t, ModeExact); err != nil {
		e.log.Warnw("seek render failed", "t", t, "error", err)
	}
}

// Render runs one composite pass at t in the given mode without touching
// the play state. Per-frame failures are returned for observability but the
// canvas and graph are always left in a consistent state.
func (e *Engine) Render(t float64, mode Mode) error {
	return e.render(t, mode)
}

// Step advances a live session. The driver schedules the next step only
// while Ended, Stale, and Err are all clear.
func (l *Loop) Step(now time.Time) StepResult {
	e := l.engine
	if l.gen != e.gen || !e.playing {
		return StepResult{Stale: true}
	}

	if len(e.project.Items) == 0 {
		e.stopSession()
		return StepResult{Ended: true, Time: 0}
	}

	total := e.project.Total()
	elapsed := now.Sub(e.anchor).Seconds()
	if elapsed >= total {
		e.current = total
		e.stopSession()
		e.log.Debugw("playback ended", "total", total)
		return StepResult{Ended: true, Time: total}
	}
	if elapsed < 0 {
		elapsed = 0
	}

	e.current = elapsed
	if err := e.render(elapsed, ModeLive); err != nil {
		e.failures++
		e.log.Warnw("render step failed", "t", elapsed, "consecutive", e.failures, "error", err)
		if e.failures >= e.cfg.MaxConsecutiveFailures {
			e.stopSession()
			return StepResult{Time: elapsed, Err: err}
		}
	} else {
		e.failures = 0
	}
	return StepResult{Time: elapsed}
}

// stopSession ends playback without invalidating the calling loop's view of
// the generation; callers that must also cancel pending steps use Stop.
func (e *Engine) stopSession() {
	e.playing = false
	e.pauseAll()
	e.graph.SilenceAll()
}

func (e *Engine) pauseAll() {
	for _, id := range e.reg.IDs() {
		if h, ok := e.reg.Get(id); ok {
			h.Pause()
		}
	}
}
