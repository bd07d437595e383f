// Package export captures the composited output into a single encoded
// artifact: it primes the engine, records the canvas and the mixed audio at
// a fixed frame rate through the same render loop preview uses, and
// finalizes the accumulated chunks into a downloadable file.
package export

import "montage/internal/tools"

// State is the export pipeline's lifecycle position.
type State string

const (
	StateIdle       State = "idle"
	StatePriming    State = "priming"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Progress is a per-frame recording update.
type Progress struct {
	Frame int
	Time  float64
	Total float64
}

// Result describes a completed export.
type Result struct {
	Artifact  string
	Extras    []string
	Selection tools.Selection
	Frames    int
	Chunks    int64
	Bytes     int64
	Duration  float64
}

// Reporter receives export lifecycle events. Implementations must be cheap;
// they are called from the drive loop.
type Reporter interface {
	StateChanged(s State)
	FrameCaptured(p Progress)
	Finished(r Result)
	Failed(err error)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) StateChanged(State)     {}
func (NopReporter) FrameCaptured(Progress) {}
func (NopReporter) Finished(Result)        {}
func (NopReporter) Failed(error)           {}
