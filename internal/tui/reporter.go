package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"montage/internal/export"
)

// ExportReporter adapts bubbletea message sending to export.Reporter so the
// recording pipeline can drive the progress display without knowing about
// the terminal.
type ExportReporter struct {
	send func(tea.Msg)
}

// NewExportReporter constructs a reporter over a program send function.
func NewExportReporter(send func(tea.Msg)) *ExportReporter {
	return &ExportReporter{send: send}
}

// StateChanged implements export.Reporter.
func (r *ExportReporter) StateChanged(s export.State) {
	r.send(StageMsg{Stage: string(s)})
}

// FrameCaptured implements export.Reporter.
func (r *ExportReporter) FrameCaptured(p export.Progress) {
	r.send(ProgressMsg{
		Done:   p.Time,
		Total:  p.Total,
		Detail: fmt.Sprintf("%d frames captured", p.Frame),
	})
}

// Finished implements export.Reporter.
func (r *ExportReporter) Finished(res export.Result) {
	r.send(ProgressMsg{
		Done:   res.Duration,
		Total:  res.Duration,
		Detail: fmt.Sprintf("%s (%d frames, %d chunks)", res.Artifact, res.Frames, res.Chunks),
	})
}

// Failed implements export.Reporter.
func (r *ExportReporter) Failed(err error) {
	r.send(ErrorMsg{Err: err})
}

var _ export.Reporter = (*ExportReporter)(nil)
