package tui

// StageMsg announces a pipeline stage change ("priming", "recording", ...).
type StageMsg struct {
	Stage string
}

// ProgressMsg updates the bar and the stats line.
type ProgressMsg struct {
	// Done and Total are in seconds of timeline.
	Done  float64
	Total float64
	// Detail is the free-form stats text under the bar.
	Detail string
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
