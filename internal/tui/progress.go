package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const barWidth = 40

// ProgressModel is a bubbletea model rendering one staged operation: a
// title, the current stage with a spinner, a timeline progress bar, and a
// free-form stats line. Playback and export share it.
type ProgressModel struct {
	title  string
	stage  string
	detail string

	done  float64
	total float64

	spin spinner.Model
	bar  progress.Model

	finished bool
	err      error
}

// NewProgressModel creates a model titled for the operation it will track.
func NewProgressModel(title string) ProgressModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle))
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = barWidth
	return ProgressModel{title: title, stage: "starting", spin: sp, bar: bar}
}

// Init satisfies the tea.Model interface.
func (m ProgressModel) Init() tea.Cmd {
	return m.spin.Tick
}

// Update satisfies the tea.Model interface.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case StageMsg:
		m.stage = msg.Stage
		return m, nil

	case ProgressMsg:
		m.done = msg.Done
		m.total = msg.Total
		m.detail = msg.Detail
		return m, nil

	case WorkDoneMsg:
		m.finished = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.finished = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.finished = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m ProgressModel) View() string {
	if m.finished && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteByte('\n')

	if m.finished {
		b.WriteString(StageStyle("done").Render("done"))
	} else {
		b.WriteString(m.spin.View())
		b.WriteString(StageStyle(m.stage).Render(m.stage))
	}
	b.WriteByte('\n')

	b.WriteString(m.bar.ViewAs(m.percent()))
	fmt.Fprintf(&b, "  %s / %s\n", formatClock(m.done), formatClock(m.total))

	if m.detail != "" {
		b.WriteString(DetailStyle.Render(m.detail))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m ProgressModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	p := m.done / m.total
	if p > 1 {
		p = 1
	}
	return p
}

// Done returns whether the model has finished (work done or error).
func (m ProgressModel) Done() bool {
	return m.finished
}

// Err returns any fatal error that occurred.
func (m ProgressModel) Err() error {
	return m.err
}

// Stage returns the last announced stage.
func (m ProgressModel) Stage() string {
	return m.stage
}

func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
