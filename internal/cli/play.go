package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"montage/internal/mixer"
	"montage/internal/tui"
)

var (
	playFrom  float64
	playExact bool
	playStats bool
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Preview the timeline with synchronized audio",
		RunE:  runPlay,
	}

	cmd.Flags().Float64Var(&playFrom, "from", 0, "Start position in seconds")
	cmd.Flags().BoolVar(&playExact, "exact", false, "Render a single frame-exact frame at --from and exit")
	cmd.Flags().BoolVar(&playStats, "stats", false, "Print per-second loop statistics")
	return cmd
}

func runPlay(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openEngine(ctx, "play")
	if err != nil {
		return err
	}
	defer s.Close()

	if playExact {
		s.engine.Seek(playFrom)
		cmd.Printf("Rendered exact frame at %.3fs (playback paused)\n", s.engine.CurrentTime())
		return nil
	}

	total := s.proj.Total()
	if total <= 0 {
		return fmt.Errorf("timeline is empty, nothing to play")
	}

	mode := tui.DetectMode(cmd.OutOrStdout(), playStats, outputJSON)
	if mode != tui.ModeTUI {
		return playPlain(ctx, cmd, s, total)
	}

	title := s.proj.Title
	if title == "" {
		title = "montage"
	}
	model := tui.NewProgressModel("Playing " + title)
	return tui.RunWithWork(cmd.OutOrStdout(), model, func(send func(tea.Msg)) {
		send(tui.StageMsg{Stage: "playing"})
		err := playLoop(ctx, s, total, func(t float64, frames int) {
			send(tui.ProgressMsg{
				Done:   t,
				Total:  total,
				Detail: fmt.Sprintf("%d frames rendered", frames),
			})
		})
		if err != nil {
			send(tui.ErrorMsg{Err: err})
		}
	})
}

func playPlain(ctx context.Context, cmd *cobra.Command, s *session, total float64) error {
	lastReport := -1
	return playLoop(ctx, s, total, func(t float64, frames int) {
		if !playStats {
			return
		}
		if sec := int(t); sec != lastReport {
			lastReport = sec
			cmd.Printf("t=%.1fs/%0.1fs frames=%d\n", t, total, frames)
		}
	})
}

// playLoop drives the engine in live mode at the configured frame rate,
// pumping the matching share of audio each tick so source positions stay
// honest even with no playback device attached.
func playLoop(ctx context.Context, s *session, total float64, report func(t float64, frames int)) error {
	fps := s.cfg.Canvas.FPS
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	loop := s.engine.Start(playFrom)
	defer s.engine.Stop()

	frames := 0
	var pumped int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			res := loop.Step(now)
			if res.Err != nil {
				return fmt.Errorf("render loop: %w", res.Err)
			}
			if res.Stale || res.Ended {
				return nil
			}
			frames++

			due := int64(frames) * mixer.SampleRate / int64(fps)
			if n := int(due - pumped); n > 0 {
				if err := s.graph.Pump(n); err != nil {
					s.log.Warnw("audio pump failed", "error", err)
				}
				pumped = due
			}

			report(res.Time, frames)
		}
	}
}
