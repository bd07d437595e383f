package cli

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"montage/internal/export"
	"montage/internal/tui"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Record the timeline into a single video artifact",
		RunE:  runExport,
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openEngine(ctx, "export")
	if err != nil {
		return err
	}
	defer s.Close()

	svc := &export.Service{
		Paths:      s.pp,
		Config:     s.cfg,
		Engine:     s.engine,
		Graph:      s.graph,
		Reg:        s.reg,
		Negotiator: s.negotiator(ctx),
		FFmpeg:     s.ffmpeg,
		Log:        s.log,
	}

	mode := tui.DetectMode(cmd.OutOrStdout(), false, outputJSON)
	if mode != tui.ModeTUI {
		res, err := svc.Run(ctx, export.Options{})
		if err != nil {
			return err
		}
		return writeExportResult(cmd, res)
	}

	title := s.proj.Title
	if title == "" {
		title = "montage"
	}
	var res export.Result
	model := tui.NewProgressModel("Exporting " + title)
	err = tui.RunWithWork(cmd.OutOrStdout(), model, func(send func(tea.Msg)) {
		rep := tui.NewExportReporter(send)
		var runErr error
		res, runErr = svc.Run(ctx, export.Options{Reporter: rep})
		if runErr != nil {
			send(tui.ErrorMsg{Err: runErr})
		}
	})
	if err != nil {
		return err
	}
	return writeExportResult(cmd, res)
}

func writeExportResult(cmd *cobra.Command, res export.Result) error {
	if outputJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	cmd.Printf("Exported %s\n", res.Artifact)
	cmd.Printf("  %d frames, %.1fs audio, %d chunks\n", res.Frames, res.Duration, res.Chunks)
	for _, extra := range res.Extras {
		cmd.Printf("  companion %s\n", extra)
	}
	return nil
}
