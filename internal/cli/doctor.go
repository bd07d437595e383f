package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/paths"
	"montage/internal/tools"
	"montage/pkg/plan"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check project health",
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	var checks []healthCheck

	checks = append(checks, checkTools(ctx))

	cfg, cfgErr := config.Load(pp.ConfigFile)
	checks = append(checks, checkConfig(cfg, cfgErr))

	if cfgErr == nil {
		pp = paths.ApplyPlan(pp, cfg.Plan)
		checks = append(checks, checkPlan(pp))
		checks = append(checks, checkEncoder(pp, cfg))
	}

	return writeDoctorResult(cmd, pp.Root, checks)
}

func checkTools(ctx context.Context) healthCheck {
	detected := tools.Detect(ctx)

	var available []string
	var missing []string
	for _, name := range []string{tools.FFmpeg, tools.FFprobe} {
		info := detected[name]
		if info.Available {
			label := info.Name
			if info.Version != "" {
				label += " " + info.Version
			}
			available = append(available, label)
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return healthCheck{Name: "Tools", Status: "ok", Summary: joinComma(available)}
	}
	// Playback degrades without ffmpeg but export still has the built-in
	// MJPEG path, so missing tools warn rather than fail.
	return healthCheck{
		Name:    "Tools",
		Status:  "warning",
		Summary: fmt.Sprintf("missing %s; export falls back to the built-in AVI writer", joinComma(missing)),
	}
}

func checkConfig(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}
	if issues := cfg.Validate(); len(issues) > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%d problem(s); run `montage config write`", len(issues))}
	}
	summary := fmt.Sprintf("%dx%d @ %dfps", cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.FPS)
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkPlan(pp paths.ProjectPaths) healthCheck {
	doc, err := plan.Load(pp.PlanFile)
	if err != nil {
		return healthCheck{Name: "Plan", Status: "error", Summary: err.Error()}
	}

	if errs := doc.CheckFiles(pp.MediaDir); len(errs) > 0 {
		return healthCheck{Name: "Plan", Status: "warning", Summary: fmt.Sprintf("%d media file(s) missing", len(errs))}
	}

	summary := fmt.Sprintf("%d items", len(doc.Items))
	if doc.Music != nil {
		summary += ", music"
	}
	if n := len(doc.Narration); n > 0 {
		summary += fmt.Sprintf(", %d narration", n)
	}
	return healthCheck{Name: "Plan", Status: "ok", Summary: summary}
}

func checkEncoder(pp paths.ProjectPaths, cfg config.Config) healthCheck {
	neg := &tools.Negotiator{
		Dir: pp.MetaDir,
		TTL: time.Duration(cfg.Export.ProfileTTLDays) * 24 * time.Hour,
	}
	profile := neg.CachedProfile()
	if profile == nil {
		return healthCheck{Name: "Encoder", Status: "warning", Summary: "not probed yet; first export will negotiate"}
	}

	sel := profile.Selected
	summary := fmt.Sprintf("%s/%s", sel.Family, sel.Container)
	if sel.Codec != "" {
		summary = fmt.Sprintf("%s (%s)", summary, sel.Codec)
	}
	return healthCheck{Name: "Encoder", Status: "ok", Summary: summary}
}

func writeDoctorResult(cmd *cobra.Command, projectRoot string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+projectRoot)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-10s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}

func joinComma(items []string) string {
	if len(items) == 0 {
		return ""
	}
	result := items[0]
	for _, item := range items[1:] {
		result += ", " + item
	}
	return result
}
