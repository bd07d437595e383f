package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/paths"
	"montage/pkg/plan"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the project: plan, timeline length, exports",
		RunE:  runStatus,
	}
}

type statusReport struct {
	Root       string   `json:"root"`
	Title      string   `json:"title,omitempty"`
	Items      int      `json:"items"`
	Narration  int      `json:"narration"`
	HasMusic   bool     `json:"has_music"`
	Captions   int      `json:"captions"`
	Total      float64  `json:"total_seconds"`
	PlanIssues int      `json:"plan_issues"`
	Exports    []string `json:"exports"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}
	pp = paths.ApplyPlan(pp, cfg.Plan)

	report := statusReport{Root: pp.Root}

	doc, err := plan.Load(pp.PlanFile)
	var verrs plan.ValidationErrors
	if errors.As(err, &verrs) {
		report.PlanIssues = len(verrs)
	} else if err != nil {
		return err
	}

	if doc != nil {
		report.Title = doc.Title
		report.Items = len(doc.Items)
		report.Narration = len(doc.Narration)
		report.HasMusic = doc.Music != nil
		report.Captions = len(doc.Captions)
		if report.PlanIssues == 0 {
			report.Total = doc.ToProject().Total()
		}
	}

	if entries, err := os.ReadDir(pp.ExportsDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) == ".part" {
				continue
			}
			report.Exports = append(report.Exports, entry.Name())
		}
	}

	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	title := report.Title
	if title == "" {
		title = "(untitled)"
	}
	cmd.Printf("Project %s: %s\n", report.Root, title)
	cmd.Printf("  items: %d  narration: %d  music: %v  captions: %d\n",
		report.Items, report.Narration, report.HasMusic, report.Captions)
	if report.PlanIssues > 0 {
		cmd.Printf("  plan issues: %d (run `montage validate`)\n", report.PlanIssues)
	} else {
		cmd.Printf("  timeline: %.1fs\n", report.Total)
	}
	if len(report.Exports) == 0 {
		cmd.Printf("  exports: none\n")
	} else {
		cmd.Printf("  exports: %d\n", len(report.Exports))
		for _, name := range report.Exports {
			cmd.Printf("    %s\n", name)
		}
	}
	return nil
}
