package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/logx"
	"montage/internal/paths"
	"montage/internal/source"
	"montage/internal/tools"
	"montage/pkg/plan"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Probe media durations and record them in the plan",
		RunE:  runProbe,
	}
}

type probeResult struct {
	File     string  `json:"file"`
	Duration float64 `json:"duration,omitempty"`
	Error    string  `json:"error,omitempty"`
}

func runProbe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}
	pp = paths.ApplyPlan(pp, cfg.Plan)
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	log, closeLog, err := logx.Open(pp.LogsDir, "probe")
	if err != nil {
		return err
	}
	defer closeLog()

	doc, err := plan.Load(pp.PlanFile)
	if err != nil {
		return err
	}

	fp := tools.Detect(ctx)[tools.FFprobe]
	if !fp.Available {
		return fmt.Errorf("ffprobe not found on PATH")
	}

	runner := source.CmdRunner{}
	var results []probeResult
	dirty := false

	probeOne := func(file string) probeResult {
		info, err := source.Probe(ctx, runner, fp.Path, plan.ResolveFile(pp.MediaDir, file))
		if err != nil {
			log.Warnw("probe failed", "file", file, "error", err)
			return probeResult{File: file, Error: err.Error()}
		}
		return probeResult{File: file, Duration: info.Duration}
	}

	for i := range doc.Items {
		it := &doc.Items[i]
		if it.Kind != "video" {
			continue
		}
		res := probeOne(it.File)
		results = append(results, res)
		if res.Error == "" && res.Duration > 0 && it.Natural != res.Duration {
			it.Natural = res.Duration
			dirty = true
		}
	}

	probeTrack := func(tr *plan.TrackSpec) {
		res := probeOne(tr.File)
		results = append(results, res)
		if res.Error == "" && res.Duration > 0 && tr.Duration != res.Duration {
			tr.Duration = res.Duration
			dirty = true
		}
	}
	if doc.Music != nil {
		probeTrack(doc.Music)
	}
	for i := range doc.Narration {
		probeTrack(&doc.Narration[i])
	}

	if dirty {
		if err := plan.Save(pp.PlanFile, doc); err != nil {
			return err
		}
		log.Infow("plan updated with probed durations", "entries", len(results))
	}

	if outputJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	failures := 0
	for _, res := range results {
		if res.Error != "" {
			failures++
			cmd.Printf("  %-30s error: %s\n", res.File, res.Error)
			continue
		}
		cmd.Printf("  %-30s %.2fs\n", res.File, res.Duration)
	}
	if dirty {
		cmd.Printf("Updated %s\n", pp.PlanFile)
	}
	if failures > 0 {
		return fmt.Errorf("probe failed for %d file(s)", failures)
	}
	return nil
}
