package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/paths"
	"montage/pkg/plan"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the plan and referenced media",
		RunE:  runValidate,
	}
}

type validationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}
	pp = paths.ApplyPlan(pp, cfg.Plan)

	issues := []validationIssue{}

	doc, err := plan.Load(pp.PlanFile)
	var verrs plan.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		for _, pe := range verrs.Issues() {
			issues = append(issues, validationIssue{Path: pe.Path, Message: pe.Message})
		}
	case err != nil:
		return err
	}

	if doc != nil {
		for _, pe := range doc.CheckFiles(pp.MediaDir).Issues() {
			issues = append(issues, validationIssue{Path: pe.Path, Message: pe.Message})
		}
	}

	if outputJSON {
		data, err := json.MarshalIndent(issues, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else if len(issues) == 0 {
		cmd.Printf("Plan OK: %d item(s)\n", len(doc.Items))
	} else {
		for _, issue := range issues {
			cmd.Printf("  %s: %s\n", issue.Path, issue.Message)
		}
	}

	if len(issues) > 0 {
		return fmt.Errorf("plan validation failed with %d issue(s)", len(issues))
	}
	return nil
}
