package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/paths"
	"montage/internal/state"
	"montage/pkg/plan"
)

func newSlotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Save and restore plan snapshots",
	}

	cmd.AddCommand(newSlotsSaveCmd())
	cmd.AddCommand(newSlotsLoadCmd())
	cmd.AddCommand(newSlotsListCmd())
	return cmd
}

func newSlotsSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <slot>",
		Short: "Snapshot the current plan into a named slot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSlotsSave,
	}
}

func newSlotsLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <slot>",
		Short: "Restore the plan from a named slot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSlotsLoad,
	}
}

func newSlotsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List slots and their contents",
		RunE:  runSlotsList,
	}
}

func slotStore() (*state.Store, paths.ProjectPaths, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return nil, paths.ProjectPaths{}, err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return nil, paths.ProjectPaths{}, err
	}
	pp = paths.ApplyPlan(pp, cfg.Plan)
	if err := pp.EnsureMetaDirs(); err != nil {
		return nil, paths.ProjectPaths{}, err
	}
	return &state.Store{Dir: pp.MetaDir}, pp, nil
}

func runSlotsSave(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !state.ValidSlot(name) {
		return fmt.Errorf("unknown slot %q; slots are %v", name, state.SlotNames)
	}

	store, pp, err := slotStore()
	if err != nil {
		return err
	}

	doc, err := plan.Load(pp.PlanFile)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(pp.PlanFile)
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}
	// The slot document is JSON; the yaml plan travels as a string field.
	encoded, err := json.Marshal(string(raw))
	if err != nil {
		return err
	}

	saved := state.Document{
		SavedAt: time.Now().UTC(),
		Title:   doc.Title,
		Plan:    encoded,
	}
	if err := store.Save(name, saved); err != nil {
		return err
	}

	cmd.Printf("Saved plan to slot %s\n", name)
	return nil
}

func runSlotsLoad(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !state.ValidSlot(name) {
		return fmt.Errorf("unknown slot %q; slots are %v", name, state.SlotNames)
	}

	store, pp, err := slotStore()
	if err != nil {
		return err
	}

	saved, err := store.Load(name)
	if err != nil {
		return err
	}
	if len(saved.Plan) == 0 {
		return fmt.Errorf("slot %s is empty", name)
	}

	var raw string
	if err := json.Unmarshal(saved.Plan, &raw); err != nil {
		return fmt.Errorf("decode slot %s: %w", name, err)
	}

	// Parse before overwriting so a corrupt snapshot cannot clobber a
	// working plan.
	doc, err := plan.Parse([]byte(raw))
	if err != nil {
		return fmt.Errorf("slot %s holds an invalid plan: %w", name, err)
	}
	if err := plan.Save(pp.PlanFile, doc); err != nil {
		return err
	}

	cmd.Printf("Restored plan from slot %s (saved %s)\n", name, saved.SavedAt.Format(time.RFC3339))
	return nil
}

func runSlotsList(cmd *cobra.Command, _ []string) error {
	store, _, err := slotStore()
	if err != nil {
		return err
	}

	infos := store.List()

	if outputJSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	for _, info := range infos {
		if !info.Exists {
			cmd.Printf("  %s: empty\n", info.Name)
			continue
		}
		title := info.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("  %s: %s, saved %s\n", info.Name, title, info.SavedAt.Format(time.RFC3339))
	}
	return nil
}
