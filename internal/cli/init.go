package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/logx"
	"montage/internal/paths"
)

const starterPlanYAML = `# Describe your montage here. Items play in order; videos need a trim,
# images need a duration.
# items:
#   - kind: video
#     file: clips/surf.mp4
#     trim:
#       start: 5
#       end: 25
#   - kind: image
#     file: photos/sunset.jpg
#     duration: 4
# music:
#   file: audio/theme.mp3
# captions:
#   - start: 1
#     end: 4
#     text: "Day one"
items: []
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a montage project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if len(args) > 0 {
		if args[0] == "." {
			return cwd, nil
		}
		return filepath.Join(cwd, args[0]), nil
	}

	return nextAvailableDir(cwd)
}

func nextAvailableDir(base string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(base, fmt.Sprintf("montage-%d", i))
		exists, err := paths.DirExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}

	pp, err := paths.Resolve(dir)
	if err != nil {
		return err
	}

	if err := pp.EnsureRoot(); err != nil {
		return err
	}
	if err := pp.EnsureMetaDirs(); err != nil {
		return err
	}

	log, closeLog, err := logx.Open(pp.LogsDir, "init")
	if err != nil {
		return err
	}
	defer closeLog()

	created := make([]string, 0, 3)

	if err := ensurePlan(pp, &created); err != nil {
		return err
	}
	if err := ensureConfig(pp, &created); err != nil {
		return err
	}
	if err := ensureMediaDir(pp, &created); err != nil {
		return err
	}

	log.Infow("project initialized", "root", pp.Root, "created", created)

	if len(created) == 0 {
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	for _, entry := range created {
		cmd.Printf("  created %s\n", entry)
	}
	return nil
}

func ensurePlan(pp paths.ProjectPaths, created *[]string) error {
	exists, err := paths.FileExists(pp.PlanFile)
	if err != nil {
		return fmt.Errorf("check plan: %w", err)
	}
	if exists {
		return nil
	}
	if err := os.WriteFile(pp.PlanFile, []byte(starterPlanYAML), 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	*created = append(*created, filepath.Base(pp.PlanFile))
	return nil
}

func ensureConfig(pp paths.ProjectPaths, created *[]string) error {
	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return fmt.Errorf("check config: %w", err)
	}
	if exists {
		return nil
	}

	cfg := config.Default()
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	*created = append(*created, filepath.Base(pp.ConfigFile))
	return nil
}

func ensureMediaDir(pp paths.ProjectPaths, created *[]string) error {
	exists, err := paths.DirExists(pp.MediaDir)
	if err != nil {
		return fmt.Errorf("check media dir: %w", err)
	}
	if exists {
		return nil
	}
	if err := os.MkdirAll(pp.MediaDir, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	*created = append(*created, filepath.Base(pp.MediaDir)+string(os.PathSeparator))
	return nil
}
