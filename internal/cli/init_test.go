package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveInitDir(t *testing.T) {
	t.Run("project flag takes precedence", func(t *testing.T) {
		dir, err := resolveInitDir("/custom/path", []string{"ignored"})
		if err != nil {
			t.Fatal(err)
		}
		if dir != "/custom/path" {
			t.Fatalf("got %s, want /custom/path", dir)
		}
	})

	t.Run("dot uses cwd", func(t *testing.T) {
		cwd, _ := os.Getwd()
		dir, err := resolveInitDir("", []string{"."})
		if err != nil {
			t.Fatal(err)
		}
		if dir != cwd {
			t.Fatalf("got %s, want %s", dir, cwd)
		}
	})

	t.Run("named arg creates subdirectory", func(t *testing.T) {
		cwd, _ := os.Getwd()
		dir, err := resolveInitDir("", []string{"my-trip"})
		if err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(cwd, "my-trip")
		if dir != want {
			t.Fatalf("got %s, want %s", dir, want)
		}
	})
}

func TestNextAvailableDir(t *testing.T) {
	base := t.TempDir()

	dir, err := nextAvailableDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(base, "montage-1"); dir != want {
		t.Fatalf("got %s, want %s", dir, want)
	}

	if err := os.Mkdir(filepath.Join(base, "montage-1"), 0o755); err != nil {
		t.Fatal(err)
	}
	dir, err = nextAvailableDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(base, "montage-2"); dir != want {
		t.Fatalf("got %s, want %s", dir, want)
	}
}

func TestInitCreatesProjectScaffold(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "trip")

	prevProject := projectDir
	projectDir = dir
	t.Cleanup(func() { projectDir = prevProject })

	cmd := newInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	if err := runInit(cmd, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	for _, want := range []string{"montage.yaml", "montage.config.yaml", "media"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Fatalf("missing %s: %v", want, err)
		}
	}
	if !strings.Contains(out.String(), "Initialized project") {
		t.Fatalf("output: %s", out.String())
	}

	// A second run is a no-op.
	out.Reset()
	if err := runInit(cmd, nil); err != nil {
		t.Fatalf("second runInit: %v", err)
	}
	if !strings.Contains(out.String(), "already initialized") {
		t.Fatalf("output: %s", out.String())
	}
}
