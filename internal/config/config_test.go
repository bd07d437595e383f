package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "montage.config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.Width != 1280 || cfg.Canvas.Height != 720 || cfg.Canvas.FPS != 30 {
		t.Fatalf("canvas defaults=%+v", cfg.Canvas)
	}
	if cfg.Playback.LiveDriftTolerance != 0.8 || cfg.Playback.ExactDriftTolerance != 0.05 {
		t.Fatalf("playback defaults=%+v", cfg.Playback)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("defaults fail validation: %v", errs)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "canvas:\n  width: 1920\n  height: 1080\nplayback:\n  lookahead: 2.5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.Width != 1920 || cfg.Canvas.Height != 1080 {
		t.Fatalf("canvas=%+v, want explicit values kept", cfg.Canvas)
	}
	if cfg.Canvas.FPS != 30 {
		t.Fatalf("fps=%d, want default 30", cfg.Canvas.FPS)
	}
	if cfg.Playback.Lookahead != 2.5 {
		t.Fatalf("lookahead=%v, want 2.5", cfg.Playback.Lookahead)
	}
	if cfg.Playback.MaxConsecutiveFailures != 120 {
		t.Fatalf("failure ceiling=%d, want default 120", cfg.Playback.MaxConsecutiveFailures)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("canvas: [not a map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Canvas.Width = 640
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Canvas.Width != 640 {
		t.Fatalf("round trip lost canvas.width: %+v", got.Canvas)
	}
}

func TestValidateFieldPaths(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero width",
			mutate:  func(c *Config) { c.Canvas.Width = -1 },
			wantErr: "canvas.width",
		},
		{
			name:    "fps too high",
			mutate:  func(c *Config) { c.Canvas.FPS = 500 },
			wantErr: "canvas.fps",
		},
		{
			name:    "negative live tolerance",
			mutate:  func(c *Config) { c.Playback.LiveDriftTolerance = -0.5 },
			wantErr: "playback.live_drift_tolerance: must be positive",
		},
		{
			name:    "exact above live",
			mutate:  func(c *Config) { c.Playback.ExactDriftTolerance = 1.0 },
			wantErr: "playback.exact_drift_tolerance: must be below",
		},
		{
			name:    "failure ceiling zero",
			mutate:  func(c *Config) { c.Playback.MaxConsecutiveFailures = -2 },
			wantErr: "playback.max_consecutive_failures",
		},
		{
			name:    "bad caption position",
			mutate:  func(c *Config) { c.Captions.Position = "left" },
			wantErr: "captions.position",
		},
		{
			name:    "empty export template",
			mutate:  func(c *Config) { c.Export.Template = "" },
			wantErr: "export.template",
		},
		{
			name:    "ramp out of range",
			mutate:  func(c *Config) { c.Audio.RampMillis = 5000 },
			wantErr: "audio.ramp_ms",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatalf("no validation error")
			}
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tc.wantErr) {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("errors %v missing %q", errs, tc.wantErr)
			}
		})
	}
}
