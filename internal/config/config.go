// Package config holds the project-level yaml configuration: canvas
// geometry, playback tolerances, caption styling, audio smoothing, and
// export behavior.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the full montage project configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Plan     string         `yaml:"plan,omitempty"`
	Canvas   CanvasConfig   `yaml:"canvas"`
	Playback PlaybackConfig `yaml:"playback"`
	Audio    AudioConfig    `yaml:"audio"`
	Captions CaptionConfig  `yaml:"captions"`
	Export   ExportConfig   `yaml:"export"`
}

// CanvasConfig sizes the drawing surface.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// PlaybackConfig tunes the render loop's two precision regimes.
type PlaybackConfig struct {
	// LiveDriftTolerance is the seek threshold during smooth playback.
	LiveDriftTolerance float64 `yaml:"live_drift_tolerance"`
	// ExactDriftTolerance is the seek threshold for scrub/pause/export.
	ExactDriftTolerance float64 `yaml:"exact_drift_tolerance"`
	// Lookahead is how early the next clip is prepositioned, in seconds.
	Lookahead float64 `yaml:"lookahead"`
	// MaxConsecutiveFailures stops a silently failing loop.
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`
}

// AudioConfig tunes the mixing graph.
type AudioConfig struct {
	// RampMillis is the gain smoothing time constant.
	RampMillis float64 `yaml:"ramp_ms"`
}

// CaptionConfig is the default caption style; per-caption overrides in the
// plan win field by field.
type CaptionConfig struct {
	FontFile   string  `yaml:"font_file,omitempty"`
	Size       float64 `yaml:"size"`
	Color      string  `yaml:"color"`
	Background string  `yaml:"background"`
	Position   string  `yaml:"position"`
}

// ExportConfig shapes the export pipeline.
type ExportConfig struct {
	// Template names the artifact; $STAMP and $TITLE expand, $EXT is
	// appended from the negotiated container.
	Template string `yaml:"template"`
	// SettleMillis is the priming delay before recording starts.
	SettleMillis int `yaml:"settle_ms"`
	// ProfileTTLDays bounds the cached encoder probe.
	ProfileTTLDays int `yaml:"profile_ttl_days"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Plan:    "montage.yaml",
		Canvas: CanvasConfig{
			Width:  1280,
			Height: 720,
			FPS:    30,
		},
		Playback: PlaybackConfig{
			LiveDriftTolerance:     0.8,
			ExactDriftTolerance:    0.05,
			Lookahead:              1.5,
			MaxConsecutiveFailures: 120,
		},
		Audio: AudioConfig{
			RampMillis: 50,
		},
		Captions: CaptionConfig{
			Size:       36,
			Color:      "#ffffff",
			Background: "#00000080",
			Position:   "bottom",
		},
		Export: ExportConfig{
			Template:       "montage_$STAMP",
			SettleMillis:   150,
			ProfileTTLDays: 7,
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise
// returns the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills nested fields the YAML omitted.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Plan == "" {
		c.Plan = defaults.Plan
	}
	if c.Canvas.Width == 0 {
		c.Canvas.Width = defaults.Canvas.Width
	}
	if c.Canvas.Height == 0 {
		c.Canvas.Height = defaults.Canvas.Height
	}
	if c.Canvas.FPS == 0 {
		c.Canvas.FPS = defaults.Canvas.FPS
	}
	if c.Playback.LiveDriftTolerance == 0 {
		c.Playback.LiveDriftTolerance = defaults.Playback.LiveDriftTolerance
	}
	if c.Playback.ExactDriftTolerance == 0 {
		c.Playback.ExactDriftTolerance = defaults.Playback.ExactDriftTolerance
	}
	if c.Playback.Lookahead == 0 {
		c.Playback.Lookahead = defaults.Playback.Lookahead
	}
	if c.Playback.MaxConsecutiveFailures == 0 {
		c.Playback.MaxConsecutiveFailures = defaults.Playback.MaxConsecutiveFailures
	}
	if c.Audio.RampMillis == 0 {
		c.Audio.RampMillis = defaults.Audio.RampMillis
	}
	if c.Captions.Size == 0 {
		c.Captions.Size = defaults.Captions.Size
	}
	if c.Captions.Color == "" {
		c.Captions.Color = defaults.Captions.Color
	}
	if c.Captions.Background == "" {
		c.Captions.Background = defaults.Captions.Background
	}
	if c.Captions.Position == "" {
		c.Captions.Position = defaults.Captions.Position
	}
	if c.Export.Template == "" {
		c.Export.Template = defaults.Export.Template
	}
	if c.Export.SettleMillis == 0 {
		c.Export.SettleMillis = defaults.Export.SettleMillis
	}
	if c.Export.ProfileTTLDays == 0 {
		c.Export.ProfileTTLDays = defaults.Export.ProfileTTLDays
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
