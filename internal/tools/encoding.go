package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const (
	encodingProfileFile = "encoding_profile.json"
	// DefaultProfileTTL is how long a cached probe result stays trusted.
	DefaultProfileTTL = 7 * 24 * time.Hour
)

// CodecFamily groups encoder candidates by container technology, in
// preference order within the family.
type CodecFamily struct {
	Name      string
	Container string
	Codecs    []string
}

// CodecFamilies lists the supported families in fixed preference order. The
// MJPEG family is the guaranteed fallback: it is served by the built-in AVI
// writer and needs no ffmpeg encoder at all.
var CodecFamilies = []CodecFamily{
	{"H.264", "mp4", []string{"h264_videotoolbox", "h264_nvenc", "h264_amf", "libx264"}},
	{"VP9", "webm", []string{"libvpx-vp9"}},
	{"MJPEG", "avi", nil},
}

// Selection is the negotiated encoder choice.
type Selection struct {
	Family    string `json:"family"`
	Codec     string `json:"codec,omitempty"`
	Container string `json:"container"`
	// Builtin means the selection is served by the in-process MJPEG/AVI
	// writer instead of an ffmpeg encode pipe.
	Builtin bool `json:"builtin"`
}

// Ext returns the artifact file extension for the selection.
func (s Selection) Ext() string { return s.Container }

// FallbackSelection is the always-available MJPEG/AVI choice.
func FallbackSelection() Selection {
	return Selection{Family: "MJPEG", Container: "avi", Builtin: true}
}

// EncodingProfile is the cached result of encoder probing, keyed to the host
// it was probed on.
type EncodingProfile struct {
	Selected        Selection           `json:"selected"`
	AvailableCodecs map[string][]string `json:"available_codecs"`
	Hostname        string              `json:"hostname"`
	GOOS            string              `json:"goos"`
	FFmpegVersion   string              `json:"ffmpeg_version"`
	ProbedAt        time.Time           `json:"probed_at"`
}

// Prober reports whether one encoder candidate actually works. The default
// runs a one-frame lavfi test encode; tests inject fakes.
type Prober func(ctx context.Context, codec string) bool

// FFmpegProber builds the real prober against an ffmpeg binary.
func FFmpegProber(ffmpegPath string) Prober {
	return func(ctx context.Context, codec string) bool {
		args := []string{
			"-f", "lavfi",
			"-i", "color=black:s=64x64:d=1:r=1",
			"-c:v", codec,
			"-frames:v", "1",
			"-f", "null",
			"-",
		}
		cmd := exec.CommandContext(ctx, ffmpegPath, args...)
		return cmd.Run() == nil
	}
}

// ProbeEncoders runs every candidate through the prober and selects the
// first working codec in the first viable family. Identical probe results
// always produce an identical selection. No working candidate means the
// MJPEG fallback, never an error.
func ProbeEncoders(ctx context.Context, probe Prober, ffmpegVersion string) EncodingProfile {
	hostname, _ := os.Hostname()
	profile := EncodingProfile{
		Hostname:        hostname,
		GOOS:            runtime.GOOS,
		FFmpegVersion:   ffmpegVersion,
		ProbedAt:        time.Now(),
		AvailableCodecs: make(map[string][]string),
	}

	for _, family := range CodecFamilies {
		for _, codec := range family.Codecs {
			if probe == nil || !probe(ctx, codec) {
				continue
			}
			profile.AvailableCodecs[family.Name] = append(profile.AvailableCodecs[family.Name], codec)
			if profile.Selected.Codec == "" && !profile.Selected.Builtin {
				profile.Selected = Selection{Family: family.Name, Codec: codec, Container: family.Container}
			}
		}
	}

	if profile.Selected.Codec == "" {
		profile.Selected = FallbackSelection()
	}
	return profile
}

// Negotiator resolves the export encoder, preferring a fresh cached profile
// over a new probe round.
type Negotiator struct {
	// Dir is where the profile cache lives (the project meta dir).
	Dir string
	// TTL bounds profile freshness. Zero means DefaultProfileTTL.
	TTL time.Duration
	// Probe proves encoder candidates. Nil with no cache yields the
	// MJPEG fallback.
	Probe Prober
	// FFmpegVersion keys the cache; a version change forces a reprobe.
	FFmpegVersion string
}

// Resolve returns the encoder selection, probing only when the cache is
// missing, stale, or from a different host or ffmpeg build.
func (n *Negotiator) Resolve(ctx context.Context) (Selection, error) {
	if cached := n.loadProfile(); cached != nil {
		return cached.Selected, nil
	}

	profile := ProbeEncoders(ctx, n.Probe, n.FFmpegVersion)
	if err := n.saveProfile(profile); err != nil {
		return profile.Selected, fmt.Errorf("cache encoding profile: %w", err)
	}
	return profile.Selected, nil
}

// Invalidate drops the cached profile so the next Resolve reprobes.
func (n *Negotiator) Invalidate() error {
	if err := os.Remove(n.profilePath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CachedProfile returns the valid cached profile, or nil.
func (n *Negotiator) CachedProfile() *EncodingProfile { return n.loadProfile() }

func (n *Negotiator) profilePath() string {
	return filepath.Join(n.Dir, encodingProfileFile)
}

func (n *Negotiator) ttl() time.Duration {
	if n.TTL > 0 {
		return n.TTL
	}
	return DefaultProfileTTL
}

// loadProfile returns nil when the cache is missing, unreadable, expired, or
// keyed to a different host fingerprint.
func (n *Negotiator) loadProfile() *EncodingProfile {
	data, err := os.ReadFile(n.profilePath())
	if err != nil {
		return nil
	}
	var profile EncodingProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil
	}
	if time.Since(profile.ProbedAt) > n.ttl() {
		return nil
	}
	hostname, _ := os.Hostname()
	if profile.GOOS != runtime.GOOS || profile.Hostname != hostname {
		return nil
	}
	if profile.FFmpegVersion != n.FFmpegVersion {
		return nil
	}
	if profile.Selected.Container == "" {
		return nil
	}
	return &profile
}

func (n *Negotiator) saveProfile(profile EncodingProfile) error {
	if err := os.MkdirAll(n.Dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(n.profilePath(), data, 0o644)
}
