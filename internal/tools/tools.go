// Package tools locates the external ffmpeg/ffprobe binaries and negotiates
// the export encoder deterministically, caching probe results per host.
package tools

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Known tool names. The MJPEG fallback needs neither; everything else in the
// pipeline degrades gracefully when a tool is missing.
const (
	FFmpeg  = "ffmpeg"
	FFprobe = "ffprobe"
)

// ToolInfo captures availability and version details for an external tool.
type ToolInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Detect discovers ffmpeg and ffprobe on the system PATH along with their
// versions. A missing tool is reported, not an error.
func Detect(ctx context.Context) map[string]ToolInfo {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	names := []string{FFmpeg, FFprobe}
	result := make(map[string]ToolInfo, len(names))
	for _, name := range names {
		result[name] = detectOne(ctx, name)
	}
	return result
}

func detectOne(ctx context.Context, name string) ToolInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ToolInfo{Name: name, Available: false, Error: "not found in PATH"}
		}
		return ToolInfo{Name: name, Available: false, Error: err.Error()}
	}

	version, err := readVersion(ctx, path)
	if err != nil {
		return ToolInfo{Name: name, Path: path, Available: true, Error: err.Error()}
	}
	return ToolInfo{Name: name, Path: path, Version: version, Available: true}
}

func readVersion(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, path, "-version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return ParseVersionLine(firstLine(strings.TrimSpace(string(output)))), nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

var versionRegex = regexp.MustCompile(`([0-9]+)(?:\.([0-9]+))?(?:\.([0-9]+))?`)

// ParseVersionLine pulls the numeric version out of an ffmpeg/ffprobe banner
// line ("ffmpeg version 6.1.1 Copyright ..."). Unrecognized lines pass
// through unchanged.
func ParseVersionLine(line string) string {
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			if m := versionRegex.FindString(fields[i+1]); m != "" {
				return m
			}
			return fields[i+1]
		}
	}
	if m := versionRegex.FindString(line); m != "" {
		return m
	}
	return line
}
