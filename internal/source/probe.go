package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Info is the metadata a probed media file reports.
type Info struct {
	Duration   float64
	Width      int
	Height     int
	VideoCodec string
	AudioCodec string
	HasVideo   bool
	HasAudio   bool
	FormatName string
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

// Probe runs ffprobe against a file and extracts the fields the binding
// layer cares about. The natural duration comes from the container format,
// falling back to the longest stream duration when the format omits it.
func Probe(ctx context.Context, runner Runner, ffprobePath, file string) (Info, error) {
	args := []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		file,
	}

	result, err := runner.Run(ctx, ffprobePath, args, RunOptions{})
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", file, err)
	}
	if len(result.Stdout) == 0 {
		return Info{}, fmt.Errorf("ffprobe %s: no output", file)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(result.Stdout, &parsed); err != nil {
		return Info{}, fmt.Errorf("decode ffprobe output for %s: %w", file, err)
	}

	info := Info{FormatName: parsed.Format.FormatName}
	info.Duration = parseSeconds(parsed.Format.Duration)

	for _, st := range parsed.Streams {
		switch st.CodecType {
		case "video":
			if !info.HasVideo {
				info.HasVideo = true
				info.VideoCodec = st.CodecName
				info.Width = st.Width
				info.Height = st.Height
			}
		case "audio":
			if !info.HasAudio {
				info.HasAudio = true
				info.AudioCodec = st.CodecName
			}
		}
		if d := parseSeconds(st.Duration); d > info.Duration {
			info.Duration = d
		}
	}

	return info, nil
}

func parseSeconds(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
