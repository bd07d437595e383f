package source

import (
	"context"
	"fmt"
	"time"
)

// Binder opens the right handle flavor for a file and installs it in a
// registry. It carries the tool paths so command glue stays small.
type Binder struct {
	FFmpeg    string
	FFprobe   string
	Runner    Runner
	FrameStep float64
	Clock     func() time.Time
}

// Bind probes (where the kind needs it), opens a handle, and binds it under
// id. The probed Info is returned so callers can adopt natural durations
// into the timeline model.
func (b *Binder) Bind(ctx context.Context, reg *Registry, id string, kind Kind, file string) (Handle, Info, error) {
	runner := b.Runner
	if runner == nil {
		runner = CmdRunner{}
	}

	switch kind {
	case KindImage:
		h, err := OpenStill(id, file)
		if err != nil {
			return nil, Info{}, err
		}
		reg.Bind(h)
		return h, Info{}, nil

	case KindVideo:
		info, err := Probe(ctx, runner, b.FFprobe, file)
		if err != nil {
			return nil, Info{}, err
		}
		h := OpenClip(id, file, b.FFmpeg, runner, info, ClipOptions{
			FrameStep: b.FrameStep,
			Clock:     b.Clock,
		})
		reg.Bind(h)
		return h, info, nil

	case KindAudio:
		info, err := Probe(ctx, runner, b.FFprobe, file)
		if err != nil {
			return nil, Info{}, err
		}
		if !info.HasAudio {
			return nil, Info{}, fmt.Errorf("%s has no audio stream", file)
		}
		h := OpenAudioStream(id, file, b.FFmpeg, info)
		reg.Bind(h)
		return h, info, nil
	}

	return nil, Info{}, fmt.Errorf("unknown source kind %v", kind)
}
