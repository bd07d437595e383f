package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"strconv"
	"time"
)

// DefaultFrameStep is the frame extraction granularity in seconds.
const DefaultFrameStep = 1.0 / 30

// frameTimeout bounds a single frame extraction so a wedged decoder cannot
// stall the render loop forever.
const frameTimeout = 5 * time.Second

// ClipOptions tune a video handle.
type ClipOptions struct {
	FrameStep float64
	Clock     func() time.Time
}

// Clip is the handle for a video item. Frames are extracted on demand
// through ffmpeg at a fixed granularity and memoized, so repeated renders at
// the same instant are cheap and identical. The playhead advances in wall
// time while playing, which is what the engine's drift correction works
// against. The optional embedded audio stream follows the playhead.
type Clip struct {
	id     string
	file   string
	ffmpeg string
	runner Runner
	info   Info

	head   playhead
	step   float64
	closed bool

	memo    image.Image
	memoPos float64
	hasMemo bool

	audio *AudioStream
}

// OpenClip builds a video handle from probed metadata. When the source
// carries an audio track the clip also feeds the mixer through an embedded
// stream.
func OpenClip(id, file, ffmpegPath string, runner Runner, info Info, opts ClipOptions) *Clip {
	step := opts.FrameStep
	if step <= 0 {
		step = DefaultFrameStep
	}
	c := &Clip{
		id:     id,
		file:   file,
		ffmpeg: ffmpegPath,
		runner: runner,
		info:   info,
		head:   newPlayhead(opts.Clock),
		step:   step,
	}
	if info.HasAudio {
		c.audio = OpenAudioStream(id+"/audio", file, ffmpegPath, info)
	}
	return c
}

func (c *Clip) ID() string { return c.id }

func (c *Clip) Kind() Kind { return KindVideo }

func (c *Clip) File() string { return c.file }

func (c *Clip) NaturalDuration() (float64, bool) {
	return c.info.Duration, c.info.Duration > 0
}

func (c *Clip) Ready(float64) bool { return !c.closed }

func (c *Clip) Position() float64 { return c.head.position() }

func (c *Clip) SetPosition(pos float64) error {
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return fmt.Errorf("clip %s: bad position", c.id)
	}
	c.head.setPosition(pos)
	if c.audio != nil {
		return c.audio.SetPosition(pos)
	}
	return nil
}

func (c *Clip) Playing() bool { return c.head.playing }

func (c *Clip) Play() error {
	if c.closed {
		return fmt.Errorf("clip %s: handle closed", c.id)
	}
	c.head.play()
	if c.audio != nil {
		return c.audio.Play()
	}
	return nil
}

func (c *Clip) Pause() {
	c.head.pause()
	if c.audio != nil {
		c.audio.Pause()
	}
}

// FrameAt extracts the frame covering pos. Positions snap to the extraction
// step so two renders at the same instant return the same memoized frame.
func (c *Clip) FrameAt(pos float64) (image.Image, error) {
	if c.closed {
		return nil, fmt.Errorf("clip %s: handle closed", c.id)
	}
	snap := math.Round(pos/c.step) * c.step
	if snap < 0 {
		snap = 0
	}
	if c.info.Duration > 0 && snap > c.info.Duration {
		snap = c.info.Duration
	}
	if c.hasMemo && math.Abs(snap-c.memoPos) < c.step/2 {
		return c.memo, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-ss", formatSeconds(snap),
		"-i", c.file,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"-",
	}
	res, err := c.runner.Run(ctx, c.ffmpeg, args, RunOptions{})
	if err != nil {
		return nil, fmt.Errorf("clip %s: extract frame at %s: %w", c.id, formatSeconds(snap), err)
	}
	img, err := png.Decode(bytes.NewReader(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("clip %s: decode frame at %s: %w", c.id, formatSeconds(snap), err)
	}

	c.memo = img
	c.memoPos = snap
	c.hasMemo = true
	return img, nil
}

// ReadPCM feeds the mixer from the clip's own audio track, or silence when
// the source has none.
func (c *Clip) ReadPCM(p []int16) (int, error) {
	if c.audio == nil {
		zero(p)
		return len(p), nil
	}
	return c.audio.ReadPCM(p)
}

func (c *Clip) Close() error {
	c.closed = true
	c.memo = nil
	c.hasMemo = false
	if c.audio != nil {
		return c.audio.Close()
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

var (
	_ Handle        = (*Clip)(nil)
	_ FrameProvider = (*Clip)(nil)
	_ PCMProvider   = (*Clip)(nil)
)
