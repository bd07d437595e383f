package source

import (
	"fmt"
	"io"
	"math"
	"os/exec"

	"montage/internal/mixer"
)

// repositionSlack is how far the decode pipe may sit from the requested
// position before it is torn down and reopened.
const repositionSlack = 0.05

// AudioStream decodes a file into the mixer's PCM format through an ffmpeg
// pipe. The playhead is sample-accurate: position advances by consumption,
// not wall time. A paused stream produces silence without consuming.
type AudioStream struct {
	id     string
	file   string
	ffmpeg string
	info   Info

	pos     float64
	playing bool
	closed  bool
	ended   bool

	cmd     *exec.Cmd
	out     io.ReadCloser
	pipePos float64
	readBuf []byte
}

// OpenAudioStream builds a lazily-started stream handle. The pipe spawns on
// the first ReadPCM while playing.
func OpenAudioStream(id, file, ffmpegPath string, info Info) *AudioStream {
	return &AudioStream{id: id, file: file, ffmpeg: ffmpegPath, info: info}
}

func (a *AudioStream) ID() string { return a.id }

func (a *AudioStream) Kind() Kind { return KindAudio }

func (a *AudioStream) NaturalDuration() (float64, bool) {
	return a.info.Duration, a.info.Duration > 0
}

func (a *AudioStream) Ready(float64) bool { return !a.closed }

func (a *AudioStream) Position() float64 { return a.pos }

// SetPosition moves the playhead. The pipe is dropped when it no longer
// matches; the next read reopens at the new position.
func (a *AudioStream) SetPosition(pos float64) error {
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return fmt.Errorf("audio %s: bad position", a.id)
	}
	if pos < 0 {
		pos = 0
	}
	if math.Abs(pos-a.pos) > repositionSlack {
		a.dropPipe()
	}
	a.pos = pos
	a.ended = false
	return nil
}

func (a *AudioStream) Playing() bool { return a.playing }

func (a *AudioStream) Play() error {
	if a.closed {
		return fmt.Errorf("audio %s: handle closed", a.id)
	}
	a.playing = true
	return nil
}

func (a *AudioStream) Pause() { a.playing = false }

// ReadPCM fills p with interleaved s16 samples. Paused, ended, or closed
// streams fill with silence so the mixer never blocks on a quiet path.
func (a *AudioStream) ReadPCM(p []int16) (int, error) {
	if a.closed || !a.playing || a.ended {
		zero(p)
		return len(p), nil
	}
	if err := a.ensurePipe(); err != nil {
		zero(p)
		return len(p), err
	}

	n := len(p) * 2
	if cap(a.readBuf) < n {
		a.readBuf = make([]byte, n)
	}
	buf := a.readBuf[:n]

	read, err := io.ReadFull(a.out, buf)
	for i := 0; i*2+1 < read; i++ {
		p[i] = int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
	}
	for i := read / 2; i < len(p); i++ {
		p[i] = 0
	}

	a.pos += float64(read/2/mixer.Channels) / mixer.SampleRate
	if err != nil {
		// Short read means the source ran out; the stream stays positioned
		// at its end and produces silence from here on.
		a.ended = true
		a.dropPipe()
	}
	return len(p), nil
}

func (a *AudioStream) ensurePipe() error {
	if a.cmd != nil {
		return nil
	}
	args := []string{
		"-v", "error",
		"-ss", formatSeconds(a.pos),
		"-i", a.file,
		"-f", "s16le",
		"-ac", fmt.Sprintf("%d", mixer.Channels),
		"-ar", fmt.Sprintf("%d", mixer.SampleRate),
		"-",
	}
	cmd := exec.Command(a.ffmpeg, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("audio %s: stdout pipe: %w", a.id, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio %s: start decoder: %w", a.id, err)
	}
	a.cmd = cmd
	a.out = out
	a.pipePos = a.pos
	return nil
}

func (a *AudioStream) dropPipe() {
	if a.cmd == nil {
		return
	}
	if a.out != nil {
		a.out.Close()
	}
	if a.cmd.Process != nil {
		a.cmd.Process.Kill()
	}
	a.cmd.Wait()
	a.cmd = nil
	a.out = nil
}

func (a *AudioStream) Close() error {
	a.dropPipe()
	a.closed = true
	a.playing = false
	return nil
}

func zero(p []int16) {
	for i := range p {
		p[i] = 0
	}
}

var (
	_ Handle      = (*AudioStream)(nil)
	_ PCMProvider = (*AudioStream)(nil)
)
