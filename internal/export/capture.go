package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"

	"montage/internal/mixer"
	"montage/internal/tools"
)

// InitError marks a capture that failed to open. The pipeline reports it,
// restores live routing, and leaves the project untouched so the export can
// simply be retried.
type InitError struct {
	Err error
}

func (e *InitError) Error() string { return "capture init: " + e.Err.Error() }
func (e *InitError) Unwrap() error { return e.Err }

// Capture receives the recorded frames and audio, accumulates them in a
// spool next to the final artifact, and assembles the artifact on finalize.
type Capture interface {
	// WriteFrame consumes one canvas frame. The image is only valid for
	// the duration of the call.
	WriteFrame(img *image.RGBA) error
	// AudioSink is the destination for the mixed capture audio.
	AudioSink() mixer.Sink
	// Stats reports accumulated chunk and byte counts.
	Stats() (chunks, bytes int64)
	// Finalize assembles the spooled data into the artifact and returns
	// its path plus any companion files.
	Finalize(ctx context.Context) (artifact string, extras []string, err error)
	// Abort discards the spool. Safe after a failed Finalize.
	Abort()
}

// CaptureOptions configures a capture backend.
type CaptureOptions struct {
	Dir       string
	BaseName  string
	Width     int
	Height    int
	FPS       int
	Selection tools.Selection
	FFmpeg    string
}

func (o CaptureOptions) artifactPath() string {
	return filepath.Join(o.Dir, o.BaseName+"."+o.Selection.Ext())
}

// spool appends encoded chunks to a .part file next to the final artifact,
// counting them so progress can be reported without stat calls.
type spool struct {
	f      *os.File
	path   string
	chunks atomic.Int64
	bytes  atomic.Int64
}

func newSpool(path string) (*spool, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &spool{f: f, path: path}, nil
}

func (s *spool) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if n > 0 {
		s.chunks.Add(1)
		s.bytes.Add(int64(n))
	}
	return n, err
}

func (s *spool) close() error { return s.f.Close() }

func (s *spool) remove() {
	s.f.Close()
	os.Remove(s.path)
}

// ffmpegCapture streams raw canvas frames into an ffmpeg encode process and
// spools its streamable container output; audio accumulates as raw s16le
// beside it. Finalize muxes the two into the final artifact.
type ffmpegCapture struct {
	opts  CaptureOptions
	cmd   *exec.Cmd
	stdin io.WriteCloser
	sp    *spool

	audioPath string
	audioFile *os.File
	audioSink *mixer.WriterSink

	stderr   bytes.Buffer
	copyDone chan error
}

// NewFFmpegCapture starts the encode process for a non-builtin selection.
func NewFFmpegCapture(ctx context.Context, opts CaptureOptions) (Capture, error) {
	spoolPath := opts.artifactPath() + ".part"
	sp, err := newSpool(spoolPath)
	if err != nil {
		return nil, &InitError{Err: err}
	}

	audioPath := filepath.Join(opts.Dir, opts.BaseName+".audio.s16le")
	audioFile, err := os.Create(audioPath)
	if err != nil {
		sp.remove()
		return nil, &InitError{Err: err}
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", "pipe:0",
		"-an",
		"-c:v", opts.Selection.Codec,
		"-pix_fmt", "yuv420p",
	}
	switch opts.Selection.Container {
	case "mp4":
		// Fragmented output so the container can stream to a pipe; the
		// finalize remux rebuilds a seekable moov up front.
		args = append(args, "-f", "mp4", "-movflags", "frag_keyframe+empty_moov")
	case "webm":
		args = append(args, "-f", "webm")
	default:
		sp.remove()
		audioFile.Close()
		os.Remove(audioPath)
		return nil, &InitError{Err: fmt.Errorf("container %q cannot stream", opts.Selection.Container)}
	}
	args = append(args, "pipe:1")

	cmd := exec.CommandContext(ctx, opts.FFmpeg, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		sp.remove()
		audioFile.Close()
		os.Remove(audioPath)
		return nil, &InitError{Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		sp.remove()
		audioFile.Close()
		os.Remove(audioPath)
		return nil, &InitError{Err: err}
	}

	c := &ffmpegCapture{
		opts:      opts,
		cmd:       cmd,
		stdin:     stdin,
		sp:        sp,
		audioPath: audioPath,
		audioFile: audioFile,
		audioSink: &mixer.WriterSink{W: audioFile},
		copyDone:  make(chan error, 1),
	}
	cmd.Stderr = &c.stderr

	if err := cmd.Start(); err != nil {
		sp.remove()
		audioFile.Close()
		os.Remove(audioPath)
		return nil, &InitError{Err: fmt.Errorf("start %s: %w", opts.FFmpeg, err)}
	}

	go func() {
		_, copyErr := io.Copy(c.sp, stdout)
		c.copyDone <- copyErr
	}()

	return c, nil
}

func (c *ffmpegCapture) WriteFrame(img *image.RGBA) error {
	_, err := c.stdin.Write(img.Pix)
	if err != nil {
		return fmt.Errorf("encode frame: %w (%s)", err, firstStderrLine(c.stderr.Bytes()))
	}
	return nil
}

func (c *ffmpegCapture) AudioSink() mixer.Sink { return c.audioSink }

func (c *ffmpegCapture) Stats() (int64, int64) {
	return c.sp.chunks.Load(), c.sp.bytes.Load()
}

func (c *ffmpegCapture) Finalize(ctx context.Context) (string, []string, error) {
	c.stdin.Close()
	waitErr := c.cmd.Wait()
	copyErr := <-c.copyDone
	if err := c.sp.close(); err != nil {
		copyErr = err
	}
	c.audioFile.Close()

	if waitErr != nil {
		c.Abort()
		return "", nil, fmt.Errorf("encoder exited: %w (%s)", waitErr, firstStderrLine(c.stderr.Bytes()))
	}
	if copyErr != nil {
		c.Abort()
		return "", nil, fmt.Errorf("spool: %w", copyErr)
	}

	artifact := c.opts.artifactPath()
	if err := c.mux(ctx, artifact); err != nil {
		c.Abort()
		return "", nil, err
	}

	os.Remove(c.sp.path)
	os.Remove(c.audioPath)
	return artifact, nil, nil
}

// mux combines the spooled video with the raw audio in one stream-copy pass
// so finalize cost stays flat regardless of timeline length.
func (c *ffmpegCapture) mux(ctx context.Context, artifact string) error {
	audioCodec := "aac"
	if c.opts.Selection.Container == "webm" {
		audioCodec = "libopus"
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", c.sp.path,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", mixer.SampleRate),
		"-ac", fmt.Sprintf("%d", mixer.Channels),
		"-i", c.audioPath,
		"-c:v", "copy",
		"-c:a", audioCodec,
		"-shortest",
	}
	if c.opts.Selection.Container == "mp4" {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-y", artifact)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.opts.FFmpeg, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("assemble artifact: %w (%s)", err, firstStderrLine(stderr.Bytes()))
	}
	return nil
}

func (c *ffmpegCapture) Abort() {
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	c.sp.remove()
	c.audioFile.Close()
	os.Remove(c.audioPath)
}

func firstStderrLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	if len(b) == 0 {
		return "no encoder output"
	}
	return string(b)
}
