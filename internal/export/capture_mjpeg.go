package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"sync/atomic"

	"github.com/icza/mjpeg"

	"montage/internal/mixer"
)

const mjpegQuality = 85

// mjpegCapture is the built-in fallback: frames go through the in-process
// MJPEG/AVI writer and the audio lands in a WAV companion file, so an export
// succeeds even on a host with no usable ffmpeg encoder.
type mjpegCapture struct {
	opts CaptureOptions
	avi  mjpeg.AviWriter

	spoolPath string
	wavPath   string
	wav       *wavWriter
	audioSink *mixer.WriterSink

	jpegBuf bytes.Buffer
	frames  atomic.Int64
	bytes   atomic.Int64
}

// NewMJPEGCapture opens the built-in AVI writer.
func NewMJPEGCapture(_ context.Context, opts CaptureOptions) (Capture, error) {
	spoolPath := opts.artifactPath() + ".part"
	avi, err := mjpeg.New(spoolPath, int32(opts.Width), int32(opts.Height), int32(opts.FPS))
	if err != nil {
		return nil, &InitError{Err: err}
	}

	wavPath := opts.artifactPath() + ".wav"
	wav, err := newWAVWriter(wavPath)
	if err != nil {
		avi.Close()
		os.Remove(spoolPath)
		return nil, &InitError{Err: err}
	}

	return &mjpegCapture{
		opts:      opts,
		avi:       avi,
		spoolPath: spoolPath,
		wavPath:   wavPath,
		wav:       wav,
		audioSink: &mixer.WriterSink{W: wav},
	}, nil
}

func (c *mjpegCapture) WriteFrame(img *image.RGBA) error {
	c.jpegBuf.Reset()
	if err := jpeg.Encode(&c.jpegBuf, img, &jpeg.Options{Quality: mjpegQuality}); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := c.avi.AddFrame(c.jpegBuf.Bytes()); err != nil {
		return fmt.Errorf("spool frame: %w", err)
	}
	c.frames.Add(1)
	c.bytes.Add(int64(c.jpegBuf.Len()))
	return nil
}

func (c *mjpegCapture) AudioSink() mixer.Sink { return c.audioSink }

func (c *mjpegCapture) Stats() (int64, int64) {
	return c.frames.Load(), c.bytes.Load()
}

func (c *mjpegCapture) Finalize(context.Context) (string, []string, error) {
	if err := c.avi.Close(); err != nil {
		c.Abort()
		return "", nil, fmt.Errorf("close avi: %w", err)
	}
	if err := c.wav.Close(); err != nil {
		c.Abort()
		return "", nil, err
	}

	artifact := c.opts.artifactPath()
	if err := os.Rename(c.spoolPath, artifact); err != nil {
		c.Abort()
		return "", nil, fmt.Errorf("commit artifact: %w", err)
	}
	return artifact, []string{c.wavPath}, nil
}

func (c *mjpegCapture) Abort() {
	os.Remove(c.spoolPath)
	os.Remove(c.wavPath)
}
