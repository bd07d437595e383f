package export

import (
	"context"
	"encoding/binary"
	"image"
	"os"
	"path/filepath"
	"testing"

	"montage/internal/mixer"
	"montage/internal/tools"
)

func TestWAVWriterHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	w, err := newWAVWriter(path)
	if err != nil {
		t.Fatalf("newWAVWriter: %v", err)
	}

	sink := &mixer.WriterSink{W: w}
	samples := make([]int16, 960*mixer.Channels)
	for i := range samples {
		samples[i] = int16(i)
	}
	if err := sink.WritePCM(samples); err != nil {
		t.Fatalf("WritePCM: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	pcmBytes := len(samples) * 2
	if len(data) != wavHeaderSize+pcmBytes {
		t.Fatalf("file size %d, want %d", len(data), wavHeaderSize+pcmBytes)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad magic: %q %q", data[0:4], data[8:12])
	}
	if got := binary.LittleEndian.Uint32(data[24:]); got != mixer.SampleRate {
		t.Fatalf("sample rate %d, want %d", got, mixer.SampleRate)
	}
	if got := binary.LittleEndian.Uint16(data[22:]); got != mixer.Channels {
		t.Fatalf("channels %d, want %d", got, mixer.Channels)
	}
	if got := binary.LittleEndian.Uint32(data[40:]); got != uint32(pcmBytes) {
		t.Fatalf("data size %d, want %d", got, pcmBytes)
	}
	if got := binary.LittleEndian.Uint32(data[4:]); got != uint32(36+pcmBytes) {
		t.Fatalf("riff size %d, want %d", got, 36+pcmBytes)
	}
}

func TestMJPEGCaptureFallback(t *testing.T) {
	dir := t.TempDir()
	opts := CaptureOptions{
		Dir:       dir,
		BaseName:  "clip",
		Width:     32,
		Height:    18,
		FPS:       10,
		Selection: tools.FallbackSelection(),
	}

	c, err := NewMJPEGCapture(context.Background(), opts)
	if err != nil {
		t.Fatalf("NewMJPEGCapture: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 32, 18))
	for i := 0; i < 3; i++ {
		if err := c.WriteFrame(img); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	samples := make([]int16, mixer.FrameSamples*mixer.Channels)
	if err := c.AudioSink().WritePCM(samples); err != nil {
		t.Fatalf("WritePCM: %v", err)
	}

	artifact, extras, err := c.Finalize(context.Background())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if filepath.Ext(artifact) != ".avi" {
		t.Fatalf("artifact=%q, want .avi", artifact)
	}
	if _, err := os.Stat(artifact); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if len(extras) != 1 || filepath.Ext(extras[0]) != ".wav" {
		t.Fatalf("extras=%v, want one wav companion", extras)
	}
	if _, err := os.Stat(artifact + ".part"); !os.IsNotExist(err) {
		t.Fatalf("spool left behind")
	}

	chunks, size := c.Stats()
	if chunks != 3 || size == 0 {
		t.Fatalf("stats chunks=%d bytes=%d", chunks, size)
	}
}
