package source

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// manualClock steps time only when told to.
type manualClock struct {
	at time.Time
}

func (c *manualClock) now() time.Time { return c.at }

func (c *manualClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func TestPlayheadAdvancesOnlyWhilePlaying(t *testing.T) {
	clock := &manualClock{at: time.Unix(100, 0)}
	h := newPlayhead(clock.now)

	h.setPosition(5)
	clock.advance(2 * time.Second)
	if got := h.position(); got != 5 {
		t.Fatalf("paused position=%v, want 5", got)
	}

	h.play()
	clock.advance(1500 * time.Millisecond)
	if got := h.position(); got != 6.5 {
		t.Fatalf("playing position=%v, want 6.5", got)
	}

	h.pause()
	clock.advance(10 * time.Second)
	if got := h.position(); got != 6.5 {
		t.Fatalf("position after pause=%v, want 6.5", got)
	}

	h.setPosition(-3)
	if got := h.position(); got != 0 {
		t.Fatalf("negative position=%v, want clamp to 0", got)
	}
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestClipFrameMemoization(t *testing.T) {
	runner := &scriptRunner{stdout: pngBytes(t, 4, 4, color.RGBA{R: 200, A: 255})}
	clip := OpenClip("v1", "clip.mp4", "ffmpeg", runner, Info{Duration: 10, HasVideo: true}, ClipOptions{})

	first, err := clip.FrameAt(1.0)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	second, err := clip.FrameAt(1.0)
	if err != nil {
		t.Fatalf("FrameAt repeat: %v", err)
	}
	if first != second {
		t.Fatalf("repeated FrameAt returned a different frame")
	}
	if len(runner.calls) != 1 {
		t.Fatalf("extractions=%d, want 1 (memoized)", len(runner.calls))
	}

	// Sub-step movement stays on the memoized frame.
	if _, err := clip.FrameAt(1.0 + DefaultFrameStep/4); err != nil {
		t.Fatalf("FrameAt near: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("extractions=%d after sub-step move, want 1", len(runner.calls))
	}

	// A full step away extracts again.
	if _, err := clip.FrameAt(2.0); err != nil {
		t.Fatalf("FrameAt far: %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("extractions=%d, want 2", len(runner.calls))
	}
}

func TestClipClosedRejectsUse(t *testing.T) {
	runner := &scriptRunner{stdout: pngBytes(t, 2, 2, color.Black)}
	clip := OpenClip("v1", "clip.mp4", "ffmpeg", runner, Info{Duration: 10}, ClipOptions{})

	if err := clip.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if clip.Ready(0) {
		t.Fatalf("closed clip reports ready")
	}
	if _, err := clip.FrameAt(0); err == nil {
		t.Fatalf("FrameAt on closed clip succeeded")
	}
	if err := clip.Play(); err == nil {
		t.Fatalf("Play on closed clip succeeded")
	}
}

func TestClipWithoutAudioFillsSilence(t *testing.T) {
	clip := OpenClip("v1", "clip.mp4", "ffmpeg", &scriptRunner{}, Info{Duration: 10}, ClipOptions{})

	buf := make([]int16, 64)
	buf[0] = 1234
	n, err := clip.ReadPCM(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("ReadPCM=%d,%v, want full silence", n, err)
	}
	if buf[0] != 0 {
		t.Fatalf("buf[0]=%d, want 0", buf[0])
	}
}

func TestAudioStreamPausedIsSilence(t *testing.T) {
	// No pipe must spawn for a paused stream, so no ffmpeg binary is needed.
	a := OpenAudioStream("m", "music.mp3", "ffmpeg-not-present", Info{Duration: 60, HasAudio: true})

	buf := make([]int16, 32)
	buf[5] = 99
	n, err := a.ReadPCM(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("ReadPCM=%d,%v, want silent full read", n, err)
	}
	if buf[5] != 0 {
		t.Fatalf("paused stream produced samples")
	}
	if a.cmd != nil {
		t.Fatalf("paused ReadPCM spawned a decoder")
	}

	if err := a.SetPosition(12); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if got := a.Position(); got != 12 {
		t.Fatalf("Position=%v, want 12", got)
	}
}

func TestRegistryBindReleaseSync(t *testing.T) {
	reg := NewRegistry()

	a := OpenAudioStream("a", "a.mp3", "ffmpeg", Info{})
	b := OpenAudioStream("b", "b.mp3", "ffmpeg", Info{})
	c := OpenAudioStream("c", "c.mp3", "ffmpeg", Info{})
	reg.Bind(a)
	reg.Bind(b)
	reg.Bind(c)

	if reg.Len() != 3 {
		t.Fatalf("Len=%d, want 3", reg.Len())
	}
	if got := reg.IDs(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("IDs=%v, want [a b c]", got)
	}

	// Rebinding the same id closes the old handle.
	a2 := OpenAudioStream("a", "a2.mp3", "ffmpeg", Info{})
	reg.Bind(a2)
	if !a.closed {
		t.Fatalf("old handle not closed on rebind")
	}
	if got, _ := reg.Get("a"); got != a2 {
		t.Fatalf("Get(a) returned stale handle")
	}

	reg.Sync([]string{"a", "c"})
	if reg.Len() != 2 {
		t.Fatalf("Len=%d after Sync, want 2", reg.Len())
	}
	if !b.closed {
		t.Fatalf("Sync left removed handle open")
	}

	reg.ReleaseAll()
	if reg.Len() != 0 || !a2.closed || !c.closed {
		t.Fatalf("ReleaseAll left handles open")
	}
}

func TestStillAlwaysServesItsFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(path, pngBytes(t, 8, 6, color.RGBA{G: 128, A: 255}), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}

	still, err := OpenStill("img1", path)
	if err != nil {
		t.Fatalf("OpenStill: %v", err)
	}
	if !still.Ready(0) {
		t.Fatalf("decoded still not ready")
	}
	img, err := still.FrameAt(99)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("bounds=%v, want 8x6", img.Bounds())
	}
	if _, known := still.NaturalDuration(); known {
		t.Fatalf("still reported a natural duration")
	}

	still.Close()
	if still.Ready(0) {
		t.Fatalf("closed still reports ready")
	}
}

func TestOpenStillMissingFile(t *testing.T) {
	if _, err := OpenStill("img", "/does/not/exist.png"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
