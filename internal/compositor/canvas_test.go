package compositor

import (
	"image"
	"image/color"
	"testing"

	"montage/internal/timeline"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDrawFrameLetterboxesWideSource(t *testing.T) {
	c := NewCanvas(100, 100)
	c.Clear()

	// A 2:1 source in a square canvas fills the width and letterboxes
	// vertically: base scale = min(100/50, 100/25) = 2 -> 100x50 centered.
	c.DrawFrame(solid(50, 25, color.White), timeline.Transform{Scale: 1}, 1)

	center := c.Image().RGBAAt(50, 50)
	if center.R != 255 {
		t.Fatalf("canvas center not covered by frame: %+v", center)
	}
	top := c.Image().RGBAAt(50, 10)
	if top.R != 0 {
		t.Fatalf("letterbox band not black: %+v", top)
	}
}

func TestDrawFrameAppliesOffset(t *testing.T) {
	c := NewCanvas(100, 100)
	c.Clear()
	c.DrawFrame(solid(10, 10, color.White), timeline.Transform{Scale: 1, X: 40, Y: 0}, 1)

	shifted := c.Image().RGBAAt(90, 50)
	if shifted.R != 255 {
		t.Fatalf("offset frame missing at shifted position: %+v", shifted)
	}
	left := c.Image().RGBAAt(10, 50)
	if left.R != 0 {
		t.Fatalf("offset frame still covers original position: %+v", left)
	}
}

func TestDrawFrameAlphaBlends(t *testing.T) {
	c := NewCanvas(40, 40)
	c.Clear()
	c.DrawFrame(solid(40, 40, color.White), timeline.Transform{Scale: 1}, 0.5)

	got := c.Image().RGBAAt(20, 20)
	if got.R < 100 || got.R > 155 {
		t.Fatalf("half-alpha white over black: R=%d, want near 128", got.R)
	}

	// Zero alpha draws nothing.
	c.Clear()
	c.DrawFrame(solid(40, 40, color.White), timeline.Transform{Scale: 1}, 0)
	if got := c.Image().RGBAAt(20, 20); got.R != 0 {
		t.Fatalf("zero-alpha frame drew pixels: %+v", got)
	}
}

func TestDrawFrameIgnoresDegenerateInput(t *testing.T) {
	c := NewCanvas(40, 40)
	c.Clear()
	c.DrawFrame(nil, timeline.Transform{Scale: 1}, 1)
	c.DrawFrame(image.NewRGBA(image.Rect(0, 0, 0, 0)), timeline.Transform{Scale: 1}, 1)
	if got := c.Image().RGBAAt(20, 20); got.R != 0 {
		t.Fatalf("degenerate draw changed canvas: %+v", got)
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#ffffff", want: color.RGBA{255, 255, 255, 255}},
		{in: "#00000080", want: color.RGBA{0, 0, 0, 128}},
		{in: "#FF8000", want: color.RGBA{255, 128, 0, 255}},
		{in: "ffffff", wantErr: true},
		{in: "#fff", wantErr: true},
		{in: "#zzzzzz", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseHexColor(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseHexColor(%q) succeeded, want error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHexColor(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("parseHexColor(%q)=%+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCaptionRendererDrawsText(t *testing.T) {
	r, err := NewCaptionRenderer(nil, timeline.CaptionStyle{})
	if err != nil {
		t.Fatalf("NewCaptionRenderer: %v", err)
	}

	dst := solid(320, 180, color.Black)
	caps := []timeline.Caption{{Start: 0, End: 5, Text: "hello world"}}
	if err := r.Draw(dst, caps); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	// The background box plus glyphs must have touched the bottom band.
	touched := false
	for y := 100; y < 180 && !touched; y++ {
		for x := 0; x < 320; x++ {
			px := dst.RGBAAt(x, y)
			if px.R != 0 || px.G != 0 || px.B != 0 {
				touched = true
				break
			}
		}
	}
	if !touched {
		t.Fatalf("caption drew no pixels")
	}
}

func TestCaptionRendererRejectsBadStyle(t *testing.T) {
	r, err := NewCaptionRenderer(nil, timeline.CaptionStyle{})
	if err != nil {
		t.Fatalf("NewCaptionRenderer: %v", err)
	}
	dst := solid(100, 100, color.Black)
	caps := []timeline.Caption{{Start: 0, End: 5, Text: "x", Style: timeline.CaptionStyle{Color: "not-a-color"}}}
	if err := r.Draw(dst, caps); err == nil {
		t.Fatalf("bad style color accepted")
	}
}
