package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"

	"montage/internal/timeline"
)

// Canvas is the shared drawing surface. One frame is composited per render
// step: background fill, the active item's frame with transform and fade
// alpha, then caption overlays.
type Canvas struct {
	img     *image.RGBA
	scratch *image.RGBA
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Width() int { return c.img.Bounds().Dx() }

func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Image exposes the live pixel buffer. The export capture reads it directly
// after each step; callers must not hold it across steps.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Clear fills the canvas with black.
func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.Black, image.Point{}, draw.Src)
}

// DrawFrame composites src onto the canvas. The base scale letterboxes the
// source into the canvas (contain fit); the item transform then scales about
// the canvas center and offsets in canvas pixels. Alpha below one blends the
// frame over whatever the canvas held.
func (c *Canvas) DrawFrame(src image.Image, tr timeline.Transform, alpha float64) {
	if src == nil || alpha <= 0 {
		return
	}
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw <= 0 || sh <= 0 {
		return
	}

	cw := float64(c.Width())
	ch := float64(c.Height())
	base := cw / float64(sw)
	if s := ch / float64(sh); s < base {
		base = s
	}
	scale := tr.Scale
	if scale <= 0 {
		scale = 1
	}
	scale *= base

	dw := float64(sw) * scale
	dh := float64(sh) * scale
	x0 := (cw-dw)/2 + tr.X
	y0 := (ch-dh)/2 + tr.Y
	rect := image.Rect(int(x0), int(y0), int(x0+dw+0.5), int(y0+dh+0.5))
	if rect.Empty() {
		return
	}

	if alpha >= 1 {
		xdraw.ApproxBiLinear.Scale(c.img, rect, src, sb, xdraw.Over, nil)
		return
	}

	// Faded frames scale into a scratch buffer first, then blend through a
	// uniform alpha mask.
	if c.scratch == nil || c.scratch.Bounds() != rect {
		c.scratch = image.NewRGBA(rect)
	}
	xdraw.ApproxBiLinear.Scale(c.scratch, rect, src, sb, xdraw.Src, nil)
	mask := image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
	draw.DrawMask(c.img, rect, c.scratch, rect.Min, mask, image.Point{}, draw.Over)
}

// Snapshot copies the current pixels, for callers that need a stable frame.
func (c *Canvas) Snapshot() *image.RGBA {
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// parseHexColor reads #RRGGBB or #RRGGBBAA.
func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("color %q: missing #", s)
	}
	hex := s[1:]
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	var vals [4]uint8
	vals[3] = 0xff
	for i := 0; i*2 < len(hex); i++ {
		var v int
		if _, err := fmt.Sscanf(hex[i*2:i*2+2], "%02x", &v); err != nil {
			return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
		}
		vals[i] = uint8(v)
	}
	return color.RGBA{R: vals[0], G: vals[1], B: vals[2], A: vals[3]}, nil
}
