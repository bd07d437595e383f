package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"montage/internal/timeline"
)

const captionMargin = 24

// CaptionRenderer draws timed text overlays. Faces are cached per size so
// style overrides don't re-rasterize the font every frame.
type CaptionRenderer struct {
	fnt   *opentype.Font
	base  timeline.CaptionStyle
	faces map[float64]font.Face
}

// NewCaptionRenderer parses fontData (TTF/OTF); empty data falls back to the
// bundled Go Regular face. The base style fills any field a caption leaves
// unset.
func NewCaptionRenderer(fontData []byte, base timeline.CaptionStyle) (*CaptionRenderer, error) {
	if len(fontData) == 0 {
		fontData = goregular.TTF
	}
	fnt, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse caption font: %w", err)
	}
	if base.Size <= 0 {
		base.Size = 36
	}
	if base.Color == "" {
		base.Color = "#ffffff"
	}
	if base.Background == "" {
		base.Background = "#00000080"
	}
	if base.Position == "" {
		base.Position = "bottom"
	}
	return &CaptionRenderer{fnt: fnt, base: base, faces: make(map[float64]font.Face)}, nil
}

// Draw renders every caption onto dst, resolving per-caption overrides
// against the base style. Draw failures are reported, not fatal; the engine
// treats them like any other per-frame error.
func (r *CaptionRenderer) Draw(dst *image.RGBA, captions []timeline.Caption) error {
	for i := range captions {
		if err := r.drawOne(dst, &captions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *CaptionRenderer) drawOne(dst *image.RGBA, c *timeline.Caption) error {
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return nil
	}
	style := c.Style.Resolve(r.base)

	face, err := r.face(style.Size)
	if err != nil {
		return err
	}
	fg, err := parseHexColor(style.Color)
	if err != nil {
		return err
	}
	bg, err := parseHexColor(style.Background)
	if err != nil {
		return err
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	lines := strings.Split(text, "\n")

	bounds := dst.Bounds()
	blockHeight := lineHeight * len(lines)

	var top int
	switch style.Position {
	case "top":
		top = bounds.Min.Y + captionMargin
	case "middle":
		top = bounds.Min.Y + (bounds.Dy()-blockHeight)/2
	default: // bottom
		top = bounds.Max.Y - captionMargin - blockHeight
	}

	for li, line := range lines {
		d := font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: face}
		width := d.MeasureString(line).Ceil()
		x := bounds.Min.X + (bounds.Dx()-width)/2
		baseline := top + li*lineHeight + metrics.Ascent.Ceil()

		if bg.A > 0 {
			pad := 8
			box := image.Rect(x-pad, top+li*lineHeight, x+width+pad, top+(li+1)*lineHeight)
			solid := color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: 255}
			draw.DrawMask(dst, box.Intersect(bounds), image.NewUniform(solid), image.Point{},
				image.NewUniform(color.Alpha{A: bg.A}), image.Point{}, draw.Over)
		}

		d.Dot = fixed.P(x, baseline)
		d.DrawString(line)
	}
	return nil
}

func (r *CaptionRenderer) face(size float64) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("caption face at %v: %w", size, err)
	}
	r.faces[size] = f
	return f, nil
}
