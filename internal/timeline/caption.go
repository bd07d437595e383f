package timeline

// CaptionStyle describes how a caption renders. Zero values inherit from the
// configured default style.
type CaptionStyle struct {
	Size       float64
	Color      string
	Background string
	Position   string // "top", "middle", "bottom"
}

// Resolve overlays the style onto a base, field by field.
func (s CaptionStyle) Resolve(base CaptionStyle) CaptionStyle {
	out := base
	if s.Size > 0 {
		out.Size = s.Size
	}
	if s.Color != "" {
		out.Color = s.Color
	}
	if s.Background != "" {
		out.Background = s.Background
	}
	if s.Position != "" {
		out.Position = s.Position
	}
	return out
}

// Caption is a timed text overlay drawn in the compositing pass.
type Caption struct {
	Start float64
	End   float64
	Text  string
	Style CaptionStyle
}

// ActiveAt reports whether the caption is visible at global time t.
func (c *Caption) ActiveAt(t float64) bool {
	return isFinite(t) && t >= c.Start && t < c.End
}

// ActiveCaptions returns the captions visible at t, in document order.
func ActiveCaptions(captions []Caption, t float64) []Caption {
	var out []Caption
	for i := range captions {
		if captions[i].ActiveAt(t) {
			out = append(out, captions[i])
		}
	}
	return out
}
