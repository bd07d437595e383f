package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Still is the handle for an image item: one decoded frame, no playhead.
type Still struct {
	id     string
	file   string
	img    image.Image
	closed bool
}

// OpenStill decodes an image file into a ready handle.
func OpenStill(id, file string) (*Still, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", file, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", file, err)
	}
	return &Still{id: id, file: file, img: img}, nil
}

func (s *Still) ID() string { return s.id }

func (s *Still) Kind() Kind { return KindImage }

func (s *Still) File() string { return s.file }

func (s *Still) NaturalDuration() (float64, bool) { return 0, false }

func (s *Still) Ready(float64) bool { return !s.closed && s.img != nil }

func (s *Still) Position() float64 { return 0 }

func (s *Still) SetPosition(float64) error { return nil }

func (s *Still) Playing() bool { return false }

func (s *Still) Play() error { return nil }

func (s *Still) Pause() {}

func (s *Still) FrameAt(float64) (image.Image, error) {
	if s.closed || s.img == nil {
		return nil, fmt.Errorf("image %s: handle closed", s.id)
	}
	return s.img, nil
}

func (s *Still) Close() error {
	s.closed = true
	s.img = nil
	return nil
}

var (
	_ Handle        = (*Still)(nil)
	_ FrameProvider = (*Still)(nil)
)
