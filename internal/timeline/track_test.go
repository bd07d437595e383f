package timeline

import (
	"math"
	"testing"
)

func TestTrackAudibleWindow(t *testing.T) {
	// delay=3, startPoint=0, duration=5 → audible for t ∈ [3, 8).
	tr := Track{ID: "n1", Duration: 5, Delay: 3, Volume: 1}

	tests := []struct {
		t    float64
		want bool
	}{
		{0, false},
		{2.999, false},
		{3, true},
		{5, true},
		{7.999, true},
		{8, false},
		{20, false},
	}

	for _, tc := range tests {
		if got := tr.AudibleAt(tc.t); got != tc.want {
			t.Errorf("AudibleAt(%v)=%v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestTrackLocalPosition(t *testing.T) {
	tr := Track{ID: "m", Duration: 60, StartPoint: 10, Delay: 3}

	if got := tr.LocalPosition(3); got != 10 {
		t.Fatalf("LocalPosition(3)=%v, want 10", got)
	}
	if got := tr.LocalPosition(7.5); math.Abs(got-14.5) > 1e-9 {
		t.Fatalf("LocalPosition(7.5)=%v, want 14.5", got)
	}
}

func TestTrackStartPointShortensWindow(t *testing.T) {
	tr := Track{ID: "m", Duration: 10, StartPoint: 4, Delay: 2}

	if got := tr.PlayLength(); got != 6 {
		t.Fatalf("PlayLength=%v, want 6", got)
	}
	if tr.AudibleAt(8.1) {
		t.Fatalf("audible past delay+playLength")
	}
	if !tr.AudibleAt(7.9) {
		t.Fatalf("not audible inside window")
	}
}

func TestTrackGain(t *testing.T) {
	const total = 30.0

	tests := []struct {
		name string
		tr   Track
		t    float64
		want float64
	}{
		{
			name: "before delay",
			tr:   Track{Duration: 20, Volume: 1},
			t:    -1,
			want: 0,
		},
		{
			name: "plain volume inside window",
			tr:   Track{Duration: 20, Volume: 0.6},
			t:    5,
			want: 0.6,
		},
		{
			name: "muted",
			tr:   Track{Duration: 20, Volume: 1, Mute: true},
			t:    5,
			want: 0,
		},
		{
			name: "fade-in against track-relative time",
			tr: Track{
				Duration: 20, Delay: 4, Volume: 1,
				FadeIn: Fade{Enabled: true, Duration: 2},
			},
			t:    5, // one second after the track starts
			want: 0.5,
		},
		{
			name: "fade-out against global total",
			tr: Track{
				Duration: 60, Volume: 1,
				FadeOut: Fade{Enabled: true, Duration: 2},
			},
			t:    29, // one second before the timeline ends
			want: 0.5,
		},
		{
			name: "volume clamped",
			tr:   Track{Duration: 20, Volume: 99},
			t:    5,
			want: MaxVolume,
		},
		{
			name: "after own source ends",
			tr:   Track{Duration: 5, Delay: 3, Volume: 1},
			t:    9,
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tr.Gain(tc.t, total); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Gain(%v)=%v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestTrackSetters(t *testing.T) {
	tr := Track{Duration: 10}

	tr.SetStartPoint(15)
	if tr.StartPoint != 10 {
		t.Errorf("StartPoint=%v, want clamp to 10", tr.StartPoint)
	}
	tr.SetStartPoint(-2)
	if tr.StartPoint != 0 {
		t.Errorf("StartPoint=%v, want 0", tr.StartPoint)
	}

	tr.SetDelay(-5)
	if tr.Delay != 0 {
		t.Errorf("Delay=%v, want 0", tr.Delay)
	}
	tr.SetDelay(12.5)
	if tr.Delay != 12.5 {
		t.Errorf("Delay=%v, want 12.5", tr.Delay)
	}

	tr.SetVolume(99)
	if tr.Volume != MaxVolume {
		t.Errorf("Volume=%v, want %v", tr.Volume, MaxVolume)
	}
}

func TestCaptionActiveAndStyle(t *testing.T) {
	c := Caption{Start: 1, End: 4, Text: "hello"}

	if c.ActiveAt(0.999) || !c.ActiveAt(1) || !c.ActiveAt(3.999) || c.ActiveAt(4) {
		t.Fatalf("ActiveAt bounds wrong for [1,4)")
	}

	base := CaptionStyle{Size: 36, Color: "#ffffff", Background: "#00000080", Position: "bottom"}
	over := CaptionStyle{Size: 48, Position: "top"}
	got := over.Resolve(base)
	if got.Size != 48 || got.Color != "#ffffff" || got.Position != "top" || got.Background != "#00000080" {
		t.Fatalf("Resolve=%+v, want overrides on size/position only", got)
	}

	caps := []Caption{
		{Start: 0, End: 10, Text: "first"},
		{Start: 2, End: 3, Text: "second"},
		{Start: 5, End: 6, Text: "third"},
	}
	active := ActiveCaptions(caps, 2.5)
	if len(active) != 2 || active[0].Text != "first" || active[1].Text != "second" {
		t.Fatalf("ActiveCaptions(2.5)=%v, want first+second", active)
	}
}
