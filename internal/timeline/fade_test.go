package timeline

import (
	"math"
	"testing"
)

func TestFadeAlphaEdges(t *testing.T) {
	audio := AudioSettings{
		Volume:  1,
		FadeIn:  Fade{Enabled: true, Duration: 1},
		FadeOut: Fade{Enabled: true, Duration: 2},
	}
	const dur = 10.0

	tests := []struct {
		name  string
		local float64
		want  float64
	}{
		{name: "start of fade-in", local: 0, want: 0},
		{name: "middle of fade-in", local: 0.5, want: 0.5},
		{name: "end of fade-in", local: 1, want: 1},
		{name: "steady state", local: 5, want: 1},
		{name: "start of fade-out", local: 8, want: 1},
		{name: "middle of fade-out", local: 9, want: 0.5},
		{name: "end of item", local: 10, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FadeAlpha(tc.local, dur, audio)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("FadeAlpha(%v)=%v, want %v", tc.local, got, tc.want)
			}
		})
	}
}

func TestFadeAlphaMonotonic(t *testing.T) {
	audio := AudioSettings{
		FadeIn:  Fade{Enabled: true, Duration: 2},
		FadeOut: Fade{Enabled: true, Duration: 2},
	}
	const dur = 12.0

	prev := -1.0
	for local := 0.0; local <= 2.0+1e-9; local += 0.05 {
		got := FadeAlpha(local, dur, audio)
		if got < prev-1e-9 {
			t.Fatalf("fade-in not monotonic at local=%v: %v < %v", local, got, prev)
		}
		prev = got
	}

	prev = 2.0
	for local := 10.0; local <= 12.0+1e-9; local += 0.05 {
		got := FadeAlpha(local, dur, audio)
		if got > prev+1e-9 {
			t.Fatalf("fade-out not monotonic at local=%v: %v > %v", local, got, prev)
		}
		prev = got
	}
}

func TestFadeAlphaDisabled(t *testing.T) {
	if got := FadeAlpha(0, 10, AudioSettings{}); got != 1 {
		t.Fatalf("alpha=%v with fades disabled, want 1", got)
	}
	// Enabled flag without a positive duration is inert.
	audio := AudioSettings{FadeIn: Fade{Enabled: true}}
	if got := FadeAlpha(0, 10, audio); got != 1 {
		t.Fatalf("alpha=%v with zero fade duration, want 1", got)
	}
}

func TestFadeAlphaOverlappingWindows(t *testing.T) {
	// Item shorter than in+out: the smaller ramp wins everywhere.
	audio := AudioSettings{
		FadeIn:  Fade{Enabled: true, Duration: 2},
		FadeOut: Fade{Enabled: true, Duration: 2},
	}
	got := FadeAlpha(1.5, 2, audio)
	want := 0.25 // out ramp (2-1.5)/2, below the in ramp 0.75
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("alpha=%v, want %v", got, want)
	}
}

func TestItemGain(t *testing.T) {
	it := videoItem("v", 10)
	it.SetVolume(2)
	it.Audio.FadeIn = Fade{Enabled: true, Duration: 1}

	if got := ItemGain(&it, 0.5); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("gain=%v, want 1.0 (volume 2 × alpha 0.5)", got)
	}

	it.Audio.Mute = true
	if got := ItemGain(&it, 5); got != 0 {
		t.Fatalf("muted gain=%v, want 0", got)
	}

	if got := ItemGain(nil, 0); got != 0 {
		t.Fatalf("nil item gain=%v, want 0", got)
	}
}
