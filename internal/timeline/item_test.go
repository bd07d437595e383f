package timeline

import (
	"math"
	"testing"
)

func TestAdoptNaturalDefaultsTrimOnce(t *testing.T) {
	it := Item{ID: "v", Kind: KindVideo}

	it.AdoptNatural(30)
	if it.TrimStart != 0 || it.TrimEnd != 30 {
		t.Fatalf("first adopt trim=[%v,%v], want [0,30]", it.TrimStart, it.TrimEnd)
	}

	// An edited trim must survive a re-probe of the same source.
	it.SetTrimStart(5)
	it.SetTrimEnd(25)
	it.AdoptNatural(30)
	if it.TrimStart != 5 || it.TrimEnd != 25 {
		t.Fatalf("re-adopt reset trim to [%v,%v], want [5,25]", it.TrimStart, it.TrimEnd)
	}
}

func TestAdoptNaturalShrinkingSource(t *testing.T) {
	it := Item{ID: "v", Kind: KindVideo}
	it.AdoptNatural(30)
	it.SetTrimStart(20)
	it.SetTrimEnd(28)

	// Source replaced by a shorter one: trim is pulled back inside it.
	it.AdoptNatural(10)
	if it.TrimEnd > 10 {
		t.Fatalf("TrimEnd=%v, want <= 10", it.TrimEnd)
	}
	if it.TrimStart > it.TrimEnd-MinTrimGap {
		t.Fatalf("trim gap violated: [%v,%v]", it.TrimStart, it.TrimEnd)
	}
}

func TestTrimEdits(t *testing.T) {
	tests := []struct {
		name      string
		edit      func(*Item)
		wantStart float64
		wantEnd   float64
	}{
		{
			name:      "end update trims tail",
			edit:      func(it *Item) { it.SetTrimEnd(25) },
			wantStart: 5,
			wantEnd:   25,
		},
		{
			name:      "end below start coerced to minimum gap",
			edit:      func(it *Item) { it.SetTrimEnd(2) },
			wantStart: 5,
			wantEnd:   5.1,
		},
		{
			name:      "start above end coerced to minimum gap",
			edit:      func(it *Item) { it.SetTrimStart(40) },
			wantStart: 29.9,
			wantEnd:   30,
		},
		{
			name:      "negative start clamps to zero",
			edit:      func(it *Item) { it.SetTrimStart(-3) },
			wantStart: 0,
			wantEnd:   30,
		},
		{
			name:      "end clamps to natural duration",
			edit:      func(it *Item) { it.SetTrimEnd(99) },
			wantStart: 5,
			wantEnd:   30,
		},
		{
			name:      "nan edit ignored",
			edit:      func(it *Item) { it.SetTrimEnd(math.NaN()) },
			wantStart: 5,
			wantEnd:   30,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			it := Item{ID: "v", Kind: KindVideo}
			it.AdoptNatural(30)
			it.SetTrimStart(5)
			tc.edit(&it)

			if math.Abs(it.TrimStart-tc.wantStart) > 1e-9 {
				t.Errorf("TrimStart=%v, want %v", it.TrimStart, tc.wantStart)
			}
			if math.Abs(it.TrimEnd-tc.wantEnd) > 1e-9 {
				t.Errorf("TrimEnd=%v, want %v", it.TrimEnd, tc.wantEnd)
			}
			// Invariant after any edit.
			if it.TrimStart < 0 {
				t.Errorf("TrimStart=%v, want >= 0", it.TrimStart)
			}
			if it.TrimStart > it.TrimEnd-MinTrimGap+1e-9 {
				t.Errorf("gap violated: start=%v end=%v", it.TrimStart, it.TrimEnd)
			}
			if it.TrimEnd > it.Natural {
				t.Errorf("TrimEnd=%v beyond natural %v", it.TrimEnd, it.Natural)
			}
		})
	}
}

func TestTrimScenarioSingleEndUpdate(t *testing.T) {
	// originalDuration=30, start=5, then one end update to 25 → duration 20.
	it := Item{ID: "v", Kind: KindVideo}
	it.AdoptNatural(30)
	it.SetTrimStart(5)
	it.SetTrimEnd(25)

	if got := it.Duration(); math.Abs(got-20) > 1e-9 {
		t.Fatalf("Duration=%v, want 20", got)
	}
}

func TestSetDisplayFloor(t *testing.T) {
	it := Item{ID: "i", Kind: KindImage}

	it.SetDisplay(3)
	if it.Display != 3 {
		t.Fatalf("Display=%v, want 3", it.Display)
	}
	it.SetDisplay(0.1)
	if it.Display != MinImageDisplay {
		t.Fatalf("Display=%v, want floor %v", it.Display, MinImageDisplay)
	}

	// Display edits do not apply to video items.
	v := Item{ID: "v", Kind: KindVideo}
	v.SetDisplay(3)
	if v.Display != 0 {
		t.Fatalf("video Display=%v, want 0", v.Display)
	}
}

func TestTransformAndVolumeClamps(t *testing.T) {
	it := videoItem("v", 10)

	it.SetScale(10)
	if it.Transform.Scale != MaxScale {
		t.Errorf("Scale=%v, want %v", it.Transform.Scale, MaxScale)
	}
	it.SetScale(0.01)
	if it.Transform.Scale != MinScale {
		t.Errorf("Scale=%v, want %v", it.Transform.Scale, MinScale)
	}

	it.SetOffset(99999, -99999)
	if it.Transform.X != MaxOffsetX || it.Transform.Y != -MaxOffsetY {
		t.Errorf("offset=(%v,%v), want (%v,%v)", it.Transform.X, it.Transform.Y, MaxOffsetX, -MaxOffsetY)
	}

	it.SetVolume(9)
	if it.Audio.Volume != MaxVolume {
		t.Errorf("Volume=%v, want %v", it.Audio.Volume, MaxVolume)
	}
	it.SetVolume(-1)
	if it.Audio.Volume != 0 {
		t.Errorf("Volume=%v, want 0", it.Audio.Volume)
	}
}

func TestAllowedFadeDuration(t *testing.T) {
	for _, d := range FadeDurations {
		if !AllowedFadeDuration(d) {
			t.Errorf("AllowedFadeDuration(%v)=false, want true", d)
		}
	}
	for _, d := range []float64{0, 0.3, 1.5, 3} {
		if AllowedFadeDuration(d) {
			t.Errorf("AllowedFadeDuration(%v)=true, want false", d)
		}
	}
}
