package export

import (
	"testing"
	"time"
)

func TestArtifactBaseName(t *testing.T) {
	when := time.Date(2025, 3, 9, 14, 30, 5, 0, time.UTC)

	cases := []struct {
		name     string
		template string
		title    string
		want     string
	}{
		{"default template", "montage_$STAMP", "", "montage_20250309_143005"},
		{"title token", "$TITLE-$STAMP", "Beach Trip!", "Beach_Trip-20250309_143005"},
		{"safe title", "$SAFE_TITLE", "Beach Trip", "beach_trip"},
		{"dollar escape", "cost$$5_$STAMP", "", "cost_5_20250309_143005"},
		{"unknown token dropped", "x$NOPEy", "", "xy"},
		{"empty template falls back", "", "", "montage_20250309_143005"},
		{"all-symbol result falls back", "$TITLE", "!!!", "montage_20250309_143005"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ArtifactBaseName(tc.template, tc.title, when)
			if got != tc.want {
				t.Fatalf("ArtifactBaseName(%q, %q) = %q, want %q", tc.template, tc.title, got, tc.want)
			}
		})
	}
}
