package pitch

import (
	"math"
	"testing"
)

func TestDefaultRange(t *testing.T) {
	min, max := Default.Range()
	if min != -3 || max != 3 {
		t.Errorf("Default.Range() = (%d, %d), want (-3, 3)", min, max)
	}
	if got := len(Default.Entries()); got != 7 {
		t.Errorf("len(Entries) = %d, want 7", got)
	}
}

func TestRatioMatchesFormula(t *testing.T) {
	for s := -3; s <= 3; s++ {
		got, ok := Default.Ratio(s)
		if !ok {
			t.Fatalf("Ratio(%d) not found", s)
		}
		want := math.Pow(2, float64(s)/12)
		if math.Abs(got-want) > 1e-7 {
			t.Errorf("Ratio(%d) = %v, want %v", s, got, want)
		}
	}
}

func TestRatioZeroIsExactlyOne(t *testing.T) {
	got, ok := Default.Ratio(0)
	if !ok || got != 1.0 {
		t.Errorf("Ratio(0) = %v, %v; want exactly 1.0, true", got, ok)
	}
}

func TestRatioOrUnityFallsBack(t *testing.T) {
	for _, s := range []int{-12, -4, 4, 7, 100} {
		if got := Default.RatioOrUnity(s); got != 1.0 {
			t.Errorf("RatioOrUnity(%d) = %v, want 1.0", s, got)
		}
		if Default.Contains(s) {
			t.Errorf("Contains(%d) = true, want false", s)
		}
	}
	if got := Default.RatioOrUnity(3); got == 1.0 {
		t.Error("RatioOrUnity(3) fell back to 1.0 for an in-range offset")
	}
}

func TestNewTableSwapsBounds(t *testing.T) {
	tbl := NewTable(5, -5)
	min, max := tbl.Range()
	if min != -5 || max != 5 {
		t.Errorf("Range() = (%d, %d), want (-5, 5)", min, max)
	}
	if !tbl.Contains(5) || !tbl.Contains(-5) {
		t.Error("swapped table should contain both bounds")
	}
}

func TestEntriesSorted(t *testing.T) {
	entries := Default.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i].Semitones <= entries[i-1].Semitones {
			t.Fatalf("Entries not sorted at %d: %v", i, entries)
		}
	}
}

func TestFormatRatio(t *testing.T) {
	tests := []struct {
		semitones int
		want      string
	}{
		{-3, "0.840896"},
		{-2, "0.890899"},
		{-1, "0.943874"},
		{0, "1.0"},
		{1, "1.059463"},
		{2, "1.122462"},
		{3, "1.189207"},
		{12, "2.0"},
	}
	for _, tt := range tests {
		if got := FormatRatio(Compute(tt.semitones)); got != tt.want {
			t.Errorf("FormatRatio(Compute(%d)) = %q, want %q", tt.semitones, got, tt.want)
		}
	}
}

func TestFormatSemitones(t *testing.T) {
	tests := map[int]string{-3: "-3", -1: "-1", 0: "0", 1: "+1", 3: "+3"}
	for s, want := range tests {
		if got := FormatSemitones(s); got != want {
			t.Errorf("FormatSemitones(%d) = %q, want %q", s, got, want)
		}
	}
}
