// Package pitch maps semitone offsets to pitch ratios for the key-change step.
package pitch

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultMin and DefaultMax bound the key changes offered by default.
	DefaultMin = -3
	DefaultMax = 3
)

// Entry is one row of the quick-reference table.
type Entry struct {
	Semitones int     `json:"semitones"`
	Ratio     float64 `json:"ratio"`
}

// Table is an immutable semitone -> ratio mapping over a closed range.
type Table struct {
	min    int
	ratios map[int]float64
}

// NewTable precomputes ratio = 2^(s/12) for every s in [min, max].
// Bounds are swapped if given in the wrong order.
func NewTable(min, max int) *Table {
	if min > max {
		min, max = max, min
	}
	t := &Table{min: min, ratios: make(map[int]float64, max-min+1)}
	for s := min; s <= max; s++ {
		t.ratios[s] = Compute(s)
	}
	return t
}

// Default is the -3..+3 table used when nothing else is configured.
var Default = NewTable(DefaultMin, DefaultMax)

// Compute returns 2^(semitones/12). Compute(0) is exactly 1.
func Compute(semitones int) float64 {
	return math.Pow(2, float64(semitones)/12)
}

// Ratio returns the precomputed ratio and whether semitones is in range.
func (t *Table) Ratio(semitones int) (float64, bool) {
	r, ok := t.ratios[semitones]
	return r, ok
}

// RatioOrUnity returns the ratio for semitones, or 1.0 (no pitch change)
// when the offset is outside the table.
func (t *Table) RatioOrUnity(semitones int) float64 {
	if r, ok := t.ratios[semitones]; ok {
		return r
	}
	return 1.0
}

// Contains reports whether semitones is a key of the table.
func (t *Table) Contains(semitones int) bool {
	_, ok := t.ratios[semitones]
	return ok
}

// Range returns the closed bounds of the table.
func (t *Table) Range() (min, max int) {
	return t.min, t.min + len(t.ratios) - 1
}

// Entries returns every row sorted by semitone offset.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.ratios))
	for s, r := range t.ratios {
		out = append(out, Entry{Semitones: s, Ratio: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Semitones < out[j].Semitones })
	return out
}

// FormatRatio renders r rounded to 6 decimal places, always with a
// fractional part: 1 -> "1.0", 2^(3/12) -> "1.189207".
func FormatRatio(r float64) string {
	s := strconv.FormatFloat(math.Round(r*1e6)/1e6, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// FormatSemitones renders an offset the way take names and displays show it:
// "+3", "-2", "0".
func FormatSemitones(s int) string {
	if s == 0 {
		return "0"
	}
	if s > 0 {
		return "+" + strconv.Itoa(s)
	}
	return strconv.Itoa(s)
}
