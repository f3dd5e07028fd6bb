// Package take names converted output files and holds the per-track-type
// rules of the key-change step.
package take

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/satindergrewal/okecreator/internal/demucs"
	"github.com/satindergrewal/okecreator/internal/ffmpeg"
	"github.com/satindergrewal/okecreator/internal/pitch"
)

const (
	MinVersion = 1
	MaxVersion = 99

	// Ext is the extension of every produced take.
	Ext = ".wav"
)

// ErrVersionRange is returned for versions outside MinVersion..MaxVersion.
var ErrVersionRange = errors.New("version must be between 1 and 99")

// Type is the source a take is made from.
type Type int

const (
	Vocals Type = iota
	NoVocals
	Original
)

// Types lists every source in display order.
var Types = []Type{Vocals, NoVocals, Original}

// Token is the name fragment used in output file names.
func (t Type) Token() string {
	switch t {
	case Vocals:
		return "vocals"
	case NoVocals:
		return "novocals"
	case Original:
		return "original"
	}
	return "unknown"
}

func (t Type) String() string { return t.Token() }

// Stem returns the separated stem backing this type; Original has none.
func (t Type) Stem() (string, bool) {
	switch t {
	case Vocals:
		return demucs.VocalsStem, true
	case NoVocals:
		return demucs.NoVocalsStem, true
	}
	return "", false
}

// DefaultFormant is on for vocals only.
func (t Type) DefaultFormant() bool { return t == Vocals }

// AllowsFormant is false for the original mix.
func (t Type) AllowsFormant() bool { return t != Original }

// ParseType accepts the name tokens and the stem names.
func ParseType(s string) (Type, error) {
	switch s {
	case "vocals":
		return Vocals, nil
	case "novocals", "no_vocals", "no-vocals", "instrumental":
		return NoVocals, nil
	case "original":
		return Original, nil
	}
	return 0, fmt.Errorf("unknown track type %q (want vocals, novocals or original)", s)
}

// Spec is everything that goes into a conventional take name.
type Spec struct {
	Song      string
	Type      Type
	Semitones int
	Profile   ffmpeg.Profile
	Version   int

	// SampleRate overrides the 44kHz profile rate; 0 means 44100.
	SampleRate int
}

// Validate checks the version range.
func (s Spec) Validate() error {
	if s.Version < MinVersion || s.Version > MaxVersion {
		return fmt.Errorf("%w: got %d", ErrVersionRange, s.Version)
	}
	return nil
}

// Name renders <song>_<type>_<key>_<44kHz|48kHz>_v<version>, without extension.
// A non-default 44kHz profile rate shows its own token, e.g. 22.05kHz.
func (s Spec) Name() string {
	return fmt.Sprintf("%s_%s_%s_%s_v%d",
		s.Song, s.Type.Token(), pitch.FormatSemitones(s.Semitones), s.RateToken(), s.Version)
}

// RateToken is the sample-rate part of the name.
func (s Spec) RateToken() string {
	if s.Profile == ffmpeg.Profile48k || s.SampleRate <= 0 || s.SampleRate == ffmpeg.Rate44k {
		return s.Profile.String()
	}
	return strconv.FormatFloat(float64(s.SampleRate)/1000, 'f', -1, 64) + "kHz"
}

// Path joins workDir/<song>/<name>.wav.
func Path(workDir, song, name string) string {
	return filepath.Join(workDir, song, name+Ext)
}
