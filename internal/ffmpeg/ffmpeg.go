// Package ffmpeg builds the FFmpeg + rubberband invocations that pitch-shift
// and resample a take. Builders are pure: no filesystem access, no errors.
package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/satindergrewal/okecreator/internal/pitch"
	"github.com/satindergrewal/okecreator/internal/runner"
)

const (
	// DefaultProgram is the FFmpeg executable looked up on PATH.
	DefaultProgram = "ffmpeg"

	// Rate44k is the default rate of the arbitrary-rate profile.
	Rate44k = 44100
	// Rate48k is the fixed rate of the 48 kHz profile.
	Rate48k = 48000

	// FormantNeutral is the formant parameter appended when formants are kept.
	FormantNeutral = "1.0"
)

// Profile selects between the two command variants.
type Profile int

const (
	// Profile44k always applies the pitch filter and writes an explicit rate.
	Profile44k Profile = iota
	// Profile48k forces 48 kHz stereo and filters only for a non-zero offset.
	Profile48k
)

func (p Profile) String() string {
	switch p {
	case Profile44k:
		return "44kHz"
	case Profile48k:
		return "48kHz"
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// ParseProfile accepts "44", "44k", "44kHz", "44.1kHz", "44100" and the 48k
// equivalents.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "44", "44k", "44kHz", "44khz", "44.1", "44.1k", "44.1kHz", "44.1khz", "44100":
		return Profile44k, nil
	case "48", "48k", "48kHz", "48khz", "48000":
		return Profile48k, nil
	}
	return 0, fmt.Errorf("unknown output profile %q (want 44kHz or 48kHz)", s)
}

// Request is one pitch-change/resample conversion.
type Request struct {
	Input     string
	Output    string
	Semitones int
	Formant   bool
	Profile   Profile
	// SampleRate applies to Profile44k only; zero means 44100.
	SampleRate int
}

// Rate returns the output sample rate the request will produce.
func (r Request) Rate() int {
	if r.Profile == Profile48k {
		return Rate48k
	}
	if r.SampleRate > 0 {
		return r.SampleRate
	}
	return Rate44k
}

// Builder turns Requests into invocations against one pitch table.
type Builder struct {
	Program string
	Table   *pitch.Table
}

// NewBuilder returns a Builder; empty program and nil table use the defaults.
func NewBuilder(program string, table *pitch.Table) *Builder {
	if program == "" {
		program = DefaultProgram
	}
	if table == nil {
		table = pitch.Default
	}
	return &Builder{Program: program, Table: table}
}

// Filter returns the rubberband filter expression for a ratio.
func Filter(ratio float64, formant bool) string {
	f := "rubberband=pitch=" + pitch.FormatRatio(ratio)
	if formant {
		f += ":formant=" + FormantNeutral
	}
	return f
}

// Build dispatches on the request profile.
func (b *Builder) Build(req Request) runner.Invocation {
	if req.Profile == Profile48k {
		return b.Build48k(req)
	}
	return b.BuildRate(req)
}

// BuildRate is the arbitrary-rate variant. The filter is always present,
// including the identity shift at offset 0.
func (b *Builder) BuildRate(req Request) runner.Invocation {
	rate := req.SampleRate
	if rate <= 0 {
		rate = Rate44k
	}
	ratio := b.Table.RatioOrUnity(req.Semitones)
	return runner.Invocation{
		Program: b.Program,
		Args: []string{
			"-i", req.Input,
			"-filter:a", Filter(ratio, req.Formant),
			"-ar", strconv.Itoa(rate),
			"-y",
			req.Output,
		},
		Input: req.Input,
	}
}

// Build48k is the fixed 48 kHz stereo variant. No filter is emitted when
// the offset is zero.
func (b *Builder) Build48k(req Request) runner.Invocation {
	args := []string{
		"-i", req.Input,
		"-ar", strconv.Itoa(Rate48k),
		"-ac", "2",
		"-y",
	}
	if req.Semitones != 0 {
		ratio := b.Table.RatioOrUnity(req.Semitones)
		args = append(args, "-filter:a", Filter(ratio, req.Formant))
	}
	args = append(args, req.Output)
	return runner.Invocation{Program: b.Program, Args: args, Input: req.Input}
}
