// Package demucs builds the two-stem separation invocation and locates the
// stems it writes.
package demucs

import (
	"path/filepath"
	"strings"

	"github.com/satindergrewal/okecreator/internal/runner"
)

const (
	DefaultPython = "python"
	DefaultModel  = "htdemucs"

	VocalsStem   = "vocals"
	NoVocalsStem = "no_vocals"
)

// Separator describes how to call Demucs.
type Separator struct {
	Python string // interpreter used as `<python> -m demucs`
	Model  string // empty leaves the Demucs default (htdemucs)
	OutDir string // passed to -o; Demucs writes under OutDir/<model>/<track>
}

// Command builds `<python> -m demucs --two-stems=vocals -o <out> [-n model] <input>`.
func (s Separator) Command(input string) runner.Invocation {
	python := s.Python
	if python == "" {
		python = DefaultPython
	}
	args := []string{"-m", "demucs", "--two-stems=" + VocalsStem, "-o", s.OutDir}
	if s.Model != "" {
		args = append(args, "-n", s.Model)
	}
	args = append(args, input)
	return runner.Invocation{Program: python, Args: args, Input: input}
}

// ModelDir is where Demucs puts per-track folders: <OutDir>/<model>.
func (s Separator) ModelDir() string {
	model := s.Model
	if model == "" {
		model = DefaultModel
	}
	return filepath.Join(s.OutDir, model)
}

// TrackName is the input file name without its extension.
func TrackName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// StemDir is the folder that will hold vocals/no_vocals for input.
func (s Separator) StemDir(input string) string {
	return filepath.Join(s.ModelDir(), TrackName(input))
}

// StemPath returns the expected path of one stem with the given extension.
func (s Separator) StemPath(input, stem, ext string) string {
	if ext == "" {
		ext = ".wav"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(s.StemDir(input), stem+ext)
}
