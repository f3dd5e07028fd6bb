// Package probe reads audio headers to report and verify what a conversion
// produced.
package probe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"

	"github.com/satindergrewal/okecreator/internal/ffmpeg"
)

var (
	ErrUnsupported = errors.New("unsupported audio format")
	ErrMismatch    = errors.New("output does not match requested profile")
)

// Info describes an audio file.
type Info struct {
	Path       string        `json:"path"`
	Format     string        `json:"format"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Precision  int           `json:"precision"` // bytes per sample
	Duration   time.Duration `json:"duration"`
	Size       int64         `json:"size"`
}

// Supported reports whether File can read path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".mp3", ".flac":
		return true
	}
	return false
}

// File decodes just enough of path to fill Info.
func File(path string) (Info, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return Info{}, fmt.Errorf("stat %s: %w", path, err)
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	}
	if err != nil {
		f.Close()
		return Info{}, fmt.Errorf("decode %s: %w", path, err)
	}
	// Closing the stream closes f.
	defer s.Close()

	return Info{
		Path:       path,
		Format:     strings.TrimPrefix(ext, "."),
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Precision:  format.Precision,
		Duration:   format.SampleRate.D(s.Len()),
		Size:       st.Size(),
	}, nil
}

// Verify checks info against the rate and channel layout req asks for.
func Verify(info Info, req ffmpeg.Request) error {
	if want := req.Rate(); info.SampleRate != want {
		return fmt.Errorf("%w: sample rate %d, want %d", ErrMismatch, info.SampleRate, want)
	}
	if req.Profile == ffmpeg.Profile48k && info.Channels != 2 {
		return fmt.Errorf("%w: %d channels, want 2", ErrMismatch, info.Channels)
	}
	return nil
}
