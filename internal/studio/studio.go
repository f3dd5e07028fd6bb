// Package studio runs the two workflow steps, separation and key change,
// on top of the command builders and the process runner. External tools
// run one at a time; callers block until each finishes.
package studio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satindergrewal/okecreator/internal/demucs"
	"github.com/satindergrewal/okecreator/internal/ffmpeg"
	"github.com/satindergrewal/okecreator/internal/library"
	"github.com/satindergrewal/okecreator/internal/pitch"
	"github.com/satindergrewal/okecreator/internal/probe"
	"github.com/satindergrewal/okecreator/internal/runner"
	"github.com/satindergrewal/okecreator/internal/take"
)

// ErrKeyRange flags an offset outside the pitch table. It is only reported,
// the builder still runs at ratio 1.0.
var ErrKeyRange = errors.New("key change outside supported range")

// ErrInvalidSong is returned for song names that are empty or not a single
// folder name inside the work dir.
var ErrInvalidSong = errors.New("invalid song name")

func validSong(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name
}

// Service wires library, builders and runner together.
type Service struct {
	lib     *library.Library
	sep     demucs.Separator
	builder *ffmpeg.Builder
	runner  *runner.Runner
	logger  *zap.Logger

	mu sync.Mutex // one external process at a time
}

// New creates a Service. The library work dir should be sep.ModelDir().
func New(lib *library.Library, sep demucs.Separator, builder *ffmpeg.Builder, r *runner.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lib: lib, sep: sep, builder: builder, runner: r, logger: logger}
}

// Library exposes the folder layout the service works on.
func (s *Service) Library() *library.Library { return s.lib }

// Table is the pitch table used by the builder.
func (s *Service) Table() *pitch.Table { return s.builder.Table }

// SeparateResult is the outcome of a separation run.
type SeparateResult struct {
	runner.Result
	RunID   string
	Song    string
	Stems   map[take.Type]string
	Elapsed time.Duration
}

// Separate splits input into vocals and no_vocals.
func (s *Service) Separate(ctx context.Context, input string) SeparateResult {
	res := SeparateResult{RunID: uuid.NewString(), Song: demucs.TrackName(input)}
	log := s.logger.With(zap.String("run", res.RunID), zap.String("song", res.Song))

	inv := s.sep.Command(input)
	log.Info("separating", zap.String("cmd", inv.String()))

	s.mu.Lock()
	start := time.Now()
	res.Result = s.runner.Run(ctx, inv)
	res.Elapsed = time.Since(start)
	s.mu.Unlock()

	if !res.Succeeded {
		log.Error("separation failed", zap.String("kind", string(res.Kind())), zap.Error(res.Err))
		return res
	}
	res.Stems = s.lib.Stems(res.Song)
	log.Info("separation done", zap.Duration("elapsed", res.Elapsed), zap.Int("stems", len(res.Stems)))
	return res
}

// ConvertRequest is one key-change job as a caller describes it.
type ConvertRequest struct {
	Song       string
	Type       take.Type
	Semitones  int
	Formant    *bool // nil uses the type's default
	Profile    ffmpeg.Profile
	SampleRate int    // Profile44k only; 0 means 44100
	Version    int    // 0 picks the next free version
	OutputName string // overrides the conventional name; no extension
}

// Plan is a resolved job: the builder request, the command and the take spec.
type Plan struct {
	Request    ffmpeg.Request
	Invocation runner.Invocation
	Spec       take.Spec
	OutOfRange bool
}

// Plan resolves input and output paths and builds the command without
// running anything.
func (s *Service) Plan(req ConvertRequest) (Plan, error) {
	if !validSong(req.Song) {
		return Plan{}, fmt.Errorf("%w: %q", ErrInvalidSong, req.Song)
	}
	input, err := s.lib.Input(req.Song, req.Type)
	if err != nil {
		return Plan{}, err
	}

	spec := take.Spec{
		Song:       req.Song,
		Type:       req.Type,
		Semitones:  req.Semitones,
		Profile:    req.Profile,
		Version:    req.Version,
		SampleRate: req.SampleRate,
	}
	if spec.Version == 0 {
		if spec.Version, err = s.lib.NextVersion(spec); err != nil {
			return Plan{}, err
		}
	}
	if err := spec.Validate(); err != nil {
		return Plan{}, err
	}

	name := spec.Name()
	if req.OutputName != "" {
		name = req.OutputName
		if filepath.Base(name) != name {
			return Plan{}, fmt.Errorf("output name %q must not contain a path", name)
		}
	}

	formant := req.Type.DefaultFormant()
	if req.Formant != nil {
		formant = *req.Formant
	}
	if !req.Type.AllowsFormant() {
		formant = false
	}

	freq := ffmpeg.Request{
		Input:      input,
		Output:     take.Path(s.lib.Work, req.Song, name),
		Semitones:  req.Semitones,
		Formant:    formant,
		Profile:    req.Profile,
		SampleRate: req.SampleRate,
	}
	return Plan{
		Request:    freq,
		Invocation: s.builder.Build(freq),
		Spec:       spec,
		OutOfRange: !s.builder.Table.Contains(req.Semitones),
	}, nil
}

// ConvertResult is the outcome of a key-change run.
type ConvertResult struct {
	runner.Result
	RunID    string
	Plan     Plan
	Output   string
	Probe    *probe.Info
	ProbeErr error
	Elapsed  time.Duration
}

// Convert plans and runs one job. The error is non-nil only when the job
// cannot be planned; tool failures are reported in the Result.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (ConvertResult, error) {
	plan, err := s.Plan(req)
	if err != nil {
		return ConvertResult{}, err
	}
	res := ConvertResult{RunID: uuid.NewString(), Plan: plan, Output: plan.Request.Output}
	log := s.logger.With(
		zap.String("run", res.RunID),
		zap.String("song", req.Song),
		zap.Stringer("type", req.Type),
		zap.Int("key", req.Semitones),
		zap.Stringer("profile", req.Profile),
	)
	if plan.OutOfRange {
		log.Warn("key change outside table, pitch left unchanged", zap.Error(ErrKeyRange))
	}
	log.Info("converting", zap.String("cmd", plan.Invocation.String()))

	if err := os.MkdirAll(filepath.Dir(res.Output), 0o755); err != nil {
		return ConvertResult{}, fmt.Errorf("create output dir: %w", err)
	}

	s.mu.Lock()
	start := time.Now()
	res.Result = s.runner.Run(ctx, plan.Invocation)
	res.Elapsed = time.Since(start)
	s.mu.Unlock()

	if !res.Succeeded {
		log.Error("conversion failed", zap.String("kind", string(res.Kind())), zap.Error(res.Err))
		return res, nil
	}

	if probe.Supported(res.Output) {
		info, err := probe.File(res.Output)
		if err == nil {
			res.Probe = &info
			err = probe.Verify(info, plan.Request)
		}
		if err != nil {
			res.ProbeErr = err
			log.Warn("output check failed", zap.Error(err))
		}
	}
	log.Info("conversion done", zap.Duration("elapsed", res.Elapsed), zap.String("output", res.Output))
	return res, nil
}
