package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Result is the outcome of one invocation. Command always holds the text of
// the invocation, including when the input pre-check failed.
type Result struct {
	Succeeded  bool
	Command    string
	Diagnostic string
	Err        error
}

// Kind classifies the failure, KindNone on success.
func (r Result) Kind() Kind {
	return KindOf(r.Err)
}

// Runner executes invocations one at a time, blocking until each exits.
type Runner struct {
	timeout time.Duration
	env     []string
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout kills the process after d. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(kv ...string) Option {
	return func(r *Runner) { r.env = append(r.env, kv...) }
}

// New creates a Runner. A nil logger disables logging.
func New(logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run checks the input exists, launches the program and waits for it.
// It never returns a Go error: every failure is folded into the Result.
func (r *Runner) Run(ctx context.Context, inv Invocation) Result {
	res := Result{Command: inv.String()}
	log := r.logger.With(zap.String("program", inv.Program))

	if inv.Input != "" {
		if _, err := os.Stat(inv.Input); err != nil {
			res.Err = &MissingInputError{Path: inv.Input, Err: err}
			res.Diagnostic = res.Err.Error()
			log.Warn("input missing, not launching", zap.String("input", inv.Input))
			return res
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	res.Diagnostic = stderr.String()

	if err == nil {
		res.Succeeded = true
		log.Debug("command finished", zap.Duration("elapsed", elapsed))
		return res
	}

	// A non-nil ProcessState means the program started and exited.
	if ps := cmd.ProcessState; ps != nil {
		res.Err = &ExitError{
			Program:  inv.Program,
			Code:     ps.ExitCode(),
			Stderr:   res.Diagnostic,
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		}
		log.Warn("command failed",
			zap.Int("code", ps.ExitCode()),
			zap.Duration("elapsed", elapsed),
			zap.String("stderr", res.Diagnostic))
		return res
	}

	res.Err = &LaunchError{Program: inv.Program, Err: err}
	if res.Diagnostic == "" {
		res.Diagnostic = err.Error()
	}
	log.Error("command could not start", zap.Error(err))
	return res
}
