// Package cli is the okecreator command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"github.com/satindergrewal/okecreator/internal/config"
	"github.com/satindergrewal/okecreator/internal/demucs"
	"github.com/satindergrewal/okecreator/internal/ffmpeg"
	"github.com/satindergrewal/okecreator/internal/library"
	"github.com/satindergrewal/okecreator/internal/pitch"
	"github.com/satindergrewal/okecreator/internal/runner"
	"github.com/satindergrewal/okecreator/internal/studio"
)

type app struct {
	cfg        config.Config
	logger     *zap.Logger
	noProgress bool
}

// NewRootCmd builds the command tree. Flag defaults come from the
// OKE_* environment.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "okecreator",
		Short:         "Separate songs into stems and render key-shifted karaoke takes",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.cfg.LogLevel, a.cfg.LogFormat)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfg.DownloadsDir, "downloads", a.cfg.DownloadsDir, "folder scanned for source songs")
	f.StringVar(&a.cfg.SeparationDir, "separation-dir", a.cfg.SeparationDir, "demucs output folder")
	f.StringVar(&a.cfg.FFmpegBin, "ffmpeg", a.cfg.FFmpegBin, "ffmpeg binary")
	f.StringVar(&a.cfg.PythonBin, "python", a.cfg.PythonBin, "python interpreter with demucs installed")
	f.StringVar(&a.cfg.DemucsModel, "model", a.cfg.DemucsModel, "demucs model name (empty for htdemucs)")
	f.DurationVar(&a.cfg.RunTimeout, "timeout", a.cfg.RunTimeout, "kill external tools after this long (0 waits forever)")
	f.IntVar(&a.cfg.MinKey, "min-key", a.cfg.MinKey, "lowest key change in the pitch table")
	f.IntVar(&a.cfg.MaxKey, "max-key", a.cfg.MaxKey, "highest key change in the pitch table")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "debug, info, warn or error")
	f.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "console or json")
	f.BoolVar(&a.noProgress, "no-progress", false, "hide the elapsed-time spinner during external runs")

	root.AddCommand(
		a.downloadsCmd(),
		a.songsCmd(),
		a.tableCmd(),
		a.separateCmd(),
		a.convertCmd(),
		a.probeCmd(),
		a.serveCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q (want console or json)", format)
	}
	zc.Level = lvl
	return zc.Build()
}

func (a *app) separator() demucs.Separator {
	return demucs.Separator{Python: a.cfg.PythonBin, Model: a.cfg.DemucsModel, OutDir: a.cfg.SeparationDir}
}

func (a *app) library() *library.Library {
	return library.New(a.cfg.DownloadsDir, a.separator().ModelDir())
}

func (a *app) table() *pitch.Table {
	return pitch.NewTable(a.cfg.MinKey, a.cfg.MaxKey)
}

func (a *app) service() *studio.Service {
	return studio.New(
		a.library(),
		a.separator(),
		ffmpeg.NewBuilder(a.cfg.FFmpegBin, a.table()),
		runner.New(a.logger, runner.WithTimeout(a.cfg.RunTimeout)),
		a.logger,
	)
}

// withSpinner shows label with a spinner and elapsed time on w while fn runs.
func (a *app) withSpinner(ctx context.Context, w io.Writer, label string, fn func()) {
	if a.noProgress {
		fn()
		return
	}
	p := mpb.NewWithContext(ctx, mpb.WithOutput(w), mpb.WithWidth(8))
	bar := p.New(0, mpb.SpinnerStyle(),
		mpb.PrependDecorators(decor.Name(label+" ")),
		mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_MMSS)),
	)
	fn()
	bar.SetTotal(-1, true)
	p.Wait()
}

func printRun(w io.Writer, res runner.Result) {
	fmt.Fprintf(w, "command: %s\n", res.Command)
	if res.Succeeded {
		fmt.Fprintln(w, "status:  ok")
		return
	}
	fmt.Fprintf(w, "status:  failed (%s)\n", res.Kind())
	fmt.Fprintf(w, "error:   %v\n", res.Err)
	if res.Diagnostic != "" {
		fmt.Fprintf(w, "stderr:\n%s\n", res.Diagnostic)
	}
}
