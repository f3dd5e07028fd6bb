package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/okecreator/internal/ffmpeg"
	"github.com/satindergrewal/okecreator/internal/pitch"
	"github.com/satindergrewal/okecreator/internal/probe"
	"github.com/satindergrewal/okecreator/internal/studio"
	"github.com/satindergrewal/okecreator/internal/take"
)

func (a *app) downloadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "downloads",
		Short: "List source songs in the downloads folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := a.library().Sources()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(srcs) == 0 {
				fmt.Fprintf(out, "no audio files in %s\n", a.cfg.DownloadsDir)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, s := range srcs {
				meta := s.Title
				if s.Artist != "" && s.Title != "" {
					meta = s.Artist + " - " + s.Title
				}
				fmt.Fprintf(tw, "%s\t%.1f MB\t%s\n", s.Name, float64(s.Size)/(1<<20), meta)
			}
			return tw.Flush()
		},
	}
}

func (a *app) songsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "songs",
		Short: "List separated songs and their takes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := a.library()
			songs, err := lib.Songs()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(songs) == 0 {
				fmt.Fprintf(out, "no separated songs in %s\n", lib.Work)
				return nil
			}
			for _, song := range songs {
				stems := lib.Stems(song)
				var have []string
				for _, t := range take.Types {
					if _, ok := stems[t]; ok {
						have = append(have, t.Token())
					}
				}
				takes, _ := lib.Takes(song)
				fmt.Fprintf(out, "%s\t[%s]\t%d takes\n", song, strings.Join(have, " "), len(takes))
				for _, p := range takes {
					fmt.Fprintf(out, "  %s\n", filepath.Base(p))
				}
			}
			return nil
		},
	}
}

func (a *app) tableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the semitone to pitch ratio table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tRATIO")
			for _, e := range a.table().Entries() {
				fmt.Fprintf(tw, "%s\t%s\n", pitch.FormatSemitones(e.Semitones), pitch.FormatRatio(e.Ratio))
			}
			return tw.Flush()
		},
	}
}

// resolveSource accepts a path or a file name from the downloads folder.
func (a *app) resolveSource(arg string) (string, error) {
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		return arg, nil
	}
	src, err := a.library().Source(arg)
	if err != nil {
		return "", err
	}
	return src.Path, nil
}

func (a *app) separateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "separate <file>",
		Short: "Split a song into vocals and no_vocals stems with demucs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.resolveSource(args[0])
			if err != nil {
				return err
			}
			svc := a.service()
			var res studio.SeparateResult
			a.withSpinner(cmd.Context(), cmd.ErrOrStderr(), "separating", func() {
				res = svc.Separate(cmd.Context(), input)
			})
			out := cmd.OutOrStdout()
			printRun(out, res.Result)
			if !res.Succeeded {
				return fmt.Errorf("separation of %s failed: %w", res.Song, res.Err)
			}
			fmt.Fprintf(out, "elapsed: %s\n", res.Elapsed.Round(time.Second))
			for _, t := range take.Types {
				if p, ok := res.Stems[t]; ok {
					fmt.Fprintf(out, "%-8s %s\n", t.Token()+":", p)
				}
			}
			return nil
		},
	}
}

func (a *app) convertCmd() *cobra.Command {
	var (
		typ     string
		key     int
		formant bool
		profile string
		rate    int
		version int
		name    string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "convert <song>",
		Short: "Render a key-shifted take of a separated song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := take.ParseType(typ)
			if err != nil {
				return err
			}
			p, err := ffmpeg.ParseProfile(profile)
			if err != nil {
				return err
			}
			req := studio.ConvertRequest{
				Song:       args[0],
				Type:       t,
				Semitones:  key,
				Profile:    p,
				SampleRate: rate,
				Version:    version,
				OutputName: strings.TrimSuffix(name, take.Ext),
			}
			if cmd.Flags().Changed("formant") {
				req.Formant = &formant
			}

			svc := a.service()
			out := cmd.OutOrStdout()
			if dryRun {
				plan, err := svc.Plan(req)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, plan.Invocation.String())
				return nil
			}

			var res studio.ConvertResult
			a.withSpinner(cmd.Context(), cmd.ErrOrStderr(), "converting", func() {
				res, err = svc.Convert(cmd.Context(), req)
			})
			if err != nil {
				return err
			}
			printRun(out, res.Result)
			if !res.Succeeded {
				return fmt.Errorf("conversion failed: %w", res.Err)
			}
			fmt.Fprintf(out, "output:  %s\n", res.Output)
			if res.Probe != nil {
				fmt.Fprintf(out, "format:  %d Hz, %d ch, %s\n", res.Probe.SampleRate, res.Probe.Channels, res.Probe.Duration.Round(time.Millisecond))
			}
			if res.ProbeErr != nil {
				fmt.Fprintf(out, "warning: %v\n", res.ProbeErr)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", "vocals", "track type: vocals, novocals or original")
	f.IntVarP(&key, "key", "k", 0, "key change in semitones")
	f.BoolVar(&formant, "formant", false, "preserve formants (default on for vocals only)")
	f.StringVarP(&profile, "profile", "p", ffmpeg.Profile44k.String(), "output profile: 44kHz or 48kHz")
	f.IntVar(&rate, "rate", 0, "override the 44kHz profile sample rate")
	f.IntVar(&version, "version", 0, "take version 1-99 (0 picks the next free one)")
	f.StringVar(&name, "name", "", "output file name instead of the conventional one")
	f.BoolVarP(&dryRun, "dry-run", "n", false, "print the ffmpeg command without running it")
	return cmd
}

func (a *app) probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>...",
		Short: "Show sample rate, channels and duration of audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			var failed int
			for _, path := range args {
				info, err := probe.File(path)
				if err != nil {
					fmt.Fprintf(tw, "%s\terror: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%d Hz\t%d ch\t%s\n",
					path, info.Format, info.SampleRate, info.Channels, info.Duration.Round(time.Millisecond))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be probed", failed, len(args))
			}
			return nil
		},
	}
}
