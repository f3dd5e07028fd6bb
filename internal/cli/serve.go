package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satindergrewal/okecreator/internal/api"
	"github.com/satindergrewal/okecreator/internal/audio"
	"github.com/satindergrewal/okecreator/internal/stream"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and the take preview streams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return a.serve(ctx)
		},
	}
	cmd.Flags().IntVar(&a.cfg.Port, "port", a.cfg.Port, "HTTP listen port")
	cmd.Flags().DurationVar(&a.cfg.CrossfadeDuration, "crossfade", a.cfg.CrossfadeDuration, "crossfade between previewed takes")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	log := a.logger

	// Preview player: decodes queued takes to 48 kHz stereo PCM
	player := audio.NewPlayer(audio.FFmpegDecoder(a.cfg.FFmpegBin), a.cfg.CrossfadeDuration, log)
	go player.Run(ctx)

	// Broadcaster: fan-out PCM frames to all listeners
	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, player.Frames())

	webrtcHandler := stream.NewWebRTCHandler(broadcaster, log)

	srv := api.New(a.service(), player, broadcaster, webrtcHandler, log)
	srv.Handle("/stream", stream.NewHTTPHandler(broadcaster, a.cfg.FFmpegBin, log))
	srv.Handle("/offer", webrtcHandler)

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	server := &http.Server{Addr: addr, Handler: srv}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		server.Close()
	}()

	log.Info("okecreator listening",
		zap.String("addr", addr),
		zap.String("downloads", a.cfg.DownloadsDir),
		zap.String("separation_dir", a.cfg.SeparationDir),
	)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
