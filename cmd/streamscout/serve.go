package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/streamscout/streamscout/internal/api"
	"github.com/streamscout/streamscout/internal/config"
	"github.com/streamscout/streamscout/internal/database"
	"github.com/streamscout/streamscout/internal/logger"
	"github.com/streamscout/streamscout/internal/startup"
	"github.com/streamscout/streamscout/internal/websocket"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		Path:            cfg.Logging.Path,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		MaxBackups:      cfg.Logging.MaxBackups,
		MaxAgeDays:      cfg.Logging.MaxAgeDays,
		Compress:        cfg.Logging.Compress,
		EnableStreaming: true,
		BufferSize:      1000,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting Stream Scout")

	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
		return err
	}
	defer db.Close()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	// Enable log streaming via WebSocket now that hub is available
	log.SetBroadcastHub(hub)

	server, err := api.NewServer(db.Conn(), hub, cfg, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("failed to create API server")
		return err
	}
	server.SetLogsProvider(log)

	// Check the upstreams in the background so a missing network never
	// delays startup.
	go func() {
		err := startup.WithRetry(ctx, "upstream check", startup.DefaultRetryConfig(), server.Metadata().Test, log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("upstreams unavailable, requests will fail until they recover")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Msg("HTTP server listening")
		errCh <- server.Start(addr)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
	return serveErr
}
