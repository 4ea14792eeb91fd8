package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/briangreenhill/ytrater/cache"
	"github.com/briangreenhill/ytrater/gemini"
	"github.com/briangreenhill/ytrater/internal/config"
	"github.com/briangreenhill/ytrater/internal/http/routes"
	"github.com/briangreenhill/ytrater/internal/rater"
	"github.com/briangreenhill/ytrater/youtube"
)

const shutdownTimeout = 10 * time.Second

func newRunCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the rating HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid config: %w", err)
				}
			}
			if err := cfg.RequireCredentials(); err != nil {
				return fmt.Errorf("%w (set it with `ytrater config set` or %s*)", err, config.EnvPrefix)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

// buildServer wires cache, YouTube client, scorer and orchestrator behind
// the router.
func buildServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*routes.Server, error) {
	store, err := cache.NewFileCache(cfg.Cache.File, cfg.CacheExpiration(), cache.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	yt, err := youtube.New(cfg.YouTube.APIKey,
		youtube.WithHTTPClient(youtube.NewHTTPClient(cfg.YouTubeTimeout())),
		youtube.WithMaxComments(cfg.YouTube.MaxCommentsPerVideo),
		youtube.WithRateLimit(rate.Limit(cfg.YouTube.RequestsPerSecond), 1),
		youtube.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	scorer, err := gemini.NewScorer(ctx, cfg.Gemini.APIKey,
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithMaxComments(cfg.YouTube.MaxCommentsPerVideo),
		gemini.WithTimeout(cfg.GeminiTimeout()),
		gemini.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	svc := rater.New(store, yt, scorer, cfg.YouTube.MaxCommentsPerVideo)

	logger.Info().
		Str("config", cfg.Path()).
		Str("cache", store.Path()).
		Str("model", scorer.Model()).
		Int("max_comments", yt.MaxComments()).
		Dur("expiration", store.Expiration()).
		Msg("components ready")

	return routes.New(routes.ServerOptions{
		Rater:       svc,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	}), nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Log, os.Stdout)
	s, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
