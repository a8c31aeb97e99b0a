package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cimillas/ticket-issuer/internal/app"
	"github.com/cimillas/ticket-issuer/internal/auth"
	"github.com/cimillas/ticket-issuer/internal/clock"
	"github.com/cimillas/ticket-issuer/internal/config"
	"github.com/cimillas/ticket-issuer/internal/storage/postgres"
	"github.com/cimillas/ticket-issuer/internal/storage/rediscache"
	transporthttp "github.com/cimillas/ticket-issuer/internal/transport/http"
)

const (
	startupTimeout    = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type serveOptions struct {
	autoMigrate bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.autoMigrate, "auto-migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	loader := config.NewLoader(root.envFile)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	logger := newLogger(cfg.LogFormat, level, os.Stderr)
	slog.SetDefault(logger)

	if cfg.EnvFile != "" {
		logger.Info("loaded env", "file", cfg.EnvFile)
	}
	loader.Watch(logger, func(next config.Config) {
		if next.LogLevel != level.Level() {
			logger.Info("log level changed", "level", next.LogLevel)
			level.Set(next.LogLevel)
		}
	})

	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.autoMigrate {
		if err := runMigrate(ctx, cfg, logger); err != nil {
			return err
		}
	}

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := postgres.Open(startupCtx, cfg.DatabaseURL, 0)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewTicketRepository(pool)
	svcOpts := []app.TicketServiceOption{app.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		rdb, err := rediscache.Connect(startupCtx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn("ticket cache disabled", "err", err)
		} else {
			defer rdb.Close()
			svcOpts = append(svcOpts, app.WithTicketCache(rediscache.NewTicketCache(rdb, cfg.CacheTTL)))
			logger.Info("ticket cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		}
	}

	svc := app.NewTicketService(repo, clock.NewSystem(), cfg.BaseURL, svcOpts...)
	verifier := auth.NewVerifier(cfg.AuthDomain,
		auth.WithTimeout(cfg.AuthTimeout),
		auth.WithLogger(logger),
	)

	mux := transporthttp.NewRouter(transporthttp.RouterConfig{
		Tickets:  svc,
		Verifier: verifier,
		Health:   repo,
		Logger:   logger,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", "addr", server.Addr, "base_url", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down, draining in-flight requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
