// shiftplan planning service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiftplan/shiftplan/internal/config"
	"github.com/shiftplan/shiftplan/internal/database"
	"github.com/shiftplan/shiftplan/internal/handler"
	"github.com/shiftplan/shiftplan/internal/metrics"
	"github.com/shiftplan/shiftplan/internal/middleware"
	"github.com/shiftplan/shiftplan/internal/repository"
	"github.com/shiftplan/shiftplan/internal/security"
	"github.com/shiftplan/shiftplan/internal/storage"
	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/scheduler/solver"
)

// Build information, injected with ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.WithError(err).Msg("server failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.Logger())

	profiles, err := config.LoadProfiles(cfg.Planner.ProfilesFile)
	if err != nil {
		return err
	}
	store, err := storage.NewArtifactStore(cfg.Planner.ArtifactDir)
	if err != nil {
		return err
	}

	registry := solver.NewDefaultRegistry(
		solver.WithLogger(logger.NewPlannerLogger()),
		solver.WithWorkers(cfg.Planner.Workers),
	)
	reg := metrics.GetRegistry()

	metricsPath := cfg.Metrics.Path
	if !cfg.Metrics.Enabled {
		metricsPath = ""
	}
	opts := []handler.Option{
		handler.WithStore(store),
		handler.WithMetrics(reg),
		handler.WithDefaults(cfg.Planner.DefaultProfile, cfg.Planner.ConstraintMode),
		handler.WithTimeout(cfg.Planner.Timeout),
		handler.WithMaxBodyBytes(cfg.API.MaxBodyBytes),
		handler.WithMetricsPath(metricsPath),
		handler.WithBuildInfo(handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit}),
	}
	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(ctx)
		cancel()
		if err != nil {
			return err
		}
		opts = append(opts,
			handler.WithRecorder(repository.NewPlanRepository(db)),
			handler.WithHealthCheck(db.Health),
		)
	}

	h := handler.New(registry, profiles, opts...)

	// requestID -> recovery -> rateLimit -> cors -> headers -> logging -> auth -> handler
	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Recovery,
	}
	if cfg.API.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(middleware.NewRateLimiter(float64(cfg.API.RateLimit))))
	}
	chain = append(chain, middleware.CORS, middleware.SecurityHeaders, middleware.Logging(reg))

	keys, err := security.ParseKeys(cfg.API.Keys)
	if err != nil {
		return err
	}
	if keys.Len() > 0 {
		public := []string{"/health", "/version"}
		if metricsPath != "" {
			public = append(public, metricsPath)
		}
		chain = append(chain, middleware.APIKeyAuth(keys, public, "/api/v1/plans/generate"))
	} else {
		logger.Warn().Msg("API_KEYS is empty, authentication disabled")
	}
	root := middleware.Chain(h.Routes(), chain...)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("artifacts", store.Root()).
			Strs("profiles", profiles.Names()).
			Bool("database", cfg.Database.Enabled).
			Int("api_keys", keys.Len()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
