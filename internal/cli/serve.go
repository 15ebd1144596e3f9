package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/footprint/internal/api"
	"github.com/runnerr0/footprint/internal/classify"
	"github.com/runnerr0/footprint/internal/config"
	"github.com/runnerr0/footprint/internal/storage"
	"github.com/runnerr0/footprint/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, db, err := openStore(c.globals, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.serve(ctx, store, cfg)
}

func (c *ServeCommand) applyOverrides(cfg *config.Config) {
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
}

// newServer wires models, views and metrics into the HTTP server. Model
// load failures are logged and leave content analysis unavailable.
func (c *ServeCommand) newServer(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config, logger *zap.Logger) (*api.Server, error) {
	metrics := telemetry.NewMetrics()

	models, err := classify.New(classify.Options{
		Backend:       cfg.Models.Backend,
		BaseURL:       cfg.Models.BaseURL,
		RetryInterval: time.Duration(cfg.Models.RetrySeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Models.LoadOnStart {
		if err := models.Load(ctx); err != nil {
			logger.Warn("models unavailable, content analysis disabled", zap.Error(err))
		}
	}

	views, err := newViews(store, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	return api.NewServer(logger, &api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, api.Deps{
		Views:    views,
		Store:    store,
		Models:   models,
		Analyzer: classify.NewAnalyzer(models, logger),
		Metrics:  metrics,
	})
}

// serve runs the server and the retention pruner until ctx is cancelled or
// the server fails.
func (c *ServeCommand) serve(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	logger, cleanup, err := newLogger(c.globals, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := c.newServer(ctx, store, cfg, logger)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	logger.Info("footprint starting",
		zap.String("version", c.version),
		zap.String("models_backend", cfg.Models.Backend),
		zap.Int("retention_days", cfg.Retention.Days))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Retention.Days > 0 && cfg.Retention.PruneIntervalHours > 0 {
		p := newPruner(store, time.Duration(cfg.Retention.Days)*24*time.Hour, logger)
		interval := time.Duration(cfg.Retention.PruneIntervalHours) * time.Hour
		g.Go(func() error {
			p.run(gctx, interval)
			return nil
		})
	}

	return g.Wait()
}
