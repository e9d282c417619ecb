package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/cropadvisor/internal/adapters/http/api"
	"github.com/okian/cropadvisor/internal/adapters/http/site"
	"github.com/okian/cropadvisor/internal/adapters/http/swagger"
	app "github.com/okian/cropadvisor/internal/app"
	"github.com/okian/cropadvisor/internal/config"
	"github.com/okian/cropadvisor/internal/version"
	"github.com/okian/cropadvisor/pkg/logger"
	"github.com/okian/cropadvisor/pkg/metrics"
	"github.com/okian/cropadvisor/pkg/tracing"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeoutSlack         = 5 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Initialize logging with defaults until the config names a format
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		loggerInstance.Error(ctx, "failed to listen", logger.String("addr", cfg.Addr), logger.Error(err))
		os.Exit(1)
	}

	if err := serve(ctx, cfg, ln); err != nil {
		loggerInstance.Error(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
	loggerInstance.Info(ctx, "server stopped")
}

// serve runs the HTTP server, the model watcher and the metrics updaters until
// ctx is cancelled or one of them fails.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	log := logger.Get()

	shutdownTracing, err := tracing.Setup(ctx, cfg.TraceExporter,
		tracing.WithServiceName("cropadvisor"),
		tracing.WithVersion(version.Version))
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn(ctx, "tracing shutdown failed", logger.Error(err))
		}
	}()

	components, err := app.FromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	svc := components.Service

	handler := api.NewServer(svc, api.WithLogger(log.Named("http"))).Router(swagger.Register, site.Register)

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.EnrichmentTimeout() + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server",
			logger.String("addr", ln.Addr().String()),
			logger.String("version", version.Version))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if cfg.WatchModels {
		g.Go(func() error {
			if err := components.Models.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				// Serving continues with the loaded models.
				log.Warn(gctx, "model watcher stopped", logger.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})

	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc)
		return nil
	})

	return g.Wait()
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater publishes limiter and model state until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges that otherwise only move on requests,
// so an idle window drains to zero.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.Stats()
	metrics.UpdateRateLimit(stats.RateLimit.Capacity, stats.RateLimit.InWindow)
	for _, m := range stats.Models {
		metrics.SetModelLoaded(m.Name, m.Loaded)
	}
}
