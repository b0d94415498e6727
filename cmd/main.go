package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/factboard/internal/adapters/http/api"
	"github.com/okian/factboard/internal/adapters/http/swagger"
	"github.com/okian/factboard/internal/adapters/repository"
	app "github.com/okian/factboard/internal/app"
	"github.com/okian/factboard/internal/config"
	"github.com/okian/factboard/internal/domain/submission"
	"github.com/okian/factboard/pkg/logger"
	"github.com/okian/factboard/pkg/metrics"
	"github.com/okian/factboard/pkg/retry"
)

// HTTP server timeout constants. The write timeout comes from config.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("factboard: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Get()

	opts, err := serviceOptions(cfg, log)
	if err != nil {
		return err
	}
	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx, metrics.RefreshInterval())

	srv := newServer(cfg, newHandler(ctx, cfg, svc, log))

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newServer builds the HTTP server; its write timeout outlasts the store
// retry budget enforced by config.Validate.
func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// serviceOptions translates configuration into service options.
func serviceOptions(cfg *config.Config, log logger.Logger) ([]app.Option, error) {
	policy, err := submission.ParsePolicy(cfg.NumericPolicy)
	if err != nil {
		return nil, err
	}

	storeOpts := []repository.Option{
		repository.WithURL(cfg.StoreURL),
		repository.WithKey(cfg.StoreKey),
		repository.WithSQLitePath(cfg.SQLitePath),
		repository.WithMigrate(cfg.StoreMigrate),
	}
	if cfg.SeedBaseline {
		storeOpts = append(storeOpts, repository.WithSeed(repository.Baseline()))
	}

	return []app.Option{
		app.WithLogger(log),
		app.WithStoreDriver(cfg.StoreDriver, storeOpts...),
		app.WithRetryPolicy(retry.Policy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay(),
		}),
		app.WithStoreTimeout(cfg.StoreTimeout()),
		app.WithNumericPolicy(policy),
		app.WithGroundTruthPath(cfg.GroundTruthPath),
	}, nil
}

// newHandler builds the HTTP routing tree.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithLogger(log.Named("http")),
	)
	apiServer.Register(ctx, mux)

	return api.CORSMiddleware(cfg.CORSAllowOrigin, mux)
}

// startSystemMetricsUpdater samples runtime metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	metrics.CollectSystem()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.CollectSystem()
		}
	}
}
