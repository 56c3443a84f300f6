package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/auth"
	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/config"
	"github.com/MrSnakeDoc/bookmarker/internal/form"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/metrics"
	"github.com/MrSnakeDoc/bookmarker/internal/scheduler"
	"github.com/MrSnakeDoc/bookmarker/internal/session"
	"github.com/MrSnakeDoc/bookmarker/internal/utils"
	"github.com/MrSnakeDoc/bookmarker/internal/version"
)

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	server    *httpserver.Server
	backend   *backend
	collector *scheduler.Collector
}

// New loads the configuration, connects the storage backend and builds
// every component. Nothing is started yet.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Connect early - fail fast if the backend is unavailable
	loggerClient.Infof("Opening %s backend", cfg.Backend)
	be, err := openBackend(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	loggerClient.Info("backend initialized successfully", logger.String("backend", be.name))

	authSvc := auth.NewService(be.directory, loggerClient)
	if err := authSvc.Provision(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		closeBackend(be, loggerClient)
		return nil, err
	}

	bookmarkSvc := bookmarks.NewService(be.repo, loggerClient)
	m := metrics.New()

	collector := scheduler.NewCollector(be.orphans, be.expired, m, loggerClient, cfg.GCInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RequestTimeout:  cfg.RequestTimeout,
		Backend:         be.name,
		Components:      map[string]deps.Pinger{"storage": be.storage},
		Auth:            authSvc,
		Bookmarks:       bookmarkSvc,
		Form:            form.NewController(bookmarkSvc),
		Signer:          session.NewSigner(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure),
		Slots:           be.slots,
		SessionTTL:      cfg.SessionTTL,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Metrics:         m,
	}

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		server:    httpserver.New(cfg, loggerClient, d),
		backend:   be,
		collector: collector,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Bookmarker v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Bookmarker %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the collector (runs once, then periodically)
	if a.collector.Enabled() {
		a.collector.Start(ctx)
		a.logger.Info("collector started",
			logger.Duration("interval", a.cfg.GCInterval))
	} else {
		a.logger.Info("collector disabled, the backend keeps referential integrity")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.collector.Stop()
		closeBackend(a.backend, a.logger)
		return err
	}

	a.collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	closeBackend(a.backend, a.logger)

	a.logger.Info("✅ Bookmarker stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

func closeBackend(be *backend, log logger.Logger) {
	if be.closer != nil {
		utils.MustClose(be.closer, be.name, log)
	}
}
