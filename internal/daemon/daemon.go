package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/t-race/typerace/internal/api"
	"github.com/t-race/typerace/internal/app/engagement"
	"github.com/t-race/typerace/internal/domain"
	"github.com/t-race/typerace/internal/health"
	"github.com/t-race/typerace/internal/infra/mongostore"
	"github.com/t-race/typerace/internal/infra/sqlite"
	"github.com/t-race/typerace/internal/logger"
)

// Version is stamped by the CLI at startup.
var Version = "dev"

// Daemon is the core typerace runtime. It wires together all services.
type Daemon struct {
	Config  Config
	Store   domain.Store
	Catalog *engagement.Catalog
	Server  *api.Server
	Health  *health.Checker
	cancel  context.CancelFunc

	Achievements  *engagement.AchievementService
	Stats         *engagement.StatService
	Sessions      *engagement.SessionService
	Progress      *engagement.ProgressService
	Notifications *engagement.NotificationService
	Profiles      *engagement.ProfileService
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	catalog := engagement.DefaultCatalog()
	d := &Daemon{
		Config:  cfg,
		Store:   store,
		Catalog: catalog,
	}

	// Engagement engine
	d.Achievements = engagement.NewAchievementService(store, catalog, cfg.RetryConfig())
	d.Stats = engagement.NewStatService(store, engagement.NewTracker(catalog))
	d.Sessions = engagement.NewSessionService(store, d.Achievements, d.Stats, cfg.Engagement.HistoryLimit)
	d.Progress = engagement.NewProgressService(store, catalog)
	d.Notifications = engagement.NewNotificationService(store, catalog)
	d.Profiles = engagement.NewProfileService(store)

	// Health checker
	dataDir := ""
	if cfg.Store.Driver == DriverSQLite || cfg.Store.Driver == "" {
		dataDir = cfg.Store.Dir
	}
	d.Health = health.NewChecker(store, catalog, dataDir)

	// Initialize API server
	d.Server = api.NewServer(api.Services{
		Catalog:       catalog,
		Achievements:  d.Achievements,
		Stats:         d.Stats,
		Sessions:      d.Sessions,
		Progress:      d.Progress,
		Notifications: d.Notifications,
		Profiles:      d.Profiles,
		Health:        d.Health,
	}, api.Options{
		Version:        Version,
		CORSOrigins:    cfg.API.CORSOrigins,
		RateLimitRPS:   cfg.API.RateLimitRPS,
		RateLimitBurst: cfg.API.RateLimitBurst,
		RequestTimeout: cfg.StoreTimeout() * 6,
	})

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		d.Server.EnableMetrics()
	}

	logger.Info().Str("driver", cfg.Store.Driver).Int("badges", catalog.Len()).Msg("daemon initialized")
	return d, nil
}

// OpenStore opens the persistence backend named by cfg.Store.Driver.
func OpenStore(cfg Config) (domain.Store, error) {
	switch cfg.Store.Driver {
	case DriverSQLite, "":
		dir := cfg.Store.Dir
		if dir == "" {
			dir = typeraceHome()
		}
		db, err := sqlite.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return db, nil

	case DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.StoreTimeout())
		defer cancel()
		s, err := mongostore.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w: %w", domain.ErrStoreUnavailable, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%q: %w", cfg.Store.Driver, domain.ErrUnknownStoreDriver)
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Health checker (always runs)
	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			logger.Info().Msg("shutdown signal received")
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.Store.Close()
	}()

	logger.Info().Str("addr", addr).Msg("typerace serving")
	fmt.Printf("typerace serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
}
