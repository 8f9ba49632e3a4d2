package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/oklog/run"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/api"
	"github.com/sahilchouksey/uniguide-api/config"
	"github.com/sahilchouksey/uniguide-api/database"
	"github.com/sahilchouksey/uniguide-api/repository"
	"github.com/sahilchouksey/uniguide-api/router"
	"github.com/sahilchouksey/uniguide-api/services"
	"github.com/sahilchouksey/uniguide-api/services/cron"
	"github.com/sahilchouksey/uniguide-api/services/sources"
	"github.com/sahilchouksey/uniguide-api/utils"
	"github.com/sahilchouksey/uniguide-api/utils/auth"
	"github.com/sahilchouksey/uniguide-api/utils/cache"
	"github.com/sahilchouksey/uniguide-api/utils/middleware"
)

// Runtime is the wired object graph shared by the API server and the operator CLI.
type Runtime struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   *database.GORMStore
	Cache   cache.Cache
	Repo    *repository.Repository
	Sources *sources.Registry
	Refresh *services.RefreshService
	Catalog *services.CatalogService
	Health  *services.HealthService
}

// Bootstrap loads configuration, connects the store and cache, applies
// migrations and builds the services.
func Bootstrap(ctx context.Context) (*Runtime, error) {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return nil, err
	}

	cfg, err := config.Get(ctx)
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewLogger(cfg.GoEnv)
	if err != nil {
		return nil, fmt.Errorf("error creating logger: %w", err)
	}

	// Initialize GORM database connection
	store, err := database.StartGORM(ctx, cfg, logger)
	if err != nil {
		logger.Error("check whether Postgres is running", zap.String("host", cfg.Database.Host), zap.Error(err))
		return nil, err
	}

	if err := store.Init(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	registry, err := sources.NewRegistryFromConfig(cfg.Sources, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	c := cache.New(ctx, cfg.Cache, logger)
	repo := repository.NewRepository(store.GetDB())

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Cache:   c,
		Repo:    repo,
		Sources: registry,
		Refresh: services.NewRefreshService(repo, registry, c, cfg.Refresh.DefaultYear, logger),
		Catalog: services.NewCatalogService(repo, c, cfg.Cache.TTL, logger),
		Health:  services.NewHealthService(store, c, repo.RefreshLog, logger),
	}, nil
}

// Close releases the cache and the database pool.
func (rt *Runtime) Close() {
	if err := rt.Cache.Close(); err != nil {
		rt.Logger.Warn("error closing cache", zap.Error(err))
	}
	if err := rt.Store.Close(); err != nil {
		rt.Logger.Warn("error closing database", zap.Error(err))
	}
	_ = rt.Logger.Sync()
}

func SetupAndRunServer() error {
	ctx := context.Background()

	rt, err := Bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config
	logger := rt.Logger

	var jwtManager *auth.JWTManager
	if cfg.Refresh.APISecret != "" {
		jwtManager = auth.NewJWTManager(auth.JWTConfig{Secret: cfg.Refresh.APISecret})
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", cfg.Port), logger)
	router.SetupRoutes(server.GetEngine(), router.Dependencies{
		Catalog: rt.Catalog,
		Refresh: rt.Refresh,
		Health:  rt.Health,
		Runs:    rt.Repo.RefreshLog,
		Security: middleware.SecurityConfig{
			AllowedOrigins:    cfg.HTTP.AllowedOrigins,
			RateLimitRequests: cfg.HTTP.RateLimitRequests,
			RateLimitWindow:   cfg.HTTP.RateLimitWindow,
		},
		JWT:    jwtManager,
		Logger: logger,
	})

	var g run.Group

	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	g.Add(func() error {
		return server.Run()
	}, func(error) {
		downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(downCtx); err != nil {
			logger.Error("error shutting down server", zap.Error(err))
		}
	})

	// Cron scheduler (only if enabled via environment variable)
	if cfg.Refresh.CronEnabled {
		cronManager := cron.NewCronManager(rt.Refresh, cfg.Refresh, logger)
		cronCtx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			if err := cronManager.Start(); err != nil {
				return fmt.Errorf("error starting cron jobs: %w", err)
			}
			<-cronCtx.Done()
			cronManager.Stop()
			return nil
		}, func(error) {
			cancel()
		})
	}

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		logger.Info("received signal, shut down", zap.Stringer("signal", sig.Signal))
		return nil
	}
	return err
}
