package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/OmChannawar/Listify/api/handler"
	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/internal/config"
	"github.com/OmChannawar/Listify/internal/infrastructure/monitor"
	pgInfra "github.com/OmChannawar/Listify/internal/infrastructure/postgres"
	redisInfra "github.com/OmChannawar/Listify/internal/infrastructure/redis"
	"github.com/OmChannawar/Listify/internal/middleware"
	"github.com/OmChannawar/Listify/internal/router"
	"github.com/OmChannawar/Listify/internal/services"
	"github.com/OmChannawar/Listify/internal/services/lifecycle"
	"github.com/OmChannawar/Listify/pkg/httpcontext"
	"github.com/OmChannawar/Listify/pkg/logger"
	"github.com/OmChannawar/Listify/repository"
	boltRepo "github.com/OmChannawar/Listify/repository/bolt"
	pgRepo "github.com/OmChannawar/Listify/repository/postgres"
	redisRepo "github.com/OmChannawar/Listify/repository/redis"
	sqliteRepo "github.com/OmChannawar/Listify/repository/sqlite"
	"github.com/OmChannawar/Listify/scoring"
	analyticsUC "github.com/OmChannawar/Listify/usecase/analytics"
	leaderboardUC "github.com/OmChannawar/Listify/usecase/leaderboard"
	profileUC "github.com/OmChannawar/Listify/usecase/profile"
	rewardUC "github.com/OmChannawar/Listify/usecase/reward"
	taskUC "github.com/OmChannawar/Listify/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		zapLogger.Fatal("invalid scoring timezone", zap.Error(err))
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	store, err := openStore(appCtx, cfg, zapLogger, manager)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.Register("store", func(ctx context.Context) error {
		return store.Close()
	})

	mon := monitor.New(cfg.HTTP.HealthInterval, zapLogger)
	mon.Register(cfg.Storage.Driver, 3*time.Second, store.Ping)

	var index repository.LeaderboardIndex
	if cfg.Redis.Enabled {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		mon.Register("redis", 3*time.Second, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		index = redisRepo.NewLeaderboardIndex(redisClient, cfg.Redis.LeaderboardKey)
	}

	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var catalog []domain.Reward
	if cfg.Rewards.CatalogPath != "" {
		catalog, err = rewardUC.LoadCatalog(cfg.Rewards.CatalogPath)
		if err != nil {
			zapLogger.Fatal("reward catalog invalid", zap.String("path", cfg.Rewards.CatalogPath), zap.Error(err))
		}
	}

	engine := scoring.NewEngine(loc)

	taskUseCase := taskUC.New(store, engine, index, zapLogger)
	profileUseCase := profileUC.New(store, engine, index, zapLogger)
	rewardUseCase := rewardUC.New(store, engine, catalog, index, zapLogger)
	leaderboardUseCase := leaderboardUC.New(store, index, engine, zapLogger)
	analyticsUseCase := analyticsUC.New(store, engine, index, loc, zapLogger)

	if err := leaderboardUseCase.Rebuild(appCtx); err != nil {
		zapLogger.Warn("leaderboard index rebuild failed, global board reads the store", zap.Error(err))
	}

	if cfg.Cleanup.Enabled {
		sweeper, err := services.NewSweeper(store.Tasks(), zapLogger, services.SweeperConfig{
			Retention: cfg.Cleanup.Retention,
			Interval:  cfg.Cleanup.Interval,
		})
		if err != nil {
			zapLogger.Fatal("cleanup sweeper", zap.Error(err))
		}
		sweeper.Start()
		manager.Register("sweeper", func(ctx context.Context) error {
			sweeper.Stop(ctx)
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:        apiHandler.NewTaskHandler(taskUseCase, loc, ctxAdapter, zapLogger),
		Profile:     apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Leaderboard: apiHandler.NewLeaderboardHandler(leaderboardUseCase, ctxAdapter, zapLogger),
		Reward:      apiHandler.NewRewardHandler(rewardUseCase, ctxAdapter, zapLogger),
		Analytics:   apiHandler.NewAnalyticsHandler(analyticsUseCase, ctxAdapter, zapLogger),
		Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("redis", cfg.Redis.Enabled))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openStore opens the configured backend. The Postgres pool is registered
// with the manager separately because the store does not own it.
func openStore(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, manager *lifecycle.Manager) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return sqliteRepo.Open(cfg.Storage.SQLitePath)
	case config.DriverBolt:
		return boltRepo.Open(cfg.Storage.BoltPath, cfg.Storage.BoltBucket)
	default:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, err
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return pgRepo.NewStore(pool), nil
	}
}
