package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/config"
	"github.com/Emzykings/PallyOps-Tracker/internal/database"
	"github.com/Emzykings/PallyOps-Tracker/internal/events"
	httpapi "github.com/Emzykings/PallyOps-Tracker/internal/http"
	"github.com/Emzykings/PallyOps-Tracker/internal/logger"
	"github.com/Emzykings/PallyOps-Tracker/internal/repository"
	"github.com/Emzykings/PallyOps-Tracker/internal/schedule"
	"github.com/Emzykings/PallyOps-Tracker/internal/service"
	"github.com/Emzykings/PallyOps-Tracker/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "pallyops-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	calendar, err := schedule.LoadCalendar(cfg.Timezone)
	if err != nil {
		log.Fatal("Failed to load timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}
	roles := schedule.DefaultSequence()
	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		db       *sql.DB
		ops      repository.OperationsRepository
		users    repository.UsersRepository
		sessions repository.SessionsRepository
		checks   []httpapi.HealthCheck
		dbMode   = "memory"
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for pallyops-api", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}
	if db != nil {
		defer db.Close()
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, db, database.SchemaOptions{
				Batches:    schedule.AllBatches,
				Roles:      roles.Roles(),
				DriverRole: roles.Terminal(),
			}); err != nil {
				log.Fatal("Failed to migrate schema", zap.Error(err))
			}
		}
		pgUsers := repository.NewPostgresUsersRepository(db)
		users, sessions = pgUsers, pgUsers
		ops = repository.NewPostgresOperationsRepository(db)
		checks = append(checks, httpapi.HealthCheck{Name: "database", Check: db.PingContext})
		dbMode = "postgres"
	} else {
		memUsers := repository.NewMemoryUsersRepo()
		users, sessions = memUsers, memUsers
		ops = repository.NewMemoryOperationsRepo(memUsers)
	}

	var (
		kv        store.KV = store.NewMemoryKV()
		limiter   store.RateLimiter
		publisher events.Publisher = events.NopPublisher{}
		cacheMode = "memory"
	)
	limiter = store.NewMemoryRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	if cfg.RedisEnabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			defer redisClient.Close()
			kv = store.NewRedisKV(redisClient)
			limiter = store.NewRedisRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
			publisher = events.NewRedisStreamPublisher(redisClient, cfg.EventsStream)
			checks = append(checks, httpapi.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}})
			cacheMode = "redis"
			log.Info("Redis enabled for pallyops-api", zap.String("addr", cfg.Redis.Addr))
		} else {
			_ = redisClient.Close()
			log.Warn("Redis enabled but ping failed, falling back to memory", zap.Error(err))
		}
	}

	authSvc := service.NewAuthService(users, sessions, service.AuthOptions{
		Secret:     []byte(cfg.Auth.JWTSecret),
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, calendar.Now, log)
	opSvc := service.NewOperationService(ops, calendar, roles, publisher, log)
	batchSvc := service.NewBatchService(ops, calendar, roles, kv, cfg.SummaryCacheTTL, log)

	router := httpapi.NewRouter(authSvc, limiter, log)
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authSvc, log))
	router.RegisterOperationRoutes(httpapi.NewOperationsHandler(opSvc, log))
	router.RegisterBatchRoutes(httpapi.NewBatchesHandler(batchSvc, log))
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(httpapi.ServiceInfo{
		Name:     cfg.App.Name,
		Version:  cfg.App.Version,
		Debug:    cfg.App.Debug,
		Database: dbMode,
		Cache:    cacheMode,
	}, checks, calendar, roles, log))

	handler := httpapi.Chain(router,
		httpapi.RealIP(trustedProxies),
		httpapi.RequestID(),
		httpapi.SecurityHeaders(),
		httpapi.CORS(cfg.CORSOrigins()),
		httpapi.RequestLogger(log),
	)

	go service.SessionSweeper(ctx, authSvc, cfg.Auth.SessionSweepDur, log)

	srv := service.NewServer(cfg.HTTP.Addr, handler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
