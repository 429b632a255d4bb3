package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/cashledger/internal/adapters/cache"
	"github.com/SscSPs/cashledger/internal/adapters/lock"
	"github.com/SscSPs/cashledger/internal/adapters/memory"
	portsrepo "github.com/SscSPs/cashledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashledger/internal/core/ports/services"
	"github.com/SscSPs/cashledger/internal/core/services"
	"github.com/SscSPs/cashledger/internal/handlers"
	"github.com/SscSPs/cashledger/internal/middleware"
	"github.com/SscSPs/cashledger/internal/platform/config"
	"github.com/SscSPs/cashledger/internal/platform/metrics"
	"github.com/SscSPs/cashledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/cashledger/migrations"
	"github.com/SscSPs/cashledger/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

// @title Cash Ledger API
// @version 1.0
// @description Cash register ledger: movements, reconciliation, load advice, shift transfers and audits.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := setupRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("backend", cfg.StorageBackend), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepos()

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.Error("Error closing redis client", slog.String("error", cerr.Error()))
			}
		}()
		logger.Info("Redis connection established.")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	container := services.NewServiceContainer(cfg, repos,
		services.WithMetrics(recorder),
		services.WithLocker(newLocker(cfg, redisClient)),
		services.WithBalanceCache(newBalanceCache(cfg, redisClient)),
	)

	r, err := newRouter(cfg, logger, container, recorder, reg, redisClient)
	if err != nil {
		logger.Error("Failed to build router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
}

// setupRepositories opens the configured storage backend. The returned func releases it.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore().Repositories(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	if err := database.RunMigrations(cfg.DatabaseURL, migrations.FS, logger); err != nil {
		database.ClosePgxPool(dbPool)
		return portsrepo.RepositoryProvider{}, nil, err
	}

	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

func newLocker(cfg *config.Config, client *redis.Client) portssvc.Locker {
	if cfg.LockBackend == config.LockRedis && client != nil {
		return lock.NewRedisLocker(client, lock.RedisOptions{
			Expiry:     cfg.LockExpiry,
			Tries:      cfg.LockTries,
			RetryDelay: cfg.LockRetryDelay,
		})
	}
	return lock.NewLocalLocker(cfg.LockWaitTimeout)
}

func newBalanceCache(cfg *config.Config, client *redis.Client) portssvc.BalanceCache {
	if cfg.BalanceCacheEnabled && client != nil {
		return cache.NewRedisBalanceCache(client, cfg.BalanceCacheTTL)
	}
	return cache.Nop{}
}

func newRouter(
	cfg *config.Config,
	logger *slog.Logger,
	container *portssvc.ServiceContainer,
	recorder *metrics.Recorder,
	gatherer prometheus.Gatherer,
	redisClient *redis.Client,
) (*gin.Engine, error) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), recorder.GinMiddleware())

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSAllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
			ExposeHeaders: []string{"X-Request-ID"},
			MaxAge:        12 * time.Hour,
		}))
	}

	if cfg.RateLimit != "" {
		limiter, err := middleware.NewLimiter(cfg.RateLimit, redisClient)
		if err != nil {
			return nil, err
		}
		r.Use(middleware.RateLimit(limiter))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	handlers.RegisterRoutes(r, cfg, container, gatherer)
	return r, nil
}
