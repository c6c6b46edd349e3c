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

	"github.com/hibiken/asynq"
	"github.com/hugh/lead-hunter/internal/api"
	"github.com/hugh/lead-hunter/internal/api/handlers"
	"github.com/hugh/lead-hunter/internal/api/middleware"
	"github.com/hugh/lead-hunter/internal/auth"
	"github.com/hugh/lead-hunter/internal/database"
	"github.com/hugh/lead-hunter/internal/leads"
	"github.com/hugh/lead-hunter/internal/observability/tracing"
	"github.com/hugh/lead-hunter/internal/tasks"
	"github.com/hugh/lead-hunter/pkg/config"
	"github.com/hugh/lead-hunter/pkg/queue"
	"github.com/hugh/lead-hunter/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting lead-hunter server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	shutdownTracing, err := tracing.Init(context.Background(), logger, cfg.Tracing.Endpoint, "lead-hunter-api", cfg.Server.Env)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	routerCfg := api.RouterConfig{
		DB:          db,
		Logger:      logger,
		JWTService:  jwtService,
		AuthService: authService,
		Leads:       leads.NewGormStore(db),
		Cookies: handlers.SessionCookies{
			Development: cfg.Server.IsDevelopment(),
			Domain:      cfg.Cookie.Domain,
			MaxAge:      jwtService.Expiry(),
		},
		ClientURLs: cfg.CORS.ClientURLs,
	}

	// Redis backs the health check, the shared rate limiter and the import
	// queue. Without it imports run inline and limits are per process.
	var (
		redisClient *redis.Client
		asynqClient *asynq.Client
		inspector   *asynq.Inspector
		memLimiter  *middleware.RateLimiter
	)
	if cfg.Redis.Enabled() {
		redisClient = queue.NewRedisClient(&cfg.Redis)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("failed to connect to Redis", "error", err)
			_ = redisClient.Close()
			redisClient = nil
		}
	}
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
		inspector = queue.NewInspector(&cfg.Redis)

		routerCfg.Redis = redisClient
		routerCfg.ImportQueue = tasks.NewEnqueuer(asynqClient)
		routerCfg.ImportStatus = tasks.NewStatusReader(inspector)
		routerCfg.Limiter = middleware.NewRedisLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window(), logger)
	} else {
		memLimiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window())
		routerCfg.Limiter = memLimiter
	}

	router := api.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      otelhttp.NewHandler(router, "lead-hunter-api"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // exports stream large files
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if memLimiter != nil {
		memLimiter.Stop()
	}
	if inspector != nil {
		_ = inspector.Close()
	}
	if asynqClient != nil {
		_ = asynqClient.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}

	if err := database.Close(db); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("server stopped")
}
