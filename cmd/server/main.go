package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"user-account-backend/internal/cache"
	"user-account-backend/internal/config"
	"user-account-backend/internal/database"
	"user-account-backend/internal/handler"
	"user-account-backend/internal/logging"
	"user-account-backend/internal/queue"
	"user-account-backend/internal/repository"
	"user-account-backend/internal/router"
	"user-account-backend/internal/service"
	"user-account-backend/pkg/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log := logging.Setup(cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log.Info("configuration loaded", "env", cfg.App.Env, "db_driver", cfg.Database.Driver)

	// 2. Error reporting
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.App.Env,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			log.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// 3. Initialize database connection
	db, err := database.Connect(cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}
	store := repository.NewGormStore(db)

	// 4. Token and password primitives
	issuer, err := utils.NewIssuer(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	if err != nil {
		log.Error("token issuer setup failed", "error", err)
		os.Exit(1)
	}
	hasher := utils.NewPasswordHasher(cfg.Worker.HashWorkers, utils.DefaultArgon2Params)

	// 5. Optional cache and broker; nil interfaces when unconfigured
	var (
		principalCache service.Cache
		cachePinger    handler.Pinger
		publisher      service.EventPublisher
	)
	if cfg.Redis.URI != "" {
		redisClient := cache.New(cfg.Redis.URI)
		defer redisClient.Close()
		principalCache, cachePinger = redisClient, redisClient
		log.Info("principal cache enabled", "ttl", cfg.Redis.TTL.String())
	}
	if cfg.AMQP.URL != "" {
		amqpPublisher := queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.UserCreatedQueue)
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		log.Info("user.created publishing enabled", "queue", cfg.AMQP.UserCreatedQueue)
	}

	// 6. Initialize services
	authService := service.NewAuthService(log, store, hasher, issuer, publisher, principalCache, cfg.Redis.TTL)
	userService := service.NewUserService(log, store, hasher, principalCache, cfg.Redis.TTL)
	authenticator := service.NewAuthenticator(log, store, issuer, principalCache, cfg.Redis.TTL)
	sweeper := service.NewTokenSweeper(log, store.Tokens(), cfg.Worker.SweepInterval)

	// 7. Start background worker in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Start(ctx)

	// 8. Setup Gin router
	gin.SetMode(cfg.Server.GinMode)
	r := router.New(cfg, log, router.Dependencies{
		Auth:          authService,
		Users:         userService,
		Authenticator: authenticator,
		DB:            store,
		Cache:         cachePinger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 9. Setup graceful shutdown
	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Cancel background worker context
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}
