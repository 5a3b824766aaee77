package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/store"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	// The server still starts; the authorize routes fall back and the
	// other Kakao routes answer with a configuration error.
	if err := cfg.Kakao.Validate(); err != nil {
		slog.Warn("kakao login disabled", "error", err)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanup, err := logging.StartCleanup(database.DB, logging.DefaultRetention)
	if err != nil {
		slog.Error("log cleanup not scheduled", "error", err)
		os.Exit(1)
	}

	// Services
	accountService := services.NewAccountService(store.NewUserStore(database.DB), cfg)
	kakaoClient := services.NewKakaoClient(cfg.Kakao)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.Metrics())
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	routes.Setup(app, routes.Handlers{
		Accounts: handlers.NewAccountHandler(accountService),
		Kakao:    handlers.NewKakaoHandler(kakaoClient, cfg.Kakao.FallbackRedirect),
		Health:   handlers.NewHealthHandler(database.DB),
	}, cfg.AuthRateLimit)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	<-cleanup.Stop().Done()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}
