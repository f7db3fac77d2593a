package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"libraryhub/internal/adapters/http/handlers"
	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/adapters/http/routes"
	"libraryhub/internal/adapters/mail"
	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/adapters/queue"
	"libraryhub/internal/adapters/storage"
	"libraryhub/internal/config"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "libraryhub/docs" // Swagger docs
)

// @title LibraryHub API
// @version 1.0
// @description Library catalog, borrowing lifecycle and account API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@libraryhub.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppMode)

	// Connect to database
	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate")
	}
	log.Info().Msg("database migration completed")

	if cfg.IsDev() {
		if err := config.NewSeeder(db, log).Run(cfg.Seed); err != nil {
			log.Warn().Err(err).Msg("failed to seed data")
		}
	}

	ctx := context.Background()
	checks := map[string]handlers.Checker{}

	// Outgoing mail
	var redisClient *redis.Client
	var sender services.NotificationSender
	switch cfg.Mail.Driver {
	case "redis":
		redisClient, err = queue.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer redisClient.Close()
		sender = queue.NewStreamSender(redisClient, cfg.Redis.Stream)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	case "smtp":
		sender, err = mail.NewSMTPSender(cfg.SMTP)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure smtp")
		}
	default:
		sender = services.NewLogSender(log.With().Str("component", "mail").Logger())
	}

	// Avatar storage is optional
	var avatars services.AvatarStore
	if cfg.Storage.Endpoint != "" {
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init object storage")
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Warn().Err(err).Msg("avatar bucket unavailable")
		}
		avatars = store
	}

	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	otpRepo := repositories.NewOTPRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	borrowingRepo := repositories.NewBorrowingRepository(db)
	tx := repositories.NewTransactor(db)

	// Services
	notifier := services.NewNotificationService(sender, cfg.Mail, log)
	otpService := services.NewOTPService(otpRepo, notifier, cfg.OTP, log)
	authService := services.NewAuthService(accountRepo, otpService, cfg, log)
	accountService := services.NewAccountService(accountRepo, otpService, avatars, cfg, log)
	bookService := services.NewBookService(bookRepo, catalogRepo, log)
	borrowingService := services.NewBorrowingService(borrowingRepo, bookRepo, accountRepo, tx, cfg.Borrowing, log)
	dashboardService := services.NewDashboardService(db)

	cronService := services.NewCronService(borrowingService, otpService, cfg, log)
	if err := cronService.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start cron")
	}

	app := fiber.New(fiber.Config{
		AppName:      "LibraryHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		JSONEncoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		BodyLimit:    6 * 1024 * 1024,
	})

	middleware.Setup(app, cfg, log)

	routes.Setup(app, routes.Handlers{
		Health:    handlers.NewHealthHandler(checks),
		Auth:      handlers.NewAuthHandler(authService, cfg),
		Account:   handlers.NewAccountHandler(accountService),
		Book:      handlers.NewBookHandler(bookService),
		Borrowing: handlers.NewBorrowingHandler(borrowingService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
	}, authService)

	go gracefulShutdown(app, cronService, notifier, log)

	log.Info().Str("port", cfg.Port).Str("mail", cfg.Mail.Driver).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// gracefulShutdown stops accepting requests, then drains background work
func gracefulShutdown(app *fiber.App, cron *services.CronService, notifier *services.NotificationService, log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	cron.Stop()
	notifier.Wait()
	log.Info().Msg("server stopped gracefully")
}
