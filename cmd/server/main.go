package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emaihl-library/internal/adapters/ai"
	"emaihl-library/internal/adapters/gateway"
	"emaihl-library/internal/adapters/http/handlers"
	"emaihl-library/internal/adapters/http/middleware"
	"emaihl-library/internal/adapters/http/routes"
	"emaihl-library/internal/adapters/persistence/repositories"
	"emaihl-library/internal/adapters/persistence/store"
	"emaihl-library/internal/config"
	"emaihl-library/internal/core/services"
	"emaihl-library/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	_ "emaihl-library/docs" // Swagger docs
)

// @title EMAIHL Library API
// @version 1.0
// @description School library dashboard: catalog, students, loans and the library assistant

// @contact.name Library IT
// @contact.email library@emaihl.k12.tr

// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Record store: local driver, or a remote gateway when GATEWAY_URL is set
	var (
		docStore store.Store
		executor gateway.Executor
		pinger   handlers.Pinger
	)
	if cfg.Gateway.URL != "" {
		executor = gateway.NewClient(cfg.Gateway.URL, &http.Client{Timeout: 30 * time.Second})
		logger.Info("🌐 Using remote record gateway", zap.String("url", cfg.Gateway.URL))
	} else {
		docStore, err = config.OpenStore(cfg, logger)
		if err != nil {
			logger.Fatal("❌ Failed to open record store", zap.Error(err))
		}
		svc := gateway.NewService(docStore, logger)
		executor, pinger = svc, svc
	}

	v := validation.New()
	repo := repositories.NewLibraryRepository(executor, v, logger)

	if cfg.SeedSampleData {
		seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := config.NewSeeder(repo, logger).Run(seedCtx); err != nil {
			logger.Warn("⚠️ Failed to seed sample data", zap.Error(err))
		}
		cancel()
	}

	// Initial load. A failure leaves the library in the error phase with a diagnostic.
	library := services.NewLibraryService(repo, cfg.CheckConnection, logger)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), time.Minute)
	if err := library.Load(loadCtx); err != nil {
		logger.Error("❌ Initial library load failed", zap.Error(err))
	}
	cancelLoad()

	// Library assistant
	var generator services.Generator
	if cfg.GenAI.APIKey != "" {
		gen, err := ai.NewGeminiGenerator(context.Background(), cfg.GenAI.APIKey, cfg.GenAI.Model)
		if err != nil {
			logger.Error("❌ Failed to create Gemini client", zap.Error(err))
		} else {
			generator = gen
		}
	}
	assistant := services.NewInsightService(generator, library, logger)

	sessions, err := services.NewSessionService(cfg.Session, logger)
	if err != nil {
		logger.Fatal("❌ Invalid session configuration", zap.Error(err))
	}

	// Start cron jobs (refresh + daily overdue report)
	scheduler, err := services.NewSchedulerService(library, cfg.Cron, logger)
	if err != nil {
		logger.Fatal("❌ Invalid cron configuration", zap.Error(err))
	}
	scheduler.Start()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "EMAIHL Library API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, &routes.Dependencies{
		Config:    cfg,
		Store:     pinger,
		Gateway:   executor,
		Library:   library,
		Assistant: assistant,
		Sessions:  sessions,
		Dashboard: services.NewDashboardService(library),
		Feedback:  services.NewFeedbackService(repo, logger),
		Validator: v,
	})

	// Graceful shutdown
	go gracefulShutdown(app, scheduler, docStore, logger)

	// Start server
	logger.Info("🚀 Server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, scheduler *services.SchedulerService, docStore store.Store, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")
	scheduler.Stop()

	if err := app.Shutdown(); err != nil {
		logger.Error("❌ Error during shutdown", zap.Error(err))
	}

	if docStore != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := docStore.Close(ctx); err != nil {
			logger.Error("❌ Error closing record store", zap.Error(err))
		}
	}
	logger.Info("✅ Server stopped gracefully")
}
