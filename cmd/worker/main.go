package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/kumemura-df/struct-project/pkg/validator"

	"github.com/kumemura-df/struct-project/internal/adapter/handler"
	"github.com/kumemura-df/struct-project/internal/adapter/repository"
	"github.com/kumemura-df/struct-project/internal/infrastructure/cache"
	"github.com/kumemura-df/struct-project/internal/infrastructure/database"
	"github.com/kumemura-df/struct-project/internal/infrastructure/storage"
	"github.com/kumemura-df/struct-project/internal/usecase/extract"
	"github.com/kumemura-df/struct-project/internal/usecase/ingest"
	"github.com/kumemura-df/struct-project/internal/usecase/persist"
	pkgai "github.com/kumemura-df/struct-project/pkg/ai"
	"github.com/kumemura-df/struct-project/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Apply schema migrations only when explicitly enabled in config.
	// Production deployments run sql-migrate from the release pipeline.
	if cfg.Database.AutoMigrate {
		log.Println("🔄 Applying schema migrations...")
		if err := database.RunMigrations(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; schema is managed by the release pipeline")
	}

	// Initialize the idempotency cache: Redis when enabled, in-process otherwise
	var seen cache.Store
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisStore, err := cache.NewRedisStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		seen = redisStore
	} else {
		log.Println("📦 Redis disabled, using in-process cache")
		seen = cache.NewMemoryStore()
	}

	// Initialize object storage
	log.Println("🪣 Connecting to object storage...")
	blobs, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	meetingRepo := repository.NewMeetingRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	riskRepo := repository.NewRiskRepository(db)
	decisionRepo := repository.NewDecisionRepository(db)
	processedRepo := repository.NewProcessedMessageRepository(db)

	// Initialize extraction and transcription clients
	log.Println("🤖 Initializing extraction components...")
	geminiClient := pkgai.NewGeminiClient(&cfg.Extract)
	transcriber := pkgai.NewTranscriber(&cfg.Transcribe)
	extractor := extract.NewClient(geminiClient, cfg.Extract, logger)
	dates := extract.NewDateResolver()
	persister := persist.NewPersister(projectRepo, taskRepo, riskRepo, decisionRepo, dates, logger)

	// Initialize the job processor
	log.Println("🏗️  Initializing job processor...")
	processor := ingest.NewProcessor(
		meetingRepo,
		processedRepo,
		seen,
		blobs,
		transcriber,
		extractor,
		persister,
		cfg.Worker,
		logger,
	)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	workerHandler := handler.NewWorker(processor, cfg.Worker.PushSecret, logger)
	healthHandler := handler.NewHealth(db, func() bool {
		return cfg.Extract.APIKey != ""
	})

	router := handler.NewRouter(cfg, workerHandler, healthHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting worker on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down worker...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Worker stopped gracefully")
}
