package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/lumina/pkg/validator"

	"github.com/johnquangdev/lumina/internal/adapter/handler"
	"github.com/johnquangdev/lumina/internal/infrastructure/cache"
	"github.com/johnquangdev/lumina/internal/infrastructure/external/gemini"
	"github.com/johnquangdev/lumina/internal/infrastructure/storage"
	aiuse "github.com/johnquangdev/lumina/internal/usecase/ai"
	"github.com/johnquangdev/lumina/internal/usecase/session"
	pkgai "github.com/johnquangdev/lumina/pkg/ai"
	"github.com/johnquangdev/lumina/pkg/config"
	appmw "github.com/johnquangdev/lumina/pkg/middleware"
)

// @title           Lumina Meeting Analysis API
// @version         1.0
// @description     Turns meeting recordings and transcripts into structured analyses: summary, decisions, action items, sentiment arc and deep insights

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Audio uploads travel in the request body
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize analysis provider
	log.Printf("🤖 Initializing analysis provider (%s)...", cfg.Analysis.Provider)
	provider, err := newProvider(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize analysis provider: %v", err)
	}

	analysisClient := aiuse.NewClient(provider, aiuse.ClientConfig{
		MaxRetries:      cfg.Analysis.MaxRetries,
		InitialInterval: cfg.Analysis.RetryInitialInterval,
		MaxInterval:     cfg.Analysis.RetryMaxInterval,
	}, logger)
	if cfg.Analysis.MaxRetries > 0 {
		log.Printf("🔁 Provider retries enabled (max %d)", cfg.Analysis.MaxRetries)
	}

	normalizer := aiuse.NewNormalizer(cfg.Analysis.MaxAudioBytes, logger)

	// Initialize session registry
	log.Println("📦 Initializing session registry...")
	sessions := cache.NewMemoryStore[*session.Store](cfg.Session.TTL, cfg.Session.CleanupInterval)
	defer sessions.Close()

	sessionService := session.NewService(sessions, normalizer, analysisClient, logger)

	// Initialize export storage
	var (
		exporter handler.Exporter
		bucket   handler.BucketInspector
	)
	if cfg.Storage.Enabled {
		log.Println("🗄️  Connecting to object storage...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
		exporter = storage.NewAnalysisExporter(minioClient, cfg.Storage.PresignExpiry, logger)
		bucket = minioClient
		log.Printf("✅ Exports enabled (bucket %s)", cfg.Storage.BucketName)
	} else {
		log.Println("⚠️  Storage disabled; analysis export endpoints return 503")
	}

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	sessionHandler := handler.NewSessionHandler(sessionService, logger)
	exportHandler := handler.NewExportHandler(sessionService, exporter, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	sessionMW := appmw.RequireSession(sessionService)
	router := handler.NewRouter(cfg, sessionHandler, exportHandler, sessionMW, analysisClient.ProviderName(), sessions.Len, bucket, logger)
	router.Setup(e)

	// Start server
	go func() {
		addr := cfg.Address()
		log.Printf("🚀 Starting server on %s", addr)
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

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("⏳ Waiting for in-flight analyses...")
	if err := sessionService.Drain(ctx); err != nil {
		log.Printf("⚠️  %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (aiuse.Provider, error) {
	if cfg.Analysis.Provider == config.ProviderGroq {
		log.Printf("✅ Groq model: %s", cfg.Groq.Model)
		return pkgai.NewGroqClient(cfg.Groq), nil
	}

	client, err := gemini.NewClient(ctx, &cfg.Gemini, logger)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Gemini model: %s", client.Model())
	return client, nil
}
