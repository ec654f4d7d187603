package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/api"
	"github.com/vytor/vocabflash/internal/archaic"
	"github.com/vytor/vocabflash/internal/cache"
	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/config"
	"github.com/vytor/vocabflash/internal/db"
	"github.com/vytor/vocabflash/internal/jobs"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/quiz"
	"github.com/vytor/vocabflash/internal/repository/sqlstore"
	"github.com/vytor/vocabflash/internal/services"
	"github.com/vytor/vocabflash/internal/worker"
)

// pronunciationTTL bounds how long a cached pronunciation is served.
const pronunciationTTL = 24 * time.Hour

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.ParseFormat(cfg.LogFormat)),
		logger.WithColors(cfg.LogFormat != "json"),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("VocabFlash Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_driver=%s", cfg.DBDriver)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("ai_enabled=%t", cfg.AIEnabled())
	log.Debug("ai_base_url=%s", cfg.AIBaseURL)
	log.Debug("ai_model=%s", cfg.AIModel)
	log.Debug("ai_chat_model=%s", cfg.AIChatModel)
	log.Debug("pronunciation_cache_size=%d", cfg.PronunciationCacheSize)
	log.Debug("prefetch_worker_count=%d", cfg.PrefetchWorkerCount)
	log.Debug("prefetch_queue_size=%d", cfg.PrefetchQueueSize)
	log.Debug("session_ttl_minutes=%d", cfg.SessionTTLMinutes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	database, err := db.Open(ctx, db.Options{Driver: cfg.DBDriver, Path: cfg.DBPath, URL: cfg.DatabaseURL})
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	kv := sqlstore.NewKVRepository(database.DB, database.Dialect)
	paragraphs := sqlstore.NewParagraphRepository(database.DB, database.Dialect)

	store, err := cardstore.Open(ctx, kv)
	if err != nil {
		log.Error("failed to load card collection: %v", err)
		os.Exit(1)
	}
	log.Info("card collection loaded: cards=%d, categories=%d", store.Len(), len(store.Categories()))

	// Text generation
	var gen ai.Generator = ai.Unavailable{}
	if cfg.AIEnabled() {
		openaiGen, err := ai.NewOpenAIGenerator(&ai.Config{
			BaseURL:       cfg.AIBaseURL,
			APIKey:        cfg.AIAPIKey,
			Model:         cfg.AIModel,
			ChatModel:     cfg.AIChatModel,
			MaxRetries:    cfg.AIMaxRetries,
			Timeout:       time.Duration(cfg.AITimeoutSeconds) * time.Second,
			RatePerSecond: cfg.AIRatePerSecond,
			Burst:         cfg.AIBurst,
		})
		if err != nil {
			log.Error("failed to create text generator: %v", err)
			os.Exit(1)
		}
		gen = openaiGen
	} else {
		log.Warn("AI_API_KEY not set, generated content will use fallbacks")
	}
	tasks := ai.NewTasks(gen, cfg.AIModel, cfg.AIChatModel)

	// Initialize services
	tracker := services.NewRequestTracker()
	sessions := services.NewSessionRegistry(time.Duration(cfg.SessionTTLMinutes)*time.Minute, nil)
	quizGen := quiz.NewGenerator(nil, tasks)
	pronunciationCache := cache.NewLRU[string, models.PronunciationDetails](cfg.PronunciationCacheSize, pronunciationTTL)

	pronunciationService := services.NewPronunciationService(tasks, pronunciationCache, tracker)

	// Initialize worker pool
	prefetchPool := worker.NewPool(cfg.PrefetchWorkerCount, cfg.PrefetchQueueSize)
	prefetchPool.Start(ctx)

	srv := &api.Server{
		Store:                store,
		QuizService:          services.NewQuizService(store, quizGen, sessions, tracker),
		DailyQuizService:     services.NewDailyQuizService(store, kv, quizGen, sessions, tracker, nil),
		ParagraphService:     services.NewParagraphService(store, paragraphs, tasks, tracker, nil),
		AssistantService:     services.NewAssistantService(store, tasks, tracker),
		PronunciationService: pronunciationService,
		ProgressService:      services.NewProgressService(store, kv, nil),
		Archaic:              archaic.Default,
		JobQueue:             jobs.NewWorkerQueue(prefetchPool, pronunciationService),
		DB:                   database,
		AllowedOrigins:       cfg.CORSAllowedOrigins,
		ClientLimiter:        api.NewClientLimiter(api.DefaultClientRate, api.DefaultClientBurst),
	}

	// Configure HTTP server. No write timeout: assistant replies stream.
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Cancel worker context
	log.Debug("stopping prefetch pool")
	cancel()
	prefetchPool.Stop()

	log.Info("===========================================")
	log.Info("VocabFlash Server Stopped")
	log.Info("===========================================")
}
