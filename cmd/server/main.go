package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prajna-app/prajna-backend/internal/ai"
	"github.com/prajna-app/prajna-backend/internal/cache"
	"github.com/prajna-app/prajna-backend/internal/config"
	"github.com/prajna-app/prajna-backend/internal/database"
	"github.com/prajna-app/prajna-backend/internal/handler"
	"github.com/prajna-app/prajna-backend/internal/logger"
	"github.com/prajna-app/prajna-backend/internal/repository"
	"github.com/prajna-app/prajna-backend/internal/router"
	"github.com/prajna-app/prajna-backend/internal/service"
	"github.com/prajna-app/prajna-backend/internal/validator"
	"github.com/prajna-app/prajna-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Prajna Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize AI Client ──────────────────────────────────────────
	aiClient, err := ai.NewClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	examRepo := repository.NewExamRepository(pool)
	topicRepo := repository.NewTopicRepository(pool)
	creditRepo := repository.NewCreditRepository(pool)

	examCache := cache.NewExamCache(rdb, cfg.ViewCacheTTL)
	generationQueue := worker.NewGenerationQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg.SupabaseJWTSecret)
	if !authService.Enabled() {
		log.Warn().Msg("SUPABASE_JWT_SECRET is not set, requests are not authenticated")
	}
	examService := service.NewExamService(examRepo, examCache, generationQueue, log)
	scoringService := service.NewScoringService(examRepo, examCache, aiClient, service.ScoringOptions{
		Concurrency: cfg.EvalConcurrency,
		Timeout:     cfg.EvalTimeout,
	}, log)
	creditService := service.NewCreditService(creditRepo, cfg.ExamCreditCost, cfg.DefaultCredits, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:   handler.NewExamHandler(examService, scoringService),
		Credit: handler.NewCreditHandler(creditService),
		WS:     handler.NewWSHandler(examService, examCache, cfg.ReadyStreamLimit, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(
			map[string]handler.DependencyCheck{
				"postgres": pool.Ping,
				"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			},
			map[string]handler.QueueDepth{
				"generation": generationQueue.Len,
			},
			log,
		),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	generationWorker := worker.NewGenerationWorker(rdb, examRepo, topicRepo, aiClient, examCache, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		generationWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, rdb, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. Scoring calls can take a while.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.EvalTimeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the generation worker; an interrupted job is put back on the queue.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
