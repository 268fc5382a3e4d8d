package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/dvloznov/finance-insights/internal/api/handlers"
	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/config"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/narrative"
	"github.com/dvloznov/finance-insights/internal/rawstore"
	"github.com/dvloznov/finance-insights/internal/worker"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port")
	flag.Parse()
	cfg.Port = *port

	log, err := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fallback := logger.New()
		fallback.Fatal().Err(err).Msg("Invalid logger configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := cfg.RequireCloud(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	// Initialize repositories and clients
	repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	store, err := rawstore.NewGCSStore(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer store.Close()

	generator, err := narrative.NewGeminiGenerator(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create narrative generator")
	}

	deps := insights.Deps{
		Transactions: repo,
		Goals:        repo,
		Insights:     repo,
		Generator:    generator,
	}
	settings := insights.SettingsFromConfig(cfg)

	reviews := insights.NewMonthlyReviewService(deps, settings)
	foresight := insights.NewForesightService(deps, settings)
	proactive := insights.NewProactiveService(deps, settings)
	indexer := insights.NewIndexingService(store, repo, repo, cfg.Convention(), cfg.LargeRefundThreshold)

	dispatcher := &worker.Dispatcher{
		Indexer:   indexer,
		Reviews:   reviews,
		Foresight: foresight,
		Proactive: proactive,
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueBuffer, jobStore,
		inmemory.WithWorkers(cfg.QueueWorkers),
		inmemory.WithMaxRetries(cfg.JobMaxRetries),
	)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.QueueWorkers).Msg("Starting job workers")
	if err := jobQueue.Start(workerCtx, dispatcher.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	go pruneJobs(workerCtx, jobStore, cfg.JobRetention)

	router := chi.NewRouter()
	// RequestID runs first so every later layer logs with the request id.
	router.Use(
		middleware.RequestID(log),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.CORS(cfg.CORSOrigins),
	)
	handlers.Register(router,
		handlers.NewAnalyticsHandler(reviews, foresight, log),
		handlers.NewInsightsHandler(repo, log),
		handlers.NewJobsHandler(jobStore, jobQueue, log),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight jobs finish before cancelling them.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

// pruneJobs drops finished jobs older than retention once an hour so the
// in-memory store does not grow without bound.
func pruneJobs(ctx context.Context, store *inmemory.Store, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	log := logger.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Prune(now.Add(-retention)); n > 0 {
				log.Info().Int("jobs", n).Msg("Pruned finished jobs")
			}
		}
	}
}
