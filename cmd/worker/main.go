// Command worker runs one analytics job per user through the job queue and
// exits when every job has completed or failed. It is meant to be triggered
// on a schedule, e.g. a monthly review on the first day of each month.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/finance-insights/internal/config"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/narrative"
	"github.com/dvloznov/finance-insights/internal/rawstore"
	"github.com/dvloznov/finance-insights/internal/worker"
)

const pollInterval = 500 * time.Millisecond

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var (
		jobType = flag.String("job", string(jobs.JobTypeMonthlyReview), "Job type: index_transactions, monthly_review, foresight or proactive")
		users   = flag.String("users", "", "Comma-separated user IDs (default: every user with transactions)")
		year    = flag.Int("year", 0, "Target year of a monthly review (default: previous month)")
		month   = flag.Int("month", 0, "Target month of a monthly review (default: previous month)")
		replace = flag.Bool("replace", false, "Delete existing rows before indexing")
	)
	flag.Parse()

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

	typ := jobs.JobType(*jobType)
	if !typ.Valid() {
		log.Fatal().Str("job", *jobType).Msg("Unknown job type")
	}
	if typ == jobs.JobTypeMonthlyReview && (*year == 0 || *month == 0) {
		*year, *month = worker.PreviousMonth(time.Now())
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	dispatcher, closeDeps, err := newDispatcher(ctx, cfg, repo, typ)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer closeDeps()

	userIDs := splitList(*users)
	if len(userIDs) == 0 {
		userIDs, err = repo.ListUserIDs(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list users")
		}
	}
	if len(userIDs) == 0 {
		log.Info().Msg("No users to process")
		return
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueBuffer, jobStore,
		inmemory.WithWorkers(cfg.UserConcurrency),
		inmemory.WithMaxRetries(cfg.JobMaxRetries),
	)

	if err := jobQueue.Start(ctx, dispatcher.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().
		Str("job", string(typ)).
		Int("users", len(userIDs)).
		Int("workers", cfg.UserConcurrency).
		Msg("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Warn().Msg("Interrupted, cancelling jobs")
		cancel()
	}()

	jobIDs := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		job := &jobs.AnalyticsJob{
			Type:    typ,
			UserID:  userID,
			Year:    *year,
			Month:   *month,
			Replace: *replace,
		}
		if err := jobQueue.Publish(ctx, job); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue job")
			continue
		}
		jobIDs = append(jobIDs, job.JobID)
	}

	finished := waitForJobs(ctx, jobStore, jobIDs)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	counts := make(map[jobs.JobStatus]int)
	for _, job := range finished {
		counts[job.Status]++
		log.Info().
			Str("user_id", job.UserID).
			Str("status", string(job.Status)).
			Str("result", job.Result).
			Str("error", job.Error).
			Msg("Job finished")
	}

	log.Info().
		Int("completed", counts[jobs.JobStatusCompleted]).
		Int("failed", counts[jobs.JobStatusFailed]).
		Int("unfinished", len(jobIDs)-counts[jobs.JobStatusCompleted]-counts[jobs.JobStatusFailed]).
		Msg("Worker finished")

	if counts[jobs.JobStatusCompleted] != len(userIDs) {
		os.Exit(1)
	}
}

// newDispatcher builds only the services the job type needs, so a report run
// does not require storage access and an index run does not need a model.
func newDispatcher(ctx context.Context, cfg *config.Config, repo *infraBQ.Repository, typ jobs.JobType) (*worker.Dispatcher, func(), error) {
	d := &worker.Dispatcher{}
	closeFn := func() {}

	if typ == jobs.JobTypeIndexTransactions {
		store, err := rawstore.NewGCSStore(ctx, cfg.Bucket)
		if err != nil {
			return nil, nil, fmt.Errorf("newDispatcher: %w", err)
		}
		d.Indexer = insights.NewIndexingService(store, repo, repo, cfg.Convention(), cfg.LargeRefundThreshold)
		return d, func() { _ = store.Close() }, nil
	}

	generator, err := narrative.NewGeminiGenerator(ctx, cfg.GeminiModel)
	if err != nil {
		return nil, nil, fmt.Errorf("newDispatcher: %w", err)
	}

	deps := insights.Deps{
		Transactions: repo,
		Goals:        repo,
		Insights:     repo,
		Generator:    generator,
	}
	settings := insights.SettingsFromConfig(cfg)

	d.Reviews = insights.NewMonthlyReviewService(deps, settings)
	d.Foresight = insights.NewForesightService(deps, settings)
	d.Proactive = insights.NewProactiveService(deps, settings)
	return d, closeFn, nil
}

// waitForJobs polls the store until every job is completed or failed, or ctx
// is cancelled. It returns the last known state of each job.
func waitForJobs(ctx context.Context, store jobs.JobStore, jobIDs []string) []*jobs.AnalyticsJob {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		states := make([]*jobs.AnalyticsJob, 0, len(jobIDs))
		done := true
		for _, id := range jobIDs {
			job, err := store.GetJob(ctx, id)
			if err != nil {
				done = false
				continue
			}
			states = append(states, job)
			if !job.Status.Terminal() {
				done = false
			}
		}
		if done {
			return states
		}

		select {
		case <-ctx.Done():
			return states
		case <-ticker.C:
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
