// Package worker turns queued analytics jobs into service calls.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/analytics"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// Indexer re-indexes a user's raw transactions.
type Indexer interface {
	IndexUser(ctx context.Context, userID string, replace bool) (*insights.IndexResult, error)
}

// MonthlyReviewer runs a monthly review.
type MonthlyReviewer interface {
	Run(ctx context.Context, userID string, year, month int) (*insights.Result, error)
}

// PeriodRunner runs a report anchored at a point in time.
type PeriodRunner interface {
	Run(ctx context.Context, userID string, now time.Time) (*insights.Result, error)
}

// Dispatcher routes each job type to its service.
type Dispatcher struct {
	Indexer   Indexer
	Reviews   MonthlyReviewer
	Foresight PeriodRunner
	Proactive PeriodRunner

	// Now defaults to time.Now.
	Now func() time.Time
}

// Handle implements jobs.JobHandler. Skipped and empty runs complete the
// job; only errors fail it and trigger a retry.
func (d *Dispatcher) Handle(ctx context.Context, job *jobs.AnalyticsJob) error {
	log := logger.ForUser(logger.FromContext(ctx), job.UserID)
	ctx = logger.WithContext(ctx, log)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("Handle: %w", err)
	}

	log.Info().Msg("Processing job")

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	var (
		res *insights.Result
		err error
	)
	switch job.Type {
	case jobs.JobTypeIndexTransactions:
		if d.Indexer == nil {
			return fmt.Errorf("Handle: no indexer configured")
		}
		idx, err := d.Indexer.IndexUser(ctx, job.UserID, job.Replace)
		if err != nil {
			log.Error().Err(err).Msg("Indexing failed")
			return err
		}
		job.Result = fmt.Sprintf("indexed %d transactions from %d files (%d failed)",
			idx.Counts.Enriched, idx.Counts.Files, idx.FailedFiles)
		log.Info().Str("result", job.Result).Msg("Job completed successfully")
		return nil
	case jobs.JobTypeMonthlyReview:
		if d.Reviews == nil {
			return fmt.Errorf("Handle: no monthly review service configured")
		}
		res, err = d.Reviews.Run(ctx, job.UserID, job.Year, job.Month)
	case jobs.JobTypeForesight:
		if d.Foresight == nil {
			return fmt.Errorf("Handle: no foresight service configured")
		}
		res, err = d.Foresight.Run(ctx, job.UserID, now())
	case jobs.JobTypeProactive:
		if d.Proactive == nil {
			return fmt.Errorf("Handle: no proactive service configured")
		}
		res, err = d.Proactive.Run(ctx, job.UserID, now())
	}
	if err != nil {
		log.Error().Err(err).Msg("Job execution failed")
		return err
	}

	job.Result = Summary(res)
	log.Info().Str("result", job.Result).Msg("Job completed successfully")
	return nil
}

// Summary renders a report result as a one-line job outcome.
func Summary(res *insights.Result) string {
	switch res.Status {
	case insights.StatusSuccess:
		return fmt.Sprintf("stored %d insights", res.InsightsGenerated)
	default:
		return fmt.Sprintf("%s: %s", res.Status, res.Reason)
	}
}

// PreviousMonth is the default target of a monthly review run at now.
func PreviousMonth(now time.Time) (year, month int) {
	ym := analytics.YearMonth{Year: now.Year(), Month: int(now.Month())}.AddMonths(-1)
	return ym.Year, ym.Month
}
