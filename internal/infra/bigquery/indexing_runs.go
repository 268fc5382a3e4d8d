package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/finance-insights/internal/logger"
)

// Indexing run statuses.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// IndexingRunRow records one re-indexing of a user's raw transactions.
type IndexingRunRow struct {
	RunID      string                 `bigquery:"run_id"`  // REQUIRED
	UserID     string                 `bigquery:"user_id"` // REQUIRED
	StartedTS  time.Time              `bigquery:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`

	Status       string `bigquery:"status"`
	ErrorMessage string `bigquery:"error_message"`

	FilesProcessed bigquery.NullInt64 `bigquery:"files_processed"`
	Records        bigquery.NullInt64 `bigquery:"records"`
	Enriched       bigquery.NullInt64 `bigquery:"enriched"`
	Skipped        bigquery.NullInt64 `bigquery:"skipped"`
}

// RunCounts are the totals written when a run succeeds.
type RunCounts struct {
	Files    int `json:"files"`
	Records  int `json:"records"`
	Enriched int `json:"enriched"`
	Skipped  int `json:"skipped"`
}

// StartIndexingRun inserts a RUNNING row and returns its id.
func (r *Repository) StartIndexingRun(ctx context.Context, userID string) (string, error) {
	runID := uuid.NewString()

	q := r.client.Query(`
		INSERT ` + r.qualified(indexingRunsTable) + ` (
			run_id,
			user_id,
			started_ts,
			status
		)
		VALUES (
			@run_id,
			@user_id,
			@started_ts,
			@status
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "user_id", Value: userID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: RunStatusRunning},
	}

	if _, err := runDML(ctx, q); err != nil {
		return "", fmt.Errorf("StartIndexingRun: %w", err)
	}
	return runID, nil
}

// MarkIndexingRunFailed sets status=FAILED. Errors are logged, not returned,
// since the caller is already handling a failure.
func (r *Repository) MarkIndexingRunFailed(ctx context.Context, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		if len(errMsg) > maxErrorMessageLen {
			errMsg = errMsg[:maxErrorMessageLen]
		}
	}

	q := r.client.Query(`
		UPDATE ` + r.qualified(indexingRunsTable) + `
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	if _, err := runDML(ctx, q); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkIndexingRunFailed: update failed")
	}
}

// MarkIndexingRunSucceeded sets status=SUCCESS with the run's counts.
func (r *Repository) MarkIndexingRunSucceeded(ctx context.Context, runID string, c RunCounts) error {
	q := r.client.Query(`
		UPDATE ` + r.qualified(indexingRunsTable) + `
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    files_processed = @files,
		    records = @records,
		    enriched = @enriched,
		    skipped = @skipped
		WHERE run_id = @run_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "files", Value: c.Files},
		{Name: "records", Value: c.Records},
		{Name: "enriched", Value: c.Enriched},
		{Name: "skipped", Value: c.Skipped},
		{Name: "run_id", Value: runID},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("MarkIndexingRunSucceeded: %w", err)
	}
	return nil
}
