package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// Table names in the analytics dataset.
const (
	transactionsTable  = "enriched_transactions"
	insightsTable      = "insights"
	goalsTable         = "goals"
	indexingRunsTable  = "indexing_runs"
	dateFormat         = "2006-01-02"
	insertBatchSize    = 500
	maxErrorMessageLen = 2000
)

// Repository is the BigQuery-backed store for enriched transactions,
// insights, goals and indexing runs. It holds one shared client so that
// every operation reuses the same connection.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a Repository with a shared BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Client exposes the underlying client for migrations.
func (r *Repository) Client() *bigquery.Client {
	return r.client
}

// qualified returns the backtick-quoted fully qualified table name.
func (r *Repository) qualified(table string) string {
	return qualifiedName(r.projectID, r.datasetID, table)
}

func qualifiedName(projectID, datasetID, table string) string {
	return "`" + projectID + "." + datasetID + "." + table + "`"
}

func (r *Repository) table(name string) *bigquery.Table {
	return r.client.DatasetInProject(r.projectID, r.datasetID).Table(name)
}

// runDML runs a DML statement, waits for it and returns the affected row count.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	var affected int64
	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			affected = qs.NumDMLAffectedRows
		}
	}
	return affected, nil
}
