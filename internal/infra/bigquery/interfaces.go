package bigquery

import (
	"context"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// TransactionRepository stores enriched transactions and answers filtered
// retrieval queries over them.
type TransactionRepository interface {
	// InsertTransactions writes enriched transactions.
	InsertTransactions(ctx context.Context, txns []domain.EnrichedTransaction) error

	// DeleteUserTransactions removes all of a user's transactions.
	DeleteUserTransactions(ctx context.Context, userID string) (int64, error)

	// QueryTransactions returns transactions matching the filter.
	QueryTransactions(ctx context.Context, f TransactionFilter) ([]domain.EnrichedTransaction, error)
}

// InsightRepository is the key-value store of generated insights.
type InsightRepository interface {
	InsertInsights(ctx context.Context, rows []*InsightRow) error
	ListInsights(ctx context.Context, f InsightFilter) ([]*InsightRow, error)
}

// GoalRepository reads users' financial goals.
type GoalRepository interface {
	ListActiveGoals(ctx context.Context, userID string) ([]domain.Goal, error)
}

// IndexingRunRepository tracks re-indexing runs.
type IndexingRunRepository interface {
	StartIndexingRun(ctx context.Context, userID string) (string, error)
	MarkIndexingRunFailed(ctx context.Context, runID string, runErr error)
	MarkIndexingRunSucceeded(ctx context.Context, runID string, c RunCounts) error
}

var (
	_ TransactionRepository = (*Repository)(nil)
	_ InsightRepository     = (*Repository)(nil)
	_ GoalRepository        = (*Repository)(nil)
	_ IndexingRunRepository = (*Repository)(nil)
)
