package insights

import (
	"context"
	"sync"

	"github.com/dvloznov/finance-insights/internal/domain"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/narrative"
)

// MockTransactionRepository is a mock implementation of infra.TransactionRepository.
type MockTransactionRepository struct {
	InsertTransactionsFunc     func(ctx context.Context, txns []domain.EnrichedTransaction) error
	DeleteUserTransactionsFunc func(ctx context.Context, userID string) (int64, error)
	QueryTransactionsFunc      func(ctx context.Context, f infra.TransactionFilter) ([]domain.EnrichedTransaction, error)

	mu      sync.Mutex
	queries []infra.TransactionFilter
}

func (m *MockTransactionRepository) InsertTransactions(ctx context.Context, txns []domain.EnrichedTransaction) error {
	if m.InsertTransactionsFunc != nil {
		return m.InsertTransactionsFunc(ctx, txns)
	}
	return nil
}

func (m *MockTransactionRepository) DeleteUserTransactions(ctx context.Context, userID string) (int64, error) {
	if m.DeleteUserTransactionsFunc != nil {
		return m.DeleteUserTransactionsFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockTransactionRepository) QueryTransactions(ctx context.Context, f infra.TransactionFilter) ([]domain.EnrichedTransaction, error) {
	m.mu.Lock()
	m.queries = append(m.queries, f)
	m.mu.Unlock()

	if m.QueryTransactionsFunc != nil {
		return m.QueryTransactionsFunc(ctx, f)
	}
	return nil, nil
}

func (m *MockTransactionRepository) Queries() []infra.TransactionFilter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]infra.TransactionFilter(nil), m.queries...)
}

// MockGoalRepository is a mock implementation of infra.GoalRepository.
type MockGoalRepository struct {
	ListActiveGoalsFunc func(ctx context.Context, userID string) ([]domain.Goal, error)
}

func (m *MockGoalRepository) ListActiveGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	if m.ListActiveGoalsFunc != nil {
		return m.ListActiveGoalsFunc(ctx, userID)
	}
	return nil, nil
}

// MockInsightRepository is a mock implementation of infra.InsightRepository.
type MockInsightRepository struct {
	InsertInsightsFunc func(ctx context.Context, rows []*infra.InsightRow) error
	ListInsightsFunc   func(ctx context.Context, f infra.InsightFilter) ([]*infra.InsightRow, error)

	Inserted []*infra.InsightRow
}

func (m *MockInsightRepository) InsertInsights(ctx context.Context, rows []*infra.InsightRow) error {
	if m.InsertInsightsFunc != nil {
		return m.InsertInsightsFunc(ctx, rows)
	}
	m.Inserted = append(m.Inserted, rows...)
	return nil
}

func (m *MockInsightRepository) ListInsights(ctx context.Context, f infra.InsightFilter) ([]*infra.InsightRow, error) {
	if m.ListInsightsFunc != nil {
		return m.ListInsightsFunc(ctx, f)
	}
	return nil, nil
}

// MockIndexingRunRepository is a mock implementation of infra.IndexingRunRepository.
type MockIndexingRunRepository struct {
	StartIndexingRunFunc         func(ctx context.Context, userID string) (string, error)
	MarkIndexingRunFailedFunc    func(ctx context.Context, runID string, runErr error)
	MarkIndexingRunSucceededFunc func(ctx context.Context, runID string, c infra.RunCounts) error
}

func (m *MockIndexingRunRepository) StartIndexingRun(ctx context.Context, userID string) (string, error) {
	if m.StartIndexingRunFunc != nil {
		return m.StartIndexingRunFunc(ctx, userID)
	}
	return "test-run-id", nil
}

func (m *MockIndexingRunRepository) MarkIndexingRunFailed(ctx context.Context, runID string, runErr error) {
	if m.MarkIndexingRunFailedFunc != nil {
		m.MarkIndexingRunFailedFunc(ctx, runID, runErr)
	}
}

func (m *MockIndexingRunRepository) MarkIndexingRunSucceeded(ctx context.Context, runID string, c infra.RunCounts) error {
	if m.MarkIndexingRunSucceededFunc != nil {
		return m.MarkIndexingRunSucceededFunc(ctx, runID, c)
	}
	return nil
}

// MockGenerator is a mock implementation of narrative.Generator.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, kind narrative.Kind, prompt string) (string, error)

	Prompts []string
}

func (m *MockGenerator) Generate(ctx context.Context, kind narrative.Kind, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, kind, prompt)
	}
	return `{}`, nil
}

// MockStore is a mock implementation of rawstore.Store.
type MockStore struct {
	ListUserObjectsFunc func(ctx context.Context, userID string) ([]string, error)
	ReadObjectFunc      func(ctx context.Context, name string) ([]byte, error)
}

func (m *MockStore) ListUserObjects(ctx context.Context, userID string) ([]string, error) {
	if m.ListUserObjectsFunc != nil {
		return m.ListUserObjectsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockStore) ReadObject(ctx context.Context, name string) ([]byte, error) {
	if m.ReadObjectFunc != nil {
		return m.ReadObjectFunc(ctx, name)
	}
	return nil, nil
}
