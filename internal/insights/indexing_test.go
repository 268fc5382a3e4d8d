package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/analytics"
	"github.com/dvloznov/finance-insights/internal/domain"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
)

var rawFiles = map[string]string{
	"u1/checking.json": `[
		{"date": "2024-03-01", "amount": -42.5, "type": "debit", "category": "Groceries", "merchant": "Tesco"},
		{"transaction_date": "2024-03-02", "amount": "$1,200.00", "transaction_type": "credit", "name": "Payroll"},
		"not a record"
	]`,
	"u1/credit_card.json": `{"transactions": [{"date": "03/05/2024", "amount": -9.99, "category": "entertainment", "merchant": "Netflix"}]}`,
	"u1/broken.json":      `{"unexpected": true}`,
	"u1/readme.txt":       `ignored`,
}

func newIndexingHarness() (*IndexingService, *MockTransactionRepository, *MockIndexingRunRepository, *[]domain.EnrichedTransaction) {
	store := &MockStore{
		ListUserObjectsFunc: func(ctx context.Context, userID string) ([]string, error) {
			return []string{"u1/broken.json", "u1/checking.json", "u1/credit_card.json", "u1/readme.txt"}, nil
		},
		ReadObjectFunc: func(ctx context.Context, name string) ([]byte, error) {
			return []byte(rawFiles[name]), nil
		},
	}
	var inserted []domain.EnrichedTransaction
	txns := &MockTransactionRepository{
		InsertTransactionsFunc: func(ctx context.Context, t []domain.EnrichedTransaction) error {
			inserted = append(inserted, t...)
			return nil
		},
	}
	runs := &MockIndexingRunRepository{}
	svc := NewIndexingService(store, txns, runs, analytics.CreditPositive, 100)
	return svc, txns, runs, &inserted
}

func TestIndexingService_IndexUser(t *testing.T) {
	svc, txns, runs, inserted := newIndexingHarness()

	deleted := false
	txns.DeleteUserTransactionsFunc = func(ctx context.Context, userID string) (int64, error) {
		deleted = true
		assert.Equal(t, "u1", userID)
		return 7, nil
	}
	var counts infra.RunCounts
	runs.MarkIndexingRunSucceededFunc = func(ctx context.Context, runID string, c infra.RunCounts) error {
		assert.Equal(t, "test-run-id", runID)
		counts = c
		return nil
	}

	res, err := svc.IndexUser(context.Background(), "u1", true)
	require.NoError(t, err)

	assert.True(t, deleted)
	assert.Equal(t, int64(7), res.Deleted)
	assert.Equal(t, "test-run-id", res.RunID)
	require.Len(t, res.Files, 3)
	assert.Equal(t, 1, res.FailedFiles)
	assert.Contains(t, res.Files[0].Error, "decode")

	checking := res.Files[1]
	assert.Equal(t, analytics.SourceBankAccount, checking.SourceType)
	assert.Equal(t, 3, checking.Records)
	assert.Equal(t, 2, checking.Enriched)
	assert.Equal(t, 1, checking.Skipped)

	card := res.Files[2]
	assert.Equal(t, analytics.SourceCreditCard, card.SourceType)
	assert.Equal(t, 1, card.UnresolvedDate)
	assert.InDelta(t, 9.99, card.UnresolvedSpend, 1e-9)
	assert.Zero(t, checking.UnresolvedSpend)

	assert.Equal(t, infra.RunCounts{Files: 3, Records: 4, Enriched: 3, Skipped: 1}, counts)
	assert.Equal(t, counts, res.Counts)

	require.Len(t, *inserted, 3)
	payroll := (*inserted)[1]
	assert.Equal(t, 1, payroll.Index)
	assert.Equal(t, 1200.0, payroll.Amount)
	assert.True(t, payroll.IsIncome)
	assert.Equal(t, "u1_bank_account_2024-03-02_1", payroll.ID)
	assert.Equal(t, "u1/checking.json", payroll.SourceKey)
}

func TestIndexingService_IndexUser_KeepsExistingRows(t *testing.T) {
	svc, txns, _, _ := newIndexingHarness()
	txns.DeleteUserTransactionsFunc = func(ctx context.Context, userID string) (int64, error) {
		t.Fatal("delete must not run without replace")
		return 0, nil
	}

	res, err := svc.IndexUser(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
}

func TestIndexingService_IndexUser_InsertFailureIsPerFile(t *testing.T) {
	svc, txns, _, _ := newIndexingHarness()
	txns.InsertTransactionsFunc = func(ctx context.Context, t []domain.EnrichedTransaction) error {
		if t[0].SourceType == analytics.SourceCreditCard {
			return errors.New("quota")
		}
		return nil
	}

	res, err := svc.IndexUser(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FailedFiles)
	assert.Contains(t, res.Files[2].Error, "insert: quota")
	assert.Equal(t, 2, res.Counts.Enriched)
}

func TestIndexingService_IndexUser_ListFailureMarksRunFailed(t *testing.T) {
	svc, _, runs, _ := newIndexingHarness()
	listErr := errors.New("permission denied")
	svc.store = &MockStore{
		ListUserObjectsFunc: func(ctx context.Context, userID string) ([]string, error) {
			return nil, listErr
		},
	}

	var failedWith error
	runs.MarkIndexingRunFailedFunc = func(ctx context.Context, runID string, runErr error) {
		failedWith = runErr
	}

	_, err := svc.IndexUser(context.Background(), "u1", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, listErr)
	assert.Equal(t, listErr, failedWith)
}

func TestIndexingService_IndexUser_StartFailure(t *testing.T) {
	svc, _, runs, _ := newIndexingHarness()
	runs.StartIndexingRunFunc = func(ctx context.Context, userID string) (string, error) {
		return "", errors.New("insert failed")
	}

	_, err := svc.IndexUser(context.Background(), "u1", false)
	assert.Error(t, err)
}
