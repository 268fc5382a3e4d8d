package insights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/domain"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/narrative"
)

var fixedNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

type reviewHarness struct {
	txns     *MockTransactionRepository
	goals    *MockGoalRepository
	insights *MockInsightRepository
	gen      *MockGenerator
	svc      *MonthlyReviewService
}

func newReviewHarness(txns []domain.EnrichedTransaction) *reviewHarness {
	h := &reviewHarness{
		txns:     &MockTransactionRepository{QueryTransactionsFunc: filterFixture(txns)},
		goals:    &MockGoalRepository{},
		insights: &MockInsightRepository{},
		gen:      &MockGenerator{},
	}
	h.svc = NewMonthlyReviewService(Deps{
		Transactions: h.txns,
		Goals:        h.goals,
		Insights:     h.insights,
		Generator:    h.gen,
	}, testSettings())
	h.svc.now = func() time.Time { return fixedNow }
	return h
}

func TestMonthlyReviewService_Run(t *testing.T) {
	h := newReviewHarness(reviewFixture(6))
	h.goals.ListActiveGoalsFunc = func(ctx context.Context, userID string) ([]domain.Goal, error) {
		return []domain.Goal{{Name: "Emergency Fund", Type: domain.GoalSavingsTarget, Priority: "high"}}, nil
	}
	h.gen.GenerateFunc = func(ctx context.Context, kind narrative.Kind, prompt string) (string, error) {
		assert.Equal(t, narrative.KindMonthlyReview, kind)
		return modelResponse("insights", card(map[string]interface{}{"category": "spending_alert"})), nil
	}

	res, err := h.svc.Run(context.Background(), "u1", 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.InsightsGenerated)

	// One target query plus one per baseline month, all budget debits.
	queries := h.txns.Queries()
	require.Len(t, queries, 13)
	for _, q := range queries {
		assert.Equal(t, "debit", q.Type)
		assert.True(t, q.AffectsBudgetOnly)
	}

	require.Len(t, h.gen.Prompts, 1)
	assert.Contains(t, h.gen.Prompts[0], "Emergency Fund")
	assert.Contains(t, h.gen.Prompts[0], "March")

	require.Len(t, h.insights.Inserted, 1)
	row := h.insights.Inserted[0]
	assert.Equal(t, "USER#u1", row.PK)
	assert.True(t, strings.HasPrefix(row.SK, "GOALS#2024-04-15T12:00:00Z#monthly_review#"), row.SK)
	assert.Equal(t, "spending_alert", row.InsightType)
	assert.Equal(t, "monthly_review", row.ReportKind)
	assert.Equal(t, "this_month", row.Timeframe.StringVal)
	assert.Equal(t, "2024-03", row.TargetMonth.StringVal)
	assert.Equal(t, 45*24*time.Hour, row.ExpiresAt.Sub(row.GeneratedAt))
	assert.Contains(t, row.Visualization.JSONVal, `"value":450`)
}

func TestMonthlyReviewService_Run_SkipsThinTargetMonth(t *testing.T) {
	h := newReviewHarness(reviewFixture(3))

	res, err := h.svc.Run(context.Background(), "u1", 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, ReasonTargetMonth, res.Reason)
	assert.Len(t, h.txns.Queries(), 1)
	assert.Empty(t, h.gen.Prompts)
}

func TestMonthlyReviewService_Run_SkipsThinBaseline(t *testing.T) {
	h := newReviewHarness(monthOf(2024, 3, 6, 75, "dining"))

	res, err := h.svc.Run(context.Background(), "u1", 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, ReasonBaseline, res.Reason)
	assert.Empty(t, h.gen.Prompts)
}

func TestMonthlyReviewService_Run_NoInsights(t *testing.T) {
	h := newReviewHarness(reviewFixture(6))
	h.gen.GenerateFunc = func(ctx context.Context, kind narrative.Kind, prompt string) (string, error) {
		return "I could not find anything.", nil
	}

	res, err := h.svc.Run(context.Background(), "u1", 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, StatusNoInsights, res.Status)
	assert.Equal(t, ReasonNoInsights, res.Reason)
	assert.Empty(t, h.insights.Inserted)
}

func TestMonthlyReviewService_Run_GeneratorError(t *testing.T) {
	h := newReviewHarness(reviewFixture(6))
	genErr := errors.New("quota exceeded")
	h.gen.GenerateFunc = func(ctx context.Context, kind narrative.Kind, prompt string) (string, error) {
		return "", genErr
	}

	res, err := h.svc.Run(context.Background(), "u1", 2024, 3)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, genErr)
	assert.Contains(t, err.Error(), "pipeline step 7 failed")
}

func TestMonthlyReviewService_Run_GoalLookupFailureContinues(t *testing.T) {
	h := newReviewHarness(reviewFixture(6))
	h.goals.ListActiveGoalsFunc = func(ctx context.Context, userID string) ([]domain.Goal, error) {
		return nil, errors.New("table not found")
	}
	h.gen.GenerateFunc = func(ctx context.Context, kind narrative.Kind, prompt string) (string, error) {
		return modelResponse("insights", card(map[string]interface{}{"category": "spending_alert"})), nil
	}

	res, err := h.svc.Run(context.Background(), "u1", 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	require.Len(t, h.gen.Prompts, 1)
	assert.Contains(t, h.gen.Prompts[0], narrative.NoGoalsText)
}

func TestMonthlyReviewService_Context(t *testing.T) {
	h := newReviewHarness(reviewFixture(6))

	rc, err := h.svc.Context(context.Background(), "u1", 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, "2024-03", rc.TargetMonth)
	assert.Equal(t, 450.0, rc.Target.Total)
	assert.Equal(t, 100.0, rc.Baseline.Total)
	assert.Empty(t, h.gen.Prompts)
}

func newDeps(txns []domain.EnrichedTransaction) (Deps, *MockTransactionRepository, *MockInsightRepository, *MockGenerator) {
	tr := &MockTransactionRepository{QueryTransactionsFunc: filterFixture(txns)}
	ir := &MockInsightRepository{}
	gen := &MockGenerator{}
	return Deps{Transactions: tr, Goals: &MockGoalRepository{}, Insights: ir, Generator: gen}, tr, ir, gen
}

func TestForesightService_Run(t *testing.T) {
	deps, tr, ir, gen := newDeps(historyFixture())
	gen.GenerateFunc = func(ctx context.Context, kind narrative.Kind, prompt string) (string, error) {
		assert.Equal(t, narrative.KindForesight, kind)
		return modelResponse("foresights", card(map[string]interface{}{
			"type":       "cash_flow",
			"timeframe":  "next_3_months",
			"confidence": "high",
		})), nil
	}

	res, err := NewForesightService(deps, testSettings()).Run(context.Background(), "u1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)

	queries := tr.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, fixedNow.AddDate(0, -24, 0), queries[0].Since)
	assert.True(t, queries[0].AffectsBudgetOnly)
	assert.Empty(t, queries[0].Type)

	require.Len(t, ir.Inserted, 1)
	row := ir.Inserted[0]
	assert.True(t, strings.HasPrefix(row.SK, "FORESIGHT#"), row.SK)
	assert.True(t, strings.HasSuffix(row.SK, "#cash_flow#0"), row.SK)
	assert.Equal(t, "cash_flow", row.InsightType)
	assert.Equal(t, "next_3_months", row.Timeframe.StringVal)
	assert.Equal(t, "high", row.Confidence.StringVal)
	assert.False(t, row.TargetMonth.Valid)
	assert.Equal(t, 90*24*time.Hour, row.ExpiresAt.Sub(row.GeneratedAt))
}

func TestForesightService_Run_SkipsShortHistory(t *testing.T) {
	deps, _, _, gen := newDeps(monthOf(2024, 3, 20, 10, "dining"))

	res, err := NewForesightService(deps, testSettings()).Run(context.Background(), "u1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, ReasonHistory, res.Reason)
	assert.Empty(t, gen.Prompts)
}

func TestForesightService_Context(t *testing.T) {
	deps, _, _, _ := newDeps(historyFixture())

	fc, err := NewForesightService(deps, testSettings()).Context(context.Background(), "u1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "April 2024", fc.AsOf)
	assert.Equal(t, 24, fc.Months)
	assert.InDelta(t, 3000.0, fc.Summary.AvgMonthlyIncome, 0.001)
}

func TestProactiveService_Run(t *testing.T) {
	deps, tr, ir, gen := newDeps(historyFixture())
	gen.GenerateFunc = func(ctx context.Context, kind narrative.Kind, prompt string) (string, error) {
		assert.Equal(t, narrative.KindProactive, kind)
		return modelResponse("insights", card(map[string]interface{}{"type": "spending_pattern"})), nil
	}

	res, err := NewProactiveService(deps, testSettings()).Run(context.Background(), "u1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, fixedNow.AddDate(0, -12, 0), tr.Queries()[0].Since)

	require.Len(t, ir.Inserted, 1)
	row := ir.Inserted[0]
	assert.True(t, strings.HasPrefix(row.SK, "INSIGHT#"), row.SK)
	assert.Equal(t, "spending_pattern", row.InsightType)
	assert.False(t, row.Timeframe.Valid)
	assert.Equal(t, 60*24*time.Hour, row.ExpiresAt.Sub(row.GeneratedAt))
}

func TestProactiveService_Run_StoreError(t *testing.T) {
	deps, _, ir, gen := newDeps(historyFixture())
	gen.GenerateFunc = func(ctx context.Context, kind narrative.Kind, prompt string) (string, error) {
		return modelResponse("insights", card(map[string]interface{}{"type": "spending_pattern"})), nil
	}
	ir.InsertInsightsFunc = func(ctx context.Context, rows []*infra.InsightRow) error {
		return errors.New("streaming insert failed")
	}

	_, err := NewProactiveService(deps, testSettings()).Run(context.Background(), "u1", fixedNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store insights")
}
