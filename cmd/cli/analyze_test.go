package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/analytics"
)

const sampleFile = `{
  "transactions": [
    {"date": "2024-01-10", "amount": -120, "type": "debit", "category": "dining", "merchant": "Bistro"},
    {"date": "2024-02-12", "amount": -120, "type": "debit", "category": "dining", "merchant": "Bistro"},
    {"date": "2024-03-05", "amount": -75, "type": "debit", "category": "dining", "merchant": "Bistro"},
    {"date": "2024-03-06", "amount": "-25.00", "type": "debit", "category": "groceries", "merchant": "Market"},
    {"date": "2024-03-07", "amount": -500, "type": "debit", "category": "transfer", "description": "Transfer to savings"},
    {"date": "2024-03-01", "amount": 3000, "type": "credit", "category": "salary", "description": "Payroll"},
    {"date": "not-a-date", "amount": -10, "type": "debit", "category": "dining"},
    42
  ]
}`

func testAnalyzeOptions() analyzeOptions {
	return analyzeOptions{
		UserID:          "u1",
		SourceKey:       "checking.json",
		Convention:      analytics.CreditPositive,
		Thresholds:      analytics.DefaultThresholds(),
		ForesightMonths: 24,
		ProactiveMonths: 12,
	}
}

func TestAnalyze_DefaultsToLatestMonth(t *testing.T) {
	res, err := analyze(strings.NewReader(sampleFile), testAnalyzeOptions())
	require.NoError(t, err)

	assert.Equal(t, 8, res.Stats.Records)
	assert.Equal(t, 7, res.Stats.Enriched)
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Equal(t, 1, res.Stats.UnresolvedDate)
	assert.Len(t, res.Transactions, 7)

	require.NotNil(t, res.Unresolved)
	assert.Equal(t, analytics.UnresolvedKey, res.Unresolved.Key)
	assert.Equal(t, 1, res.Unresolved.Count)
	assert.InDelta(t, 10.0, res.Unresolved.Categories["dining"], 1e-9)

	require.NotNil(t, res.MonthlyReview)
	mr := res.MonthlyReview
	assert.Equal(t, "2024-03", mr.TargetMonth)
	// The transfer and the salary are not budget debits.
	assert.Equal(t, 2, mr.Target.Count)
	assert.InDelta(t, 100.0, mr.Target.Total, 1e-9)
	assert.InDelta(t, 240.0/12, mr.Baseline.Total, 1e-9)

	require.NotNil(t, res.Foresight)
	assert.Equal(t, "April 2024", res.Foresight.AsOf)
	assert.Equal(t, 3, res.Foresight.Months)

	require.NotNil(t, res.Proactive)
	assert.Equal(t, "April 2024", res.Proactive.AsOf)
}

func TestAnalyze_ExplicitTargetAndAnchor(t *testing.T) {
	opts := testAnalyzeOptions()
	opts.Year, opts.Month = 2024, 2
	opts.AsOf = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	opts.ForesightMonths = 1

	res, err := analyze(strings.NewReader(sampleFile), opts)
	require.NoError(t, err)

	require.NotNil(t, res.MonthlyReview)
	assert.Equal(t, "2024-02", res.MonthlyReview.TargetMonth)
	assert.InDelta(t, 120.0, res.MonthlyReview.Target.Total, 1e-9)
	assert.InDelta(t, 10.0, res.MonthlyReview.Baseline.Total, 1e-9)

	// One month back from March 1st keeps February and March.
	assert.Equal(t, "March 2024", res.Foresight.AsOf)
	assert.Equal(t, 2, res.Foresight.Months)
}

func TestAnalyze_NoDatedTransactions(t *testing.T) {
	res, err := analyze(strings.NewReader(`[{"date": "soon", "amount": -5, "type": "debit"}]`), testAnalyzeOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.UnresolvedDate)
	assert.Nil(t, res.MonthlyReview)
	assert.Nil(t, res.Foresight)
	assert.Nil(t, res.Proactive)
	assert.Contains(t, renderAnalysis(res), "No dated transactions")
}

func TestAnalyze_MalformedInput(t *testing.T) {
	_, err := analyze(strings.NewReader(`{"unexpected": true}`), testAnalyzeOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, analytics.ErrMalformedInput)

	_, err = analyze(strings.NewReader(`not json`), testAnalyzeOptions())
	assert.ErrorIs(t, err, analytics.ErrMalformedInput)
}

func TestAnalyze_InvalidConvention(t *testing.T) {
	opts := testAnalyzeOptions()
	opts.Convention = "sideways"

	_, err := analyze(strings.NewReader(sampleFile), opts)
	assert.ErrorIs(t, err, analytics.ErrInvalidSignConvention)
}

func TestRenderAnalysis(t *testing.T) {
	res, err := analyze(strings.NewReader(sampleFile), testAnalyzeOptions())
	require.NoError(t, err)

	out := renderAnalysis(res)
	assert.Contains(t, out, "Records: 8, enriched: 7, skipped: 1, unresolved dates: 1, invalid amounts: 0")
	assert.Contains(t, out, "Transactions: 1, Total: $10.00")
	assert.Contains(t, out, "=== Monthly review ===")
	assert.Contains(t, out, "=== Foresight ===")
	assert.Contains(t, out, "=== Proactive ===")
}

func TestLatestMonth(t *testing.T) {
	_, ok := latestMonth(nil)
	assert.False(t, ok)

	res, err := analyze(strings.NewReader(sampleFile), testAnalyzeOptions())
	require.NoError(t, err)

	ym, ok := latestMonth(res.Transactions)
	require.True(t, ok)
	assert.Equal(t, analytics.YearMonth{Year: 2024, Month: 3}, ym)
}

func TestAnalyze_OverflowingAmountKeepsResultSerializable(t *testing.T) {
	doc := `[
		{"date": "2024-03-05", "amount": -1e400, "type": "debit", "category": "dining"},
		{"date": "2024-03-06", "amount": -20, "type": "debit", "category": "dining"}
	]`
	res, err := analyze(strings.NewReader(doc), testAnalyzeOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.InvalidAmount)
	require.NotNil(t, res.MonthlyReview)
	assert.InDelta(t, 20.0, res.MonthlyReview.Target.Total, 1e-9)

	_, err = json.Marshal(res)
	assert.NoError(t, err)
}
