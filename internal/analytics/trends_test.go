package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/domain"
)

func twelveMonths(prior, recent map[string]float64) []domain.MonthlyAggregate {
	var out []domain.MonthlyAggregate
	for i, ym := range BaselineMonths(2025, 1, 12) {
		cats := prior
		if i >= 6 {
			cats = recent
		}
		out = append(out, monthAgg(ym.Year, ym.Month, cats))
	}
	return out
}

func TestCategoryTrends(t *testing.T) {
	months := twelveMonths(
		map[string]float64{"dining": 100, "groceries": 400, "travel": 200, "rent": 1500},
		map[string]float64{"dining": 130, "groceries": 380, "travel": 202, "gifts": 50, "rent": 1500},
	)

	got := CategoryTrends(months, DefaultThresholds())
	byCat := make(map[string]domain.CategoryTrend)
	for _, tr := range got {
		byCat[tr.Category] = tr
	}

	require.Len(t, got, 4, "gifts has no prior average")
	assert.Equal(t, "dining", got[0].Category)

	assert.Equal(t, domain.TrendIncreasing, byCat["dining"].Trend)
	assert.InDelta(t, 30, byCat["dining"].PctChange, 1e-9)
	assert.InDelta(t, 130, byCat["dining"].RecentAvg, 1e-9)
	assert.InDelta(t, 100, byCat["dining"].PriorAvg, 1e-9)

	assert.Equal(t, domain.TrendStable, byCat["groceries"].Trend)
	assert.InDelta(t, -5, byCat["groceries"].PctChange, 1e-9)
	assert.Equal(t, domain.TrendStable, byCat["travel"].Trend)
	assert.Equal(t, domain.TrendStable, byCat["rent"].Trend)
}

func TestCategoryTrends_UnsortedInput(t *testing.T) {
	months := twelveMonths(map[string]float64{"dining": 100}, map[string]float64{"dining": 50})
	months[0], months[11] = months[11], months[0]

	got := CategoryTrends(months, DefaultThresholds())
	require.Len(t, got, 1)
	assert.Equal(t, domain.TrendDecreasing, got[0].Trend)
	assert.InDelta(t, -50, got[0].PctChange, 1e-9)
}

func TestCategoryTrends_NeedsTwelveMonths(t *testing.T) {
	months := twelveMonths(map[string]float64{"dining": 100}, map[string]float64{"dining": 500})
	assert.Empty(t, CategoryTrends(months[1:], DefaultThresholds()))
	assert.Empty(t, CategoryTrends(nil, DefaultThresholds()))
}

func TestCategoryTrends_UsesOnlyLastTwelve(t *testing.T) {
	months := twelveMonths(map[string]float64{"dining": 100}, map[string]float64{"dining": 100})
	older := monthAgg(2023, 12, map[string]float64{"dining": 100000})
	months = append([]domain.MonthlyAggregate{older}, months...)

	got := CategoryTrends(months, DefaultThresholds())
	require.Len(t, got, 1)
	assert.Equal(t, domain.TrendStable, got[0].Trend)
}

func TestTrendDirection(t *testing.T) {
	assert.Equal(t, domain.TrendIncreasing, TrendDirection(5.01, 5))
	assert.Equal(t, domain.TrendStable, TrendDirection(5, 5))
	assert.Equal(t, domain.TrendStable, TrendDirection(-5, 5))
	assert.Equal(t, domain.TrendDecreasing, TrendDirection(-5.01, 5))
}

func TestSeasonalPatterns(t *testing.T) {
	months := []domain.MonthlyAggregate{
		monthAgg(2023, 12, map[string]float64{"gifts": 900}),
		monthAgg(2024, 12, map[string]float64{"gifts": 1100}),
		monthAgg(2025, 12, map[string]float64{"gifts": 1300}),
		monthAgg(2024, 7, map[string]float64{"travel": 2000}),
		monthAgg(2025, 3, map[string]float64{"dining": 100}),
		monthAgg(2022, 3, map[string]float64{"dining": 100}), // outside lookback
		monthAgg(2024, 3, nil),                               // no transactions
		monthAgg(2023, 1, map[string]float64{"dining": 40}),
		monthAgg(2025, 1, map[string]float64{"dining": 60}),
	}

	got := SeasonalPatterns(months, 2025, DefaultThresholds())
	require.Len(t, got, 2)

	assert.Equal(t, domain.SeasonalPattern{MonthName: "January", Month: 1, AvgSpending: 50, DataPoints: 2}, got[0])
	assert.Equal(t, "December", got[1].MonthName)
	assert.Equal(t, 3, got[1].DataPoints)
	assert.InDelta(t, 1100, got[1].AvgSpending, 1e-9)
}
