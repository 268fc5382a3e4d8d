package analytics

import (
	"math"
	"sort"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// CategoryTrends compares the average spend per category over the most
// recent TrendWindow months against the TrendWindow months before them.
// months need not be sorted. With fewer than two full windows no trend is
// computed. Categories absent from the recent window or with a zero prior
// average are skipped. Results are ordered by absolute change.
func CategoryTrends(months []domain.MonthlyAggregate, th Thresholds) []domain.CategoryTrend {
	w := th.TrendWindow
	if w <= 0 || len(months) < 2*w {
		return []domain.CategoryTrend{}
	}

	sorted := sortedByKey(months)
	recent := sorted[len(sorted)-w:]
	prior := sorted[len(sorted)-2*w : len(sorted)-w]

	cats := make(map[string]bool)
	for _, m := range recent {
		for c := range m.Categories {
			cats[c] = true
		}
	}

	out := make([]domain.CategoryTrend, 0, len(cats))
	for c := range cats {
		recentAvg := categoryAverage(recent, c)
		priorAvg := categoryAverage(prior, c)
		if priorAvg <= 0 {
			continue
		}
		pct := PctChange(recentAvg, priorAvg)
		out = append(out, domain.CategoryTrend{
			Category:  c,
			RecentAvg: recentAvg,
			PriorAvg:  priorAvg,
			PctChange: pct,
			Trend:     TrendDirection(pct, th.TrendPct),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := math.Abs(out[i].PctChange), math.Abs(out[j].PctChange)
		if a != b {
			return a > b
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TrendDirection labels a percentage change against a symmetric threshold.
func TrendDirection(pct, threshold float64) string {
	switch {
	case pct > threshold:
		return domain.TrendIncreasing
	case pct < -threshold:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// SeasonalPatterns averages each calendar month's total over the
// SeasonalYears years ending with endYear. A month is reported only when at
// least SeasonalMinPoints of those years had transactions in it. Patterns
// are returned January first.
func SeasonalPatterns(months []domain.MonthlyAggregate, endYear int, th Thresholds) []domain.SeasonalPattern {
	byKey := indexByKey(months)
	minPoints := th.SeasonalMinPoints
	if minPoints < 1 {
		minPoints = 1
	}

	out := []domain.SeasonalPattern{}
	for m := 1; m <= 12; m++ {
		var sum float64
		points := 0
		for y := endYear - th.SeasonalYears + 1; y <= endYear; y++ {
			a, ok := byKey[MonthKey(y, m)]
			if !ok || a.Count == 0 {
				continue
			}
			sum += a.Total
			points++
		}
		if points < minPoints {
			continue
		}
		out = append(out, domain.SeasonalPattern{
			MonthName:   MonthName(m),
			Month:       m,
			AvgSpending: sum / float64(points),
			DataPoints:  points,
		})
	}
	return out
}

func categoryAverage(window []domain.MonthlyAggregate, category string) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, m := range window {
		sum += m.Categories[category]
	}
	return sum / float64(len(window))
}

func sortedByKey(months []domain.MonthlyAggregate) []domain.MonthlyAggregate {
	out := make([]domain.MonthlyAggregate, len(months))
	copy(out, months)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
