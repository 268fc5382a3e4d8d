package analytics

import (
	"math"
	"sort"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month int
}

// Key returns the "YYYY-MM" form.
func (ym YearMonth) Key() string { return MonthKey(ym.Year, ym.Month) }

// AddMonths moves ym by n months, which may be negative.
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.Year*12 + (ym.Month - 1) + n
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

// BaselineMonths lists the n calendar months immediately preceding the
// target month, oldest first.
func BaselineMonths(year, month, n int) []YearMonth {
	if n <= 0 {
		return nil
	}
	target := YearMonth{Year: year, Month: month}
	out := make([]YearMonth, n)
	for i := 0; i < n; i++ {
		out[i] = target.AddMonths(i - n)
	}
	return out
}

// FillWindow returns one aggregate per month in window, in window order.
// Months missing from aggs are represented by empty aggregates; aggregates
// outside the window are dropped.
func FillWindow(aggs []domain.MonthlyAggregate, window []YearMonth) []domain.MonthlyAggregate {
	byKey := indexByKey(aggs)
	out := make([]domain.MonthlyAggregate, len(window))
	for i, ym := range window {
		if a, ok := byKey[ym.Key()]; ok {
			out[i] = a
			continue
		}
		out[i] = NewMonthlyAggregate(ym.Year, ym.Month)
	}
	return out
}

// ComputeBaseline averages the baseline aggregates over windowSize months.
// The divisor is always windowSize, so empty months pull the averages
// down. A non-positive windowSize falls back to len(baseline); an empty
// window yields zero averages and no categories.
func ComputeBaseline(baseline []domain.MonthlyAggregate, windowSize int) domain.BaselineAverages {
	if windowSize <= 0 {
		windowSize = len(baseline)
	}
	avg := domain.BaselineAverages{
		Months:     windowSize,
		Categories: make(map[string]float64),
	}
	if windowSize == 0 {
		return avg
	}

	for _, m := range baseline {
		avg.Total += m.Total
		avg.Discretionary += m.Discretionary
		avg.Essential += m.Essential
		avg.Weekend += m.Weekend
		avg.Weekday += m.Weekday
		avg.Subscriptions += m.Subscriptions
		for cat, v := range m.Categories {
			avg.Categories[cat] += v
		}
	}

	n := float64(windowSize)
	avg.Total /= n
	avg.Discretionary /= n
	avg.Essential /= n
	avg.Weekend /= n
	avg.Weekday /= n
	avg.Subscriptions /= n
	for cat := range avg.Categories {
		avg.Categories[cat] /= n
	}
	return avg
}

// CompareToBaseline compares a target month to the averages of its baseline
// months. Only categories present in the target with a positive baseline
// average are considered, and a change is reported only when it clears
// both the percentage and the absolute threshold. Changes are ordered by
// absolute difference, largest first.
func CompareToBaseline(target domain.MonthlyAggregate, baseline []domain.MonthlyAggregate, th Thresholds) (domain.ComparisonResult, domain.BaselineAverages) {
	avg := ComputeBaseline(baseline, th.BaselineMonths)
	return CompareToAverages(target, avg, th), avg
}

// CompareToAverages is CompareToBaseline over pre-computed averages.
func CompareToAverages(target domain.MonthlyAggregate, avg domain.BaselineAverages, th Thresholds) domain.ComparisonResult {
	res := domain.ComparisonResult{
		TotalDiff:         target.Total - avg.Total,
		TotalPctChange:    PctChange(target.Total, avg.Total),
		DiscretionaryDiff: target.Discretionary - avg.Discretionary,
		EssentialDiff:     target.Essential - avg.Essential,
		WeekendDiff:       target.Weekend - avg.Weekend,
		CategoryChanges:   []domain.CategoryChange{},
	}

	for cat, amount := range target.Categories {
		base := avg.Categories[cat]
		if base <= 0 {
			continue
		}
		diff := amount - base
		pct := PctChange(amount, base)
		if !IsSignificant(pct, diff, th) {
			continue
		}
		res.CategoryChanges = append(res.CategoryChanges, domain.CategoryChange{
			Category:    cat,
			Target:      amount,
			BaselineAvg: base,
			Diff:        diff,
			PctChange:   pct,
		})
	}

	sort.Slice(res.CategoryChanges, func(i, j int) bool {
		a, b := res.CategoryChanges[i], res.CategoryChanges[j]
		if math.Abs(a.Diff) != math.Abs(b.Diff) {
			return math.Abs(a.Diff) > math.Abs(b.Diff)
		}
		return a.Category < b.Category
	})
	return res
}

// IsSignificant applies the dual percentage and absolute-dollar filter.
func IsSignificant(pctChange, diff float64, th Thresholds) bool {
	return math.Abs(pctChange) > th.SignificancePct && math.Abs(diff) > th.SignificanceAbs
}

// PctChange returns the percentage change from base to v, or 0 when base
// is not positive.
func PctChange(v, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return (v - base) / base * 100
}

// share returns part as a percentage of total, or 0 for an empty total.
func share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
