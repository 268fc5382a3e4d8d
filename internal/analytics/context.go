package analytics

import (
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// BuildMonthlyReviewContext compares the target month against the
// th.BaselineMonths months before it. baseline may hold transactions from
// any months; only those inside the baseline window count, and empty
// months inside the window count as zero spending.
func BuildMonthlyReviewContext(year, month int, target, baseline []domain.EnrichedTransaction, goals []domain.Goal, th Thresholds) domain.MonthlyReviewContext {
	targetAgg := AggregateMonth(year, month, target)
	window := FillWindow(AggregateMonthly(baseline), BaselineMonths(year, month, th.BaselineMonths))
	cmp, avg := CompareToBaseline(targetAgg, window, th)

	if goals == nil {
		goals = []domain.Goal{}
	}
	return domain.MonthlyReviewContext{
		TargetMonth:              targetAgg.Key,
		TargetMonthName:          MonthName(month),
		Target:                   targetAgg,
		Baseline:                 avg,
		Comparison:               cmp,
		DiscretionaryPct:         share(targetAgg.Discretionary, targetAgg.Total),
		BaselineDiscretionaryPct: share(avg.Discretionary, avg.Total),
		Goals:                    goals,
	}
}

// BuildForesightContext derives cash flow, category trends and seasonal
// patterns from a long transaction history. Trends run over expense months
// aligned to the cash flow months; seasonality looks back from asOf's year.
func BuildForesightContext(txns []domain.EnrichedTransaction, asOf time.Time, th Thresholds) domain.ForesightContext {
	cf := CashFlow(txns)
	return domain.ForesightContext{
		AsOf:     asOf.Format("January 2006"),
		Months:   len(cf.Months),
		Cashflow: cf.Cashflow,
		Income:   cf.Income,
		Expenses: cf.Expenses,
		Trends:   CategoryTrends(cf.Expenses, th),
		Seasonal: SeasonalPatterns(cf.Expenses, asOf.Year(), th),
		Summary:  cf.Summary,
	}
}

// BuildProactiveContext wraps the spending profile of txns.
func BuildProactiveContext(txns []domain.EnrichedTransaction, asOf time.Time) domain.ProactiveContext {
	return domain.ProactiveContext{
		AsOf:    asOf.Format("January 2006"),
		Profile: SpendingProfile(txns),
	}
}
