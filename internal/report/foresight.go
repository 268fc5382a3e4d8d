package report

import (
	"fmt"
	"sort"

	"github.com/dvloznov/finance-insights/internal/domain"
)

const (
	recentCashflowMonths = 6
	topTrends            = 10
	recentExpenseMonths  = 3
	topExpenseCategories = 8
)

// FormatForesight renders the forward-looking digest.
func FormatForesight(ctx domain.ForesightContext) string {
	var s sections

	s.add(
		fmt.Sprintf("# FINANCIAL FORECASTING DATA (%d Month History)\n", ctx.Months),
		fmt.Sprintf("Current Date: %s\n", ctx.AsOf),
		"## HISTORICAL AVERAGES\n",
		"**Average Monthly Income**: "+money(ctx.Summary.AvgMonthlyIncome),
		"**Average Monthly Expenses**: "+money(ctx.Summary.AvgMonthlyExpenses),
		"**Average Monthly Savings**: "+money(ctx.Summary.AvgMonthlySavings),
		fmt.Sprintf("**Average Savings Rate**: %.1f%%", ctx.Summary.AvgSavingsRate),
	)

	s.add(fmt.Sprintf("\n## RECENT CASH FLOW (Last %d Months)\n", recentCashflowMonths))
	for _, m := range lastN(ctx.Cashflow, recentCashflowMonths) {
		s.add(fmt.Sprintf("**%s**: Income %s | Expenses %s | Net %s | Savings Rate %.1f%%",
			m.Key, money(m.Income), money(m.Expenses), signedMoney(m.Net), m.SavingsRate))
	}

	if len(ctx.Trends) > 0 {
		trends := append([]domain.CategoryTrend(nil), ctx.Trends...)
		sort.SliceStable(trends, func(i, j int) bool { return abs(trends[i].PctChange) > abs(trends[j].PctChange) })
		if len(trends) > topTrends {
			trends = trends[:topTrends]
		}
		s.add("\n## CATEGORY TRENDS (Last 6 months vs Prior 6 months)\n")
		for _, tr := range trends {
			s.add(fmt.Sprintf("**%s**: %s/month recent (vs %s prior, %+.1f%% change, Trend: %s)",
				title(tr.Category), money(tr.RecentAvg), money(tr.PriorAvg), tr.PctChange, tr.Trend))
		}
	}

	if len(ctx.Seasonal) > 0 {
		seasonal := append([]domain.SeasonalPattern(nil), ctx.Seasonal...)
		sort.SliceStable(seasonal, func(i, j int) bool { return seasonal[i].Month < seasonal[j].Month })
		s.add("\n## SEASONAL SPENDING PATTERNS (Historical)\n")
		for _, p := range seasonal {
			s.add(fmt.Sprintf("**%s**: Avg %s (based on %d years of data)",
				p.MonthName, money(p.AvgSpending), p.DataPoints))
		}
	}

	s.add(fmt.Sprintf("\n## RECENT MONTHLY EXPENSES BY CATEGORY (Last %d Months)\n", recentExpenseMonths))
	for _, m := range lastN(ctx.Expenses, recentExpenseMonths) {
		s.add(fmt.Sprintf("\n**%s**: %s total", m.Key, money(m.Total)))
		for _, kv := range sortedAmounts(m.Categories, topExpenseCategories) {
			s.add(fmt.Sprintf("  - %s: %s", title(kv.key), money(kv.value)))
		}
	}

	return s.String()
}

func lastN[T any](xs []T, n int) []T {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func firstN[T any](xs []T, n int) []T {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}
