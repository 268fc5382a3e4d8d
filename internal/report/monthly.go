package report

import (
	"fmt"
	"sort"

	"github.com/dvloznov/finance-insights/internal/domain"
)

const (
	topChanges    = 5
	topCategories = 5
)

// FormatMonthlyReview renders a month-against-baseline digest: the target
// month summary, the baseline averages, the overall change, the largest
// significant category changes and the top categories of the month.
func FormatMonthlyReview(ctx domain.MonthlyReviewContext) string {
	var s sections

	t := ctx.Target
	s.add(
		fmt.Sprintf("## TARGET MONTH: %s %s", ctx.TargetMonthName, ctx.TargetMonth),
		"Total Spending: "+money(t.Total),
		fmt.Sprintf("Transaction Count: %d", t.Count),
		fmt.Sprintf("Discretionary: %s (%.1f%%)", money(t.Discretionary), ctx.DiscretionaryPct),
		"Essential: "+money(t.Essential),
		"Subscriptions: "+money(t.Subscriptions),
	)

	b := ctx.Baseline
	s.add(
		fmt.Sprintf("\n## BASELINE (%d-Month Average)", b.Months),
		"Average Monthly Spending: "+money(b.Total),
		fmt.Sprintf("Discretionary Average: %s (%.1f%%)", money(b.Discretionary), ctx.BaselineDiscretionaryPct),
		"Essential Average: "+money(b.Essential),
	)

	c := ctx.Comparison
	s.add(
		"\n## COMPARISON",
		fmt.Sprintf("Total Change: %s %s (%.1f%%)", money(abs(c.TotalDiff)), direction(c.TotalDiff), abs(c.TotalPctChange)),
	)

	if len(c.CategoryChanges) > 0 {
		changes := append([]domain.CategoryChange(nil), c.CategoryChanges...)
		sort.SliceStable(changes, func(i, j int) bool { return abs(changes[i].Diff) > abs(changes[j].Diff) })
		if len(changes) > topChanges {
			changes = changes[:topChanges]
		}
		s.add("\n## SIGNIFICANT CATEGORY CHANGES")
		for _, ch := range changes {
			s.add(fmt.Sprintf("%s %s: %s (baseline: %s, change: %+.1f%%)",
				arrow(ch.Diff), ch.Category, money(ch.Target), money(ch.BaselineAvg), ch.PctChange))
		}
	}

	s.add("\n## TOP SPENDING CATEGORIES (Target Month)")
	for _, kv := range sortedAmounts(t.Categories, topCategories) {
		s.add(fmt.Sprintf("- %s: %s", kv.key, money(kv.value)))
	}

	if len(ctx.Goals) > 0 {
		s.add("\n## ACTIVE FINANCIAL GOALS")
		s.add(goalLines(ctx.Goals)...)
	}

	return s.String()
}

type amount struct {
	key   string
	value float64
}

// sortedAmounts returns the n largest entries of m, ties broken by key.
func sortedAmounts(m map[string]float64, n int) []amount {
	out := make([]amount, 0, len(m))
	for k, v := range m {
		out = append(out, amount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value > out[j].value
		}
		return out[i].key < out[j].key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
