package report

import (
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
)

const (
	proactiveCategories = 15
	proactiveMerchants  = 10
	proactiveRecent     = 10
	proactiveLargest    = 5
)

// FormatProactive renders the spending profile digest.
func FormatProactive(ctx domain.ProactiveContext) string {
	var s sections
	p := ctx.Profile

	s.add(
		"# USER FINANCIAL DATA ANALYSIS\n",
		fmt.Sprintf("Analysis Period: %d months\n", len(p.Months)),
		"## MONTHLY SPENDING TRENDS\n",
	)
	for _, m := range p.Months {
		s.add(fmt.Sprintf("**%s**: %s total | %d transactions | %.0f%% discretionary | %s weekend | %s subscriptions",
			m.Key, money(m.Total), m.Count, m.DiscretionaryPct, money(m.WeekendSpending), money(m.Subscriptions)))
	}

	if len(p.Months) >= 2 {
		first, last := p.Months[0].Total, p.Months[len(p.Months)-1].Total
		pct := 0.0
		if first > 0 {
			pct = (last - first) / first * 100
		}
		s.add(fmt.Sprintf("\n**Overall Trend**: %+.1f%% from first to last month\n", pct))
	}

	s.add("\n## SPENDING BY CATEGORY\n")
	for _, c := range firstN(p.Categories, proactiveCategories) {
		s.add(fmt.Sprintf("**%s**: %s total | %s/month avg | %d transactions",
			title(c.Category), money(c.Total), money(c.MonthlyAvg), c.Count))
	}

	s.add("\n## TOP MERCHANTS\n")
	for _, m := range firstN(p.Merchants, proactiveMerchants) {
		s.add(fmt.Sprintf("**%s**: %d visits | %s total | Category: %s",
			m.Merchant, m.Frequency, money(m.Total), m.Category))
	}

	b := p.Behavior
	s.add(
		"\n## BEHAVIORAL PATTERNS\n",
		fmt.Sprintf("- Weekend spending: $%.2f/day average", b.WeekendAvgPerDay),
		fmt.Sprintf("- Weekday spending: $%.2f/day average", b.WeekdayAvgPerDay),
		fmt.Sprintf("- Discretionary spending: %.0f%% of total", b.DiscretionaryPct),
		fmt.Sprintf("- Essential spending: %.0f%% of total", b.EssentialPct),
		fmt.Sprintf("- Monthly subscriptions: $%.2f/month average", b.SubscriptionMonthlyAvg),
		"- Total spending: "+money(b.TotalSpending),
	)

	s.add("\n## SAMPLE RECENT TRANSACTIONS\n")
	s.add(sampleLines(p.Recent, proactiveRecent)...)

	s.add("\n## LARGEST PURCHASES\n")
	s.add(sampleLines(p.Largest, proactiveLargest)...)

	return s.String()
}

func sampleLines(txns []domain.TransactionSample, n int) []string {
	var lines []string
	for _, t := range firstN(txns, n) {
		date := t.Date
		if date == "" {
			date = "N/A"
		}
		lines = append(lines, fmt.Sprintf("%s: %s | $%.2f | %s", date, t.Merchant, t.Amount, t.Category))
	}
	return lines
}
