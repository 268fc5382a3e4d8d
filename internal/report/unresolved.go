package report

import (
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// FormatUnresolved renders the spending whose dates could not be parsed.
// It returns "" when there is none.
func FormatUnresolved(agg domain.MonthlyAggregate) string {
	if agg.Count == 0 {
		return ""
	}
	var s sections
	s.add(
		"## UNRESOLVED DATES (not in any month)",
		fmt.Sprintf("Transactions: %d, Total: %s", agg.Count, money(agg.Total)),
	)
	for _, kv := range sortedAmounts(agg.Categories, topCategories) {
		s.add(fmt.Sprintf("- %s: %s", kv.key, money(kv.value)))
	}
	return s.String()
}
