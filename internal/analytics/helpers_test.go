package analytics

import (
	"github.com/dvloznov/finance-insights/internal/domain"
)

// spend builds an enriched debit in the given category.
func spend(date string, amount float64, category string) domain.EnrichedTransaction {
	return EnrichOne(domain.RawTransaction{
		Date:     date,
		Amount:   -amount,
		Type:     "debit",
		Category: category,
	}, 0, EnrichOptions{UserID: "u", SourceType: SourceBankAccount})
}

// earn builds an enriched credit.
func earn(date string, amount float64) domain.EnrichedTransaction {
	return EnrichOne(domain.RawTransaction{
		Date:     date,
		Amount:   amount,
		Type:     "credit",
		Category: "salary",
	}, 0, EnrichOptions{UserID: "u", SourceType: SourceBankAccount})
}

// monthAgg builds an aggregate with the given category totals.
func monthAgg(year, month int, cats map[string]float64) domain.MonthlyAggregate {
	a := NewMonthlyAggregate(year, month)
	for c, v := range cats {
		a.Categories[c] = v
		a.Total += v
		a.Count++
	}
	return a
}
