package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/domain"
)

func TestSpendingProfile(t *testing.T) {
	txns := []domain.EnrichedTransaction{
		spend("2024-01-06", 80, "dining"), // Saturday
		spend("2024-01-08", 20, "groceries"),
		spend("2024-02-10", 300, "dining"), // Saturday
		spend("2024-02-12", 100, "groceries"),
		spend("broken", 5000, "travel"),
	}

	p := SpendingProfile(txns)

	require.Len(t, p.Months, 2)
	assert.Equal(t, "2024-01", p.Months[0].Key)
	assert.InDelta(t, 80, p.Months[0].DiscretionaryPct, 1e-9)
	assert.InDelta(t, 20, p.Months[0].EssentialPct, 1e-9)

	require.Len(t, p.Categories, 2)
	assert.Equal(t, domain.CategorySummary{Category: "dining", Total: 380, Count: 2, MonthlyAvg: 190, MonthsActive: 2}, p.Categories[0])

	require.Len(t, p.Merchants, 1)
	assert.Equal(t, unknownMerchant, p.Merchants[0].Merchant)
	assert.Equal(t, 4, p.Merchants[0].Frequency)
	assert.Equal(t, "dining", p.Merchants[0].Category)

	assert.InDelta(t, 380.0/16, p.Behavior.WeekendAvgPerDay, 1e-9)
	assert.InDelta(t, 120.0/44, p.Behavior.WeekdayAvgPerDay, 1e-9)
	assert.InDelta(t, 76, p.Behavior.DiscretionaryPct, 1e-9)
	assert.InDelta(t, 500, p.Behavior.TotalSpending, 1e-9)

	require.Len(t, p.Largest, 5)
	assert.Equal(t, "broken", p.Largest[0].Date)
	assert.InDelta(t, 5000, p.Largest[0].Amount, 1e-9)

	require.Len(t, p.Recent, 5)
	assert.Equal(t, "broken", p.Recent[0].Date)
	assert.Equal(t, "2024-02-12", p.Recent[1].Date)
}

func TestSpendingProfile_Limits(t *testing.T) {
	var txns []domain.EnrichedTransaction
	for i := 0; i < 30; i++ {
		tx := spend(fmt.Sprintf("2024-03-%02d", i%28+1), float64(i+1), "shopping")
		tx.Merchant = fmt.Sprintf("m%02d", i)
		txns = append(txns, tx)
	}

	p := SpendingProfile(txns)
	assert.Len(t, p.Merchants, 20)
	assert.Equal(t, "m29", p.Merchants[0].Merchant)
	assert.Len(t, p.Largest, 10)
	assert.Len(t, p.Recent, 20)
}

func TestSpendingProfile_Empty(t *testing.T) {
	p := SpendingProfile(nil)
	assert.Empty(t, p.Months)
	assert.Equal(t, domain.BehavioralSummary{}, p.Behavior)
}
