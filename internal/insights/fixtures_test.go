package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/analytics"
	"github.com/dvloznov/finance-insights/internal/domain"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
)

func debit(date string, amount float64, category string) domain.EnrichedTransaction {
	return analytics.EnrichOne(domain.RawTransaction{
		Date:        date,
		Amount:      -amount,
		Type:        "debit",
		Category:    category,
		Merchant:    "Merchant " + category,
		Description: category + " purchase",
	}, 0, analytics.EnrichOptions{UserID: "u1", SourceType: analytics.SourceBankAccount})
}

func credit(date string, amount float64) domain.EnrichedTransaction {
	return analytics.EnrichOne(domain.RawTransaction{
		Date:        date,
		Amount:      amount,
		Type:        "credit",
		Category:    "salary",
		Description: "payroll",
	}, 0, analytics.EnrichOptions{UserID: "u1", SourceType: analytics.SourceBankAccount})
}

// monthOf returns n debits of amount each on days 1..n of year/month.
func monthOf(year, month, n int, amount float64, category string) []domain.EnrichedTransaction {
	out := make([]domain.EnrichedTransaction, 0, n)
	for d := 1; d <= n; d++ {
		out = append(out, debit(fmt.Sprintf("%04d-%02d-%02d", year, month, d), amount, category))
	}
	return out
}

// reviewFixture is a March 2024 target of 6 x $75 dining against a year of
// 5 x $20 dining per month.
func reviewFixture(targetCount int) []domain.EnrichedTransaction {
	txns := monthOf(2024, 3, targetCount, 75, "dining")
	for _, ym := range analytics.BaselineMonths(2024, 3, 12) {
		txns = append(txns, monthOf(ym.Year, ym.Month, 5, 20, "dining")...)
	}
	return txns
}

// historyFixture is 24 months up to April 2024 of 5 debits and one salary.
func historyFixture() []domain.EnrichedTransaction {
	var txns []domain.EnrichedTransaction
	start := analytics.YearMonth{Year: 2022, Month: 5}
	for i := 0; i < 24; i++ {
		ym := start.AddMonths(i)
		txns = append(txns, monthOf(ym.Year, ym.Month, 5, 40, "groceries")...)
		txns = append(txns, credit(fmt.Sprintf("%04d-%02d-10", ym.Year, ym.Month), 3000))
	}
	return txns
}

// filterFixture answers transaction queries from txns in memory.
func filterFixture(txns []domain.EnrichedTransaction) func(context.Context, infra.TransactionFilter) ([]domain.EnrichedTransaction, error) {
	return func(_ context.Context, f infra.TransactionFilter) ([]domain.EnrichedTransaction, error) {
		var out []domain.EnrichedTransaction
		for _, t := range txns {
			if f.UserID != "" && t.UserID != f.UserID {
				continue
			}
			if f.Year != 0 && t.Year != f.Year {
				continue
			}
			if f.Month != 0 && t.Month != f.Month {
				continue
			}
			if f.Type != "" && t.Type != f.Type {
				continue
			}
			if f.AffectsBudgetOnly && !t.AffectsBudget {
				continue
			}
			if !f.Since.IsZero() && t.Timestamp < f.Since.Unix() {
				continue
			}
			out = append(out, t)
		}
		return out, nil
	}
}

func card(extra map[string]interface{}) map[string]interface{} {
	item := map[string]interface{}{
		"title":    "Dining Up 350%",
		"priority": "HIGH",
		"visualization": map[string]interface{}{
			"chart_type": "comparison_bars",
			"data": []interface{}{
				map[string]interface{}{"label": "Dining", "value": 400.0},
			},
		},
		"key_metric": map[string]interface{}{"primary_value": "$350"},
		"card_content": map[string]interface{}{
			"summary": "Dining spending jumped this month.",
			"actions": []interface{}{"Cut dining by $150 before April 30"},
			"impact":  "Save $150 this month",
		},
		"full_content": map[string]interface{}{"what_happening": "Dining rose."},
	}
	for k, v := range extra {
		item[k] = v
	}
	return item
}

func modelResponse(key string, items ...map[string]interface{}) string {
	b, err := json.Marshal(map[string]interface{}{key: items})
	if err != nil {
		panic(err)
	}
	return "```json\n" + string(b) + "\n```"
}

func testSettings() Settings {
	return Settings{
		Thresholds:               analytics.DefaultThresholds(),
		MinTargetTransactions:    5,
		MinBaselineTransactions:  50,
		MinForesightTransactions: 100,
		MinProactiveTransactions: 50,
		ForesightMonths:          24,
		ProactiveMonths:          12,
		MonthlyTTL:               45 * 24 * time.Hour,
		ForesightTTL:             90 * 24 * time.Hour,
		ProactiveTTL:             60 * 24 * time.Hour,
	}
}
