package analytics

import (
	"sort"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// CashFlowResult is income against expenses month by month.
type CashFlowResult struct {
	// Months is the sorted union of months with income or expenses.
	Months   []string
	Income   []domain.MonthlyAggregate
	Expenses []domain.MonthlyAggregate
	Cashflow []domain.MonthlyCashflow
	Summary  domain.CashflowSummary
}

// IsIncomeTransaction decides which side of the cash flow a transaction
// belongs to. The debit/credit label wins; without one the classifier's
// income flag decides.
func IsIncomeTransaction(t domain.EnrichedTransaction) bool {
	switch strings.ToLower(t.Type) {
	case "credit":
		return true
	case "debit":
		return false
	default:
		return t.IsIncome
	}
}

// CashFlow splits transactions into income and expenses and derives the
// monthly net and savings rate. Income and expense aggregates are aligned
// to Months, with empty aggregates for months where one side has no data.
// Summary averages are taken over Months and are zero when it is empty.
func CashFlow(txns []domain.EnrichedTransaction) CashFlowResult {
	var income, expenses []domain.EnrichedTransaction
	for _, t := range txns {
		if IsIncomeTransaction(t) {
			income = append(income, t)
		} else {
			expenses = append(expenses, t)
		}
	}

	incAggs := indexByKey(AggregateMonthly(income))
	expAggs := indexByKey(AggregateMonthly(expenses))

	keys := make(map[string]YearMonth)
	for k, a := range incAggs {
		keys[k] = YearMonth{a.Year, a.Month}
	}
	for k, a := range expAggs {
		keys[k] = YearMonth{a.Year, a.Month}
	}
	window := make([]YearMonth, 0, len(keys))
	for _, ym := range keys {
		window = append(window, ym)
	}
	sort.Slice(window, func(i, j int) bool { return window[i].Key() < window[j].Key() })

	res := CashFlowResult{
		Months:   make([]string, len(window)),
		Income:   FillWindow(mapValues(incAggs), window),
		Expenses: FillWindow(mapValues(expAggs), window),
		Cashflow: make([]domain.MonthlyCashflow, len(window)),
	}

	var sumInc, sumExp, sumNet, sumRate float64
	for i, ym := range window {
		inc := res.Income[i].Total
		exp := res.Expenses[i].Total
		net := inc - exp
		rate := 0.0
		if inc > 0 {
			rate = net / inc * 100
		}
		res.Months[i] = ym.Key()
		res.Cashflow[i] = domain.MonthlyCashflow{
			Key:         ym.Key(),
			Income:      inc,
			Expenses:    exp,
			Net:         net,
			SavingsRate: rate,
		}
		sumInc += inc
		sumExp += exp
		sumNet += net
		sumRate += rate
	}

	if n := float64(len(window)); n > 0 {
		res.Summary = domain.CashflowSummary{
			AvgMonthlyIncome:   sumInc / n,
			AvgMonthlyExpenses: sumExp / n,
			AvgMonthlySavings:  sumNet / n,
			AvgSavingsRate:     sumRate / n,
		}
	}
	return res
}

func mapValues(m map[string]domain.MonthlyAggregate) []domain.MonthlyAggregate {
	out := make([]domain.MonthlyAggregate, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
