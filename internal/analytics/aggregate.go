package analytics

import (
	"math"
	"sort"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// unknownMerchant labels spending with no merchant in merchant sums.
const unknownMerchant = "Unknown"

// NewMonthlyAggregate returns an empty aggregate for a calendar month.
func NewMonthlyAggregate(year, month int) domain.MonthlyAggregate {
	return domain.MonthlyAggregate{
		Key:        MonthKey(year, month),
		Year:       year,
		Month:      month,
		Categories: make(map[string]float64),
		Merchants:  make(map[string]float64),
	}
}

// AggregateMonthly folds transactions into one aggregate per calendar month
// present, ordered by month. Transactions without a resolved year and month
// are left out entirely. Amounts are summed as magnitudes.
func AggregateMonthly(txns []domain.EnrichedTransaction) []domain.MonthlyAggregate {
	byKey := make(map[string]*domain.MonthlyAggregate)
	for i := range txns {
		t := &txns[i]
		if !t.Resolved() {
			continue
		}
		key := MonthKey(t.Year, t.Month)
		agg, ok := byKey[key]
		if !ok {
			a := NewMonthlyAggregate(t.Year, t.Month)
			agg = &a
			byKey[key] = agg
		}
		addToAggregate(agg, t)
	}

	out := make([]domain.MonthlyAggregate, 0, len(byKey))
	for _, agg := range byKey {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// AggregateMonth folds the transactions of a single month. Transactions
// from other months, or with unresolved dates, are ignored.
func AggregateMonth(year, month int, txns []domain.EnrichedTransaction) domain.MonthlyAggregate {
	agg := NewMonthlyAggregate(year, month)
	for i := range txns {
		t := &txns[i]
		if t.Year != year || t.Month != month {
			continue
		}
		addToAggregate(&agg, t)
	}
	return agg
}

func addToAggregate(agg *domain.MonthlyAggregate, t *domain.EnrichedTransaction) {
	amount := math.Abs(t.Amount)

	agg.Total += amount
	agg.Count++
	agg.Categories[t.Category] += amount

	merchant := t.Merchant
	if merchant == "" {
		merchant = unknownMerchant
	}
	agg.Merchants[merchant] += amount

	if t.IsDiscretionary {
		agg.Discretionary += amount
	} else {
		agg.Essential += amount
	}
	if t.IsWeekend {
		agg.Weekend += amount
	} else {
		agg.Weekday += amount
	}
	if t.IsSubscription {
		agg.Subscriptions += amount
	}
}

// indexByKey maps month keys to aggregates.
func indexByKey(aggs []domain.MonthlyAggregate) map[string]domain.MonthlyAggregate {
	m := make(map[string]domain.MonthlyAggregate, len(aggs))
	for _, a := range aggs {
		m[a.Key] = a
	}
	return m
}

// UnresolvedKey labels the aggregate of transactions with unparseable dates.
const UnresolvedKey = "unresolved"

// AggregateUnresolved folds the transactions whose dates could not be
// parsed. They never appear in month-keyed aggregates.
func AggregateUnresolved(txns []domain.EnrichedTransaction) domain.MonthlyAggregate {
	agg := NewMonthlyAggregate(0, 0)
	agg.Key = UnresolvedKey
	for i := range txns {
		if txns[i].Resolved() {
			continue
		}
		addToAggregate(&agg, &txns[i])
	}
	return agg
}
