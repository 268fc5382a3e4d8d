package analytics

import (
	"math"
	"sort"

	"github.com/dvloznov/finance-insights/internal/domain"
)

const (
	topMerchants        = 20
	largestSamples      = 10
	recentSamples       = 20
	weekendDaysPerMonth = 8
	weekdayDaysPerMonth = 22
)

// SpendingProfile builds the multi-view summary used for proactive insights.
// Month, category and merchant views ignore transactions without a resolved
// month; the transaction samples draw from every transaction.
func SpendingProfile(txns []domain.EnrichedTransaction) domain.SpendingProfile {
	months := AggregateMonthly(txns)

	p := domain.SpendingProfile{
		Months:     make([]domain.MonthSummary, 0, len(months)),
		Categories: []domain.CategorySummary{},
		Merchants:  []domain.MerchantSummary{},
	}

	var weekend, weekday, disc, ess, subs float64
	for _, m := range months {
		p.Months = append(p.Months, domain.MonthSummary{
			Key:              m.Key,
			Total:            m.Total,
			Count:            m.Count,
			DiscretionaryPct: share(m.Discretionary, m.Total),
			EssentialPct:     share(m.Essential, m.Total),
			WeekendSpending:  m.Weekend,
			WeekdaySpending:  m.Weekday,
			Subscriptions:    m.Subscriptions,
		})
		weekend += m.Weekend
		weekday += m.Weekday
		disc += m.Discretionary
		ess += m.Essential
		subs += m.Subscriptions
	}

	p.Categories = categorySummaries(txns)
	p.Merchants = merchantSummaries(txns)

	n := len(months)
	grand := disc + ess
	p.Behavior = domain.BehavioralSummary{
		DiscretionaryPct: share(disc, grand),
		EssentialPct:     share(ess, grand),
		TotalSpending:    grand,
	}
	if n > 0 {
		p.Behavior.WeekendAvgPerDay = weekend / float64(n*weekendDaysPerMonth)
		p.Behavior.WeekdayAvgPerDay = weekday / float64(n*weekdayDaysPerMonth)
		p.Behavior.SubscriptionMonthlyAvg = subs / float64(n)
	}

	p.Largest = largestTransactions(txns, largestSamples)
	p.Recent = recentTransactions(txns, recentSamples)
	return p
}

func categorySummaries(txns []domain.EnrichedTransaction) []domain.CategorySummary {
	type acc struct {
		total  float64
		count  int
		months map[string]bool
	}
	byCat := make(map[string]*acc)
	for _, t := range txns {
		if !t.Resolved() {
			continue
		}
		a, ok := byCat[t.Category]
		if !ok {
			a = &acc{months: make(map[string]bool)}
			byCat[t.Category] = a
		}
		a.total += math.Abs(t.Amount)
		a.count++
		a.months[MonthKey(t.Year, t.Month)] = true
	}

	out := make([]domain.CategorySummary, 0, len(byCat))
	for cat, a := range byCat {
		active := len(a.months)
		out = append(out, domain.CategorySummary{
			Category:     cat,
			Total:        a.total,
			Count:        a.count,
			MonthlyAvg:   a.total / float64(active),
			MonthsActive: active,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func merchantSummaries(txns []domain.EnrichedTransaction) []domain.MerchantSummary {
	byMerchant := make(map[string]*domain.MerchantSummary)
	for _, t := range txns {
		if !t.Resolved() {
			continue
		}
		name := t.Merchant
		if name == "" {
			name = unknownMerchant
		}
		m, ok := byMerchant[name]
		if !ok {
			// A merchant keeps the category of its first transaction.
			m = &domain.MerchantSummary{Merchant: name, Category: t.Category}
			byMerchant[name] = m
		}
		m.Total += math.Abs(t.Amount)
		m.Frequency++
	}

	out := make([]domain.MerchantSummary, 0, len(byMerchant))
	for _, m := range byMerchant {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Merchant < out[j].Merchant
	})
	if len(out) > topMerchants {
		out = out[:topMerchants]
	}
	return out
}

func largestTransactions(txns []domain.EnrichedTransaction, n int) []domain.TransactionSample {
	idx := sampleOrder(txns, func(a, b domain.EnrichedTransaction) bool {
		return math.Abs(a.Amount) > math.Abs(b.Amount)
	})
	return samples(txns, idx, n)
}

func recentTransactions(txns []domain.EnrichedTransaction, n int) []domain.TransactionSample {
	idx := sampleOrder(txns, func(a, b domain.EnrichedTransaction) bool {
		return a.Date > b.Date
	})
	return samples(txns, idx, n)
}

func sampleOrder(txns []domain.EnrichedTransaction, less func(a, b domain.EnrichedTransaction) bool) []int {
	idx := make([]int, len(txns))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return less(txns[idx[i]], txns[idx[j]]) })
	return idx
}

func samples(txns []domain.EnrichedTransaction, idx []int, n int) []domain.TransactionSample {
	if len(idx) > n {
		idx = idx[:n]
	}
	out := make([]domain.TransactionSample, 0, len(idx))
	for _, i := range idx {
		t := txns[i]
		merchant := t.Merchant
		if merchant == "" {
			merchant = unknownMerchant
		}
		out = append(out, domain.TransactionSample{
			Date:     t.Date,
			Merchant: merchant,
			Amount:   math.Abs(t.Amount),
			Category: t.Category,
		})
	}
	return out
}
