package analytics

import (
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Classify tags a transaction with behavioral flags. category, merchant and
// description are matched case-insensitively; amount is signed with
// positive meaning money in. Refunds above largeRefund do not affect the
// budget.
func Classify(category, merchant, description string, amount, largeRefund float64) domain.BehavioralFlags {
	cat := strings.ToLower(strings.TrimSpace(category))
	merch := strings.ToLower(merchant)
	desc := strings.ToLower(description)

	isIncome := amount > 0 ||
		IncomeCategories[cat] ||
		containsAny(desc, IncomeDescriptionKeywords)

	isSubscription := containsAny(desc, SubscriptionKeywords) ||
		containsAny(merch, SubscriptionKeywords)

	isBill := containsAny(desc, BillKeywords) ||
		containsAny(merch, BillKeywords)

	isTransfer := containsAny(desc, TransferDescriptionKeywords) ||
		TransferCategories[cat]

	isRefund := amount > 0 &&
		(containsAny(desc, RefundDescriptionKeywords) || cat == "refund")

	return domain.BehavioralFlags{
		IsIncome:        isIncome,
		IsSubscription:  isSubscription,
		IsBill:          isBill,
		IsTransfer:      isTransfer,
		IsRefund:        isRefund,
		IsDiscretionary: !IsEssential(cat),
		AffectsBudget:   !(isTransfer || (isRefund && amount > largeRefund)),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
