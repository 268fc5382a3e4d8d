package analytics

// Keyword tables used by the classifier. Matching is case-insensitive;
// every entry is stored lower-case.

// SubscriptionKeywords mark streaming and membership charges when found in
// the merchant or description.
var SubscriptionKeywords = []string{
	"netflix", "spotify", "hulu", "disney", "amazon prime",
	"apple music", "youtube premium", "gym", "membership",
	"subscription", "monthly fee", "annual fee",
}

// BillKeywords mark utility and housing payments when found in the merchant
// or description.
var BillKeywords = []string{
	"electric", "gas", "water", "internet", "phone", "insurance",
	"rent", "mortgage", "utilities", "bill payment",
}

// IncomeDescriptionKeywords mark income when found in the description.
var IncomeDescriptionKeywords = []string{"payroll", "direct deposit"}

// TransferDescriptionKeywords mark money movement when found in the description.
var TransferDescriptionKeywords = []string{"transfer", "xfer"}

// RefundDescriptionKeywords mark refunds of positive amounts.
var RefundDescriptionKeywords = []string{"refund", "return"}

// IncomeCategories are categories that always denote income.
var IncomeCategories = map[string]bool{
	"salary":   true,
	"paycheck": true,
	"income":   true,
	"deposit":  true,
	"refund":   true,
}

// TransferCategories are categories that always denote money movement.
var TransferCategories = map[string]bool{
	"transfer":            true,
	"internal transfer":   true,
	"credit_card_payment": true,
	"investment":          true,
}

// EssentialCategories is the allowlist of non-discretionary categories.
// Every other category is discretionary.
var EssentialCategories = map[string]bool{
	"groceries":      true,
	"utilities":      true,
	"rent":           true,
	"mortgage":       true,
	"insurance":      true,
	"healthcare":     true,
	"gas":            true,
	"transportation": true,
}

// IsEssential reports whether a category is in the essential allowlist.
func IsEssential(category string) bool {
	return EssentialCategories[category]
}
