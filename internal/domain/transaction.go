package domain

// RawTransaction is one record as delivered by the retrieval layer after
// alias resolution. Amount follows the sign convention chosen at enrichment
// time; see analytics.SignConvention.
type RawTransaction struct {
	Date             string  `json:"date"`
	Amount           float64 `json:"amount"`
	Description      string  `json:"description"`
	Merchant         string  `json:"merchant"`
	Category         string  `json:"category"`
	Type             string  `json:"type"`
	GoalContribution string  `json:"goal_contribution,omitempty"`
}

// TemporalMetadata is the calendar decomposition of a transaction date.
// Either every field is derived from a parsed date or every field carries
// its sentinel value (see UnknownTemporal).
type TemporalMetadata struct {
	Timestamp    int64  `json:"timestamp"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Day          int    `json:"day"`
	DayOfWeek    string `json:"day_of_week"`
	DayOfWeekNum int    `json:"day_of_week_num"` // 0=Monday .. 6=Sunday, -1 when unknown
	WeekOfMonth  int    `json:"week_of_month"`
	WeekOfYear   int    `json:"week_of_year"` // ISO week
	Quarter      string `json:"quarter"`
	IsWeekend    bool   `json:"is_weekend"`
	IsMonthStart bool   `json:"is_month_start"`
	IsMonthEnd   bool   `json:"is_month_end"`
}

// UnknownTemporal returns the sentinel record used for unparseable dates.
func UnknownTemporal() TemporalMetadata {
	return TemporalMetadata{
		DayOfWeek:    "unknown",
		DayOfWeekNum: -1,
		Quarter:      "unknown",
	}
}

// Resolved reports whether the record carries a usable year and month.
func (t TemporalMetadata) Resolved() bool {
	return t.Year != 0 && t.Month != 0
}

// BehavioralFlags are the rule-based tags attached to a transaction.
// The flags are independent; any combination may be true.
type BehavioralFlags struct {
	IsIncome        bool `json:"is_income"`
	IsSubscription  bool `json:"is_subscription"`
	IsBill          bool `json:"is_bill"`
	IsTransfer      bool `json:"is_transfer"`
	IsRefund        bool `json:"is_refund"`
	IsDiscretionary bool `json:"is_discretionary"`
	AffectsBudget   bool `json:"affects_budget"`

	// Reserved for recurring/anomaly analysis; never populated here.
	IsRecurring        bool    `json:"is_recurring"`
	RecurringFrequency *string `json:"recurring_frequency"`
	IsLargePurchase    bool    `json:"is_large_purchase"`
	IsUnusual          bool    `json:"is_unusual"`
}

// EnrichedTransaction is a raw transaction plus its derived metadata.
// It is created once by enrichment and never mutated afterwards.
type EnrichedTransaction struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	SourceType string `json:"source_type"`
	SourceKey  string `json:"source_key,omitempty"`
	Index      int    `json:"index"`

	RawTransaction
	TemporalMetadata
	BehavioralFlags

	// SearchText is the flattened one-line representation used by the
	// retrieval layer for similarity search.
	SearchText string `json:"text"`
}
