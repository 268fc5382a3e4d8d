package domain

// Goal is an active financial goal used to frame generated insights.
type Goal struct {
	GoalID   string `json:"goal_id"`
	Name     string `json:"name"`
	Type     string `json:"type"` // savings_target | spending_reduction
	Priority string `json:"priority"`
	Intent   string `json:"intent"`

	CurrentAmount         float64 `json:"current_amount"`
	PercentageComplete    float64 `json:"percentage_complete"`
	CurrentPeriodSpending float64 `json:"current_period_spending"`
	TargetValue           float64 `json:"target_value"`

	LatestEvaluation *GoalEvaluation `json:"latest_evaluation,omitempty"`
}

// Goal types.
const (
	GoalSavingsTarget     = "savings_target"
	GoalSpendingReduction = "spending_reduction"
)

// GoalEvaluation is the most recent assessment of a goal.
type GoalEvaluation struct {
	Status          string   `json:"status"`
	Insights        []string `json:"insights,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// MonthlyReviewContext compares one month against its trailing baseline.
type MonthlyReviewContext struct {
	TargetMonth              string           `json:"target_month"`
	TargetMonthName          string           `json:"target_month_name"`
	Target                   MonthlyAggregate `json:"target_data"`
	Baseline                 BaselineAverages `json:"baseline_monthly_avg"`
	Comparison               ComparisonResult `json:"comparison"`
	DiscretionaryPct         float64          `json:"discretionary_pct"`
	BaselineDiscretionaryPct float64          `json:"baseline_discretionary_pct"`
	Goals                    []Goal           `json:"goals"`
}

// ForesightContext is the forward-looking view over a long history.
type ForesightContext struct {
	AsOf     string             `json:"as_of"`
	Months   int                `json:"months"`
	Cashflow []MonthlyCashflow  `json:"monthly_cashflow"`
	Income   []MonthlyAggregate `json:"monthly_income"`
	Expenses []MonthlyAggregate `json:"monthly_expenses"`
	Trends   []CategoryTrend    `json:"category_trends"`
	Seasonal []SeasonalPattern  `json:"seasonal_patterns"`
	Summary  CashflowSummary    `json:"summary"`
}

// MonthSummary is one month of the spending profile.
type MonthSummary struct {
	Key              string  `json:"month"`
	Total            float64 `json:"total"`
	Count            int     `json:"count"`
	DiscretionaryPct float64 `json:"discretionary_pct"`
	EssentialPct     float64 `json:"essential_pct"`
	WeekendSpending  float64 `json:"weekend_spending"`
	WeekdaySpending  float64 `json:"weekday_spending"`
	Subscriptions    float64 `json:"subscriptions"`
}

// CategorySummary is a category's spending over the whole profile window.
type CategorySummary struct {
	Category     string  `json:"category"`
	Total        float64 `json:"total"`
	Count        int     `json:"count"`
	MonthlyAvg   float64 `json:"monthly_avg"`
	MonthsActive int     `json:"months_active"`
}

// MerchantSummary is a merchant's spending over the whole profile window.
type MerchantSummary struct {
	Merchant  string  `json:"merchant"`
	Total     float64 `json:"total"`
	Frequency int     `json:"frequency"`
	Category  string  `json:"category"`
}

// BehavioralSummary condenses when and on what money is spent.
type BehavioralSummary struct {
	WeekendAvgPerDay       float64 `json:"weekend_avg_per_day"`
	WeekdayAvgPerDay       float64 `json:"weekday_avg_per_day"`
	DiscretionaryPct       float64 `json:"discretionary_pct"`
	EssentialPct           float64 `json:"essential_pct"`
	SubscriptionMonthlyAvg float64 `json:"subscription_total_monthly"`
	TotalSpending          float64 `json:"total_spending"`
}

// TransactionSample is a flattened transaction shown as an example.
type TransactionSample struct {
	Date     string  `json:"date"`
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}

// SpendingProfile is the multi-view summary behind proactive insights.
type SpendingProfile struct {
	Months     []MonthSummary      `json:"monthly_summary"`
	Categories []CategorySummary   `json:"category_summary"`
	Merchants  []MerchantSummary   `json:"merchant_summary"`
	Behavior   BehavioralSummary   `json:"behavioral_summary"`
	Largest    []TransactionSample `json:"largest_transactions"`
	Recent     []TransactionSample `json:"recent_transactions"`
}

// ProactiveContext wraps the spending profile for presenters.
type ProactiveContext struct {
	AsOf    string          `json:"as_of"`
	Profile SpendingProfile `json:"profile"`
}
