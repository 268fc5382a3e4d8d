package domain

// MonthlyAggregate summarises spending magnitude for one calendar month.
type MonthlyAggregate struct {
	Key           string             `json:"month"` // "YYYY-MM"
	Year          int                `json:"year"`
	Month         int                `json:"month_num"`
	Total         float64            `json:"total"`
	Count         int                `json:"count"`
	Discretionary float64            `json:"discretionary"`
	Essential     float64            `json:"essential"`
	Weekend       float64            `json:"weekend"`
	Weekday       float64            `json:"weekday"`
	Subscriptions float64            `json:"subscriptions"`
	Categories    map[string]float64 `json:"categories"`
	Merchants     map[string]float64 `json:"merchants"`
}

// BaselineAverages holds the per-month averages over a baseline window.
type BaselineAverages struct {
	Months        int                `json:"months"`
	Total         float64            `json:"total"`
	Discretionary float64            `json:"discretionary"`
	Essential     float64            `json:"essential"`
	Weekend       float64            `json:"weekend"`
	Weekday       float64            `json:"weekday"`
	Subscriptions float64            `json:"subscriptions"`
	Categories    map[string]float64 `json:"categories"`
}

// CategoryChange is a significant shift of one category against baseline.
type CategoryChange struct {
	Category    string  `json:"category"`
	Target      float64 `json:"target"`
	BaselineAvg float64 `json:"baseline_avg"`
	Diff        float64 `json:"diff"`
	PctChange   float64 `json:"pct_change"`
}

// ComparisonResult compares a target month against baseline averages.
type ComparisonResult struct {
	TotalDiff         float64          `json:"total_diff"`
	TotalPctChange    float64          `json:"total_pct_change"`
	DiscretionaryDiff float64          `json:"discretionary_diff"`
	EssentialDiff     float64          `json:"essential_diff"`
	WeekendDiff       float64          `json:"weekend_diff"`
	CategoryChanges   []CategoryChange `json:"category_changes"`
}

// Trend direction labels.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// CategoryTrend compares recent and prior half-year averages of a category.
type CategoryTrend struct {
	Category  string  `json:"category"`
	RecentAvg float64 `json:"recent_avg"`
	PriorAvg  float64 `json:"prior_avg"`
	PctChange float64 `json:"pct_change"`
	Trend     string  `json:"trend"`
}

// SeasonalPattern is the average spend of one calendar month across years.
type SeasonalPattern struct {
	MonthName   string  `json:"month_name"`
	Month       int     `json:"month"`
	AvgSpending float64 `json:"avg_spending"`
	DataPoints  int     `json:"data_points"`
}

// MonthlyCashflow is income against expenses for one month.
type MonthlyCashflow struct {
	Key         string  `json:"month"`
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Net         float64 `json:"net"`
	SavingsRate float64 `json:"savings_rate"`
}

// CashflowSummary is the set of pre-computed averages handed to presenters.
type CashflowSummary struct {
	AvgMonthlyIncome   float64 `json:"avg_monthly_income"`
	AvgMonthlyExpenses float64 `json:"avg_monthly_expenses"`
	AvgMonthlySavings  float64 `json:"avg_monthly_savings"`
	AvgSavingsRate     float64 `json:"avg_savings_rate"`
}
