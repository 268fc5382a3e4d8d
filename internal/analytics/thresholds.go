package analytics

// Thresholds is the read-only tuning shared by every analytics computation.
type Thresholds struct {
	// BaselineMonths is the divisor used for baseline averages.
	BaselineMonths int
	// SignificancePct and SignificanceAbs must both be exceeded for a
	// category change to be reported.
	SignificancePct float64
	SignificanceAbs float64
	// TrendPct separates increasing/decreasing from stable.
	TrendPct float64
	// TrendWindow is the length of the recent and prior trend windows.
	TrendWindow int
	// SeasonalYears is the lookback for same-month comparisons and
	// SeasonalMinPoints the number of years needed to call it a pattern.
	SeasonalYears     int
	SeasonalMinPoints int
	// LargeRefund is the refund amount above which a refund stops
	// affecting the budget.
	LargeRefund float64
}

// DefaultThresholds returns the documented engine defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BaselineMonths:    12,
		SignificancePct:   10,
		SignificanceAbs:   50,
		TrendPct:          5,
		TrendWindow:       6,
		SeasonalYears:     3,
		SeasonalMinPoints: 2,
		LargeRefund:       100,
	}
}
