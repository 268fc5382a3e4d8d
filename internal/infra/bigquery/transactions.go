package bigquery

import (
	"math"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// EnrichedTransactionRow is one enriched transaction in BigQuery.
type EnrichedTransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED
	SourceType    string `bigquery:"source_type"`    // REQUIRED
	SourceKey     string `bigquery:"source_key"`     // NULLABLE
	RecordIndex   int64  `bigquery:"record_index"`   // REQUIRED

	RawDate         string            `bigquery:"raw_date"`         // as received
	TransactionDate bigquery.NullDate `bigquery:"transaction_date"` // NULL when unparseable

	Amount           *big.Rat            `bigquery:"amount"` // REQUIRED NUMERIC
	Description      string              `bigquery:"description"`
	Merchant         string              `bigquery:"merchant"`
	Category         string              `bigquery:"category"`
	TransactionType  string              `bigquery:"transaction_type"`
	GoalContribution bigquery.NullString `bigquery:"goal_contribution"`

	EpochSeconds int64  `bigquery:"epoch_seconds"`
	Year         int64  `bigquery:"year"`
	Month        int64  `bigquery:"month"`
	Day          int64  `bigquery:"day"`
	DayOfWeek    string `bigquery:"day_of_week"`
	DayOfWeekNum int64  `bigquery:"day_of_week_num"`
	WeekOfMonth  int64  `bigquery:"week_of_month"`
	WeekOfYear   int64  `bigquery:"week_of_year"`
	Quarter      string `bigquery:"quarter"`
	IsWeekend    bool   `bigquery:"is_weekend"`
	IsMonthStart bool   `bigquery:"is_month_start"`
	IsMonthEnd   bool   `bigquery:"is_month_end"`

	IsIncome        bool `bigquery:"is_income"`
	IsSubscription  bool `bigquery:"is_subscription"`
	IsBill          bool `bigquery:"is_bill"`
	IsTransfer      bool `bigquery:"is_transfer"`
	IsRefund        bool `bigquery:"is_refund"`
	IsDiscretionary bool `bigquery:"is_discretionary"`
	AffectsBudget   bool `bigquery:"affects_budget"`

	SearchText string    `bigquery:"search_text"`
	CreatedTS  time.Time `bigquery:"created_ts"` // REQUIRED
}

// NewEnrichedTransactionRow converts a domain record into its table row.
func NewEnrichedTransactionRow(t domain.EnrichedTransaction, created time.Time) *EnrichedTransactionRow {
	row := &EnrichedTransactionRow{
		TransactionID:   t.ID,
		UserID:          t.UserID,
		SourceType:      t.SourceType,
		SourceKey:       t.SourceKey,
		RecordIndex:     int64(t.Index),
		RawDate:         t.Date,
		Amount:          ratFromFloat(t.Amount),
		Description:     t.Description,
		Merchant:        t.Merchant,
		Category:        t.Category,
		TransactionType: t.Type,
		EpochSeconds:    t.Timestamp,
		Year:            int64(t.Year),
		Month:           int64(t.Month),
		Day:             int64(t.Day),
		DayOfWeek:       t.DayOfWeek,
		DayOfWeekNum:    int64(t.DayOfWeekNum),
		WeekOfMonth:     int64(t.WeekOfMonth),
		WeekOfYear:      int64(t.WeekOfYear),
		Quarter:         t.Quarter,
		IsWeekend:       t.IsWeekend,
		IsMonthStart:    t.IsMonthStart,
		IsMonthEnd:      t.IsMonthEnd,
		IsIncome:        t.IsIncome,
		IsSubscription:  t.IsSubscription,
		IsBill:          t.IsBill,
		IsTransfer:      t.IsTransfer,
		IsRefund:        t.IsRefund,
		IsDiscretionary: t.IsDiscretionary,
		AffectsBudget:   t.AffectsBudget,
		SearchText:      t.SearchText,
		CreatedTS:       created,
	}

	if t.GoalContribution != "" {
		row.GoalContribution = bigquery.NullString{StringVal: t.GoalContribution, Valid: true}
	}
	if t.Resolved() && t.Day != 0 {
		row.TransactionDate = bigquery.NullDate{
			Date:  civil.Date{Year: t.Year, Month: time.Month(t.Month), Day: t.Day},
			Valid: true,
		}
	}
	return row
}

// ToDomain converts the row back into an enriched transaction.
func (r *EnrichedTransactionRow) ToDomain() domain.EnrichedTransaction {
	t := domain.EnrichedTransaction{
		ID:         r.TransactionID,
		UserID:     r.UserID,
		SourceType: r.SourceType,
		SourceKey:  r.SourceKey,
		Index:      int(r.RecordIndex),
		RawTransaction: domain.RawTransaction{
			Date:             r.RawDate,
			Amount:           floatFromRat(r.Amount),
			Description:      r.Description,
			Merchant:         r.Merchant,
			Category:         r.Category,
			Type:             r.TransactionType,
			GoalContribution: r.GoalContribution.StringVal,
		},
		TemporalMetadata: domain.TemporalMetadata{
			Timestamp:    r.EpochSeconds,
			Year:         int(r.Year),
			Month:        int(r.Month),
			Day:          int(r.Day),
			DayOfWeek:    r.DayOfWeek,
			DayOfWeekNum: int(r.DayOfWeekNum),
			WeekOfMonth:  int(r.WeekOfMonth),
			WeekOfYear:   int(r.WeekOfYear),
			Quarter:      r.Quarter,
			IsWeekend:    r.IsWeekend,
			IsMonthStart: r.IsMonthStart,
			IsMonthEnd:   r.IsMonthEnd,
		},
		BehavioralFlags: domain.BehavioralFlags{
			IsIncome:        r.IsIncome,
			IsSubscription:  r.IsSubscription,
			IsBill:          r.IsBill,
			IsTransfer:      r.IsTransfer,
			IsRefund:        r.IsRefund,
			IsDiscretionary: r.IsDiscretionary,
			AffectsBudget:   r.AffectsBudget,
		},
		SearchText: r.SearchText,
	}
	return t
}

// ratFromFloat keeps the shortest decimal form of f so 12.3 is stored as 123/10.
func ratFromFloat(f float64) *big.Rat {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return new(big.Rat)
	}
	return decimal.NewFromFloat(f).Rat()
}

func floatFromRat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}
