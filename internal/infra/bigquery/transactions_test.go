package bigquery

import (
	"math"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/domain"
)

func sampleTransaction() domain.EnrichedTransaction {
	return domain.EnrichedTransaction{
		ID:         "u1_bank_account_2024-03-09_4",
		UserID:     "u1",
		SourceType: "bank_account",
		SourceKey:  "u1/checking.json",
		Index:      4,
		RawTransaction: domain.RawTransaction{
			Date:        "2024-03-09",
			Amount:      -12.3,
			Description: "Coffee",
			Merchant:    "Cafe",
			Category:    "dining",
			Type:        "debit",
		},
		TemporalMetadata: domain.TemporalMetadata{
			Timestamp:    1709942400,
			Year:         2024,
			Month:        3,
			Day:          9,
			DayOfWeek:    "Saturday",
			DayOfWeekNum: 5,
			WeekOfMonth:  2,
			WeekOfYear:   10,
			Quarter:      "Q1",
			IsWeekend:    true,
		},
		BehavioralFlags: domain.BehavioralFlags{
			IsDiscretionary: true,
			AffectsBudget:   true,
		},
		SearchText: "Date: 2024-03-09 | Amount: $12.30",
	}
}

func TestEnrichedTransactionRow_RoundTrip(t *testing.T) {
	txn := sampleTransaction()
	created := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	row := NewEnrichedTransactionRow(txn, created)

	assert.Zero(t, big.NewRat(-123, 10).Cmp(row.Amount))
	require.True(t, row.TransactionDate.Valid)
	assert.Equal(t, "2024-03-09", row.TransactionDate.Date.String())
	assert.False(t, row.GoalContribution.Valid)
	assert.Equal(t, created, row.CreatedTS)

	assert.Equal(t, txn, row.ToDomain())
}

func TestEnrichedTransactionRow_UnresolvedDate(t *testing.T) {
	txn := sampleTransaction()
	txn.Date = "03/09/2024"
	txn.TemporalMetadata = domain.UnknownTemporal()
	txn.GoalContribution = "emergency_fund"

	row := NewEnrichedTransactionRow(txn, time.Now())

	assert.False(t, row.TransactionDate.Valid)
	assert.Equal(t, "03/09/2024", row.RawDate)
	assert.Equal(t, int64(-1), row.DayOfWeekNum)
	assert.Equal(t, bigquery.NullString{StringVal: "emergency_fund", Valid: true}, row.GoalContribution)
	assert.Equal(t, txn, row.ToDomain())
}

func TestBuildTransactionQuery(t *testing.T) {
	table := qualifiedName("p", "d", transactionsTable)

	t.Run("user only", func(t *testing.T) {
		sql, params := buildTransactionQuery(table, TransactionFilter{UserID: "u1"})
		assert.Contains(t, sql, "FROM `p.d.enriched_transactions`")
		assert.Contains(t, sql, "WHERE user_id = @user_id\nORDER BY")
		assert.NotContains(t, sql, "LIMIT")
		require.Len(t, params, 1)
	})

	t.Run("month of budget debits", func(t *testing.T) {
		sql, params := buildTransactionQuery(table, TransactionFilter{
			UserID:            "u1",
			Year:              2024,
			Month:             3,
			Type:              "debit",
			AffectsBudgetOnly: true,
			Limit:             10000,
		})
		assert.Contains(t, sql, "year = @year")
		assert.Contains(t, sql, "month = @month")
		assert.Contains(t, sql, "transaction_type = @transaction_type")
		assert.Contains(t, sql, "affects_budget = TRUE")
		assert.Contains(t, sql, "LIMIT 10000")
		assert.Len(t, params, 4)
	})

	t.Run("since", func(t *testing.T) {
		since := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		sql, params := buildTransactionQuery(table, TransactionFilter{UserID: "u1", Since: since})
		assert.Contains(t, sql, "epoch_seconds >= @since")
		require.Len(t, params, 2)
		assert.Equal(t, since.Unix(), params[1].Value)
	})
}

func TestRatConversions(t *testing.T) {
	assert.Equal(t, 0.0, floatFromRat(nil))
	assert.Equal(t, 1234.56, floatFromRat(ratFromFloat(1234.56)))
	assert.Zero(t, ratFromFloat(0).Sign())
	assert.Zero(t, ratFromFloat(math.NaN()).Sign())
}
