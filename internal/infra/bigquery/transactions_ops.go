package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// TransactionFilter narrows a transaction query. Zero values mean "any".
type TransactionFilter struct {
	UserID            string
	Year              int
	Month             int
	Type              string // e.g. "debit"
	AffectsBudgetOnly bool
	Since             time.Time // inclusive, on epoch_seconds
	Limit             int
}

// InsertTransactions streams enriched transactions into the table in batches.
func (r *Repository) InsertTransactions(ctx context.Context, txns []domain.EnrichedTransaction) error {
	if len(txns) == 0 {
		return nil
	}

	inserter := r.table(transactionsTable).Inserter()
	now := time.Now().UTC()
	for start := 0; start < len(txns); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(txns) {
			end = len(txns)
		}

		rows := make([]*EnrichedTransactionRow, 0, end-start)
		for _, t := range txns[start:end] {
			rows = append(rows, NewEnrichedTransactionRow(t, now))
		}
		if err := inserter.Put(ctx, rows); err != nil {
			return fmt.Errorf("InsertTransactions: inserting rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// DeleteUserTransactions removes every enriched transaction of a user and
// returns the number of deleted rows.
func (r *Repository) DeleteUserTransactions(ctx context.Context, userID string) (int64, error) {
	q := r.client.Query(`
		DELETE FROM ` + r.qualified(transactionsTable) + `
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	n, err := runDML(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("DeleteUserTransactions: %w", err)
	}
	return n, nil
}

// QueryTransactions returns the transactions matching f ordered by date.
func (r *Repository) QueryTransactions(ctx context.Context, f TransactionFilter) ([]domain.EnrichedTransaction, error) {
	if f.UserID == "" {
		return nil, fmt.Errorf("QueryTransactions: user id is required")
	}

	sql, params := buildTransactionQuery(r.qualified(transactionsTable), f)
	q := r.client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: query read: %w", err)
	}

	var out []domain.EnrichedTransaction
	for {
		var row EnrichedTransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: iter next: %w", err)
		}
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// CountUserTransactions returns how many enriched transactions a user has.
func (r *Repository) CountUserTransactions(ctx context.Context, userID string) (int64, error) {
	q := r.client.Query(`
		SELECT COUNT(*) AS n
		FROM ` + r.qualified(transactionsTable) + `
		WHERE user_id = @user_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountUserTransactions: query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("CountUserTransactions: iter next: %w", err)
	}
	return row.N, nil
}

// buildTransactionQuery renders the SELECT for f against table.
func buildTransactionQuery(table string, f TransactionFilter) (string, []bigquery.QueryParameter) {
	where := []string{"user_id = @user_id"}
	params := []bigquery.QueryParameter{{Name: "user_id", Value: f.UserID}}

	if f.Year != 0 {
		where = append(where, "year = @year")
		params = append(params, bigquery.QueryParameter{Name: "year", Value: f.Year})
	}
	if f.Month != 0 {
		where = append(where, "month = @month")
		params = append(params, bigquery.QueryParameter{Name: "month", Value: f.Month})
	}
	if f.Type != "" {
		where = append(where, "transaction_type = @transaction_type")
		params = append(params, bigquery.QueryParameter{Name: "transaction_type", Value: f.Type})
	}
	if f.AffectsBudgetOnly {
		where = append(where, "affects_budget = TRUE")
	}
	if !f.Since.IsZero() {
		where = append(where, "epoch_seconds >= @since")
		params = append(params, bigquery.QueryParameter{Name: "since", Value: f.Since.Unix()})
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(table)
	b.WriteString("\nWHERE ")
	b.WriteString(strings.Join(where, "\n  AND "))
	b.WriteString("\nORDER BY epoch_seconds, record_index")
	if f.Limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", f.Limit)
	}
	return b.String(), params
}
