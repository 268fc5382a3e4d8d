package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// Insight statuses.
const (
	InsightStatusActive = "active"
)

// InsightRow is one generated insight, addressed by a partition key
// ("USER#<id>") and a sort key ("<FAMILY>#<timestamp>#<type>").
type InsightRow struct {
	InsightID   string `bigquery:"insight_id"` // REQUIRED
	PK          string `bigquery:"pk"`         // REQUIRED
	SK          string `bigquery:"sk"`         // REQUIRED
	UserID      string `bigquery:"user_id"`
	ReportKind  string `bigquery:"report_kind"`
	InsightType string `bigquery:"insight_type"`
	Priority    string `bigquery:"priority"`
	Status      string `bigquery:"status"`

	GeneratedAt time.Time              `bigquery:"generated_at"`
	ExpiresAt   time.Time              `bigquery:"expires_at"`
	Viewed      bool                   `bigquery:"viewed"`
	ViewedAt    bigquery.NullTimestamp `bigquery:"viewed_at"`
	Dismissed   bool                   `bigquery:"dismissed"`
	DismissedAt bigquery.NullTimestamp `bigquery:"dismissed_at"`

	Title   string   `bigquery:"title"`
	Summary string   `bigquery:"summary"`
	Actions []string `bigquery:"actions"` // REPEATED STRING
	Impact  string   `bigquery:"impact"`

	Visualization    bigquery.NullJSON `bigquery:"visualization"`
	KeyMetric        bigquery.NullJSON `bigquery:"key_metric"`
	FullContent      bigquery.NullJSON `bigquery:"full_content"`
	RawInsight       bigquery.NullJSON `bigquery:"raw_insight"`
	GoalContext      bigquery.NullJSON `bigquery:"goal_context"`
	ReallocationPlan bigquery.NullJSON `bigquery:"reallocation_plan"`

	Timeframe   bigquery.NullString `bigquery:"timeframe"`
	Confidence  bigquery.NullString `bigquery:"confidence"`
	TargetMonth bigquery.NullString `bigquery:"target_month"`
}

// InsightFilter narrows ListInsights.
type InsightFilter struct {
	UserID         string
	ReportKind     string
	IncludeExpired bool
	Limit          int
}

// JSONValue encodes v as a nullable JSON column. nil maps to NULL.
func JSONValue(v interface{}) (bigquery.NullJSON, error) {
	if v == nil {
		return bigquery.NullJSON{}, nil
	}
	if m, ok := v.(map[string]interface{}); ok && m == nil {
		return bigquery.NullJSON{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return bigquery.NullJSON{}, fmt.Errorf("JSONValue: marshal: %w", err)
	}
	return bigquery.NullJSON{JSONVal: string(b), Valid: true}, nil
}

// NullString maps "" to NULL.
func NullString(s string) bigquery.NullString {
	if s == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: s, Valid: true}
}

// InsertInsights writes insight rows.
func (r *Repository) InsertInsights(ctx context.Context, rows []*InsightRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.table(insightsTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertInsights: inserting rows: %w", err)
	}
	return nil
}

// ListInsights returns a user's insights, newest first.
func (r *Repository) ListInsights(ctx context.Context, f InsightFilter) ([]*InsightRow, error) {
	if f.UserID == "" {
		return nil, fmt.Errorf("ListInsights: user id is required")
	}

	query := `
		SELECT *
		FROM ` + r.qualified(insightsTable) + `
		WHERE pk = @pk
		  AND (@report_kind = "" OR report_kind = @report_kind)
		  AND (@include_expired OR expires_at > CURRENT_TIMESTAMP())
		ORDER BY generated_at DESC
	`
	if f.Limit > 0 {
		query += fmt.Sprintf("LIMIT %d", f.Limit)
	}

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "pk", Value: UserPartitionKey(f.UserID)},
		{Name: "report_kind", Value: f.ReportKind},
		{Name: "include_expired", Value: f.IncludeExpired},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query read: %w", err)
	}

	var rows []*InsightRow
	for {
		var row InsightRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListInsights: iter next: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

// UserPartitionKey is the partition key of every row owned by userID.
func UserPartitionKey(userID string) string {
	return "USER#" + userID
}
