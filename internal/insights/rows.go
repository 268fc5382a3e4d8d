package insights

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/narrative"
)

const defaultTimeframe = "this_month"

// Sort key families per report kind.
var sortKeyFamily = map[narrative.Kind]string{
	narrative.KindMonthlyReview: "GOALS",
	narrative.KindForesight:     "FORESIGHT",
	narrative.KindProactive:     "INSIGHT",
}

// SortKey is "<FAMILY>#<timestamp>#<type>#<n>". Monthly reviews use the
// report kind as type. n keeps keys of one batch distinct.
func SortKey(kind narrative.Kind, insightType string, generated time.Time, n int) string {
	typ := insightType
	if kind == narrative.KindMonthlyReview || typ == "" {
		typ = string(kind)
	}
	return fmt.Sprintf("%s#%s#%s#%d", sortKeyFamily[kind], generated.UTC().Format(time.RFC3339Nano), typ, n)
}

// InsightRows converts validated insights into storage rows expiring ttl
// after now.
func InsightRows(userID string, kind narrative.Kind, targetMonth string, ins []narrative.Insight, now time.Time, ttl time.Duration) ([]*infra.InsightRow, error) {
	rows := make([]*infra.InsightRow, 0, len(ins))
	for i, in := range ins {
		row := &infra.InsightRow{
			InsightID:   uuid.NewString(),
			PK:          infra.UserPartitionKey(userID),
			SK:          SortKey(kind, in.Type, now, i),
			UserID:      userID,
			ReportKind:  string(kind),
			InsightType: in.Type,
			Priority:    in.Priority,
			Status:      infra.InsightStatusActive,
			GeneratedAt: now.UTC(),
			ExpiresAt:   now.UTC().Add(ttl),
			Title:       in.Title,
			Summary:     in.Summary,
			Actions:     in.Actions,
			Impact:      in.Impact,
			Confidence:  infra.NullString(in.Confidence),
			TargetMonth: infra.NullString(targetMonth),
		}

		timeframe := in.Timeframe
		if kind == narrative.KindMonthlyReview {
			if row.InsightType == "" {
				row.InsightType = string(kind)
			}
			if timeframe == "" {
				timeframe = defaultTimeframe
			}
		}
		row.Timeframe = infra.NullString(timeframe)

		var err error
		if row.Visualization, err = infra.JSONValue(in.Visualization); err != nil {
			return nil, fmt.Errorf("InsightRows: visualization: %w", err)
		}
		if row.KeyMetric, err = infra.JSONValue(in.KeyMetric); err != nil {
			return nil, fmt.Errorf("InsightRows: key_metric: %w", err)
		}
		if row.FullContent, err = infra.JSONValue(in.FullContent); err != nil {
			return nil, fmt.Errorf("InsightRows: full_content: %w", err)
		}
		if row.RawInsight, err = infra.JSONValue(in.Raw); err != nil {
			return nil, fmt.Errorf("InsightRows: raw_insight: %w", err)
		}
		if row.GoalContext, err = infra.JSONValue(in.GoalContext); err != nil {
			return nil, fmt.Errorf("InsightRows: goal_context: %w", err)
		}
		if row.ReallocationPlan, err = infra.JSONValue(in.ReallocationPlan); err != nil {
			return nil, fmt.Errorf("InsightRows: reallocation_plan: %w", err)
		}

		rows = append(rows, row)
	}
	return rows, nil
}
