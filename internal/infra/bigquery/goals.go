package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// evaluationItems is how many insights and recommendations of the latest
// evaluation are carried into a goal.
const evaluationItems = 2

// GoalRow is one financial goal with its most recent evaluation flattened in.
type GoalRow struct {
	GoalID       string `bigquery:"goal_id"` // REQUIRED
	UserID       string `bigquery:"user_id"` // REQUIRED
	GoalName     string `bigquery:"goal_name"`
	GoalType     string `bigquery:"goal_type"`
	Status       string `bigquery:"status"`
	UserPriority string `bigquery:"user_priority"`
	Intent       string `bigquery:"intent"`

	CurrentAmount         bigquery.NullFloat64 `bigquery:"current_amount"`
	PercentageComplete    bigquery.NullFloat64 `bigquery:"percentage_complete"`
	CurrentPeriodSpending bigquery.NullFloat64 `bigquery:"current_period_spending"`
	TargetValue           bigquery.NullFloat64 `bigquery:"target_value"`

	LatestStatus          bigquery.NullString `bigquery:"latest_status"`
	LatestInsights        []string            `bigquery:"latest_insights"`
	LatestRecommendations []string            `bigquery:"latest_recommendations"`

	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

// ToDomain converts the row into a goal, keeping the top evaluation items.
func (g *GoalRow) ToDomain() domain.Goal {
	goal := domain.Goal{
		GoalID:                g.GoalID,
		Name:                  g.GoalName,
		Type:                  g.GoalType,
		Priority:              g.UserPriority,
		Intent:                g.Intent,
		CurrentAmount:         g.CurrentAmount.Float64,
		PercentageComplete:    g.PercentageComplete.Float64,
		CurrentPeriodSpending: g.CurrentPeriodSpending.Float64,
		TargetValue:           g.TargetValue.Float64,
	}

	if g.LatestStatus.Valid {
		goal.LatestEvaluation = &domain.GoalEvaluation{
			Status:          g.LatestStatus.StringVal,
			Insights:        firstStrings(g.LatestInsights, evaluationItems),
			Recommendations: firstStrings(g.LatestRecommendations, evaluationItems),
		}
	}
	return goal
}

// ListActiveGoals returns a user's goals whose status is active.
func (r *Repository) ListActiveGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	q := r.client.Query(`
		SELECT *
		FROM ` + r.qualified(goalsTable) + `
		WHERE user_id = @user_id
		  AND status = 'active'
		ORDER BY goal_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveGoals: query read: %w", err)
	}

	var goals []domain.Goal
	for {
		var row GoalRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveGoals: iter next: %w", err)
		}
		goals = append(goals, row.ToDomain())
	}
	return goals, nil
}

// ListUserIDs returns every user that has enriched transactions.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	q := r.client.Query(`
		SELECT DISTINCT user_id
		FROM ` + r.qualified(transactionsTable) + `
		ORDER BY user_id
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUserIDs: query read: %w", err)
	}

	var ids []string
	for {
		var row struct {
			UserID string `bigquery:"user_id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListUserIDs: iter next: %w", err)
		}
		ids = append(ids, row.UserID)
	}
	return ids, nil
}

func firstStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
