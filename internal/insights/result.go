package insights

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/narrative"
)

// Status is the outcome of one user's run.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusSkipped    Status = "skipped"
	StatusNoInsights Status = "no_insights"
	StatusError      Status = "error"
)

// ReasonNoInsights is the reason recorded with StatusNoInsights.
const ReasonNoInsights = "llm_generated_no_insights"

// Result is the per-user outcome of an insight run.
type Result struct {
	UserID            string              `json:"user_id"`
	Kind              narrative.Kind      `json:"kind"`
	Status            Status              `json:"status"`
	Reason            string              `json:"reason,omitempty"`
	InsightsGenerated int                 `json:"insights_generated,omitempty"`
	Insights          []narrative.Insight `json:"insights,omitempty"`
}

// resultFrom maps a finished pipeline to a Result. Skips and empty model
// output are outcomes, not errors; anything else is returned as is.
func resultFrom(state *State, err error) (*Result, error) {
	res := &Result{UserID: state.UserID, Kind: state.Kind}

	var skip *SkipError
	switch {
	case err == nil:
		res.Status = StatusSuccess
		res.InsightsGenerated = state.Stored
		res.Insights = state.Insights
	case errors.As(err, &skip):
		res.Status = StatusSkipped
		res.Reason = skip.Reason
	case errors.Is(err, ErrNoInsights):
		res.Status = StatusNoInsights
		res.Reason = ReasonNoInsights
	default:
		return nil, err
	}
	return res, nil
}

// RunFunc runs one user's report.
type RunFunc func(ctx context.Context, userID string) (*Result, error)

// RunForUsers runs fn for every user with at most limit runs in flight.
// A failing user is recorded with StatusError and does not stop the others.
// Results are in the order of userIDs.
func RunForUsers(ctx context.Context, userIDs []string, limit int, kind narrative.Kind, fn RunFunc) []Result {
	results := make([]Result, len(userIDs))
	log := logger.FromContext(ctx)

	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, userID := range userIDs {
		g.Go(func() error {
			userLog := logger.ForUser(log, userID)
			uctx := logger.WithContext(ctx, userLog)

			res, err := fn(uctx, userID)
			if err != nil {
				userLog.Error().Err(err).Str("kind", string(kind)).Msg("insight run failed")
				results[i] = Result{UserID: userID, Kind: kind, Status: StatusError, Reason: err.Error()}
				return nil
			}

			userLog.Info().
				Str("kind", string(kind)).
				Str("status", string(res.Status)).
				Str("reason", res.Reason).
				Int("insights", res.InsightsGenerated).
				Msg("insight run finished")
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Tally counts results per status.
func Tally(results []Result) map[Status]int {
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
