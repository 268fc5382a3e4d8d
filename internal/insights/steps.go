package insights

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-insights/internal/analytics"
	"github.com/dvloznov/finance-insights/internal/domain"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/narrative"
	"github.com/dvloznov/finance-insights/internal/report"
)

// Skip reasons.
const (
	ReasonTargetMonth = "insufficient_target_month_data"
	ReasonBaseline    = "insufficient_baseline_data"
	ReasonHistory     = "insufficient_data"
)

const debitType = "debit"

// FetchTargetMonthStep loads the budget-affecting debits of the target month.
type FetchTargetMonthStep struct {
	Repo infra.TransactionRepository
}

// Execute queries the target month into state.Transactions.
func (s *FetchTargetMonthStep) Execute(ctx context.Context, state *State) error {
	txns, err := s.Repo.QueryTransactions(ctx, infra.TransactionFilter{
		UserID:            state.UserID,
		Year:              state.Year,
		Month:             state.Month,
		Type:              debitType,
		AffectsBudgetOnly: true,
	})
	if err != nil {
		return fmt.Errorf("fetch target month: %w", err)
	}
	state.Transactions = txns
	return nil
}

// FetchBaselineStep loads the months before the target month, one query per
// month, concurrently.
type FetchBaselineStep struct {
	Repo   infra.TransactionRepository
	Months int
}

// Execute queries each baseline month and stores them in window order.
func (s *FetchBaselineStep) Execute(ctx context.Context, state *State) error {
	window := analytics.BaselineMonths(state.Year, state.Month, s.Months)
	perMonth := make([][]domain.EnrichedTransaction, len(window))

	g, gctx := errgroup.WithContext(ctx)
	for i, ym := range window {
		g.Go(func() error {
			txns, err := s.Repo.QueryTransactions(gctx, infra.TransactionFilter{
				UserID:            state.UserID,
				Year:              ym.Year,
				Month:             ym.Month,
				Type:              debitType,
				AffectsBudgetOnly: true,
			})
			if err != nil {
				return fmt.Errorf("fetch baseline month %s: %w", ym.Key(), err)
			}
			perMonth[i] = txns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []domain.EnrichedTransaction
	for _, txns := range perMonth {
		all = append(all, txns...)
	}
	state.Baseline = all
	return nil
}

// FetchHistoryStep loads the last Months months of budget-affecting
// transactions, income included.
type FetchHistoryStep struct {
	Repo   infra.TransactionRepository
	Months int
}

// Execute queries the window of Months months before state.Now.
func (s *FetchHistoryStep) Execute(ctx context.Context, state *State) error {
	txns, err := s.Repo.QueryTransactions(ctx, infra.TransactionFilter{
		UserID:            state.UserID,
		Since:             state.Now.AddDate(0, -s.Months, 0),
		AffectsBudgetOnly: true,
	})
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	state.Transactions = txns
	return nil
}

// RequireTransactionsStep stops the run when fewer than Min transactions
// were loaded.
type RequireTransactionsStep struct {
	Min    int
	Reason string
}

// Execute returns a SkipError when too few transactions were loaded.
func (s *RequireTransactionsStep) Execute(ctx context.Context, state *State) error {
	if len(state.Transactions) < s.Min {
		return &SkipError{Reason: s.Reason, Count: len(state.Transactions), Required: s.Min}
	}
	return nil
}

// RequireBaselineStep stops the run when the baseline is too thin.
type RequireBaselineStep struct {
	Min int
}

// Execute returns a SkipError when the baseline is below Min.
func (s *RequireBaselineStep) Execute(ctx context.Context, state *State) error {
	if len(state.Baseline) < s.Min {
		return &SkipError{Reason: ReasonBaseline, Count: len(state.Baseline), Required: s.Min}
	}
	return nil
}

// LoadGoalsStep loads the user's active goals. A failed lookup is logged and
// the run continues without goals.
type LoadGoalsStep struct {
	Repo infra.GoalRepository
}

// Execute loads the goals and renders their prompt section.
func (s *LoadGoalsStep) Execute(ctx context.Context, state *State) error {
	goals, err := s.Repo.ListActiveGoals(ctx, state.UserID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("user_id", state.UserID).Msg("could not load goals, continuing without them")
		goals = nil
	}
	state.Goals = goals
	state.GoalsText = report.FormatGoals(goals)
	return nil
}

// BuildMonthlyReviewStep builds the review context and its digest.
type BuildMonthlyReviewStep struct {
	Thresholds analytics.Thresholds
}

// Execute builds the monthly review context and its digest.
func (s *BuildMonthlyReviewStep) Execute(ctx context.Context, state *State) error {
	rc := analytics.BuildMonthlyReviewContext(state.Year, state.Month, state.Transactions, state.Baseline, state.Goals, s.Thresholds)
	state.Review = &rc
	state.Digest = report.FormatMonthlyReview(rc)
	state.Reference = narrative.ReferenceFromReview(rc)
	return nil
}

// BuildForesightStep builds the foresight context and its digest.
type BuildForesightStep struct {
	Thresholds analytics.Thresholds
}

// Execute builds the foresight context and its digest.
func (s *BuildForesightStep) Execute(ctx context.Context, state *State) error {
	fc := analytics.BuildForesightContext(state.Transactions, state.Now, s.Thresholds)
	state.Foresight = &fc
	state.Digest = report.FormatForesight(fc)
	return nil
}

// BuildProactiveStep builds the spending profile and its digest.
type BuildProactiveStep struct{}

// Execute builds the proactive context and its digest.
func (s *BuildProactiveStep) Execute(ctx context.Context, state *State) error {
	pc := analytics.BuildProactiveContext(state.Transactions, state.Now)
	state.Proactive = &pc
	state.Digest = report.FormatProactive(pc)
	return nil
}

// GenerateStep sends the prompt for the digest to the model.
type GenerateStep struct {
	Generator narrative.Generator
}

// Execute asks the generator for insights over the digest.
func (s *GenerateStep) Execute(ctx context.Context, state *State) error {
	prompt, err := narrative.BuildPrompt(state.Kind, state.Digest, state.GoalsText)
	if err != nil {
		return fmt.Errorf("build prompt: %w", err)
	}

	resp, err := s.Generator.Generate(ctx, state.Kind, prompt)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	state.Response = resp
	return nil
}

// ValidateStep parses and validates the model response.
type ValidateStep struct{}

// Execute keeps the valid insights of the response, or fails with
// ErrNoInsights when none survive.
func (s *ValidateStep) Execute(ctx context.Context, state *State) error {
	log := logger.ForUser(logger.FromContext(ctx), state.UserID)
	state.Insights = narrative.ProcessResponse(state.Response, state.Kind, state.Reference, log)
	if len(state.Insights) == 0 {
		return ErrNoInsights
	}
	return nil
}

// StoreInsightsStep persists the validated insights with an expiry of TTL.
type StoreInsightsStep struct {
	Repo infra.InsightRepository
	TTL  time.Duration
}

// Execute persists the generated insights.
func (s *StoreInsightsStep) Execute(ctx context.Context, state *State) error {
	targetMonth := ""
	if state.Review != nil {
		targetMonth = state.Review.TargetMonth
	}

	rows, err := InsightRows(state.UserID, state.Kind, targetMonth, state.Insights, state.Now, s.TTL)
	if err != nil {
		return fmt.Errorf("build insight rows: %w", err)
	}
	if err := s.Repo.InsertInsights(ctx, rows); err != nil {
		return fmt.Errorf("store insights: %w", err)
	}
	state.Stored = len(rows)
	return nil
}
