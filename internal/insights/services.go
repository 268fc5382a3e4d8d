package insights

import (
	"context"
	"time"

	"github.com/dvloznov/finance-insights/internal/analytics"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	infra "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/narrative"
)

// Deps are the collaborators shared by the report services.
type Deps struct {
	Transactions infra.TransactionRepository
	Goals        infra.GoalRepository
	Insights     infra.InsightRepository
	Generator    narrative.Generator
}

// Settings tune the report services.
type Settings struct {
	Thresholds analytics.Thresholds

	MinTargetTransactions    int
	MinBaselineTransactions  int
	MinForesightTransactions int
	MinProactiveTransactions int

	ForesightMonths int
	ProactiveMonths int

	MonthlyTTL   time.Duration
	ForesightTTL time.Duration
	ProactiveTTL time.Duration
}

// SettingsFromConfig copies the report settings out of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Thresholds:               cfg.Thresholds(),
		MinTargetTransactions:    cfg.MinTargetTransactions,
		MinBaselineTransactions:  cfg.MinBaselineTransactions,
		MinForesightTransactions: cfg.MinForesightTransactions,
		MinProactiveTransactions: cfg.MinProactiveTransactions,
		ForesightMonths:          cfg.ForesightMonths,
		ProactiveMonths:          cfg.ProactiveMonths,
		MonthlyTTL:               cfg.MonthlyInsightTTL,
		ForesightTTL:             cfg.ForesightTTL,
		ProactiveTTL:             cfg.ProactiveInsightTTL,
	}
}

// MonthlyReviewService compares a month against its baseline and turns the
// comparison into goal-aware insights.
type MonthlyReviewService struct {
	deps     Deps
	settings Settings
	now      func() time.Time
}

// NewMonthlyReviewService creates a MonthlyReviewService.
func NewMonthlyReviewService(deps Deps, settings Settings) *MonthlyReviewService {
	return &MonthlyReviewService{deps: deps, settings: settings, now: time.Now}
}

// Context builds the analytics context of a month without calling the model.
func (s *MonthlyReviewService) Context(ctx context.Context, userID string, year, month int) (*domain.MonthlyReviewContext, error) {
	state := &State{UserID: userID, Kind: narrative.KindMonthlyReview, Now: s.now(), Year: year, Month: month}
	p := NewPipeline(
		&FetchTargetMonthStep{Repo: s.deps.Transactions},
		&FetchBaselineStep{Repo: s.deps.Transactions, Months: s.settings.Thresholds.BaselineMonths},
		&LoadGoalsStep{Repo: s.deps.Goals},
		&BuildMonthlyReviewStep{Thresholds: s.settings.Thresholds},
	)
	if err := p.Execute(ctx, state); err != nil {
		return nil, err
	}
	return state.Review, nil
}

// Run generates and stores the monthly review of year/month.
func (s *MonthlyReviewService) Run(ctx context.Context, userID string, year, month int) (*Result, error) {
	state := &State{UserID: userID, Kind: narrative.KindMonthlyReview, Now: s.now(), Year: year, Month: month}
	p := NewPipeline(
		&FetchTargetMonthStep{Repo: s.deps.Transactions},
		&RequireTransactionsStep{Min: s.settings.MinTargetTransactions, Reason: ReasonTargetMonth},
		&FetchBaselineStep{Repo: s.deps.Transactions, Months: s.settings.Thresholds.BaselineMonths},
		&RequireBaselineStep{Min: s.settings.MinBaselineTransactions},
		&LoadGoalsStep{Repo: s.deps.Goals},
		&BuildMonthlyReviewStep{Thresholds: s.settings.Thresholds},
		&GenerateStep{Generator: s.deps.Generator},
		&ValidateStep{},
		&StoreInsightsStep{Repo: s.deps.Insights, TTL: s.settings.MonthlyTTL},
	)
	return resultFrom(state, p.Execute(ctx, state))
}

// ForesightService produces forward-looking foresights from a long history.
type ForesightService struct {
	deps     Deps
	settings Settings
}

// NewForesightService creates a ForesightService.
func NewForesightService(deps Deps, settings Settings) *ForesightService {
	return &ForesightService{deps: deps, settings: settings}
}

// Context builds the foresight context as of now without calling the model.
func (s *ForesightService) Context(ctx context.Context, userID string, now time.Time) (*domain.ForesightContext, error) {
	state := &State{UserID: userID, Kind: narrative.KindForesight, Now: now}
	p := NewPipeline(
		&FetchHistoryStep{Repo: s.deps.Transactions, Months: s.settings.ForesightMonths},
		&BuildForesightStep{Thresholds: s.settings.Thresholds},
	)
	if err := p.Execute(ctx, state); err != nil {
		return nil, err
	}
	return state.Foresight, nil
}

// Run generates and stores foresights as of now.
func (s *ForesightService) Run(ctx context.Context, userID string, now time.Time) (*Result, error) {
	state := &State{UserID: userID, Kind: narrative.KindForesight, Now: now}
	p := NewPipeline(
		&FetchHistoryStep{Repo: s.deps.Transactions, Months: s.settings.ForesightMonths},
		&RequireTransactionsStep{Min: s.settings.MinForesightTransactions, Reason: ReasonHistory},
		&BuildForesightStep{Thresholds: s.settings.Thresholds},
		&GenerateStep{Generator: s.deps.Generator},
		&ValidateStep{},
		&StoreInsightsStep{Repo: s.deps.Insights, TTL: s.settings.ForesightTTL},
	)
	return resultFrom(state, p.Execute(ctx, state))
}

// ProactiveService finds spending patterns in the last year.
type ProactiveService struct {
	deps     Deps
	settings Settings
}

// NewProactiveService creates a ProactiveService.
func NewProactiveService(deps Deps, settings Settings) *ProactiveService {
	return &ProactiveService{deps: deps, settings: settings}
}

// Context builds the spending profile as of now without calling the model.
func (s *ProactiveService) Context(ctx context.Context, userID string, now time.Time) (*domain.ProactiveContext, error) {
	state := &State{UserID: userID, Kind: narrative.KindProactive, Now: now}
	p := NewPipeline(
		&FetchHistoryStep{Repo: s.deps.Transactions, Months: s.settings.ProactiveMonths},
		&BuildProactiveStep{},
	)
	if err := p.Execute(ctx, state); err != nil {
		return nil, err
	}
	return state.Proactive, nil
}

// Run generates and stores proactive insights as of now.
func (s *ProactiveService) Run(ctx context.Context, userID string, now time.Time) (*Result, error) {
	state := &State{UserID: userID, Kind: narrative.KindProactive, Now: now}
	p := NewPipeline(
		&FetchHistoryStep{Repo: s.deps.Transactions, Months: s.settings.ProactiveMonths},
		&RequireTransactionsStep{Min: s.settings.MinProactiveTransactions, Reason: ReasonHistory},
		&BuildProactiveStep{},
		&GenerateStep{Generator: s.deps.Generator},
		&ValidateStep{},
		&StoreInsightsStep{Repo: s.deps.Insights, TTL: s.settings.ProactiveTTL},
	)
	return resultFrom(state, p.Execute(ctx, state))
}
