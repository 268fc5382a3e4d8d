package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/narrative"
)

// Step is a single stage of an insight run.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds what the steps of one run share.
type State struct {
	UserID string
	Kind   narrative.Kind
	Now    time.Time

	// Year and Month select the target month of a monthly review.
	Year  int
	Month int

	Transactions []domain.EnrichedTransaction
	Baseline     []domain.EnrichedTransaction
	Goals        []domain.Goal

	Review    *domain.MonthlyReviewContext
	Foresight *domain.ForesightContext
	Proactive *domain.ProactiveContext

	Digest    string
	GoalsText string
	Reference *narrative.Reference

	Response string
	Insights []narrative.Insight
	Stored   int
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first error.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}
