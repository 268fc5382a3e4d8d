package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepFunc func(ctx context.Context, state *State) error

func (f stepFunc) Execute(ctx context.Context, state *State) error { return f(ctx, state) }

func TestPipeline_Execute(t *testing.T) {
	var order []int
	record := func(n int) Step {
		return stepFunc(func(ctx context.Context, state *State) error {
			order = append(order, n)
			return nil
		})
	}

	p := NewPipeline(record(1), record(2), record(3))
	require.NoError(t, p.Execute(context.Background(), &State{}))
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 3, p.Len())
}

func TestPipeline_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	called := false

	p := NewPipeline(
		stepFunc(func(ctx context.Context, state *State) error { return nil }),
		stepFunc(func(ctx context.Context, state *State) error { return boom }),
		stepFunc(func(ctx context.Context, state *State) error { called = true; return nil }),
	)

	err := p.Execute(context.Background(), &State{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "pipeline step 2 failed: boom", err.Error())
	assert.False(t, called)
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	p := NewPipeline(stepFunc(func(ctx context.Context, state *State) error { called = true; return nil }))

	assert.ErrorIs(t, p.Execute(ctx, &State{}), context.Canceled)
	assert.False(t, called)
}

func TestSkipError(t *testing.T) {
	var err error = &SkipError{Reason: ReasonBaseline, Count: 12, Required: 50}
	wrapped := errors.Join(errors.New("context"), err)

	assert.ErrorIs(t, wrapped, ErrInsufficientData)
	assert.Equal(t, "insufficient_baseline_data: 12 transactions, need 50", err.Error())

	var skip *SkipError
	require.ErrorAs(t, wrapped, &skip)
	assert.Equal(t, ReasonBaseline, skip.Reason)
}
