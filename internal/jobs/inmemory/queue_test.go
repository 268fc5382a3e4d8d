package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/jobs"
)

func waitForStatus(t *testing.T, s *Store, jobID string, want jobs.JobStatus) *jobs.AnalyticsJob {
	t.Helper()
	var got *jobs.AnalyticsJob
	require.Eventually(t, func() bool {
		j, err := s.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		got = j
		return j.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestQueue_ProcessesJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1))
	defer q.Close()

	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.AnalyticsJob) error {
		job.Result = "stored 2 insights"
		return nil
	}))

	job := &jobs.AnalyticsJob{Type: jobs.JobTypeForesight, UserID: "u1"}
	require.NoError(t, q.Publish(ctx, job))
	require.NotEmpty(t, job.JobID)

	got := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, "stored 2 insights", got.Result)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 3, got.MaxRetries)
}

func TestQueue_RetriesThenFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store, WithWorkers(2), WithMaxRetries(2), WithBackoff(time.Millisecond))
	defer q.Close()

	var calls int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.AnalyticsJob) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("model unavailable")
	}))

	job := &jobs.AnalyticsJob{JobID: "j1", Type: jobs.JobTypeProactive, UserID: "u1"}
	require.NoError(t, q.Publish(ctx, job))

	got := waitForStatus(t, store, "j1", jobs.JobStatusFailed)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, "model unavailable", got.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueue_RetrySucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(10, store, WithBackoff(time.Millisecond))
	defer q.Close()

	var calls int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.AnalyticsJob) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, q.Publish(ctx, &jobs.AnalyticsJob{JobID: "j1", Type: jobs.JobTypeForesight, UserID: "u1"}))

	got := waitForStatus(t, store, "j1", jobs.JobStatusCompleted)
	assert.Equal(t, 1, got.RetryCount)
	assert.Empty(t, got.Error)
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(1, nil)
	require.NoError(t, q.Stop(context.Background()))
	require.NoError(t, q.Stop(context.Background()))

	err := q.Publish(context.Background(), &jobs.AnalyticsJob{Type: jobs.JobTypeForesight, UserID: "u1"})
	assert.Error(t, err)
	assert.Error(t, q.Start(context.Background(), func(context.Context, *jobs.AnalyticsJob) error { return nil }))
}

func TestQueue_RetryDelay(t *testing.T) {
	q := NewQueue(1, nil, WithBackoff(10*time.Second))

	assert.Equal(t, 10*time.Second, q.retryDelay(1))
	assert.Equal(t, 20*time.Second, q.retryDelay(2))
	assert.Equal(t, 40*time.Second, q.retryDelay(3))
	assert.Equal(t, maxBackoff, q.retryDelay(4))
	assert.Equal(t, maxBackoff, q.retryDelay(30))
}

func TestQueue_PublishCancelledMarksJobFailed(t *testing.T) {
	store := NewStore()
	// No buffer and no workers: the send can only give up.
	q := NewQueue(0, store)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Publish(ctx, &jobs.AnalyticsJob{JobID: "j1", Type: jobs.JobTypeForesight, UserID: "u1"})
	require.ErrorIs(t, err, context.Canceled)

	got, err := store.GetJob(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Contains(t, got.Error, "not enqueued")
}
