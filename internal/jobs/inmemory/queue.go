// Package inmemory runs analytics jobs on a channel-backed worker pool inside
// the current process.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// maxBackoff caps the delay before a retry.
const maxBackoff = time.Minute

var errQueueClosed = errors.New("queue is closed")

// Queue is a Publisher and Consumer backed by a buffered channel. Every state
// change of a job is written to the store so callers can poll it.
type Queue struct {
	pending chan *jobs.AnalyticsJob
	done    chan struct{}
	store   jobs.JobStore

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	workers    int
	maxRetries int
	backoff    time.Duration
}

// Option customises a Queue.
type Option func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithMaxRetries sets the retry budget given to published jobs that carry none.
func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.maxRetries = n
		}
	}
}

// WithBackoff sets the delay before the first retry. Each further retry
// doubles it, up to a minute.
func WithBackoff(d time.Duration) Option {
	return func(q *Queue) { q.backoff = d }
}

// NewQueue creates a queue holding up to buffer jobs before Publish blocks.
// store may be nil when nobody needs job state.
func NewQueue(buffer int, store jobs.JobStore, opts ...Option) *Queue {
	q := &Queue{
		pending:    make(chan *jobs.AnalyticsJob, buffer),
		done:       make(chan struct{}),
		store:      store,
		workers:    2,
		maxRetries: 3,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Publish implements the Publisher interface.
// It fills in the ID, status, creation time and retry budget, saves the job
// and hands it to the workers. A job that cannot be enqueued is marked failed.
func (q *Queue) Publish(ctx context.Context, job *jobs.AnalyticsJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("Publish: %w", errQueueClosed)
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.maxRetries
	}
	if err := q.save(ctx, job); err != nil {
		return fmt.Errorf("Publish: save job: %w", err)
	}

	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		q.abandon(job, ctx.Err())
		return ctx.Err()
	case <-q.done:
		q.abandon(job, errQueueClosed)
		return fmt.Errorf("Publish: %w", errQueueClosed)
	}
}

// abandon marks a saved job that never reached a worker as failed, so pollers
// do not wait on it forever.
func (q *Queue) abandon(job *jobs.AnalyticsJob, cause error) {
	if q.store == nil {
		return
	}
	_ = q.store.UpdateJobStatus(context.Background(), job.JobID, jobs.JobStatusFailed, "not enqueued: "+cause.Error())
}

// Start launches the workers and returns immediately. Workers exit when ctx
// is cancelled or the queue is stopped.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("Start: %w", errQueueClosed)
	}

	q.wg.Add(q.workers)
	for range q.workers {
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-q.done:
					return
				case job := <-q.pending:
					q.run(ctx, job, handler)
				}
			}
		}()
	}
	return nil
}

// run executes one attempt of job and records the outcome. A failed attempt
// with retry budget left is queued again after a backoff.
func (q *Queue) run(ctx context.Context, job *jobs.AnalyticsJob, handler jobs.JobHandler) {
	log := logger.ForJob(logger.FromContext(ctx), job.JobID, string(job.Type))

	started := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &started
	_ = q.save(ctx, job)

	err := handler(logger.WithContext(ctx, log), job)

	finished := time.Now()
	job.CompletedAt = &finished

	if err == nil {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		_ = q.save(ctx, job)
		log.Debug().Dur("duration", finished.Sub(started)).Msg("Job completed")
		return
	}

	job.Error = err.Error()
	if job.RetryCount >= job.MaxRetries {
		job.Status = jobs.JobStatusFailed
		_ = q.save(ctx, job)
		log.Error().Err(err).Int("attempts", job.RetryCount+1).Msg("Job failed")
		return
	}

	job.RetryCount++
	job.Status = jobs.JobStatusRetrying
	_ = q.save(ctx, job)

	next := *job
	next.Status = jobs.JobStatusPending
	next.StartedAt, next.CompletedAt = nil, nil

	delay := q.retryDelay(job.RetryCount)
	log.Warn().Err(err).Int("retry", job.RetryCount).Dur("delay", delay).Msg("Job attempt failed, retrying")

	// Scheduled after the save so the retry's state always lands last.
	time.AfterFunc(delay, func() {
		if err := q.Publish(ctx, &next); err != nil {
			log.Error().Err(err).Msg("Failed to requeue job")
		}
	})
}

func (q *Queue) retryDelay(retry int) time.Duration {
	d := q.backoff
	for i := 1; i < retry && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

func (q *Queue) save(ctx context.Context, job *jobs.AnalyticsJob) error {
	if q.store == nil {
		return nil
	}
	return q.store.SaveJob(ctx, job)
}

// Stop closes the queue and waits for in-flight jobs, or for ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
