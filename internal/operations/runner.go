package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sunburst/pkg/contracts/domain"
)

// JobStatus tracks a job through its lifetime.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobFunc is the body of a background job. It reports progress through the
// given reporter and must honor ctx cancellation. The runner emits the
// terminal event from the returned error; the job body never calls Done or
// Fail itself.
type JobFunc func(ctx context.Context, reporter *Reporter) error

// Job is one background build with its progress channel.
type Job struct {
	ID        string
	Name      string
	StartedAt time.Time

	reporter *Reporter
	cancel   context.CancelFunc

	mu     sync.Mutex
	status JobStatus
	err    error
}

// Events returns the job's progress channel.
func (j *Job) Events() <-chan domain.ProgressEvent {
	return j.reporter.Events()
}

// Cancel signals the worker to stop. The worker relays the cancellation as
// a terminal error event; partial results are discarded.
func (j *Job) Cancel() {
	j.cancel()
}

// Status returns the job's current status and terminal error, if any.
func (j *Job) Status() (JobStatus, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status, j.err
}

func (j *Job) finish(status JobStatus, err error) {
	j.mu.Lock()
	j.status = status
	j.err = err
	j.mu.Unlock()
}

// Runner launches and tracks background jobs. Each job owns its context,
// its progress channel, and its tree; nothing is shared between jobs.
type Runner struct {
	timeout time.Duration
	buffer  int
	logger  *slog.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRunner returns a runner whose jobs are cut off after timeout.
func NewRunner(timeout time.Duration, buffer int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Runner{
		timeout: timeout,
		buffer:  buffer,
		logger:  logger.With(slog.String("component", "job-runner")),
		jobs:    make(map[string]*Job),
	}
}

// Start launches fn on its own goroutine and returns the tracking job. The
// terminal event is emitted exactly once, from fn's return value: nil maps
// to done, anything else to an error event. A panic inside fn is captured
// as a failure, not propagated.
func (r *Runner) Start(parent context.Context, name string, fn JobFunc) *Job {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)

	job := &Job{
		ID:        uuid.NewString(),
		Name:      name,
		StartedAt: time.Now(),
		reporter:  NewReporter(r.buffer),
		cancel:    cancel,
		status:    JobStatusRunning,
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "job started",
		slog.String("job_id", job.ID),
		slog.String("job_name", name))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("job panicked: %v", rec)
			}
		}()
		return fn(gctx, job.reporter)
	})

	go func() {
		defer cancel()
		err := g.Wait()

		switch {
		case err == nil:
			job.finish(JobStatusCompleted, nil)
			job.reporter.Done()
			r.logger.Info("job completed",
				slog.String("job_id", job.ID),
				slog.String("job_name", name),
				slog.Duration("elapsed", time.Since(job.StartedAt)))
		case ctx.Err() != nil:
			job.finish(JobStatusCancelled, ctx.Err())
			job.reporter.Fail(err)
			r.logger.Warn("job cancelled",
				slog.String("job_id", job.ID),
				slog.String("job_name", name))
		default:
			job.finish(JobStatusFailed, err)
			job.reporter.Fail(err)
			r.logger.Error("job failed",
				slog.String("job_id", job.ID),
				slog.String("job_name", name),
				slog.String("error", err.Error()))
		}

		r.mu.Lock()
		delete(r.jobs, job.ID)
		r.mu.Unlock()
	}()

	return job
}

// Get returns a running job by id.
func (r *Runner) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	return job, ok
}

// Active returns the number of jobs still running.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
