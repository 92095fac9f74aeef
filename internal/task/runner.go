package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of recurring background work.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Interval is how often the job runs.
	Interval() time.Duration

	// Run executes one iteration. Errors are logged, never fatal; the
	// job keeps its schedule.
	Run(ctx context.Context) error
}

// Runner manages the background job goroutines. Each registered job gets
// its own ticker; Stop cancels them all and waits for in-flight iterations
// to finish, so no background work continues after shutdown.
type Runner struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger

	mu      sync.Mutex
	jobs    []Job
	started bool
}

// NewRunner creates a Runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With("component", "task_runner"),
	}
}

// Register adds a job. Jobs registered after Start are picked up
// immediately.
func (r *Runner) Register(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs = append(r.jobs, job)
	if r.started {
		r.launch(job)
	}
}

// Start launches a goroutine per registered job.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return
	}
	r.started = true

	for _, job := range r.jobs {
		r.launch(job)
	}

	r.logger.Info("task runner started", "job_count", len(r.jobs))
}

// Stop cancels all jobs and waits for in-flight iterations to finish.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

func (r *Runner) launch(job Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		logger := r.logger.With("job", job.Name())
		logger.Debug("starting job", "interval", job.Interval().String())

		ticker := time.NewTicker(job.Interval())
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				logger.Debug("stopping job")
				return
			case <-ticker.C:
				if err := job.Run(r.ctx); err != nil {
					logger.Error("job iteration failed", "error", err)
				}
			}
		}
	}()
}
