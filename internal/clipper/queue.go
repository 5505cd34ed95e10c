package clipper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"media-clipper/internal/filesystem"
	"media-clipper/internal/logging"
	"media-clipper/internal/metrics"
)

// Admission errors returned by AddJob.
var (
	ErrQueueFull    = errors.New("maximum job queue size has been reached")
	ErrDuplicateJob = errors.New("there is already a pending job")
	ErrQueueClosed  = errors.New("job queue is closed")
)

// DefaultMaxQueueSize is used when Config.MaxQueueSize is not positive.
const DefaultMaxQueueSize = 4

// Runner produces the output file for a job. Run is called from the single
// executor goroutine, one job at a time.
type Runner interface {
	Run(ctx context.Context, job Job) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, job Job) error

// Run calls f(ctx, job).
func (f RunnerFunc) Run(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// SuccessHook is called after a job produced its output. Errors are logged
// and never recorded as job failures.
type SuccessHook func(ctx context.Context, job Job) error

// SourceMissingError reports a job whose source file was not found.
type SourceMissingError struct {
	Path string
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf("file %s does not exist", e.Path)
}

// Config holds the queue settings.
type Config struct {
	MaxQueueSize int
	Retry        filesystem.RetryConfig
}

// Option configures a Queue.
type Option func(*Queue)

// WithSuccessHook registers a hook run after every successful job, in
// registration order.
func WithSuccessHook(hook SuccessHook) Option {
	return func(q *Queue) {
		q.hooks = append(q.hooks, hook)
	}
}

// WithContext sets the context passed to the runner and hooks. It defaults
// to context.Background.
func WithContext(ctx context.Context) Option {
	return func(q *Queue) {
		q.ctx = ctx
	}
}

// Queue admits clip jobs and executes them one at a time in FIFO order.
type Queue struct {
	maxSize int
	retry   filesystem.RetryConfig
	runner  Runner
	hooks   []SuccessHook
	ctx     context.Context

	mu      sync.Mutex
	pending map[string]struct{}

	failMu   sync.Mutex
	failures []string

	handoff *handoff
	done    chan struct{}
}

// New creates a Queue and starts its executor goroutine.
func New(cfg Config, runner Runner, opts ...Option) *Queue {
	maxSize := cfg.MaxQueueSize
	if maxSize <= 0 {
		maxSize = DefaultMaxQueueSize
	}
	retry := cfg.Retry
	if retry == (filesystem.RetryConfig{}) {
		retry = filesystem.DefaultRetryConfig()
	}

	q := &Queue{
		maxSize: maxSize,
		retry:   retry,
		runner:  runner,
		ctx:     context.Background(),
		pending: make(map[string]struct{}),
		handoff: newHandoff(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	metrics.QueueCapacity.Set(float64(maxSize))
	go q.run()

	return q
}

// AddJob admits job or rejects it with ErrQueueFull, ErrDuplicateJob or
// ErrQueueClosed. It never waits for the job to run.
func (q *Queue) AddJob(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) >= q.maxSize {
		metrics.QueueRejectionsTotal.WithLabelValues("full").Inc()
		return fmt.Errorf("%w: %d", ErrQueueFull, q.maxSize)
	}
	if _, exists := q.pending[job.Key]; exists {
		metrics.QueueRejectionsTotal.WithLabelValues("duplicate").Inc()
		return fmt.Errorf("%w called %s", ErrDuplicateJob, job.Key)
	}

	q.pending[job.Key] = struct{}{}
	if err := q.handoff.push(job); err != nil {
		delete(q.pending, job.Key)
		metrics.QueueRejectionsTotal.WithLabelValues("closed").Inc()
		return err
	}

	metrics.QueuePendingJobs.Set(float64(len(q.pending)))
	logging.Info("Queued clip %s (job %s, %d/%d pending)", job.Key, job.ID, len(q.pending), q.maxSize)
	return nil
}

// JobsInProgress returns the keys of queued and running jobs, sorted.
func (q *Queue) JobsInProgress() []string {
	q.mu.Lock()
	keys := make([]string, 0, len(q.pending))
	for key := range q.pending {
		keys = append(keys, key)
	}
	q.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// IsPending reports whether a job with the given key is queued or running.
func (q *Queue) IsPending(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[key]
	return ok
}

// Failures returns the failure log in the order failures happened.
func (q *Queue) Failures() []string {
	q.failMu.Lock()
	defer q.failMu.Unlock()
	out := make([]string, len(q.failures))
	copy(out, q.failures)
	return out
}

// ClearFailures empties the failure log.
func (q *Queue) ClearFailures() {
	q.failMu.Lock()
	q.failures = nil
	q.failMu.Unlock()
	metrics.QueueFailureLogSize.Set(0)
}

// Counts returns the number of pending jobs and logged failures.
func (q *Queue) Counts() (pending, failures int) {
	q.mu.Lock()
	pending = len(q.pending)
	q.mu.Unlock()

	q.failMu.Lock()
	failures = len(q.failures)
	q.failMu.Unlock()
	return pending, failures
}

// Accepting reports whether AddJob can still admit jobs.
func (q *Queue) Accepting() bool {
	return !q.handoff.isClosed()
}

// Close stops admission. Jobs already handed off still run; the executor
// exits after the last one.
func (q *Queue) Close() {
	q.handoff.close()
}

// Wait blocks until the executor goroutine has exited.
func (q *Queue) Wait() {
	<-q.done
}

// Shutdown closes the queue and waits for the executor, giving up when ctx
// is done.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.Close()
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for clip executor: %w", ctx.Err())
	}
}

func (q *Queue) run() {
	defer close(q.done)
	logging.Debug("Clip executor started")

	for {
		job, ok := q.handoff.pop()
		if !ok {
			logging.Info("Clip executor stopped")
			return
		}
		q.execute(job)
	}
}

func (q *Queue) execute(job Job) {
	metrics.ExecutorRunning.Set(1)
	defer metrics.ExecutorRunning.Set(0)

	logging.Info("Starting clip %s from %s [%s - %s] (job %s)",
		job.Key, job.SourcePath, job.Range.Start, job.Range.End, job.ID)
	start := time.Now()

	err := q.process(job)
	elapsed := time.Since(start)
	metrics.ExecutorJobDuration.WithLabelValues(job.Kind()).Observe(elapsed.Seconds())

	if err != nil {
		var missing *SourceMissingError
		if errors.As(err, &missing) {
			metrics.ExecutorJobsTotal.WithLabelValues("error_missing_source").Inc()
		} else {
			metrics.ExecutorJobsTotal.WithLabelValues("error").Inc()
		}
		q.recordFailure(fmt.Sprintf("clip '%s': %v", job.ClipName, err))
		logging.Error("Clip %s failed after %v (job %s): %v", job.Key, elapsed, job.ID, err)
		q.release(job.Key)
		return
	}

	metrics.ExecutorJobsTotal.WithLabelValues("success").Inc()
	logging.Info("Finished clip %s in %v (job %s)", job.Key, elapsed, job.ID)
	q.release(job.Key)

	for _, hook := range q.hooks {
		if hookErr := q.runHook(hook, job); hookErr != nil {
			logging.Warn("Post-processing for clip %s failed: %v", job.Key, hookErr)
		}
	}
}

func (q *Queue) process(job Job) error {
	exists, err := filesystem.Exists(job.SourcePath, q.retry)
	if err != nil {
		return fmt.Errorf("checking source: %w", err)
	}
	if !exists {
		return &SourceMissingError{Path: job.SourcePath}
	}

	return q.runSafely(job)
}

func (q *Queue) runSafely(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transcoder panicked: %v", r)
		}
	}()
	return q.runner.Run(q.ctx, job)
}

func (q *Queue) runHook(hook SuccessHook, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return hook(q.ctx, job)
}

func (q *Queue) recordFailure(msg string) {
	q.failMu.Lock()
	q.failures = append(q.failures, msg)
	n := len(q.failures)
	q.failMu.Unlock()
	metrics.QueueFailureLogSize.Set(float64(n))
}

func (q *Queue) release(key string) {
	q.mu.Lock()
	delete(q.pending, key)
	n := len(q.pending)
	q.mu.Unlock()
	metrics.QueuePendingJobs.Set(float64(n))
}
