package jobs

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A non-nil error triggers a retry until the
// attempt budget runs out.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour. Zero values fall back to
// sane defaults.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (cfg QueueConfig) withDefaults() QueueConfig {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// Queue is an in-memory job dispatcher backed by a fixed worker pool.
// Failed jobs retry with exponential backoff plus jitter.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	jobs chan Job
	wg   sync.WaitGroup

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewQueue builds a queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start begins worker consumption. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.cfg.Logger.Info("queue started",
		zap.String("queue", q.name),
		zap.Int("workers", q.cfg.Workers))
}

// Stop cancels workers and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue pushes a job onto the queue, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx, started := q.ctx, q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handler(q.ctx, job); err != nil {
				q.retry(job, err)
			}
		}
	}
}

func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.cfg.Logger.Error("job exceeded retries",
			zap.String("queue", q.name),
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Error(err))
		return
	}

	delay := q.backoff(job.Attempt)
	q.cfg.Logger.Warn("job failed, retrying",
		zap.String("queue", q.name),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Duration("delay", delay),
		zap.Error(err))

	go func(j Job) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			select {
			case <-q.ctx.Done():
			case q.jobs <- j:
			}
		}
	}(job)
}

// backoff doubles the base delay per attempt and adds up to 25% jitter so
// retries from a burst of failures do not land together.
func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= 30*time.Second {
			delay = 30 * time.Second
			break
		}
	}
	return delay + time.Duration(rand.Int63n(int64(delay)/4+1))
}
