package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docgate/internal/common"
)

// ConversionQueue runs conversions on a fixed pool of workers.
type ConversionQueue struct {
	conv    Converter
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ConversionQueue)

func WithWorkers(n int) Option {
	return func(q *ConversionQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ConversionQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ConversionQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewConversionQueue(conv Converter, logger *slog.Logger, opts ...Option) *ConversionQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ConversionQueue{
		conv:    conv,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ConversionQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.process(workerID, job)
				}
				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ConversionQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithRequestID(ctx, job.ID)
	ctx = common.WithOperation(ctx, "batch")

	res, err := q.conv.Convert(ctx, job.Policy, job.Request)
	if err != nil {
		q.logger.Error("conversion failed", "worker_id", workerID, "request_id", job.ID, "path", job.Request.Path, "error", err)
	} else {
		q.logger.Info("converted file", "worker_id", workerID, "request_id", job.ID, "path", job.Request.Path,
			"queued_for", time.Since(job.SubmittedAt))
	}
	if job.Done != nil {
		job.Done(res, err)
	}
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *ConversionQueue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Request.Path)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for conversion", "request_id", job.ID, "path", job.Request.Path)
		return nil
	default:
	}
	q.logger.Debug("queue full, applying backpressure", "path", job.Request.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish, or for
// ctx to end.
func (q *ConversionQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
