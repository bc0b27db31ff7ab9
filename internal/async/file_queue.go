package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/svtalent/candidate-intake/internal/pipeline"
)

// FileQueue fans discovered files out to a fixed worker pool. A path that
// is already queued or mid-processing is not enqueued again: the ledger
// only gates a file once it is committed, so concurrent duplicates of the
// same path have to be caught here.
type FileQueue struct {
	proc    *pipeline.Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed and makes channel sends mutually exclusive with
	// close(ch); workers never take it, so a backpressured send cannot
	// starve them.
	mu     sync.Mutex
	closed bool

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

type Option func(*FileQueue)

func WithWorkers(n int) Option {
	return func(q *FileQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *FileQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *FileQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewFileQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *FileQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &FileQueue{
		proc:     proc,
		logger:   logger,
		workers:  4,
		timeout:  3 * time.Minute,
		ch:       make(chan Job, 256),
		inflight: map[string]struct{}{},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *FileQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					out, err := q.proc.ProcessFile(ctx, job.Path)
					cancel()
					q.release(job.Path)

					switch {
					case err != nil:
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
					case out.Duplicate:
						q.logger.Info("skipped duplicate file", "worker_id", workerID, "path", job.Path)
					default:
						q.logger.Info("processed file successfully",
							"worker_id", workerID,
							"path", job.Path,
							"candidate_id", out.Record.Identity.CandidateID,
						)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *FileQueue) Enqueue(_ context.Context, job Job) error {
	q.inflightMu.Lock()
	if _, busy := q.inflight[job.Path]; busy {
		q.inflightMu.Unlock()
		q.logger.Info("path already queued, skipping", "path", job.Path)
		return nil
	}
	q.inflight[job.Path] = struct{}{}
	q.inflightMu.Unlock()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.release(job.Path)
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}

	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

func (q *FileQueue) release(path string) {
	q.inflightMu.Lock()
	delete(q.inflight, path)
	q.inflightMu.Unlock()
}

func (q *FileQueue) Shutdown(ctx context.Context) {
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
