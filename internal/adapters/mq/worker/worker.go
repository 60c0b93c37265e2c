// Package worker drains the submission queue and drives the scoring
// pipeline for batch jobs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/vitae/internal/adapters/mq/queue"
	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/pkg/logger"
	"github.com/okian/vitae/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Submitter runs one CV analysis end to end.
type Submitter interface {
	Submit(ctx context.Context, cvText, filename string) (*model.AnalysisRecord, error)
}

// Tracker reflects job progress back to polling clients.
type Tracker interface {
	MarkProcessing(id, step string)
	MarkComplete(id, analysisID string)
	MarkFailed(id, msg string)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Submission
}

// Worker processes queued submissions until its queue closes or it is
// shut down.
type Worker struct {
	queue     Queue
	submitter Submitter
	tracker   Tracker
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a worker reading from q.
func NewWorker(q Queue, submitter Submitter, tracker Tracker, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		submitter: submitter,
		tracker:   tracker,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns when the context is canceled,
// the queue closes, or Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	submissions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case sub, ok := <-submissions:
			if !ok {
				return
			}
			w.process(ctx, sub)
		}
	}
}

// Shutdown gracefully stops the worker, waiting for the in-flight
// submission to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, sub queue.Submission) {
	metrics.UpdateJobQueueSize(lenOf(ctx, w.queue))
	w.tracker.MarkProcessing(sub.JobID, "scoring areas")

	rec, err := w.submitter.Submit(ctx, sub.CVText, sub.Filename)
	if err != nil {
		w.tracker.MarkFailed(sub.JobID, err.Error())
		w.logger.Error(ctx, "batch submission failed",
			logger.String("job_id", sub.JobID),
			logger.String("filename", sub.Filename),
			logger.Error(err),
		)
		return
	}

	w.tracker.MarkComplete(sub.JobID, rec.ID)
	w.logger.Debug(ctx, "batch submission complete",
		logger.String("job_id", sub.JobID),
		logger.String("analysis_id", rec.ID),
	)
}

func lenOf(ctx context.Context, q Queue) int {
	if sized, ok := q.(interface{ Len(ctx context.Context) int }); ok {
		return sized.Len(ctx)
	}
	return 0
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, q Queue, submitter Submitter, tracker Tracker) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewWorker(q, submitter, tracker,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}
	return pool
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateWorkerCount(len(p.workers))
	for _, w := range p.workers {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx)
		}()
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop shuts every worker down, bounded by the pool shutdown timeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker did not stop cleanly", logger.Error(err))
		}
	}
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
}
