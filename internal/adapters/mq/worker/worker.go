// Package worker runs scoring jobs off the queue and hands records to a sink.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/trustscore/internal/adapters/mq/queue"
	"github.com/okian/trustscore/internal/domain/model"
	"github.com/okian/trustscore/pkg/logger"
	"github.com/okian/trustscore/pkg/metrics"
)

// poolShutdownTimeout bounds how long Shutdown waits for workers.
const poolShutdownTimeout = 30 * time.Second

// Scorer computes the score record of a descriptor.
type Scorer interface {
	Score(ctx context.Context, d *model.RepositoryDescriptor) (model.ScoreRecord, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Result is the outcome of one job. Err is set when no record could be
// produced; Seq is always set.
type Result struct {
	Seq    int
	Record model.ScoreRecord
	Err    error
}

// Sink receives results, possibly from several workers at once.
type Sink interface {
	Deliver(ctx context.Context, r Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Result) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, r Result) error { return f(ctx, r) }

// Worker processes jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)
	// Shutdown stops the worker after the job in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue  Queue
	scorer Scorer
	sink   Sink
	name   string

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer Scorer, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Int("seq", j.Seq), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob scores one job and delivers the result. Scoring errors are
// delivered too so an ordering sink can move past the job.
func (w *InMemoryWorker) processJob(ctx context.Context, j queue.Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	rec, err := w.scorer.Score(ctx, &j.Descriptor)
	if err != nil {
		w.logger.Error(ctx, "scoring failed",
			logger.Int("seq", j.Seq),
			logger.String("name", j.Descriptor.DisplayName()),
			logger.Error(err),
		)
	}

	if derr := w.sink.Deliver(ctx, Result{Seq: j.Seq, Record: rec, Err: err}); derr != nil {
		return fmt.Errorf("deliver job %d: %w", j.Seq, derr)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. A count below 1 uses one worker per CPU.
func NewPool(workerCount int, q Queue, scorer Scorer, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, scorer, sink, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned, which happens once the queue
// is closed and drained or ctx is canceled.
func (p *Pool) Wait() {
	for _, w := range p.workers {
		<-w.done
	}
	metrics.UpdateWorkerCount(0)
}

// closer is the part of the queue Shutdown needs.
type closer interface {
	Close() error
	IsClosed() bool
}

// Shutdown stops the pool early: it closes the queue if it is still open,
// stops every worker after its job in progress and waits for them.
// Undelivered jobs are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if c, ok := p.queue.(closer); ok && !c.IsClosed() {
		if err := c.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var errs []error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			errs = append(errs, err)
		}
	}

	metrics.UpdateWorkerCount(0)
	return errors.Join(errs...)
}
