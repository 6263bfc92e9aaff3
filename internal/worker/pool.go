package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vytor/arenalobby/internal/logger"
)

var ErrPoolStopped = errors.New("worker: pool stopped")

type Job interface {
	Run(context.Context) error
	Name() string
}

type Pool struct {
	jobs     chan Job
	wg       sync.WaitGroup
	workers  int
	queue    int
	done     chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
	log      *logger.Logger
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	log := logger.Default().WithPrefix("worker-pool")
	log.Debug("creating worker pool with %d workers and queue size %d", workers, queueSize)
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		queue:   queueSize,
		done:    make(chan struct{}),
		log:     log,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.log.Info("starting worker pool with %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			workerLog := p.log.WithField("worker_id", id)
			workerLog.Debug("worker started")

			for {
				select {
				case <-ctx.Done():
					workerLog.Debug("worker shutting down (context cancelled)")
					return
				case <-p.done:
					workerLog.Debug("worker shutting down (pool stopped)")
					return
				case job := <-p.jobs:
					p.run(ctx, workerLog, job)
				}
			}
		}(i + 1)
	}
}

func (p *Pool) run(ctx context.Context, workerLog *logger.Logger, job Job) {
	jobLog := workerLog.WithField("job", job.Name())
	jobLog.Debug("starting job")
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			jobLog.Error("job panicked after %v: %v", time.Since(start), rec)
		}
	}()

	jobCtx := logger.NewContext(ctx, jobLog)
	if err := job.Run(jobCtx); err != nil {
		jobLog.Warn("job failed after %v: %v", time.Since(start), err)
	} else {
		jobLog.Debug("job completed in %v", time.Since(start))
	}
}

// Stop signals every worker and waits for in-flight jobs. Queued jobs are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.log.Info("stopping worker pool")
		close(p.done)
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
		p.log.Info("worker pool stopped")
	})
}

// Submit queues job, blocking while the queue is full until ctx ends or the pool stops.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case <-p.done:
		return ErrPoolStopped
	default:
	}

	p.log.Debug("submitting job: %s", job.Name())
	select {
	case <-p.done:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// QueueSize returns the current number of pending jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}
