package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/sitetree/internal/metrics"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = errors.New("build queue is full")

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("orchestrator stopped")

// Options sizes the orchestrator.
type Options struct {
	Workers         int
	QueueSize       int
	JobTTL          time.Duration
	CleanupInterval time.Duration
}

// Orchestrator manages the build pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	worker  *Worker
	metrics *metrics.Metrics
	log     *slog.Logger
	opts    Options

	mu      sync.Mutex
	latest  *SiteBuild
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(w *Worker, m *metrics.Metrics, log *slog.Logger, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		jobs:    NewJobStore(opts.JobTTL),
		queue:   make(chan *Job, opts.QueueSize),
		worker:  w,
		metrics: m,
		log:     log,
		opts:    opts,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.opts.Workers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.observeQueue()
					if build := o.worker.Process(workerCtx, job); build != nil {
						o.setLatest(build)
					}
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.opts.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop cancels running builds and waits for every goroutine to exit. Jobs still
// waiting in the queue are marked failed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	for job := range o.queue {
		job.AddError(ErrStopped.Error())
		job.SetStatus(StatusFailed, "stopped")
	}
	o.observeQueue()
}

// Submit queues a new build and returns its job.
func (o *Orchestrator) Submit() (*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, ErrStopped
	}

	job := NewJob()
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.observeQueue()
		return job, nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return job, fmt.Errorf("%w (%d)", ErrQueueFull, o.opts.QueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Latest returns the most recent successful build, or nil.
func (o *Orchestrator) Latest() *SiteBuild {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) setLatest(b *SiteBuild) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.latest == nil || !b.FinishedAt.Before(o.latest.FinishedAt) {
		o.latest = b
	}
}

func (o *Orchestrator) observeQueue() {
	if o.metrics != nil {
		o.metrics.QueueDepth.Set(float64(len(o.queue)))
	}
}
