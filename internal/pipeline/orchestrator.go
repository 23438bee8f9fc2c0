package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Runner is anything that performs one batch run.
type Runner interface {
	Run(ctx context.Context) (*Summary, error)
}

// Orchestrator queues runs requested over the API and executes them one
// at a time, so two batches never write the same copies concurrently.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	runner Runner
	log    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the job queue. Call Start before Submit.
func NewOrchestrator(runner Runner, queueSize int, ttl time.Duration, log *slog.Logger) *Orchestrator {
	if queueSize <= 0 {
		queueSize = 4
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Orchestrator{
		jobs:   NewJobStore(ttl),
		queue:  make(chan *Job, queueSize),
		runner: runner,
		log:    log,
	}
}

// Start launches the worker goroutine.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

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
				o.execute(workerCtx, job)
			}
		}
	}()

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
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

func (o *Orchestrator) execute(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID)
	job.SetStatus(StatusRunning)
	log.Info("run started")
	sum, err := o.runner.Run(ctx)
	job.Finish(sum, err)
	if err != nil {
		log.Error("run failed", "error", err)
		return
	}
	log.Info("run finished", "status", job.Snapshot().Status)
}

// Stop gracefully shuts down the worker.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new run.
func (o *Orchestrator) Submit() (*Job, error) {
	job := NewJob()
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, nil
	default:
		job.Finish(nil, fmt.Errorf("queue full"))
		return job, fmt.Errorf("run queue is full (%d)", cap(o.queue))
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
