// Package dispatch runs a fixed set of ingestion jobs on a bounded pool of
// workers and collects one result per job.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"topo/ingest/internal/middleware"
)

var (
	ErrInvalidWorkers = errors.New("worker count must be at least 1")
	// ErrWorkerCrashed means a worker died on a panic rather than a
	// reported error. The dispatch as a whole is then considered failed.
	ErrWorkerCrashed = errors.New("worker crashed")
)

type Dispatcher struct {
	workers int
	logger  *slog.Logger
}

func New(workers int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{workers: workers, logger: logger}
}

type queued struct {
	index int
	job   Job
}

// Run hands every job to exactly one of the workers and blocks until all
// workers exit. Job errors are collected in the returned Results and never
// stop the queue from draining. The error is non-nil only for an invalid
// worker count or a crashed worker; the results gathered so far are still
// returned in that case.
func (d *Dispatcher) Run(ctx context.Context, jobs []Job, scope []string, limit int) (Results, error) {
	if d.workers < 1 {
		return nil, ErrInvalidWorkers
	}

	// Loaded and closed before any worker starts: nothing joins the queue
	// once draining begins.
	queue := make(chan queued, len(jobs))
	for i, j := range jobs {
		queue <- queued{index: i, job: j}
	}
	close(queue)

	d.logger.InfoContext(ctx, "dispatch starting", "jobs", len(jobs), "workers", d.workers, "regions", len(scope), "limit", limit)
	start := time.Now()

	perWorker := make([]Results, d.workers)
	var g errgroup.Group
	for w := 0; w < d.workers; w++ {
		g.Go(func() error {
			return d.work(ctx, w, queue, scope, limit, &perWorker[w])
		})
	}
	err := g.Wait()

	var results Results
	for _, rs := range perWorker {
		results = append(results, rs...)
	}

	d.logger.InfoContext(ctx, "dispatch finished",
		"jobs", len(jobs),
		"succeeded", len(results.Succeeded()),
		"failed", len(results.Failed()),
		"duration", time.Since(start),
	)
	return results, err
}

func (d *Dispatcher) work(ctx context.Context, worker int, queue <-chan queued, scope []string, limit int, out *Results) (err error) {
	var current *queued
	defer func() {
		if p := recover(); p != nil {
			name := "unknown"
			if current != nil {
				name = NameOf(current.job)
			}
			d.logger.ErrorContext(ctx, "worker crashed", "worker", worker, "job", name, "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: worker %d running %s: %v", ErrWorkerCrashed, worker, name, p)
		}
	}()

	for item := range queue {
		current = &item
		*out = append(*out, d.runOne(ctx, worker, item, scope, limit))
		current = nil
	}
	return nil
}

func (d *Dispatcher) runOne(ctx context.Context, worker int, item queued, scope []string, limit int) Result {
	res := Result{
		Job:           NameOf(item.job),
		Index:         item.index,
		Worker:        worker,
		CorrelationID: uuid.New().String(),
		Started:       time.Now(),
	}
	jobCtx := middleware.WithCorrelationID(ctx, res.CorrelationID)

	d.logger.InfoContext(jobCtx, "job started", "job", res.Job, "worker", worker)
	res.Err = item.job.Update(jobCtx, scope, limit)
	res.Duration = time.Since(res.Started)

	if res.Err != nil {
		d.logger.ErrorContext(jobCtx, "job failed", "job", res.Job, "worker", worker, "error", res.Err, "duration", res.Duration)
	} else {
		d.logger.InfoContext(jobCtx, "job succeeded", "job", res.Job, "worker", worker, "duration", res.Duration)
	}
	return res
}
