// Package report hands the results of a dispatcher run to every configured
// sink: the process log, the job_results table and the message bus.
package report

import (
	"context"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"topo/ingest/internal/dispatch"
)

type Reporter interface {
	Report(ctx context.Context, runID string, results dispatch.Results) error
}

type ReporterFunc func(ctx context.Context, runID string, results dispatch.Results) error

func (f ReporterFunc) Report(ctx context.Context, runID string, results dispatch.Results) error {
	return f(ctx, runID, results)
}

// Fanout reports to every sink, even after one of them fails.
type Fanout []Reporter

func (f Fanout) Report(ctx context.Context, runID string, results dispatch.Results) error {
	var errs *multierror.Error
	for _, r := range f {
		if err := r.Report(ctx, runID, results); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Log writes the run summary, preceded by one line per failed job.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Report(ctx context.Context, runID string, results dispatch.Results) error {
	for _, r := range results.Failed() {
		l.Logger.ErrorContext(ctx, "run job failed",
			"run_id", runID,
			"job", r.Job,
			"position", r.Index,
			"worker", r.Worker,
			"job_correlation_id", r.CorrelationID,
			"error", r.Err)
	}

	l.Logger.InfoContext(ctx, "run finished",
		"run_id", runID,
		"jobs", len(results),
		"succeeded", len(results.Succeeded()),
		"failed", len(results.Failed()))
	return nil
}
