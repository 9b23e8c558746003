package dispatch

import (
	"time"

	"github.com/hashicorp/go-multierror"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result is the terminal outcome of one submitted job.
type Result struct {
	Job           string
	Index         int
	Worker        int
	CorrelationID string
	Started       time.Time
	Duration      time.Duration
	Err           error
}

func (r Result) Status() Status {
	if r.Err != nil {
		return StatusFailed
	}
	return StatusSucceeded
}

// Results holds one Result per job, grouped by worker. Order across
// workers is not defined; each worker's own results keep their order.
type Results []Result

func (rs Results) Failed() Results {
	var out Results
	for _, r := range rs {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

func (rs Results) Succeeded() Results {
	var out Results
	for _, r := range rs {
		if r.Err == nil {
			out = append(out, r)
		}
	}
	return out
}

// Err combines every job failure, or returns nil when all jobs succeeded.
func (rs Results) Err() error {
	var result *multierror.Error
	for _, r := range rs {
		if r.Err != nil {
			result = multierror.Append(result, &JobError{Job: r.Job, Index: r.Index, Err: r.Err})
		}
	}
	return result.ErrorOrNil()
}

// JobError ties a failure to the job that produced it.
type JobError struct {
	Job   string
	Index int
	Err   error
}

func (e *JobError) Error() string { return e.Job + ": " + e.Err.Error() }

func (e *JobError) Unwrap() error { return e.Err }
