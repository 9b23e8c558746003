// Package job keeps the outcome of every dispatched ingestion job: one row
// per job and run in job_results, optionally announced on the message bus.
package job

import (
	"time"

	"topo/ingest/internal/dispatch"
)

type Job struct {
	RunID         string        `json:"run_id"`
	Name          string        `json:"job"`
	Position      int           `json:"position"`
	Worker        int           `json:"worker"`
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	CorrelationID string        `json:"correlation_id"`
	StartedAt     time.Time     `json:"started_at"`
	DurationMS    int64         `json:"duration_ms"`
}

// FromResult flattens a dispatcher result for storage.
func FromResult(runID string, r dispatch.Result) Job {
	j := Job{
		RunID:         runID,
		Name:          r.Job,
		Position:      r.Index,
		Worker:        r.Worker,
		Status:        string(r.Status()),
		CorrelationID: r.CorrelationID,
		StartedAt:     r.Started.UTC(),
		DurationMS:    r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		j.Error = r.Err.Error()
	}
	return j
}
