package job

import (
	"context"

	"topo/ingest/internal/storage"
)

type Repository interface {
	Save(ctx context.Context, job *Job) error
	ListByRun(ctx context.Context, runID string) ([]Job, error)
	Count(ctx context.Context) (int, error)
}

type SQLRepo struct {
	db *storage.DB
}

func NewSQLRepo(db *storage.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

func (r *SQLRepo) Save(ctx context.Context, job *Job) error {
	query := `INSERT INTO job_results (run_id, job, position, worker, status, error, correlation_id, started_at, duration_ms) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (run_id, position) DO UPDATE SET job = excluded.job, worker = excluded.worker, status = excluded.status, error = excluded.error, correlation_id = excluded.correlation_id, started_at = excluded.started_at, duration_ms = excluded.duration_ms`
	_, err := r.db.ExecContext(ctx, query, job.RunID, job.Name, job.Position, job.Worker, job.Status, job.Error, job.CorrelationID, job.StartedAt, job.DurationMS)
	return err
}

func (r *SQLRepo) ListByRun(ctx context.Context, runID string) ([]Job, error) {
	query := `SELECT run_id, job, position, worker, status, error, correlation_id, started_at, duration_ms FROM job_results WHERE run_id = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.RunID, &j.Name, &j.Position, &j.Worker, &j.Status, &j.Error, &j.CorrelationID, &j.StartedAt, &j.DurationMS); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *SQLRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM job_results`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
