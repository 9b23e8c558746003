package weather

import (
	"context"
	"database/sql"

	"topo/ingest/internal/storage"
)

var schema = []string{
	`DROP TABLE IF EXISTS normals`,
	`DROP TABLE IF EXISTS extremes`,
	`CREATE TABLE normals (
		station TEXT NOT NULL,
		month INTEGER NOT NULL,
		tmax DOUBLE PRECISION,
		tmin DOUBLE PRECISION,
		prcp DOUBLE PRECISION,
		fetched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (station, month)
	)`,
	`CREATE TABLE extremes (
		station TEXT NOT NULL,
		state TEXT NOT NULL,
		metric TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		fetched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (station, state, metric)
	)`,
}

const insertNormal = `INSERT INTO normals (station, month, tmax, tmin, prcp, fetched_at) VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
ON CONFLICT (station, month) DO UPDATE SET tmax = excluded.tmax, tmin = excluded.tmin, prcp = excluded.prcp, fetched_at = excluded.fetched_at`

const insertExtreme = `INSERT INTO extremes (station, state, metric, value, fetched_at) VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
ON CONFLICT (station, state, metric) DO UPDATE SET value = excluded.value, fetched_at = excluded.fetched_at`

type Repository interface {
	Reset(ctx context.Context) error
	SaveNormals(ctx context.Context, normals []Normal) error
	SaveExtremes(ctx context.Context, extremes []Extreme) error
}

type SQLRepo struct {
	db *storage.DB
}

func NewSQLRepo(db *storage.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

// Reset drops and recreates the derived tables.
func (r *SQLRepo) Reset(ctx context.Context) error {
	return storage.ExecAll(ctx, r.db, schema...)
}

func (r *SQLRepo) SaveNormals(ctx context.Context, normals []Normal) error {
	return storage.WithTx(ctx, r.db, func(tx *storage.Tx) error {
		for _, n := range normals {
			if _, err := tx.ExecContext(ctx, insertNormal, n.Station, n.Month, nullable(n.Tmax), nullable(n.Tmin), nullable(n.Prcp)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLRepo) SaveExtremes(ctx context.Context, extremes []Extreme) error {
	return storage.WithTx(ctx, r.db, func(tx *storage.Tx) error {
		for _, e := range extremes {
			if _, err := tx.ExecContext(ctx, insertExtreme, e.Station, e.State, e.Metric, e.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
