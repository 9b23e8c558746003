package crime

import (
	"context"

	"topo/ingest/internal/storage"
)

var schema = []string{
	`DROP TABLE IF EXISTS crime_summary`,
	`CREATE TABLE crime_summary (
		data_year INTEGER NOT NULL,
		state TEXT NOT NULL,
		ori TEXT NOT NULL,
		offense TEXT NOT NULL,
		rate DOUBLE PRECISION NOT NULL,
		months INTEGER NOT NULL,
		PRIMARY KEY (data_year, ori, offense)
	)`,
}

const insertSummary = `INSERT INTO crime_summary (data_year, state, ori, offense, rate, months) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (data_year, ori, offense) DO UPDATE SET state = excluded.state, rate = excluded.rate, months = excluded.months`

type Repository interface {
	Reset(ctx context.Context) error
	SaveSummary(ctx context.Context, records []Record) error
}

type SQLRepo struct {
	db *storage.DB
}

func NewSQLRepo(db *storage.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

// Reset drops and recreates crime_summary.
func (r *SQLRepo) Reset(ctx context.Context) error {
	return storage.ExecAll(ctx, r.db, schema...)
}

// SaveSummary writes one agency's offense series in a single transaction.
func (r *SQLRepo) SaveSummary(ctx context.Context, records []Record) error {
	return storage.WithTx(ctx, r.db, func(tx *storage.Tx) error {
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, insertSummary, rec.Year, rec.State, rec.ORI, rec.Offense, rec.Rate, rec.Months); err != nil {
				return err
			}
		}
		return nil
	})
}
