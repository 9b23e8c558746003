package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Tx mirrors DB for a single transaction.
type Tx struct {
	*sql.Tx
	dialect Dialect
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := tx.Tx.ExecContext(ctx, tx.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return res, nil
}

// WithTx runs fn inside one transaction. Every row fn writes commits
// together, or none do: a batch is never left half written.
func WithTx(ctx context.Context, db *DB, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ErrStorage, err)
	}
	tx := &Tx{Tx: sqlTx, dialect: db.dialect}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			slog.WarnContext(ctx, "failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %w", ErrStorage, err)
	}
	return nil
}
