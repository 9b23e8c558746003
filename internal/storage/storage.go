// Package storage opens the relational store shared by the response cache
// and the ingestion jobs. A DSN starting with postgres:// (or a libpq
// key=value string) selects PostgreSQL; anything else is a SQLite path.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var ErrStorage = errors.New("storage error")

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

var placeholder = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $N placeholders for the dialect. Queries are written in
// PostgreSQL form and must use each placeholder once, in order.
func (d Dialect) Rebind(query string) string {
	if d == SQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return Postgres
	}
	return SQLite
}

// DB is a *sql.DB whose *Context methods accept PostgreSQL-style queries
// regardless of dialect.
type DB struct {
	*sql.DB
	dialect Dialect
}

func Wrap(db *sql.DB, d Dialect) *DB {
	return &DB{DB: db, dialect: d}
}

func (db *DB) Dialect() Dialect { return db.dialect }

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := db.DB.ExecContext(ctx, db.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return res, nil
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := db.DB.QueryContext(ctx, db.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rows, nil
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.dialect.Rebind(query), args...)
}

// Open connects to dsn. SQLite handles are limited to one connection with
// WAL and a busy timeout, so several handles on one file serialize their
// writes instead of failing.
func Open(ctx context.Context, dsn string) (*DB, error) {
	dialect := DialectOf(dsn)

	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case Postgres:
		db, err = sql.Open("postgres", dsn)
	default:
		db, err = sql.Open("sqlite", strings.TrimPrefix(dsn, "sqlite://"))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorage, dialect, err)
	}

	if dialect == SQLite {
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%w: %s: %w", ErrStorage, pragma, err)
			}
		}
	}

	return Wrap(db, dialect), nil
}

// PingWithRetry waits for the database to accept connections, trying at
// most attempts times with delay between tries.
func PingWithRetry(ctx context.Context, db *DB, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	err := retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.WarnContext(ctx, "failed to ping db, retrying...", "attempt", n+1, "max_attempts", attempts, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: ping: %w", ErrStorage, err)
	}
	return nil
}

// ExecAll runs each statement in order, stopping at the first failure.
func ExecAll(ctx context.Context, db *DB, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ResetCache wipes every cached response. It is only called at process
// start when the operator asks for a cold run.
func ResetCache(ctx context.Context, db *DB) error {
	_, err := db.ExecContext(ctx, `DELETE FROM api_cache`)
	return err
}
