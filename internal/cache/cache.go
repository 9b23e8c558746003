// Package cache is a durable response cache kept in the api_cache table of
// the relational store. Entries are addressed by (namespace, key) and hold a
// JSON payload; writes replace any previous payload at the same address.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"topo/ingest/internal/storage"
)

var (
	ErrCorrupt    = errors.New("corrupt cache payload")
	ErrInvalidKey = errors.New("cache namespace and key must not be empty")
)

const upsertQuery = `INSERT INTO api_cache (namespace, cache_key, payload, fetched_at) VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
ON CONFLICT (namespace, cache_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`

const selectQuery = `SELECT payload FROM api_cache WHERE namespace = $1 AND cache_key = $2`

// Key returns the positional key Put assigns to the record at index.
func Key(namespace string, index int) string {
	return namespace + "::" + strconv.Itoa(index)
}

type Store struct {
	db *storage.DB
}

func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// Get decodes the payload at (namespace, key) into dst. A miss reports
// false with a nil error; an undecodable payload is an error, not a miss.
func (s *Store) Get(ctx context.Context, namespace, key string, dst any) (bool, error) {
	if namespace == "" || key == "" {
		return false, ErrInvalidKey
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx, selectQuery, namespace, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read %s/%s: %w", storage.ErrStorage, namespace, key, err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("%w: %s/%s: %w", ErrCorrupt, namespace, key, err)
	}
	return true, nil
}

// PutKeyed stores value under a caller-chosen key, typically the request URL.
func (s *Store) PutKeyed(ctx context.Context, namespace, key string, value any) error {
	if namespace == "" || key == "" {
		return ErrInvalidKey
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	return storage.WithTx(ctx, s.db, func(tx *storage.Tx) error {
		_, err := tx.ExecContext(ctx, upsertQuery, namespace, key, payload)
		return err
	})
}

// Put stores each record under Key(namespace, i) in a single transaction.
func (s *Store) Put(ctx context.Context, namespace string, records ...any) error {
	if namespace == "" {
		return ErrInvalidKey
	}

	payloads := make([][]byte, len(records))
	for i, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode %s: %w", Key(namespace, i), err)
		}
		payloads[i] = payload
	}

	return storage.WithTx(ctx, s.db, func(tx *storage.Tx) error {
		for i, payload := range payloads {
			if _, err := tx.ExecContext(ctx, upsertQuery, namespace, Key(namespace, i), payload); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutAll is Put for a typed slice.
func PutAll[T any](ctx context.Context, s *Store, namespace string, records []T) error {
	items := make([]any, len(records))
	for i := range records {
		items[i] = records[i]
	}
	return s.Put(ctx, namespace, items...)
}
