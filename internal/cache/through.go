package cache

import (
	"context"
	"log/slog"
)

// Cacher is the subset of Store the ingestion jobs depend on.
type Cacher interface {
	Get(ctx context.Context, namespace, key string, dst any) (bool, error)
	PutKeyed(ctx context.Context, namespace, key string, value any) error
}

var _ Cacher = (*Store)(nil)

// Through returns the value cached at (namespace, key), or calls load and
// caches what it returns. Nothing is cached when load fails.
func Through[T any](ctx context.Context, c Cacher, namespace, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	found, err := c.Get(ctx, namespace, key, &cached)
	if err != nil {
		var zero T
		return zero, err
	}
	if found {
		slog.DebugContext(ctx, "cache hit", "namespace", namespace, "key", key)
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.PutKeyed(ctx, namespace, key, value); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}
