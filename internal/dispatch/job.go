package dispatch

import (
	"context"
	"fmt"
	"strings"
)

// Job is one independent ingestion task. Update runs to completion on a
// single worker; implementations own their storage, cache and HTTP handles
// and share no mutable state with other jobs.
type Job interface {
	Update(ctx context.Context, scope []string, limit int) error
}

// Named jobs label their results; other jobs are labelled by type.
type Named interface {
	Name() string
}

// NameOf labels j for logs and results.
func NameOf(j Job) string {
	if n, ok := j.(Named); ok {
		return n.Name()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", j), "*")
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context, scope []string, limit int) error

func (f JobFunc) Update(ctx context.Context, scope []string, limit int) error {
	return f(ctx, scope, limit)
}
