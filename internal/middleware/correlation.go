package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type key int

const CorrelationKey key = 0

const CorrelationHeader = "X-Correlation-ID"

// CorrelationTransport stamps outbound requests with the correlation id
// carried by the request context and logs each round trip.
type CorrelationTransport struct {
	Next http.RoundTripper
}

func NewCorrelationTransport(next http.RoundTripper) *CorrelationTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &CorrelationTransport{Next: next}
}

func (t *CorrelationTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	id, ok := ctx.Value(CorrelationKey).(string)
	if !ok || id == "" {
		id = uuid.New().String()
		ctx = WithCorrelationID(ctx, id)
	}

	// RoundTrippers must not mutate the caller's request.
	out := r.Clone(ctx)
	if out.Header.Get(CorrelationHeader) == "" {
		out.Header.Set(CorrelationHeader, id)
	}

	slog.DebugContext(ctx, "request sent", "method", out.Method, "host", out.URL.Host, "path", out.URL.Path)
	start := time.Now()

	resp, err := t.Next.RoundTrip(out)
	if err != nil {
		slog.WarnContext(ctx, "request failed", "method", out.Method, "host", out.URL.Host, "path", out.URL.Path, "error", err, "duration", time.Since(start))
		return nil, err
	}

	slog.DebugContext(ctx, "request completed", "method", out.Method, "host", out.URL.Host, "path", out.URL.Path, "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationKey).(string); ok {
		return id
	}
	return "unknown"
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationKey, id)
}
