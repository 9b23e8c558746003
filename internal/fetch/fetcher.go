// Package fetch issues HTTP requests against upstream statistics APIs and
// decodes their JSON bodies, retrying transient server failures.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"topo/ingest/internal/middleware"
)

const DefaultMaxRetries = 3

// RequestFactory builds a fresh request for every attempt. A sent request
// cannot be reused, so the factory must be callable repeatedly and have no
// side effects.
type RequestFactory func(ctx context.Context) (*http.Request, error)

// Observer is told about every response and every retry.
type Observer interface {
	ObserveResponse(code int)
	ObserveRetry()
}

type nopObserver struct{}

func (nopObserver) ObserveResponse(int) {}
func (nopObserver) ObserveRetry()       {}

type Fetcher struct {
	client     *http.Client
	maxRetries int
	backoff    Backoff
	limiter    *rate.Limiter
	userAgent  string
	observer   Observer
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Fetcher)

func WithMaxRetries(n int) Option {
	return func(f *Fetcher) { f.maxRetries = n }
}

func WithBackoff(b Backoff) Option {
	return func(f *Fetcher) { f.backoff = b }
}

// WithRateLimit caps outgoing attempts at rps per second. Zero disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

func WithObserver(o Observer) Option {
	return func(f *Fetcher) {
		if o != nil {
			f.observer = o
		}
	}
}

// WithSleep replaces the backoff wait. Tests use it to observe delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = sleep }
}

func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = NewClient(0)
	}
	f := &Fetcher{
		client:     client,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff(),
		observer:   nopObserver{},
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewClient returns an http.Client that propagates correlation ids. A zero
// timeout leaves requests unbounded.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: middleware.NewCorrelationTransport(http.DefaultTransport),
	}
}

// Do sends the request built by factory and decodes a successful body into dst.
func (f *Fetcher) Do(ctx context.Context, factory RequestFactory, dst any) error {
	attempt := 0
	for {
		req, err := factory(ctx)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if f.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", f.userAgent)
		}
		target := redact(req.URL)

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrTransport, target, err)
			}
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTransport, target, err)
		}
		f.observer.ObserveResponse(resp.StatusCode)

		if resp.StatusCode >= 500 && attempt < f.maxRetries {
			discard(resp)
			f.observer.ObserveRetry()
			attempt++
			delay := f.backoff.Delay(attempt)
			slog.WarnContext(ctx, "server error, retrying", "url", target, "status", resp.StatusCode, "attempt", attempt, "max_retries", f.maxRetries, "delay", delay)
			if err := f.sleep(ctx, delay); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrTransport, target, err)
			}
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return &StatusError{
				Code:     resp.StatusCode,
				URL:      target,
				Attempts: attempt + 1,
				Body:     strings.TrimSpace(string(body)),
			}
		}

		err = json.NewDecoder(resp.Body).Decode(dst)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDecode, target, err)
		}
		return nil
	}
}

// Fetch is Do returning a typed value.
func Fetch[T any](ctx context.Context, f *Fetcher, factory RequestFactory) (T, error) {
	var out T
	if err := f.Do(ctx, factory, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Get builds a factory for a GET of rawURL with the given query and headers.
func Get(rawURL string, query url.Values, header http.Header) RequestFactory {
	return func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		if len(query) > 0 {
			q := u.Query()
			for k, vs := range query {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		return req, nil
	}
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

// redact drops credentials from URLs before they reach logs and errors.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	for _, k := range []string{"API_KEY", "api_key", "token"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	c.RawQuery = q.Encode()
	c.User = nil
	return c.String()
}
