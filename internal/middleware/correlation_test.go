package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationTransport_PropagatesID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(CorrelationHeader)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewCorrelationTransport(nil)}
	ctx := WithCorrelationID(context.Background(), "job-42")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "job-42", got)
	assert.Empty(t, req.Header.Get(CorrelationHeader), "caller request must not be mutated")
}

func TestCorrelationTransport_GeneratesID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(CorrelationHeader)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewCorrelationTransport(http.DefaultTransport)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotEmpty(t, got)
}

func TestGetCorrelationID(t *testing.T) {
	assert.Equal(t, "unknown", GetCorrelationID(context.Background()))
	assert.Equal(t, "abc", GetCorrelationID(WithCorrelationID(context.Background(), "abc")))
}
