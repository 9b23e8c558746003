package crime_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topo/ingest/features/crime"
	"topo/ingest/internal/cache"
	"topo/ingest/internal/fetch"
	"topo/ingest/internal/storage"
)

type cde struct {
	hits      atomic.Int32
	rateState string
}

func (c *cde) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.hits.Add(1)
	if r.URL.Query().Get("API_KEY") != "secret" || r.Header.Get("x-api-key") != "secret" {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "agency" && parts[2] == "DE":
		_ = json.NewEncoder(w).Encode(map[string][]map[string]any{
			"Kent": {
				{"ori": "DE0010000", "agency_name": "Dover Police Department", "state_abbr": "DE", "nibrs_start_date": "2001-01-01"},
			},
			"Sussex": {
				{"ori": "DE0050000", "agency_name": "Georgetown Police Department", "state_abbr": "DE", "nibrs_start_date": "1995-06-01"},
				{"ori": "DE0060000", "agency_name": "Lewes Police Department", "state_abbr": "DE", "nibrs_start_date": nil},
			},
		})
	case len(parts) == 4 && parts[0] == "summarized":
		q := r.URL.Query()
		if q.Get("from") != crime.From || q.Get("to") != crime.To {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"offenses": map[string]any{
				"rates": map[string]map[string]any{
					c.rateState: {"01-2010": 10.0, "02-2010": 5.5, "03-2010": nil, "01-2011": 2.0},
				},
			},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newService(t *testing.T, baseURL, apiKey string) (*crime.Service, *storage.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "crime.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.Migrate(db))

	f := fetch.New(http.DefaultClient,
		fetch.WithMaxRetries(0),
		fetch.WithSleep(func(context.Context, time.Duration) error { return nil }))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := crime.NewService(crime.NewSQLRepo(db), cache.NewStore(db), f, baseURL, apiKey, logger)
	require.NoError(t, svc.Reset(ctx))
	return svc, db
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	api := &cde{rateState: "Delaware"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	svc, db := newService(t, srv.URL, "secret")
	assert.Equal(t, "crime", svc.Name())

	require.NoError(t, svc.Update(ctx, []string{"de"}, 1))
	assert.Equal(t, int32(1+len(crime.Offenses)), api.hits.Load())

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crime_summary").Scan(&n))
	assert.Equal(t, 2*len(crime.Offenses), n)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crime_summary WHERE ori <> $1", "DE0050000").Scan(&n))
	assert.Zero(t, n, "only the oldest agency is ingested")

	var (
		state  string
		rate   float64
		months int
	)
	err := db.QueryRowContext(ctx, "SELECT state, rate, months FROM crime_summary WHERE data_year = $1 AND ori = $2 AND offense = $3", 2010, "DE0050000", "BUR").
		Scan(&state, &rate, &months)
	require.NoError(t, err)
	assert.Equal(t, "DE", state)
	assert.Equal(t, 15.5, rate)
	assert.Equal(t, 2, months)
}

func TestService_SecondRunUsesCache(t *testing.T) {
	ctx := context.Background()
	api := &cde{rateState: "Delaware"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	svc, db := newService(t, srv.URL, "secret")
	require.NoError(t, svc.Update(ctx, []string{"DE"}, 1))
	first := api.hits.Load()
	require.NoError(t, svc.Update(ctx, []string{"DE"}, 1))
	assert.Equal(t, first, api.hits.Load(), "no network calls on the second run")

	var key string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT cache_key FROM api_cache WHERE namespace = $1", "agency_cache").Scan(&key))
	assert.Equal(t, srv.URL+"/agency/byStateAbbr/DE", key)
	assert.NotContains(t, key, "secret")
}

func TestService_MissingStateRates(t *testing.T) {
	ctx := context.Background()
	api := &cde{rateState: "United States"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	svc, db := newService(t, srv.URL, "secret")
	err := svc.Update(ctx, []string{"DE"}, 1)
	assert.ErrorIs(t, err, crime.ErrNoRates)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crime_summary").Scan(&n))
	assert.Zero(t, n)
}

func TestService_ForbiddenIsNotRetried(t *testing.T) {
	ctx := context.Background()
	api := &cde{rateState: "Delaware"}
	srv := httptest.NewServer(api)
	defer srv.Close()

	svc, _ := newService(t, srv.URL, "wrong")
	err := svc.Update(ctx, []string{"DE"}, 1)

	var statusErr *fetch.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.Equal(t, int32(1), api.hits.Load())
}
