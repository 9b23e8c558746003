package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"topo/ingest/internal/cache"
	"topo/ingest/internal/fetch"
	"topo/ingest/internal/region"
)

// Service is the weather ingestion job.
type Service struct {
	repo    Repository
	cache   cache.Cacher
	fetcher *fetch.Fetcher
	baseURL string
	token   string
	logger  *slog.Logger
}

func NewService(repo Repository, c cache.Cacher, f *fetch.Fetcher, baseURL, token string, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   c,
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger,
	}
}

func (s *Service) Name() string { return Name }

// Reset recreates the normals and extremes tables ahead of a run.
func (s *Service) Reset(ctx context.Context) error {
	return s.repo.Reset(ctx)
}

// Update pulls up to limit stations per state in scope. Each station's
// normals and extremes commit as they complete, so an error leaves every
// earlier station in place.
func (s *Service) Update(ctx context.Context, scope []string, limit int) error {
	for _, abbr := range scope {
		state, ok := region.Lookup(abbr)
		if !ok {
			return fmt.Errorf("%w: %s", region.ErrUnknownState, abbr)
		}

		stations, err := s.Stations(ctx, state, limit)
		if err != nil {
			return fmt.Errorf("stations for %s: %w", state.Abbr, err)
		}
		s.logger.InfoContext(ctx, "weather stations fetched", "state", state.Abbr, "count", len(stations))

		for _, st := range stations {
			if err := s.updateStation(ctx, state, st); err != nil {
				return fmt.Errorf("station %s: %w", st.ID, err)
			}
		}
	}
	return nil
}

func (s *Service) updateStation(ctx context.Context, state region.State, st Station) error {
	records, err := s.Normals(ctx, st)
	if err != nil {
		return err
	}
	normals, err := Monthly(st.ID, records)
	if err != nil {
		return err
	}
	if err := s.repo.SaveNormals(ctx, normals); err != nil {
		return err
	}

	extremes := Extremes(st.ID, state.Abbr, normals)
	if err := s.repo.SaveExtremes(ctx, extremes); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "station stored", "station", st.ID, "records", len(records), "extremes", len(extremes))
	return nil
}

// Stations lists the state's monthly-normal stations ordered by data
// coverage, best first.
func (s *Service) Stations(ctx context.Context, state region.State, limit int) ([]Station, error) {
	q := url.Values{}
	q.Set("datasetid", dataset)
	q.Set("locationid", state.LocationID())
	q.Set("datacategoryid", category)
	q.Set("sortfield", "datacoverage")
	q.Set("sortorder", "desc")
	q.Set("limit", strconv.Itoa(limit))

	resp, err := cachedGet[stationsResponse](ctx, s, stationCache, "/stations", q)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Normals fetches the station's monthly temperature and precipitation
// normals over its full coverage window.
func (s *Service) Normals(ctx context.Context, st Station) ([]Record, error) {
	q := url.Values{}
	q.Set("datasetid", dataset)
	q.Set("stationid", st.ID)
	q.Set("datatypeid", strings.Join([]string{dataTypeMin, dataTypeMax, dataTypePrc}, ","))
	q.Set("startdate", st.MinDate)
	q.Set("enddate", st.MaxDate)
	q.Set("limit", strconv.Itoa(pageLimit))
	q.Set("units", "metric")

	resp, err := cachedGet[normalsResponse](ctx, s, normalsCache, "/data", q)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// cachedGet serves a GET from the cache, keyed by the full request URL, and
// falls through to the network on a miss. The token travels as a header so
// it never ends up in a cache key.
func cachedGet[T any](ctx context.Context, s *Service, namespace, path string, q url.Values) (T, error) {
	key := s.baseURL + path + "?" + q.Encode()
	header := http.Header{}
	header.Set("token", s.token)

	return cache.Through(ctx, s.cache, namespace, key, func(ctx context.Context) (T, error) {
		return fetch.Fetch[T](ctx, s.fetcher, fetch.Get(key, nil, header))
	})
}
