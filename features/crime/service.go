package crime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"topo/ingest/internal/cache"
	"topo/ingest/internal/fetch"
	"topo/ingest/internal/region"
)

var ErrNoRates = errors.New("no rates for state")

// Service is the crime ingestion job.
type Service struct {
	repo    Repository
	cache   cache.Cacher
	fetcher *fetch.Fetcher
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

func NewService(repo Repository, c cache.Cacher, f *fetch.Fetcher, baseURL, apiKey string, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   c,
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

func (s *Service) Name() string { return Name }

// Reset recreates crime_summary ahead of a run.
func (s *Service) Reset(ctx context.Context) error {
	return s.repo.Reset(ctx)
}

// Update takes the limit oldest agencies of each state in scope and stores
// their yearly offense rates. Each agency/offense series commits on its own.
func (s *Service) Update(ctx context.Context, scope []string, limit int) error {
	for _, abbr := range scope {
		state, ok := region.Lookup(abbr)
		if !ok {
			return fmt.Errorf("%w: %s", region.ErrUnknownState, abbr)
		}

		agencies, err := s.Agencies(ctx, state.Abbr)
		if err != nil {
			return fmt.Errorf("agencies for %s: %w", state.Abbr, err)
		}
		selected := Oldest(agencies, limit)
		s.logger.InfoContext(ctx, "crime agencies selected", "state", state.Abbr, "total", len(agencies), "selected", len(selected))

		for _, agency := range selected {
			for _, offense := range Offenses {
				records, err := s.Summary(ctx, agency, offense)
				if err != nil {
					return fmt.Errorf("summary %s/%s: %w", agency.ORI, offense, err)
				}
				if err := s.repo.SaveSummary(ctx, records); err != nil {
					return fmt.Errorf("save %s/%s: %w", agency.ORI, offense, err)
				}
			}
		}
	}
	return nil
}

// Agencies lists every agency reporting under the state abbreviation.
func (s *Service) Agencies(ctx context.Context, abbr string) ([]Agency, error) {
	endpoint, err := url.JoinPath(s.baseURL, "agency", "byStateAbbr", abbr)
	if err != nil {
		return nil, err
	}
	resp, err := cachedGet[agencyResponse](ctx, s, agencyCache, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return resp.Flatten(), nil
}

// Summary fetches the agency's monthly rates for one offense and folds them
// into yearly records.
func (s *Service) Summary(ctx context.Context, agency Agency, offense string) ([]Record, error) {
	endpoint, err := url.JoinPath(s.baseURL, "summarized", "agency", agency.ORI, offense)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("from", From)
	q.Set("to", To)

	resp, err := cachedGet[summaryResponse](ctx, s, summaryCache, endpoint, q)
	if err != nil {
		return nil, err
	}

	state, ok := region.Lookup(agency.StateAbbr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", region.ErrUnknownState, agency.StateAbbr)
	}
	monthly, ok := resp.Offenses.Rates[state.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRates, state.Name)
	}

	records, err := Summarize(agency, offense, monthly)
	if err != nil {
		return nil, err
	}
	if skipped := len(monthly) - months(records); skipped > 0 {
		s.logger.DebugContext(ctx, "unreported months skipped", "ori", agency.ORI, "offense", offense, "months", skipped)
	}
	return records, nil
}

// cachedGet keys the cache by the request URL without the API key, which
// is added to the outgoing request only.
func cachedGet[T any](ctx context.Context, s *Service, namespace, endpoint string, q url.Values) (T, error) {
	key := endpoint
	if len(q) > 0 {
		key += "?" + q.Encode()
	}

	authed := url.Values{}
	authed.Set("API_KEY", s.apiKey)
	header := http.Header{}
	header.Set("x-api-key", s.apiKey)

	return cache.Through(ctx, s.cache, namespace, key, func(ctx context.Context) (T, error) {
		return fetch.Fetch[T](ctx, s.fetcher, fetch.Get(key, authed, header))
	})
}

func months(records []Record) int {
	n := 0
	for _, r := range records {
		n += r.Months
	}
	return n
}
