package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"topo/ingest/features/crime"
	"topo/ingest/features/job"
	"topo/ingest/features/weather"
	"topo/ingest/internal/cache"
	"topo/ingest/internal/config"
	"topo/ingest/internal/dispatch"
	"topo/ingest/internal/fetch"
	"topo/ingest/internal/metrics"
	"topo/ingest/internal/report"
	"topo/ingest/internal/storage"
)

// IngestionJob is a dispatch.Job that owns derived tables it recreates at
// the start of every run.
type IngestionJob interface {
	dispatch.Job
	Reset(ctx context.Context) error
}

type App struct {
	Jobs       []IngestionJob
	Dispatcher *dispatch.Dispatcher
	Reporter   report.Reporter
	JobService *job.Service
	Metrics    *metrics.Metrics

	pushgateway string
	stores      []*storage.DB
	logger      *slog.Logger
}

// New wires one ingestion job per enabled entry of cfg.Jobs. Each job gets
// its own database handle, cache store and HTTP fetcher.
func New(ctx context.Context, cfg *config.Config, deps *Dependencies, logger *slog.Logger) (*App, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%w: %d", dispatch.ErrInvalidWorkers, cfg.Workers)
	}
	a := &App{
		Dispatcher:  dispatch.New(cfg.Workers, logger),
		Metrics:     metrics.New(),
		pushgateway: cfg.PushgatewayURL,
		logger:      logger,
	}

	if cfg.Enabled(config.JobCrime) {
		db, err := openStore(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.stores = append(a.stores, db)
		f := newFetcher(cfg, fetch.WithObserver(a.Metrics))
		a.Jobs = append(a.Jobs, crime.NewService(crime.NewSQLRepo(db), cache.NewStore(db), f, cfg.CrimeBaseURL, cfg.CrimeAPIKey, logger))
	}

	if cfg.Enabled(config.JobWeather) {
		db, err := openStore(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.stores = append(a.stores, db)
		f := newFetcher(cfg, fetch.WithObserver(a.Metrics), fetch.WithRateLimit(cfg.WeatherRateLimit, 1))
		a.Jobs = append(a.Jobs, weather.NewService(weather.NewSQLRepo(db), cache.NewStore(db), f, cfg.WeatherBaseURL, cfg.WeatherAPIKey, logger))
	}

	// Feature: Job results
	var pub job.EventPublisher
	if deps.NSQProducer != nil {
		pub = deps.NSQProducer
	}
	a.JobService = job.NewService(job.NewSQLRepo(deps.DB), pub, logger)

	a.Reporter = report.Fanout{
		report.Log{Logger: logger},
		report.ReporterFunc(a.JobService.Record),
		a.Metrics,
	}
	return a, nil
}

func newFetcher(cfg *config.Config, opts ...fetch.Option) *fetch.Fetcher {
	opts = append([]fetch.Option{
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithUserAgent(cfg.UserAgent),
	}, opts...)
	return fetch.New(fetch.NewClient(cfg.HTTPTimeout), opts...)
}

// Run resets every job's tables, dispatches the jobs once over scope and
// reports the results. The returned error covers the run itself (bad
// setup or a crashed worker); job failures are only in the results.
func (a *App) Run(ctx context.Context, scope []string, limit int) (string, dispatch.Results, error) {
	runID := uuid.NewString()
	a.logger.InfoContext(ctx, "run starting", "run_id", runID, "jobs", len(a.Jobs), "scope", len(scope), "limit", limit)

	jobs := make([]dispatch.Job, 0, len(a.Jobs))
	for _, j := range a.Jobs {
		if err := j.Reset(ctx); err != nil {
			return runID, nil, fmt.Errorf("reset %s: %w", dispatch.NameOf(j), err)
		}
		jobs = append(jobs, j)
	}

	results, runErr := a.Dispatcher.Run(ctx, jobs, scope, limit)
	if err := a.Reporter.Report(ctx, runID, results); err != nil {
		a.logger.WarnContext(ctx, "failed to report results", "run_id", runID, "error", err)
	}
	if a.pushgateway != "" {
		if err := a.Metrics.Push(ctx, a.pushgateway, runID); err != nil {
			a.logger.WarnContext(ctx, "failed to push metrics", "run_id", runID, "error", err)
		}
	}
	return runID, results, runErr
}

// Close releases the per-job database handles.
func (a *App) Close() {
	for _, db := range a.stores {
		db.Close()
	}
	a.stores = nil
}
