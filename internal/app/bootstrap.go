package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"topo/ingest/internal/config"
	"topo/ingest/internal/storage"
)

type Dependencies struct {
	// DB holds the shared schema: api_cache and job_results.
	DB *storage.DB
	// NSQProducer is nil when no nsqd is configured.
	NSQProducer *nsq.Producer
}

func (d *Dependencies) Close() {
	if d.NSQProducer != nil {
		d.NSQProducer.Stop()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Database
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Migrations
	if err := storage.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}

	if cfg.CacheReset {
		if err := storage.ResetCache(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to reset cache: %w", err)
		}
		slog.InfoContext(ctx, "response cache cleared")
	}

	deps := &Dependencies{DB: db}

	// NSQ Producer
	if cfg.NSQDHost != "" {
		producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("nsq producer error: %w", err)
		}
		deps.NSQProducer = producer
	}

	return deps, nil
}

// openStore opens a handle on cfg.DatabaseURL and waits for it to answer.
// Every job opens its own handle through here.
func openStore(ctx context.Context, cfg *config.Config) (*storage.DB, error) {
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	if err := storage.PingWithRetry(ctx, db, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return db, nil
}
