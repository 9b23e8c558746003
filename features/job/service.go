package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"topo/ingest/internal/config"
	"topo/ingest/internal/dispatch"
)

var ErrPublishTimeout = errors.New("timeout waiting for NSQ publish")

const defaultPublishTimeout = 5 * time.Second

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo           Repository
	pub            EventPublisher
	logger         *slog.Logger
	publishTimeout time.Duration
}

// NewService records results in repo. pub may be nil when no message bus is
// configured.
func NewService(repo Repository, pub EventPublisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, pub: pub, logger: logger, publishTimeout: defaultPublishTimeout}
}

// Record stores every result of a run and announces each one on
// config.TopicIngestResult. A failure on one result does not stop the rest.
func (s *Service) Record(ctx context.Context, runID string, results dispatch.Results) error {
	var errs *multierror.Error
	for _, r := range results {
		j := FromResult(runID, r)
		if err := s.repo.Save(ctx, &j); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("save result %s#%d: %w", j.Name, j.Position, err))
			continue
		}
		if err := s.publish(ctx, j); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("publish result %s#%d: %w", j.Name, j.Position, err))
		}
	}
	return errs.ErrorOrNil()
}

func (s *Service) List(ctx context.Context, runID string) ([]Job, error) {
	return s.repo.ListByRun(ctx, runID)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) publish(ctx context.Context, j Job) error {
	if s.pub == nil {
		return nil
	}
	body, err := json.Marshal(j)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.pub.Publish(config.TopicIngestResult, body)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(s.publishTimeout):
		s.logger.WarnContext(ctx, "publish timed out", "job", j.Name, "topic", config.TopicIngestResult)
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
