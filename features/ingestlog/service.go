package ingestlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contenthub/internal/config"
	"contenthub/internal/ingestion"
	"contenthub/internal/middleware"
	"contenthub/internal/worker"
)

// ErrNotReplayable is returned for entries still in flight or without a
// stored payload.
var ErrNotReplayable = errors.New("ingestion log entry cannot be replayed")

const defaultPublishTimeout = 5 * time.Second

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo           Repository
	pub            EventPublisher
	publishTimeout time.Duration
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub, publishTimeout: defaultPublishTimeout}
}

func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*ingestion.LogEntry, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Count(ctx context.Context, status string) (int, error) {
	return s.repo.Count(ctx, status)
}

// Replay queues the entry's raw payload for another pipeline run.
func (s *Service) Replay(ctx context.Context, id string) error {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !entry.Status.Terminal() || len(entry.RawPayload) == 0 {
		return fmt.Errorf("%w: status %s", ErrNotReplayable, entry.Status)
	}

	body, err := json.Marshal(worker.ReplayPayload{
		LogID:         entry.ID,
		SourceType:    entry.SourceType,
		Payload:       entry.RawPayload,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return fmt.Errorf("encode replay message: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.pub.Publish(config.TopicIngestReplay, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("publish replay: %w", err)
		}
	case <-time.After(s.publishTimeout):
		return errors.New("timeout waiting for NSQ publish")
	}

	slog.InfoContext(ctx, "replay queued", "logId", entry.ID, "sourceType", entry.SourceType)
	return nil
}
