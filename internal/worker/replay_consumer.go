package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"contenthub/internal/docstore"
	"contenthub/internal/ingestion"
	"contenthub/internal/middleware"
)

type Runner interface {
	Execute(ctx context.Context, adapter ingestion.Adapter, raw json.RawMessage, store docstore.Store, opts ...ingestion.ExecuteOption) ingestion.Result
}

type AdapterResolver interface {
	Resolve(source string, payload json.RawMessage) (ingestion.Adapter, bool)
}

// ReplayConsumer re-runs logged payloads through the pipeline. Each message
// is attempted once: the new log entry records the outcome, so failures are
// acknowledged rather than requeued.
type ReplayConsumer struct {
	pipeline Runner
	adapters AdapterResolver
	store    docstore.Store
}

func NewReplayConsumer(p Runner, adapters AdapterResolver, store docstore.Store) *ReplayConsumer {
	return &ReplayConsumer{pipeline: p, adapters: adapters, store: store}
}

func (h *ReplayConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload ReplayPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	if len(payload.Payload) == 0 {
		slog.WarnContext(ctx, "replay message without payload", "logId", payload.LogID)
		return nil
	}

	adapter, ok := h.adapters.Resolve(payload.SourceType, payload.Payload)
	if !ok {
		slog.WarnContext(ctx, "replay for unknown source type dropped", "sourceType", payload.SourceType, "logId", payload.LogID)
		return nil
	}

	res := h.pipeline.Execute(ctx, adapter, payload.Payload, h.store, ingestion.WithReplayOf(payload.LogID))
	if res.Success {
		slog.InfoContext(ctx, "replay succeeded", "replayOf", payload.LogID, "logId", res.LogID, "action", res.Action)
	} else {
		slog.WarnContext(ctx, "replay did not succeed", "replayOf", payload.LogID, "logId", res.LogID, "duplicate", res.Duplicate, "error", res.Error)
	}
	return nil
}
