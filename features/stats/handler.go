package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"contenthub/internal/content"
	"contenthub/internal/docstore"
	"contenthub/internal/ingestion"
	"contenthub/internal/middleware"
)

type Counter interface {
	Count(ctx context.Context, collection string, where docstore.Where) (int, error)
}

type Handler struct {
	counter Counter
}

func NewHandler(c Counter) *Handler {
	return &Handler{counter: c}
}

type StatsResponse struct {
	Content             int `json:"content"`
	IngestionLogs       int `json:"ingestion_logs"`
	FailedIngestions    int `json:"failed_ingestions"`
	DuplicateIngestions int `json:"duplicate_ingestions"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	var resp StatsResponse
	counts := []struct {
		label      string
		collection string
		where      docstore.Where
		dst        *int
	}{
		{"content", content.CollectionContent, nil, &resp.Content},
		{"ingestion logs", content.CollectionIngestionLogs, nil, &resp.IngestionLogs},
		{"failed ingestions", content.CollectionIngestionLogs, docstore.Eq("status", string(ingestion.StatusFailed)), &resp.FailedIngestions},
		{"duplicate ingestions", content.CollectionIngestionLogs, docstore.Eq("status", string(ingestion.StatusDuplicate)), &resp.DuplicateIngestions},
	}

	for _, c := range counts {
		n, err := h.counter.Count(ctx, c.collection, c.where)
		if err != nil {
			slog.ErrorContext(ctx, "failed to count "+c.label, "error", err, "correlationId", correlationID)
			h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count "+c.label, http.StatusInternalServerError)
			return
		}
		*c.dst = n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
