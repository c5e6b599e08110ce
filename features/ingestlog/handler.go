package ingestlog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"contenthub/internal/docstore"
	"contenthub/internal/ingestion"
	"contenthub/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	q := r.URL.Query()
	f := Filter{Status: q.Get("status")}
	if f.Status != "" && !ingestion.LogStatus(f.Status).Valid() {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Unknown status "+strconv.Quote(f.Status), http.StatusBadRequest)
		return
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	slog.InfoContext(ctx, "listing ingestion logs", "status", f.Status, "page", f.Page, "correlationId", correlationID)

	page, err := h.service.List(ctx, f)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list ingestion logs", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"data": page.Entries,
		"meta": map[string]interface{}{
			"count":       len(page.Entries),
			"totalDocs":   page.TotalDocs,
			"page":        page.Page,
			"hasNextPage": page.HasNextPage,
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)
	id := r.PathValue("id")

	entry, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			h.writeError(ctx, w, "NOT_FOUND", "Ingestion log not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to get ingestion log", "id", id, "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": entry}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)
	id := r.PathValue("id")

	slog.InfoContext(ctx, "replaying ingestion", "id", id, "correlationId", correlationID)

	if err := h.service.Replay(ctx, id); err != nil {
		slog.ErrorContext(ctx, "failed to replay ingestion", "id", id, "error", err, "correlationId", correlationID)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			h.writeError(ctx, w, "NOT_FOUND", "Ingestion log not found", http.StatusNotFound)
		case errors.Is(err, ErrNotReplayable):
			h.writeError(ctx, w, "CONFLICT", err.Error(), http.StatusConflict)
		default:
			h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": "replay queued"}); err != nil {
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
