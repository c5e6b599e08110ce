package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"contenthub/internal/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetSettings returns the effective settings with secrets masked.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := h.svc.Get(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read settings", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to read settings", http.StatusInternalServerError)
		return
	}
	h.writeData(w, http.StatusOK, s.Masked())
}

// UpdateSettings stores the body and answers with the effective settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var s Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(ctx, w, "PAYLOAD_TOO_LARGE", "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(ctx, w, "VALIDATION_ERROR", "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.svc.Update(ctx, &s); err != nil {
		if errors.Is(err, ErrInvalid) {
			h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(ctx, "failed to update settings", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to update settings", http.StatusInternalServerError)
		return
	}
	slog.InfoContext(ctx, "settings updated", "provider", s.GeneratorProvider, "correlationId", middleware.GetCorrelationID(ctx))

	current, err := h.svc.Get(ctx)
	if err != nil {
		// stored, but the read-back failed
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeData(w, http.StatusOK, current.Masked())
}

func (h *Handler) writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	_ = json.NewEncoder(w).Encode(resp)
}
