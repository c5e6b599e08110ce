package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"contenthub/internal/docstore"
	"contenthub/internal/generator"
	"contenthub/internal/ingestion"
	"contenthub/internal/ingestion/adapters"
	"contenthub/internal/middleware"
	"contenthub/internal/taxonomy"
)

type Runner interface {
	Execute(ctx context.Context, adapter ingestion.Adapter, raw json.RawMessage, store docstore.Store, opts ...ingestion.ExecuteOption) ingestion.Result
}

// ingestRequest is the shape checked before a direct ingest reaches the
// pipeline. A browser clip carrying html may omit the text fields.
type ingestRequest struct {
	Source  string `json:"source" validate:"required"`
	Title   string `json:"title" validate:"required_without=HTML"`
	Body    string `json:"body" validate:"required_without=HTML"`
	Type    string `json:"type" validate:"required"`
	Summary string `json:"summary" validate:"required_without=HTML"`
	HTML    string `json:"html"`
}

type generateRequest struct {
	RawText  string `json:"raw_text" validate:"nonblank"`
	Type     string `json:"type" validate:"category"`
	Language string `json:"language" validate:"omitempty,len=2,lowercase"`
}

type Handler struct {
	pipeline Runner
	store    docstore.Store
	registry *adapters.Registry
	aiGen    ingestion.Adapter
	notion   ingestion.Adapter
	taxonomy *taxonomy.Service
	validate *validator.Validate
}

func NewHandler(p Runner, store docstore.Store, registry *adapters.Registry, tax *taxonomy.Service) *Handler {
	h := &Handler{
		pipeline: p,
		store:    store,
		registry: registry,
		taxonomy: tax,
		validate: ingestion.NewRecordValidator(tax),
	}
	h.aiGen, _ = registry.Resolve(adapters.NameAIGenerate, nil)
	h.notion, _ = registry.Resolve(adapters.NameNotion, nil)
	return h
}

// SourceLabels are the source values accepted by the direct ingest endpoint.
func SourceLabels() []string {
	return append([]string{adapters.NameAPI}, adapters.GenericLabels...)
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	raw, ok := h.readBody(ctx, w, r)
	if !ok {
		return
	}

	var req ingestRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "Invalid JSON body", http.StatusBadRequest, "")
		return
	}
	if missing := h.missingFields(req); len(missing) > 0 {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Missing required fields: "+strings.Join(missing, ", "), http.StatusBadRequest, "")
		return
	}
	if !isSourceLabel(req.Source) {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Invalid source. Must be one of: "+strings.Join(SourceLabels(), ", "), http.StatusBadRequest, "")
		return
	}

	adapter, ok := h.registry.Resolve(req.Source, raw)
	if !ok {
		h.writeError(ctx, w, "VALIDATION_ERROR", fmt.Sprintf("No adapter for source %q", req.Source), http.StatusBadRequest, "")
		return
	}

	slog.InfoContext(ctx, "ingesting content", "source", req.Source, "adapter", adapter.Name(), "correlationId", correlationID)
	h.respond(ctx, w, h.pipeline.Execute(ctx, adapter, raw, h.store))
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	if h.aiGen == nil {
		h.writeError(ctx, w, "NOT_CONFIGURED", "AI generation is not available", http.StatusServiceUnavailable, "")
		return
	}

	raw, ok := h.readBody(ctx, w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "Invalid JSON body", http.StatusBadRequest, "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", h.generateMessage(err), http.StatusBadRequest, "")
		return
	}

	slog.InfoContext(ctx, "generating content", "type", req.Type, "correlationId", correlationID)
	h.respond(ctx, w, h.pipeline.Execute(ctx, h.aiGen, raw, h.store))
}

func (h *Handler) NotionWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	if h.notion == nil {
		h.writeError(ctx, w, "NOT_CONFIGURED", "Notion ingestion is not available", http.StatusServiceUnavailable, "")
		return
	}

	raw, ok := h.readBody(ctx, w, r)
	if !ok {
		return
	}
	if !json.Valid(raw) {
		h.writeError(ctx, w, "BAD_REQUEST", "Invalid JSON body", http.StatusBadRequest, "")
		return
	}

	slog.InfoContext(ctx, "notion webhook received", "bytes", len(raw), "correlationId", correlationID)
	h.respond(ctx, w, h.pipeline.Execute(ctx, h.notion, raw, h.store))
}

func (h *Handler) readBody(ctx context.Context, w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(ctx, w, "PAYLOAD_TOO_LARGE", "Request body too large", http.StatusRequestEntityTooLarge, "")
			return nil, false
		}
		h.writeError(ctx, w, "BAD_REQUEST", "Failed to read request body", http.StatusBadRequest, "")
		return nil, false
	}
	return raw, true
}

func (h *Handler) missingFields(req ingestRequest) []string {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, fe.Field())
	}
	return missing
}

func (h *Handler) generateMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "raw_text":
			msgs = append(msgs, "raw_text is required")
		case "type":
			msgs = append(msgs, "type must be one of: "+strings.Join(h.taxonomy.CategorySlugs(), ", "))
		default:
			msgs = append(msgs, fe.Field()+" must be a two-letter lowercase language code")
		}
	}
	return strings.Join(msgs, "; ")
}

// respond maps a pipeline result onto the HTTP contract.
func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, res ingestion.Result) {
	switch {
	case res.Success:
		h.writeJSON(ctx, w, http.StatusCreated, res)
	case res.Duplicate || ingestion.IsDuplicate(res.Err):
		h.writeJSON(ctx, w, http.StatusOK, map[string]interface{}{
			"success":   false,
			"duplicate": true,
			"logId":     res.LogID,
			"message":   res.Error,
		})
	case generator.IsNotConfigured(res.Err):
		h.writeError(ctx, w, "NOT_CONFIGURED", res.Error, http.StatusServiceUnavailable, res.LogID)
	case ingestion.IsInputError(res.Err):
		h.writeError(ctx, w, "VALIDATION_ERROR", res.Error, http.StatusBadRequest, res.LogID)
	default:
		slog.ErrorContext(ctx, "ingestion failed", "logId", res.LogID, "error", res.Err, "correlationId", middleware.GetCorrelationID(ctx))
		h.writeError(ctx, w, "INTERNAL_ERROR", res.Error, http.StatusInternalServerError, res.LogID)
	}
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int, logID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}
	if logID != "" {
		resp["logId"] = logID
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func isSourceLabel(s string) bool {
	for _, l := range SourceLabels() {
		if l == s {
			return true
		}
	}
	return false
}
