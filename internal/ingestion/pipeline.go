// Package ingestion turns origin payloads into persisted content through a
// fixed sequence of stages and records every attempt in the ingestion log.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"contenthub/internal/content"
	"contenthub/internal/docstore"
	"contenthub/internal/render"
	"contenthub/internal/taxonomy"
)

// Stage is one step of the pipeline. Stages run in a fixed order and any
// error aborts the run.
type Stage interface {
	Name() string
	Run(ctx context.Context, ex *Execution) error
}

type Deps struct {
	Taxonomy        *taxonomy.Service
	Renderer        *render.Renderer
	DefaultLanguage string
	Now             func() time.Time
}

type Pipeline struct {
	stages []Stage
	now    func() time.Time
}

func NewPipeline(deps Deps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = render.NewRenderer()
	}
	return &Pipeline{
		now: now,
		stages: []Stage{
			newValidateStage(deps.Taxonomy),
			deduplicateStage{},
			&transformStage{taxonomy: deps.Taxonomy, renderer: renderer, now: now},
			&relationsStage{taxonomy: deps.Taxonomy},
			&persistStage{defaultLanguage: deps.DefaultLanguage, now: now},
			&logStage{now: now},
		},
	}
}

// StageNames lists the stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

type Result struct {
	Success   bool             `json:"success"`
	Content   *content.Content `json:"content,omitempty"`
	LogID     string           `json:"logId,omitempty"`
	Action    string           `json:"action,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Duplicate bool             `json:"duplicate,omitempty"`
	Error     string           `json:"error,omitempty"`
	// Err is the original failure, kept for classification by callers.
	Err error `json:"-"`
}

type executeOptions struct {
	replayOf string
}

type ExecuteOption func(*executeOptions)

// WithReplayOf links the new log entry to the entry being replayed.
func WithReplayOf(logID string) ExecuteOption {
	return func(o *executeOptions) { o.replayOf = logID }
}

// Execute runs one ingestion attempt. It never returns an error: failures
// are reported in the Result and in the ingestion log, which always ends in
// a terminal state when its creation succeeded.
func (p *Pipeline) Execute(ctx context.Context, adapter Adapter, raw json.RawMessage, store docstore.Store, opts ...ExecuteOption) Result {
	var o executeOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Once started, a run completes regardless of the caller.
	ctx = context.WithoutCancel(ctx)
	start := p.now()
	source := adapter.Name()

	entry := map[string]any{
		"sourceType": source,
		"status":     StatusReceived,
		"rawPayload": rawValue(raw),
	}
	if o.replayOf != "" {
		entry["replayOf"] = o.replayOf
	}
	logDoc, err := store.Create(ctx, content.CollectionIngestionLogs, entry)
	if err != nil {
		err = fmt.Errorf("create ingestion log: %w", err)
		slog.ErrorContext(ctx, "ingestion log unavailable", "source", source, "error", err)
		return Result{Err: err, Error: err.Error()}
	}
	logID := logDoc.ID

	ex, stage, err := p.run(ctx, adapter, raw, store, logID, start)
	if err != nil {
		return p.fail(ctx, store, logID, source, stage, start, ex, err)
	}

	slog.InfoContext(ctx, "content ingested",
		"source", source,
		"logId", logID,
		"contentId", ex.Content.ID,
		"action", ex.Action,
		"durationMs", ex.ProcessingTimeMs,
	)
	return Result{
		Success:  true,
		Content:  ex.Content,
		LogID:    logID,
		Action:   ex.Action,
		Warnings: ex.Warnings,
	}
}

// run returns the name of the failing step alongside the error.
func (p *Pipeline) run(ctx context.Context, adapter Adapter, raw json.RawMessage, store docstore.Store, logID string, start time.Time) (*Execution, string, error) {
	record, err := adapter.Extract(ctx, raw)
	if err != nil {
		return nil, "extract", err
	}

	if _, err := store.Update(ctx, content.CollectionIngestionLogs, logID, map[string]any{
		"status":       StatusProcessing,
		"contentTitle": record.Title,
		"externalId":   record.ExternalID,
	}); err != nil {
		return nil, "extract", fmt.Errorf("update ingestion log %s: %w", logID, err)
	}

	if v := adapter.Validate(record); !v.Valid {
		return nil, "adapter-validate", &ValidationError{Prefix: "Adapter validation failed", Violations: v.Errors}
	}

	record.Metadata.SourceType = adapter.Name()
	ex := &Execution{
		Raw:       record,
		Store:     store,
		LogID:     logID,
		StartedAt: start,
		Warnings:  append([]string(nil), record.Metadata.Warnings...),
	}

	for _, stage := range p.stages {
		stageStart := p.now()
		if err := stage.Run(ctx, ex); err != nil {
			return ex, stage.Name(), err
		}
		ex.Timings = append(ex.Timings, StepTiming{
			Step:       stage.Name(),
			DurationMs: p.now().Sub(stageStart).Milliseconds(),
			Result:     "ok",
		})
	}
	return ex, "", nil
}

func (p *Pipeline) fail(ctx context.Context, store docstore.Store, logID, source, stage string, start time.Time, ex *Execution, cause error) Result {
	status := StatusFailed
	if IsDuplicate(cause) {
		status = StatusDuplicate
	}

	update := map[string]any{
		"status":           status,
		"error":            cause.Error(),
		"processingTimeMs": p.now().Sub(start).Milliseconds(),
	}
	if stage != "" {
		update["failedStage"] = stage
	}
	if ex != nil && len(ex.Timings) > 0 {
		update["pipelineLog"] = Trace{Steps: ex.Timings, Warnings: ex.Warnings}
	}
	if _, err := store.Update(ctx, content.CollectionIngestionLogs, logID, update); err != nil {
		slog.ErrorContext(ctx, "failed to finalize ingestion log", "logId", logID, "error", err)
	}

	if status == StatusDuplicate {
		slog.InfoContext(ctx, "duplicate content skipped", "source", source, "logId", logID)
	} else {
		slog.WarnContext(ctx, "ingestion failed", "source", source, "logId", logID, "stage", stage, "error", cause)
	}

	return Result{
		Success:   false,
		LogID:     logID,
		Duplicate: status == StatusDuplicate,
		Err:       cause,
		Error:     cause.Error(),
	}
}
