package ingestion

import (
	"context"
	"fmt"
	"time"

	"contenthub/internal/content"
)

type logStage struct {
	now func() time.Time
}

func (s *logStage) Name() string { return "log" }

// Run writes the terminal success entry. It is the only stage that touches
// the ingestion log.
func (s *logStage) Run(ctx context.Context, ex *Execution) error {
	ex.ProcessingTimeMs = s.now().Sub(ex.StartedAt).Milliseconds()

	steps := make([]StepTiming, len(ex.Timings))
	copy(steps, ex.Timings)

	_, err := ex.Store.Update(ctx, content.CollectionIngestionLogs, ex.LogID, map[string]any{
		"status":           StatusSuccess,
		"content":          ex.Content.ID,
		"processingTimeMs": ex.ProcessingTimeMs,
		"pipelineLog": Trace{
			Steps:    steps,
			Action:   ex.Action,
			Warnings: ex.Warnings,
		},
	})
	if err != nil {
		return fmt.Errorf("finalize ingestion log %s: %w", ex.LogID, err)
	}
	return nil
}
