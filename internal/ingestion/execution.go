package ingestion

import (
	"time"

	"contenthub/internal/content"
	"contenthub/internal/docstore"
	"contenthub/internal/render"
)

// Execution is the per-run context handed from stage to stage. Each stage
// attaches the artifacts it owns and leaves earlier ones untouched.
type Execution struct {
	Raw       *Record
	Store     docstore.Store
	LogID     string
	StartedAt time.Time

	// deduplicate
	ExistingID   string
	ExistingSlug string

	// transform
	Slug        string
	Body        *render.Body
	ReadingTime int

	// resolve-relations
	ToolIDs     []string
	DomainIDs   []string
	DomainSlugs []string

	// persist
	Content *content.Content
	Action  string

	// log
	ProcessingTimeMs int64

	Timings  []StepTiming
	Warnings []string
}

func (e *Execution) warn(msg string) {
	e.Warnings = append(e.Warnings, msg)
}
