package content

import (
	"time"

	"contenthub/internal/render"
)

const (
	CollectionContent       = "content"
	CollectionTools         = "tools"
	CollectionDomains       = "domains"
	CollectionIngestionLogs = "ingestion-logs"
	CollectionAPIKeys       = "api-keys"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Unique indexes on the content collection.
const (
	SlugConstraint      = "content_slug_key"
	SourceKeyConstraint = "content_source_key"
)

type Source struct {
	Type         string    `json:"type"`
	ExternalID   string    `json:"externalId,omitempty"`
	URL          string    `json:"url,omitempty"`
	LastSyncedAt time.Time `json:"lastSyncedAt"`
}

type AIEnrichment struct {
	QualityScore     float64   `json:"qualityScore"`
	AutoTags         []string  `json:"autoTags"`
	AutoSummary      string    `json:"autoSummary,omitempty"`
	DetectedLanguage string    `json:"detectedLanguage,omitempty"`
	EnrichedAt       time.Time `json:"enrichedAt"`
}

// Content is a persisted content record.
type Content struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Type        string        `json:"type"`
	Status      string        `json:"status"`
	Summary     string        `json:"summary"`
	Body        render.Body   `json:"body"`
	Domains     []string      `json:"domains"`
	Tools       []string      `json:"tools"`
	Concepts    []string      `json:"concepts"`
	Language    string        `json:"language"`
	ReadingTime int           `json:"readingTime"`
	Source      Source        `json:"source"`
	AI          *AIEnrichment `json:"ai,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
