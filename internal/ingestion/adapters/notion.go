package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contenthub/internal/adapter/notion"
	"contenthub/internal/ingestion"
	"contenthub/internal/taxonomy"
)

const defaultCategory = "article"

// NotionReader reads page content. *notion.Client implements it.
type NotionReader interface {
	notion.BlockReader
	Configured(ctx context.Context) bool
}

type notionWebhook struct {
	Data *struct {
		ID         string            `json:"id"`
		PageID     string            `json:"page_id"`
		Properties notion.Properties `json:"properties"`
	} `json:"data"`
}

type Notion struct {
	reader          NotionReader
	taxonomy        *taxonomy.Service
	defaultLanguage string
}

func NewNotion(reader NotionReader, tax *taxonomy.Service, defaultLanguage string) *Notion {
	return &Notion{reader: reader, taxonomy: tax, defaultLanguage: defaultLanguage}
}

func (a *Notion) Name() string { return NameNotion }

func (a *Notion) Extract(ctx context.Context, payload json.RawMessage) (*ingestion.Record, error) {
	var hook notionWebhook
	if err := decodeObject(NameNotion, payload, &hook); err != nil {
		return nil, err
	}
	if hook.Data == nil || hook.Data.Properties == nil {
		return nil, ingestion.NewExtractionError(NameNotion, "missing data.properties", nil)
	}

	props := hook.Data.Properties
	pageID := hook.Data.ID
	if pageID == "" {
		pageID = hook.Data.PageID
	}

	title := strings.TrimSpace(props.First("Title", "Name", "title").Text())
	summary := strings.TrimSpace(props.First("Summary", "summary").Text())

	category, ok := a.taxonomy.CategoryFromLabel(props.First("Type", "type").SelectName())
	if !ok {
		category = defaultCategory
	}

	var warnings []string
	var domains []string
	for _, label := range props.First("Domain", "domain", "Domains").Names() {
		slug, ok := a.taxonomy.DomainFromLabel(label)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("notion domain %q has no mapping", label))
			continue
		}
		domains = append(domains, slug)
	}

	markdown := summary
	if pageID != "" && a.reader != nil && a.reader.Configured(ctx) {
		body, err := notion.ToMarkdown(ctx, a.reader, pageID)
		if err != nil {
			return nil, fmt.Errorf("fetch notion page %s: %w", pageID, err)
		}
		if strings.TrimSpace(body) != "" {
			markdown = body
		}
	}
	if markdown == "" {
		markdown = title
	}
	if summary == "" {
		summary = title
	}

	r := &ingestion.Record{
		Title:      title,
		Markdown:   markdown,
		Type:       category,
		Summary:    summary,
		Domain:     domains,
		Tools:      taxonomy.NormalizeSlugs(props.First("Tools", "tools").Names()),
		Concepts:   props.First("Concepts", "Tags", "concepts").Names(),
		Language:   a.language(props.First("Language", "language").SelectName()),
		ExternalID: pageID,
		Metadata:   ingestion.Metadata{Warnings: warnings},
	}
	if pageID != "" {
		r.SourceURL = "https://notion.so/" + strings.ReplaceAll(pageID, "-", "")
	}
	return r, nil
}

func (a *Notion) language(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "en", "english":
		return "en"
	}
	return a.defaultLanguage
}

func (a *Notion) Validate(r *ingestion.Record) ingestion.ValidationResult {
	var errs []string
	if blank(r.Title) {
		errs = append(errs, "No title found in Notion page")
	}
	if blank(r.Markdown) {
		errs = append(errs, "No content found in Notion page")
	}
	return ingestion.Validation(errs)
}
