package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"contenthub/internal/ingestion"
)

const maxClipSummary = 160

// ClipPayload is a browser clip: the direct fields plus the captured page.
type ClipPayload struct {
	DirectPayload
	HTML string `json:"html"`
	URL  string `json:"url,omitempty"`
}

// Clip converts captured HTML pages. Explicit payload fields win over
// values read from the page.
type Clip struct{}

func NewClip() *Clip {
	return &Clip{}
}

func (a *Clip) Name() string { return NameBrowser }

func (a *Clip) Extract(_ context.Context, payload json.RawMessage) (*ingestion.Record, error) {
	var p ClipPayload
	if err := decodeObject(NameBrowser, payload, &p); err != nil {
		return nil, err
	}
	if blank(p.HTML) {
		return nil, ingestion.NewExtractionError(NameBrowser, "html is required", nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	if err != nil {
		return nil, ingestion.NewExtractionError(NameBrowser, "failed to parse HTML", err)
	}

	page := doc.Find("article").First()
	if page.Length() == 0 {
		page = doc.Find("body").First()
	}
	page.Find("script, style, noscript, nav, footer, iframe").Remove()

	body := p.Body
	if blank(body) {
		inner, err := page.Html()
		if err != nil {
			return nil, ingestion.NewExtractionError(NameBrowser, "failed to read page content", err)
		}
		converted, err := md.NewConverter(p.URL, true, nil).ConvertString(inner)
		if err != nil {
			return nil, fmt.Errorf("convert clipped page: %w", err)
		}
		body = strings.TrimSpace(converted)
	}

	sourceURL := p.SourceURL
	if sourceURL == "" {
		if canonical, ok := doc.Find("link[rel='canonical']").Attr("href"); ok && canonical != "" {
			sourceURL = strings.TrimSpace(canonical)
		} else {
			sourceURL = p.URL
		}
	}
	externalID := p.ExternalID
	if externalID == "" {
		externalID = sourceURL
	}

	return &ingestion.Record{
		Title:      firstNonBlank(p.Title, metaContent(doc, "meta[property='og:title']"), doc.Find("title").First().Text(), page.Find("h1").First().Text()),
		Markdown:   body,
		Type:       p.Type,
		Summary:    firstNonBlank(p.Summary, metaContent(doc, "meta[name='description']"), metaContent(doc, "meta[property='og:description']"), truncate(page.Find("p").First().Text(), maxClipSummary)),
		Domain:     p.Domain,
		Tools:      p.Tools,
		Concepts:   p.Concepts,
		Language:   p.Language,
		ExternalID: externalID,
		SourceURL:  sourceURL,
	}, nil
}

func (a *Clip) Validate(r *ingestion.Record) ingestion.ValidationResult {
	var errs []string
	if blank(r.Title) {
		errs = append(errs, "title is required")
	}
	if blank(r.Markdown) {
		errs = append(errs, "page has no readable content")
	}
	if blank(r.Type) {
		errs = append(errs, "type is required")
	}
	return ingestion.Validation(errs)
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return v
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max-1])) + "…"
}
