package ingest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"contenthub/features/ingest"
	"contenthub/internal/content"
	"contenthub/internal/docstore"
	"contenthub/internal/generator"
	"contenthub/internal/ingestion"
	"contenthub/internal/ingestion/adapters"
	"contenthub/internal/render"
	"contenthub/internal/taxonomy"
)

type fakeGenerator struct {
	draft *generator.Draft
	err   error
}

func (f *fakeGenerator) Generate(context.Context, generator.Request) (*generator.Draft, error) {
	return f.draft, f.err
}

type fixture struct {
	handler *ingest.Handler
	store   *docstore.MemoryStore
	gen     *fakeGenerator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := taxonomy.DefaultCatalog()
	require.NoError(t, err)
	tax := taxonomy.NewService(cat)

	store := docstore.NewMemoryStore()
	_, err = tax.Seed(context.Background(), store)
	require.NoError(t, err)

	gen := &fakeGenerator{}
	registry := adapters.NewRegistry(
		adapters.NewAPI(),
		adapters.NewNotion(nil, tax, "fr"),
		adapters.NewAI(gen, tax, "fr"),
	)
	p := ingestion.NewPipeline(ingestion.Deps{Taxonomy: tax, Renderer: render.NewRenderer(), DefaultLanguage: "fr"})

	return &fixture{handler: ingest.NewHandler(p, store, registry, tax), store: store, gen: gen}
}

func post(h http.HandlerFunc, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func errorCode(body map[string]interface{}) string {
	errObj, _ := body["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

const directBody = `{"source":"cli","title":"Go generics","body":"# Generics\n\nType parameters.","type":"article","summary":"Notes","externalId":"note-1","tools":["Docker"]}`

func TestIngest_Created(t *testing.T) {
	f := newFixture(t)

	w, body := post(f.handler.Ingest, "/api/content/ingest", directBody)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "created", body["action"])
	assert.NotEmpty(t, body["logId"])
	c := body["content"].(map[string]interface{})
	assert.Equal(t, "go-generics", c["slug"])
	assert.Equal(t, "cli", c["source"].(map[string]interface{})["type"])
}

func TestIngest_RedeliveryUpdates(t *testing.T) {
	f := newFixture(t)

	w, _ := post(f.handler.Ingest, "/api/content/ingest", directBody)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := post(f.handler.Ingest, "/api/content/ingest", directBody)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "updated", body["action"])

	n, err := f.store.Count(context.Background(), content.CollectionContent, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngest_RejectsBeforePipeline(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed json", `{"source":`, "Invalid JSON body"},
		{"missing fields", `{"source":"cli","type":"article"}`, "Missing required fields: title, body, summary"},
		{"missing source", `{"title":"T","body":"B","type":"article","summary":"S"}`, "Missing required fields: source"},
		{"unknown source", `{"source":"fax","title":"T","body":"B","type":"article","summary":"S"}`, "Invalid source. Must be one of: api, cli, slack, browser, meeting, manual"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w, body := post(f.handler.Ingest, "/api/content/ingest", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, body["error"].(map[string]interface{})["message"])
			assert.Nil(t, body["logId"])

			n, err := f.store.Count(context.Background(), content.CollectionIngestionLogs, nil)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestIngest_PipelineValidationIs400WithLogID(t *testing.T) {
	f := newFixture(t)

	w, body := post(f.handler.Ingest, "/api/content/ingest",
		`{"source":"manual","title":"T","body":"B","type":"poem","summary":"S"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
	assert.NotEmpty(t, body["logId"])
	assert.Contains(t, body["error"].(map[string]interface{})["message"], "type must be one of")
}

func TestIngest_BrowserClip(t *testing.T) {
	f := newFixture(t)
	page := `<html><head><title>Clipped page</title><meta name="description" content="A page"></head>` +
		`<body><nav>menu</nav><article><h1>Clipped</h1><p>Body text here.</p></article></body></html>`
	payload, err := json.Marshal(map[string]string{"source": "browser", "type": "article", "html": page, "url": "https://example.com/a"})
	require.NoError(t, err)

	w, body := post(f.handler.Ingest, "/api/content/ingest", string(payload))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := body["content"].(map[string]interface{})
	assert.Equal(t, "Clipped page", c["title"])
	assert.Equal(t, "A page", c["summary"])
	assert.Equal(t, "https://example.com/a", c["source"].(map[string]interface{})["url"])
}

func TestIngest_BodyTooLarge(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/content/ingest", bytes.NewReader(bytes.Repeat([]byte("a"), 64)))
	w := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(w, req.Body, 16)

	f.handler.Ingest(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)
	f.gen.draft = &generator.Draft{
		Title:    "Caching prompts",
		Summary:  "How caching works",
		Markdown: "# Caching\n\nDetails.",
		Domain:   []string{"ai-automation", "cooking"},
	}

	w, body := post(f.handler.Generate, "/api/content/generate", `{"raw_text":"notes about caching","type":"article","language":"en"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := body["content"].(map[string]interface{})
	assert.Equal(t, "ai-generate", c["source"].(map[string]interface{})["type"])
	require.NotNil(t, c["ai"])
	assert.Equal(t, generator.DefaultQualityScore, c["ai"].(map[string]interface{})["qualityScore"])
	assert.Contains(t, body["warnings"], `generated domain "cooking" is not a known domain`)
}

func TestGenerate_RequestChecks(t *testing.T) {
	f := newFixture(t)

	w, body := post(f.handler.Generate, "/api/content/generate", `{"type":"article"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "raw_text is required", body["error"].(map[string]interface{})["message"])

	w, body = post(f.handler.Generate, "/api/content/generate", `{"raw_text":"x","type":"poem"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"].(map[string]interface{})["message"], "type must be one of: ")
}

func TestGenerate_NotConfigured(t *testing.T) {
	f := newFixture(t)
	f.gen.err = &generator.NotConfiguredError{Provider: "anthropic"}

	w, body := post(f.handler.Generate, "/api/content/generate", `{"raw_text":"notes","type":"article"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "NOT_CONFIGURED", errorCode(body))
	assert.NotEmpty(t, body["logId"])
}

func TestGenerate_ProviderFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errors.New("upstream 529")

	w, body := post(f.handler.Generate, "/api/content/generate", `{"raw_text":"notes","type":"article"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(body))
}

func TestNotionWebhook(t *testing.T) {
	f := newFixture(t)
	hook := `{"data":{"id":"abc-123","properties":{
		"Name":{"type":"title","title":[{"plain_text":"From Notion"}]},
		"Type":{"type":"select","select":{"name":"Daily Learning"}},
		"Summary":{"type":"rich_text","rich_text":[{"plain_text":"Short"}]}
	}}}`

	w, body := post(f.handler.NotionWebhook, "/api/webhooks/notion", hook)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := body["content"].(map[string]interface{})
	assert.Equal(t, "daily", c["type"])
	assert.Equal(t, "https://notion.so/abc123", c["source"].(map[string]interface{})["url"])

	w, _ = post(f.handler.NotionWebhook, "/api/webhooks/notion", `{"data":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = post(f.handler.NotionWebhook, "/api/webhooks/notion", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Execute(ctx context.Context, adapter ingestion.Adapter, raw json.RawMessage, store docstore.Store, opts ...ingestion.ExecuteOption) ingestion.Result {
	args := m.Called(ctx, adapter, raw, store)
	return args.Get(0).(ingestion.Result)
}

func TestIngest_StatusMapping(t *testing.T) {
	cat, err := taxonomy.DefaultCatalog()
	require.NoError(t, err)
	tax := taxonomy.NewService(cat)
	registry := adapters.NewRegistry(adapters.NewAPI())

	tests := []struct {
		name   string
		result ingestion.Result
		want   int
		code   string
	}{
		{"duplicate signal", ingestion.Result{LogID: "l1", Duplicate: true, Err: &ingestion.DuplicateError{SourceType: "api", ExternalID: "x"}}, http.StatusOK, ""},
		{"duplicate by prefix", ingestion.Result{LogID: "l1", Err: errors.New("DUPLICATE: seen before")}, http.StatusOK, ""},
		{"log unavailable", ingestion.Result{Err: errors.New("create ingestion log: db down"), Error: "create ingestion log: db down"}, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(MockRunner)
			runner.On("Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.result)
			h := ingest.NewHandler(runner, docstore.NewMemoryStore(), registry, tax)

			w, body := post(h.Ingest, "/api/content/ingest", `{"source":"api","title":"T","body":"B","type":"article","summary":"S"}`)

			assert.Equal(t, tt.want, w.Code)
			if tt.code == "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, true, body["duplicate"])
				assert.Equal(t, "l1", body["logId"])
			} else {
				assert.Equal(t, tt.code, errorCode(body))
				assert.Nil(t, body["logId"])
			}
			runner.AssertExpectations(t)
		})
	}
}

func TestHandlers_UnavailableAdapters(t *testing.T) {
	cat, err := taxonomy.DefaultCatalog()
	require.NoError(t, err)
	tax := taxonomy.NewService(cat)
	h := ingest.NewHandler(new(MockRunner), docstore.NewMemoryStore(), adapters.NewRegistry(adapters.NewAPI()), tax)

	w, _ := post(h.Generate, "/api/content/generate", `{"raw_text":"x","type":"article"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, _ = post(h.NotionWebhook, "/api/webhooks/notion", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
