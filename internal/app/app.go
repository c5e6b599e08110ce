package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nsqio/go-nsq"

	"contenthub/features/apikey"
	"contenthub/features/ingest"
	"contenthub/features/ingestlog"
	"contenthub/features/stats"
	"contenthub/internal/adapter/anthropic"
	"contenthub/internal/adapter/gemini"
	"contenthub/internal/adapter/notion"
	"contenthub/internal/config"
	"contenthub/internal/docstore"
	"contenthub/internal/generator"
	"contenthub/internal/ingestion"
	"contenthub/internal/ingestion/adapters"
	"contenthub/internal/middleware"
	"contenthub/internal/render"
	"contenthub/internal/settings"
	"contenthub/internal/taxonomy"
	"contenthub/internal/worker"
)

type Publisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler        http.Handler
	Store          docstore.Store
	Pipeline       *ingestion.Pipeline
	Registry       *adapters.Registry
	Taxonomy       *taxonomy.Service
	Settings       *settings.Service
	APIKeys        *apikey.Service
	Logs           *ingestlog.Service
	ReplayConsumer *worker.ReplayConsumer

	port int
}

// New wires the services and routes. A nil publisher delivers replays to
// the in-process consumer, for running without NSQ.
func New(cfg *config.Config, store docstore.Store, settingsRepo settings.Repository, pub Publisher) (*App, error) {
	ctx := context.Background()

	// Taxonomy
	catalog, err := loadCatalog(cfg.TaxonomyPath)
	if err != nil {
		return nil, err
	}
	tax := taxonomy.NewService(catalog)

	// Feature: Settings
	settingsService := settings.NewService(settingsRepo, settings.Settings{
		GeneratorProvider: cfg.GeneratorProvider,
		AnthropicAPIKey:   cfg.AnthropicAPIKey,
		AnthropicModel:    cfg.AnthropicModel,
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiModel:       cfg.GeminiModel,
		NotionAPIKey:      cfg.NotionAPIKey,
		DefaultLanguage:   cfg.DefaultLanguage,
	})
	settingsHandler := settings.NewHandler(settingsService)

	defaultLanguage := cfg.DefaultLanguage
	if set, err := settingsService.Get(ctx); err != nil {
		slog.Warn("failed to fetch settings, using configured default language", "error", err)
	} else if len(set.DefaultLanguage) == 2 {
		defaultLanguage = set.DefaultLanguage
	}

	// Adapters: Dynamic
	gen := generator.NewRouter(settingsService, cfg.GeneratorTimeout(), map[string]generator.Generator{
		settings.ProviderAnthropic: anthropic.NewDynamicGenerator(settingsService),
		settings.ProviderGemini:    gemini.NewDynamicGenerator(settingsService),
	})
	notionClient := notion.NewClient(cfg.NotionBaseURL, cfg.NotionRequestsPerSecond, func(ctx context.Context) (string, error) {
		set, err := settingsService.Get(ctx)
		if err != nil {
			return "", err
		}
		return set.NotionAPIKey, nil
	})

	registry := adapters.NewRegistry(
		adapters.NewAPI(),
		adapters.NewNotion(notionClient, tax, defaultLanguage),
		adapters.NewAI(gen, tax, defaultLanguage),
	)
	pipeline := ingestion.NewPipeline(ingestion.Deps{
		Taxonomy:        tax,
		Renderer:        render.NewRenderer(),
		DefaultLanguage: defaultLanguage,
	})

	// Worker (Replay Consumer)
	replayConsumer := worker.NewReplayConsumer(pipeline, registry, store)
	if pub == nil {
		pub = &localPublisher{handler: replayConsumer}
	}

	// Feature: API keys
	keyService := apikey.NewService(store)
	requireKey := func(next http.HandlerFunc) http.HandlerFunc {
		return apikey.Require(keyService, next)
	}
	webhookAuth := requireKey
	if !cfg.WebhookRequireKey {
		webhookAuth = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	// Feature: Ingest
	ingestHandler := ingest.NewHandler(pipeline, store, registry, tax)

	// Feature: Ingestion logs
	logService := ingestlog.NewService(ingestlog.NewStoreRepo(store), pub)
	logHandler := ingestlog.NewHandler(logService)

	// Feature: Stats
	statsHandler := stats.NewHandler(store)

	limit := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.MaxBytes(cfg.MaxBodyBytes, next)
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /api/content/ingest", middleware.CorrelationID(middleware.CORS(limit(requireKey(ingestHandler.Ingest)))))
	mux.Handle("POST /api/content/generate", middleware.CorrelationID(middleware.CORS(limit(requireKey(ingestHandler.Generate)))))
	mux.Handle("POST /api/webhooks/notion", middleware.CorrelationID(middleware.CORS(limit(webhookAuth(ingestHandler.NotionWebhook)))))

	mux.Handle("GET /ingestion-logs", middleware.CorrelationID(middleware.CORS(requireKey(logHandler.List))))
	mux.Handle("GET /ingestion-logs/{id}", middleware.CorrelationID(middleware.CORS(requireKey(logHandler.Get))))
	mux.Handle("POST /ingestion-logs/{id}/replay", middleware.CorrelationID(middleware.CORS(requireKey(logHandler.Replay))))

	mux.Handle("GET /settings", middleware.CorrelationID(middleware.CORS(requireKey(settingsHandler.GetSettings))))
	mux.Handle("PUT /settings", middleware.CorrelationID(middleware.CORS(limit(requireKey(settingsHandler.UpdateSettings)))))

	mux.Handle("GET /stats", middleware.CorrelationID(middleware.CORS(requireKey(statsHandler.GetStats))))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:        mux,
		Store:          store,
		Pipeline:       pipeline,
		Registry:       registry,
		Taxonomy:       tax,
		Settings:       settingsService,
		APIKeys:        keyService,
		Logs:           logService,
		ReplayConsumer: replayConsumer,
		port:           cfg.ServerPort,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	port := a.port
	if port == 0 {
		port = 8081
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadCatalog(path string) (*taxonomy.Catalog, error) {
	if path == "" {
		return taxonomy.DefaultCatalog()
	}
	c, err := taxonomy.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy %s: %w", path, err)
	}
	return c, nil
}

// localPublisher hands replay messages straight to the consumer.
type localPublisher struct {
	handler nsq.Handler
}

func (p *localPublisher) Publish(topic string, body []byte) error {
	if topic != config.TopicIngestReplay {
		return fmt.Errorf("no local consumer for topic %s", topic)
	}
	msg := &nsq.Message{Body: body}
	go func() {
		if err := p.handler.HandleMessage(msg); err != nil {
			slog.Error("local replay failed", "error", err)
		}
	}()
	return nil
}
