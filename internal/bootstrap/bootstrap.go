package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/souviksenapati/TejastraX/internal/config"
	"github.com/souviksenapati/TejastraX/internal/core/ports"
	"github.com/souviksenapati/TejastraX/internal/core/usecase"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/cache"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/chunking"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/extractor/pdf"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/fetcher"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/llm/ollama"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/llm/openai"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/queue/nats"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/repository/postgres"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/resilience"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/search/keyword"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/vector/flat"
	"github.com/souviksenapati/TejastraX/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Documents *usecase.DocumentService
	Pipeline  *usecase.Pipeline
	Extractor ports.PageExtractor
	Chunker   ports.Chunker

	// Optional collaborators; nil when not configured.
	Registry    *postgres.DocumentRepository
	Bus         *nats.Bus
	HTTPMetrics *metrics.HTTPServerMetrics

	closeFn func()
}

// Offline holds the components that work without a model provider.
type Offline struct {
	Extractor ports.PageExtractor
	Chunker   ports.Chunker
}

func NewOffline(cfg config.Config) Offline {
	return Offline{
		Extractor: pdf.NewExtractor(),
		Chunker:   newChunker(cfg),
	}
}

// New wires the full application for service. Postgres and NATS are
// connected only when their DSN/URL is configured.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedProvider, completionProvider, err := newProviders(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var observer ports.PipelineObserver
	if cfg.MetricsEnabled {
		app.HTTPMetrics = metrics.NewHTTPServerMetrics(service)
		observer = metrics.NewPipelineMetrics(app.HTTPMetrics.Registry(), service)
	}

	var registry ports.DocumentRegistry
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		repo := postgres.NewDocumentRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		app.Registry = repo
		registry = repo
	}

	var events ports.EventPublisher
	if cfg.NATSURL != "" {
		bus, err := nats.New(cfg.NATSURL, cfg.NATSSubjectEvents, cfg.NATSSubjectPrefetch)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init message bus: %w", err)
		}
		closers = append(closers, bus.Close)
		app.Bus = bus
		events = bus
	}

	answers, err := cache.NewAnswerCache(cfg.AnswerCacheSize)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init answer cache: %w", err)
	}
	sessions, err := cache.NewLRU[*usecase.Session](cfg.SessionCacheSize)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init session cache: %w", err)
	}

	offline := NewOffline(cfg)
	embedder := usecase.NewBatchEmbedder(embedProvider, cfg.EmbedWorkers)
	retriever := usecase.NewRetriever(
		embedder,
		cache.NewQueryEmbeddings(time.Duration(cfg.QueryEmbedCacheTTLSeconds)*time.Second),
		usecase.RetrieverConfig{
			TopK:              cfg.RAGTopK,
			DistanceThreshold: cfg.RAGDistanceThreshold,
			Rerank:            cfg.RAGRerank,
		},
	)

	pipeline, err := usecase.NewPipeline(usecase.PipelineDeps{
		Extractor: offline.Extractor,
		Chunker:   offline.Chunker,
		Embedder:  embedder,
		NewIndex:  func() ports.VectorIndex { return flat.New() },
		Retriever: retriever,
		Generator: usecase.NewAnswerGenerator(completionProvider),
		Answers:   answers,
		Keyword:   keyword.New(keyword.DefaultContextRunes),
		Events:    events,
		Observer:  observer,
	}, usecase.PipelineConfig{
		TopK:            cfg.RAGTopK,
		QuestionWorkers: cfg.QuestionWorkers,
		KeywordFallback: cfg.RAGKeywordFallback,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	docFetcher := fetcher.New(fetcher.Config{
		Timeout:     time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		MaxAttempts: cfg.FetchMaxAttempts,
		MaxBytes:    cfg.FetchMaxBytes,
	})

	app.Pipeline = pipeline
	app.Extractor = offline.Extractor
	app.Chunker = offline.Chunker
	app.Documents = usecase.NewDocumentService(docFetcher, pipeline, sessions, registry, events)
	app.closeFn = closeAll

	slog.Info("app_initialized",
		"service", service,
		"llm_provider", cfg.LLMProvider,
		"registry", app.Registry != nil,
		"bus", app.Bus != nil,
		"metrics", app.HTTPMetrics != nil,
	)
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newChunker(cfg config.Config) *chunking.Chunker {
	return chunking.NewChunker(chunking.Config{
		MaxTokens:     cfg.ChunkMaxTokens,
		OverlapTokens: cfg.ChunkOverlapTokens,
		MinChars:      cfg.ChunkMinChars,
		MaxChunks:     cfg.ChunkMaxChunks,
	}, nil)
}

func newProviders(cfg config.Config) (ports.EmbeddingProvider, ports.CompletionProvider, error) {
	executor := resilience.NewExecutor(resilience.DefaultConfig())
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		client := ollama.NewWithExecutor(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
		return client, client, nil
	case config.ProviderOpenAI:
		client, err := openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			ChatModel:  cfg.OpenAIChatModel,
			EmbedModel: cfg.OpenAIEmbedModel,
			Timeout:    time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		}, executor)
		if err != nil {
			return nil, nil, fmt.Errorf("init openai provider: %w", err)
		}
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
