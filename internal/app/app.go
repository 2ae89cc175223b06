// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/api/handlers"
	"github.com/jstepanek/textlens/internal/config"
	"github.com/jstepanek/textlens/internal/core"
	db "github.com/jstepanek/textlens/internal/core/database"
	"github.com/jstepanek/textlens/internal/core/ingestion_engine"
	"github.com/jstepanek/textlens/internal/core/llm"
	"github.com/jstepanek/textlens/internal/core/prompt"
	sessionstore "github.com/jstepanek/textlens/internal/core/session-store"
	"github.com/jstepanek/textlens/internal/models"
	"github.com/jstepanek/textlens/internal/services"
)

type App struct {
	Dispatcher *llm.Dispatcher
	Ingestor   ingestion_engine.Ingestor
	Sessions   core.SessionStore
	Server     *Server

	closers []func() error
	log     *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a := &App{log: log}

	a.Ingestor = NewIngestor(cfg, log)

	dispatcher, err := NewDispatcher(appCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Dispatcher = dispatcher.Dispatcher
	a.closers = append(a.closers, dispatcher.closers...)
	log.Info("providers configured", zap.Any("providers", a.Dispatcher.Configured()))

	admin, err := llm.NewOllamaAdmin(cfg.OllamaURL, nil)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := newSessionStore(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sessions = store
	log.Info("session store ready", zap.String("store", cfg.SessionStore), zap.Duration("ttl", cfg.SessionTTL))

	docService := services.NewDocumentService(a.Ingestor, log)
	chatService := services.NewChatService(prompt.NewComposer(cfg.PromptCharBudget, cfg.PromptHistoryTurns), a.Dispatcher)
	sessionService := services.NewSessionService(store, docService, chatService, log)

	router := NewRouter(cfg, Handlers{
		Document: handlers.NewDocumentHandler(docService, cfg.MaxUploadBytes(), log),
		Chat:     handlers.NewChatHandler(chatService, log),
		Session:  handlers.NewSessionHandler(sessionService, cfg.MaxUploadBytes(), log),
		Provider: handlers.NewProviderHandler(a.Dispatcher, admin, log),
	}, log)
	a.Server = NewServer(cfg, router, log)

	return a, nil
}

// NewIngestor builds the two-attempt PDF pipeline: docconv first, the pure-Go
// reader as fallback.
func NewIngestor(cfg *config.Config, log *zap.Logger) *ingestion_engine.DocumentIngestor {
	useReadability := false
	return ingestion_engine.NewDocumentIngestor(
		ingestion_engine.NewDocconvExtractor(useReadability),
		ingestion_engine.NewPDFReaderExtractor(),
		&ingestion_engine.IngestConfig{Timeout: cfg.RequestTimeout},
		log,
	)
}

// ConfiguredDispatcher is a dispatcher plus the clients it owns.
type ConfiguredDispatcher struct {
	*llm.Dispatcher
	closers []func() error
}

func (d *ConfiguredDispatcher) Close() {
	for _, c := range d.closers {
		_ = c()
	}
}

// NewDispatcher registers the local backend and every cloud backend that has
// credentials.
func NewDispatcher(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ConfiguredDispatcher, error) {
	defaultProvider, err := models.ParseProvider(cfg.DefaultProvider)
	if err != nil {
		log.Warn("unknown DEFAULT_PROVIDER, using ollama", zap.String("value", cfg.DefaultProvider))
		defaultProvider = models.ProviderOllama
	}

	d := llm.NewDispatcher(llm.DispatcherConfig{
		DefaultProvider: defaultProvider,
		DefaultModels: map[models.Provider]string{
			models.ProviderOllama:    cfg.OllamaModel,
			models.ProviderOpenAI:    cfg.OpenAIModel,
			models.ProviderAnthropic: cfg.AnthropicModel,
			models.ProviderGemini:    cfg.GeminiModel,
		},
		Timeout: cfg.RequestTimeout,
	}, log)
	out := &ConfiguredDispatcher{Dispatcher: d}

	httpClient := &http.Client{}
	d.Register(models.ProviderOllama, llm.NewOllamaLLM(cfg.OllamaURL, httpClient))

	if cfg.OpenAIAPIKey != "" {
		d.Register(models.ProviderOpenAI, llm.NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, httpClient))
	}
	if cfg.AnthropicAPIKey != "" {
		d.Register(models.ProviderAnthropic, llm.NewAnthropicLLM(cfg.AnthropicAPIKey, "", httpClient))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize gemini, %w", err)
		}
		d.Register(models.ProviderGemini, gemini)
		out.closers = append(out.closers, gemini.Close)
	}

	if defaultProvider != models.ProviderOllama && !contains(d.Configured(), defaultProvider) {
		log.Warn("default provider has no credentials; requests without a provider will fail",
			zap.String("provider", string(defaultProvider)),
			zap.String("env", llm.CredentialEnv(defaultProvider)),
		)
	}
	return out, nil
}

func newSessionStore(ctx context.Context, cfg *config.Config) (core.SessionStore, error) {
	switch cfg.SessionStore {
	case "redis":
		store, err := sessionstore.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the redis session store, %w", err)
		}
		return store, nil
	case "postgres":
		store, err := db.NewDatabaseClient(ctx, cfg.DatabaseURL, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the postgres session store, %w", err)
		}
		return store, nil
	default:
		return sessionstore.NewMemoryStore(cfg.SessionTTL), nil
	}
}

func contains(ps []models.Provider, p models.Provider) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

func (a *App) Close() {
	if c, ok := a.Sessions.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	for _, c := range a.closers {
		_ = c()
	}
}
