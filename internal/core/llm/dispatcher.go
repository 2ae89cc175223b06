package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/core"
	"github.com/jstepanek/textlens/internal/models"
)

// Generation parameters shared by every backend.
const (
	MaxTokens   = 1000
	Temperature = 0.7
	TopP        = 0.9
)

// FallbackAnswer replaces a completion that came back empty.
const FallbackAnswer = "I apologize, but I could not generate a response."

const defaultTimeout = 60 * time.Second

// DispatcherConfig holds the server-side defaults applied when a request
// leaves provider or model unset.
type DispatcherConfig struct {
	DefaultProvider models.Provider
	DefaultModels   map[models.Provider]string
	Timeout         time.Duration
}

// Dispatcher routes a composed prompt to the selected backend. Cloud
// backends are only registered when their credentials are configured.
type Dispatcher struct {
	mu       sync.RWMutex
	backends map[models.Provider]core.Completer
	cfg      DispatcherConfig
	log      *zap.Logger
}

func NewDispatcher(cfg DispatcherConfig, log *zap.Logger) *Dispatcher {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = models.ProviderOllama
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DefaultModels == nil {
		cfg.DefaultModels = map[models.Provider]string{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		backends: make(map[models.Provider]core.Completer),
		cfg:      cfg,
		log:      log,
	}
}

func (d *Dispatcher) Register(p models.Provider, c core.Completer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backends[p] = c
}

// Configured lists registered providers in display order.
func (d *Dispatcher) Configured() []models.Provider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Provider, 0, len(d.backends))
	for _, p := range models.Providers() {
		if _, ok := d.backends[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (d *Dispatcher) DefaultProvider() models.Provider { return d.cfg.DefaultProvider }

func (d *Dispatcher) DefaultModel(p models.Provider) string { return d.cfg.DefaultModels[p] }

// Resolve fills in whatever the request left unset.
func (d *Dispatcher) Resolve(pc *models.ProviderConfig) (models.Provider, string) {
	provider := d.cfg.DefaultProvider
	model := ""
	if pc != nil {
		if pc.Provider != "" {
			provider = pc.Provider
		}
		model = strings.TrimSpace(pc.Model)
	}
	if model == "" {
		model = d.cfg.DefaultModels[provider]
	}
	return provider, model
}

// Ask sends prompt to the resolved backend. Failures are *DispatchError. The
// completion is trimmed for every backend alike; an empty one becomes
// FallbackAnswer.
func (d *Dispatcher) Ask(ctx context.Context, prompt string, pc *models.ProviderConfig) (string, error) {
	provider, model := d.Resolve(pc)

	d.mu.RLock()
	backend, ok := d.backends[provider]
	d.mu.RUnlock()
	if !ok {
		kind := KindAuthenticationMissing
		if provider.IsLocal() {
			kind = KindBackendUnavailable
		}
		return "", &DispatchError{Kind: kind, Provider: provider, Model: model}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := backend.Complete(ctx, prompt, model)
	if err != nil {
		kind := KindBackendUnavailable
		if errors.Is(err, ErrMalformed) {
			kind = KindMalformedResponse
		}
		d.log.Warn("completion failed",
			zap.String("provider", string(provider)),
			zap.String("model", model),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", &DispatchError{Kind: kind, Provider: provider, Model: model, Err: err}
	}

	d.log.Debug("completion finished",
		zap.String("provider", string(provider)),
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)),
	)

	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackAnswer, nil
	}
	return text, nil
}
