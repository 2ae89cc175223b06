package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/core/llm"
	"github.com/jstepanek/textlens/internal/models"
)

const probeTimeout = 2 * time.Second

// ProviderCatalog is the read side of the dispatcher.
type ProviderCatalog interface {
	Configured() []models.Provider
	DefaultProvider() models.Provider
	DefaultModel(p models.Provider) string
}

// LocalProbe checks whether the local inference server is up.
type LocalProbe interface {
	Reachable(ctx context.Context) error
}

type ProviderHandler struct {
	catalog ProviderCatalog
	probe   LocalProbe
	log     *zap.Logger
}

func NewProviderHandler(catalog ProviderCatalog, probe LocalProbe, log *zap.Logger) *ProviderHandler {
	return &ProviderHandler{catalog: catalog, probe: probe, log: log}
}

type providerInfo struct {
	Name          models.Provider `json:"name"`
	DisplayName   string          `json:"displayName"`
	Local         bool            `json:"local"`
	Configured    bool            `json:"configured"`
	DefaultModel  string          `json:"defaultModel,omitempty"`
	Reachable     *bool           `json:"reachable,omitempty"`
	CredentialEnv string          `json:"credentialEnv,omitempty"`
}

type providersResponse struct {
	Default   models.Provider `json:"default"`
	Providers []providerInfo  `json:"providers"`
}

// ListProviders reports every backend, whether it can be used, and for the
// local backend whether the server currently answers.
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	configured := map[models.Provider]bool{}
	for _, p := range h.catalog.Configured() {
		configured[p] = true
	}

	resp := providersResponse{Default: h.catalog.DefaultProvider()}
	for _, p := range models.Providers() {
		info := providerInfo{
			Name:          p,
			DisplayName:   llm.DisplayName(p),
			Local:         p.IsLocal(),
			Configured:    configured[p],
			DefaultModel:  h.catalog.DefaultModel(p),
			CredentialEnv: llm.CredentialEnv(p),
		}
		if p.IsLocal() && h.probe != nil {
			ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
			err := h.probe.Reachable(ctx)
			cancel()
			reachable := err == nil
			if err != nil {
				h.log.Debug("local backend probe failed", zap.Error(err))
			}
			info.Reachable = &reachable
		}
		resp.Providers = append(resp.Providers, info)
	}

	writeJSON(w, http.StatusOK, resp)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
