package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// OllamaAdmin covers the local server housekeeping that is not part of
// answering a question: liveness, installed models and pulling new ones.
type OllamaAdmin struct {
	client *ollama.Client
}

func NewOllamaAdmin(baseURL string, httpClient *http.Client) (*OllamaAdmin, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_URL %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaAdmin{client: ollama.NewClient(u, httpClient)}, nil
}

// Reachable returns nil when the server answers its heartbeat.
func (a *OllamaAdmin) Reachable(ctx context.Context) error {
	if err := a.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (a *OllamaAdmin) Models(ctx context.Context) ([]string, error) {
	resp, err := a.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %w", ErrUnavailable, err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel treats "mistral" and "mistral:latest" as the same model.
func (a *OllamaAdmin) HasModel(ctx context.Context, model string) (bool, error) {
	names, err := a.Models(ctx)
	if err != nil {
		return false, err
	}
	want := withTag(model)
	for _, n := range names {
		if withTag(n) == want {
			return true, nil
		}
	}
	return false, nil
}

// Pull downloads model, reporting progress through fn when it is non-nil.
func (a *OllamaAdmin) Pull(ctx context.Context, model string, fn func(status string, completed, total int64)) error {
	err := a.client.Pull(ctx, &ollama.PullRequest{Model: model}, func(p ollama.ProgressResponse) error {
		if fn != nil {
			fn(p.Status, p.Completed, p.Total)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pull %s: %w", model, err)
	}
	return nil
}

func withTag(model string) string {
	if strings.Contains(model, ":") {
		return model
	}
	return model + ":latest"
}
