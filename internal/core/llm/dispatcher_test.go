package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstepanek/textlens/internal/models"
)

type stubCompleter struct {
	text      string
	err       error
	delay     time.Duration
	lastModel string
	calls     int
}

func (s *stubCompleter) Complete(ctx context.Context, _ string, model string) (string, error) {
	s.calls++
	s.lastModel = model
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		}
	}
	return s.text, s.err
}

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		DefaultProvider: models.ProviderOllama,
		DefaultModels: map[models.Provider]string{
			models.ProviderOllama:    "mistral",
			models.ProviderOpenAI:    "gpt-4o-mini",
			models.ProviderAnthropic: "claude-3-5-haiku-latest",
		},
		Timeout: time.Second,
	}, nil)
}

func TestAskUsesDefaults(t *testing.T) {
	d := newTestDispatcher()
	local := &stubCompleter{text: "It is about a cat sitting."}
	d.Register(models.ProviderOllama, local)

	answer, err := d.Ask(context.Background(), "prompt", nil)

	require.NoError(t, err)
	assert.Equal(t, "It is about a cat sitting.", answer)
	assert.Equal(t, "mistral", local.lastModel)
}

func TestAskHonoursProviderConfig(t *testing.T) {
	d := newTestDispatcher()
	local := &stubCompleter{text: "local"}
	cloud := &stubCompleter{text: "cloud"}
	d.Register(models.ProviderOllama, local)
	d.Register(models.ProviderOpenAI, cloud)

	answer, err := d.Ask(context.Background(), "p", &models.ProviderConfig{Provider: models.ProviderOpenAI, Model: "gpt-4o"})

	require.NoError(t, err)
	assert.Equal(t, "cloud", answer)
	assert.Equal(t, "gpt-4o", cloud.lastModel)
	assert.Zero(t, local.calls)

	_, err = d.Ask(context.Background(), "p", &models.ProviderConfig{Provider: models.ProviderOpenAI})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cloud.lastModel)
}

func TestAskEmptyCompletionFallsBack(t *testing.T) {
	d := newTestDispatcher()
	d.Register(models.ProviderOllama, &stubCompleter{text: "  \n"})

	answer, err := d.Ask(context.Background(), "p", nil)

	require.NoError(t, err)
	assert.Equal(t, FallbackAnswer, answer)
}

func TestAskTrimsEveryBackendAlike(t *testing.T) {
	d := newTestDispatcher()
	d.Register(models.ProviderOllama, &stubCompleter{text: "\n The cat sat. \n"})
	d.Register(models.ProviderOpenAI, &stubCompleter{text: "  The cat sat."})
	d.Register(models.ProviderAnthropic, &stubCompleter{text: "The cat sat.\t"})

	for _, p := range []models.Provider{models.ProviderOllama, models.ProviderOpenAI, models.ProviderAnthropic} {
		answer, err := d.Ask(context.Background(), "p", &models.ProviderConfig{Provider: p})
		require.NoError(t, err)
		assert.Equal(t, "The cat sat.", answer, string(p))
	}
}

func TestAskLocalUnavailable(t *testing.T) {
	d := newTestDispatcher()
	d.Register(models.ProviderOllama, &stubCompleter{err: fmt.Errorf("%w: connection refused", ErrUnavailable)})

	_, err := d.Ask(context.Background(), "p", nil)

	de, ok := AsDispatchError(err)
	require.True(t, ok)
	assert.Equal(t, KindBackendUnavailable, de.Kind)
	assert.Contains(t, de.Message(), "ollama serve")
	assert.Contains(t, de.Message(), "ollama pull mistral")
}

func TestAskMissingCredentials(t *testing.T) {
	d := newTestDispatcher()
	d.Register(models.ProviderOllama, &stubCompleter{text: "x"})

	_, err := d.Ask(context.Background(), "p", &models.ProviderConfig{Provider: models.ProviderAnthropic})

	de, ok := AsDispatchError(err)
	require.True(t, ok)
	assert.Equal(t, KindAuthenticationMissing, de.Kind)
	assert.Contains(t, de.Message(), "ANTHROPIC_API_KEY")
}

func TestAskMalformedResponse(t *testing.T) {
	d := newTestDispatcher()
	d.Register(models.ProviderOpenAI, &stubCompleter{err: fmt.Errorf("%w: bad json", ErrMalformed)})

	_, err := d.Ask(context.Background(), "p", &models.ProviderConfig{Provider: models.ProviderOpenAI})

	de, ok := AsDispatchError(err)
	require.True(t, ok)
	assert.Equal(t, KindMalformedResponse, de.Kind)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestAskUnclassifiedErrorIsUnavailable(t *testing.T) {
	d := newTestDispatcher()
	d.Register(models.ProviderOpenAI, &stubCompleter{err: errors.New("weird")})

	_, err := d.Ask(context.Background(), "p", &models.ProviderConfig{Provider: models.ProviderOpenAI})

	de, ok := AsDispatchError(err)
	require.True(t, ok)
	assert.Equal(t, KindBackendUnavailable, de.Kind)
	assert.Contains(t, de.Message(), "OpenAI is not reachable")
}

func TestAskTimeout(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Timeout: 20 * time.Millisecond}, nil)
	d.Register(models.ProviderOllama, &stubCompleter{text: "late", delay: time.Second})

	_, err := d.Ask(context.Background(), "p", nil)

	de, ok := AsDispatchError(err)
	require.True(t, ok)
	assert.Equal(t, KindBackendUnavailable, de.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConfiguredOrder(t *testing.T) {
	d := newTestDispatcher()
	d.Register(models.ProviderAnthropic, &stubCompleter{})
	d.Register(models.ProviderOllama, &stubCompleter{})

	assert.Equal(t, []models.Provider{models.ProviderOllama, models.ProviderAnthropic}, d.Configured())
	assert.Equal(t, "mistral", d.DefaultModel(models.ProviderOllama))
}
