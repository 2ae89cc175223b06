package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jstepanek/textlens/internal/core"
)

type AnthropicLLM struct {
	client *anthropic.Client
}

var _ core.Completer = (*AnthropicLLM)(nil)

// NewAnthropicLLM disables the SDK's own retries; a failed call is reported
// to the caller straight away.
func NewAnthropicLLM(apiKey, baseURL string, httpClient *http.Client) *AnthropicLLM {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	cl := anthropic.NewClient(opts...)
	return &AnthropicLLM{client: &cl}
}

func (a *AnthropicLLM) Complete(ctx context.Context, prompt, model string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   MaxTokens,
		Temperature: anthropic.Float(Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	// first text block only
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			return tb.Text, nil
		}
	}
	return "", nil
}

func classifyAnthropicError(err error) error {
	var (
		apiErr *anthropic.Error
		synErr *json.SyntaxError
		typErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("%w: anthropic: %w", ErrUnavailable, err)
	case errors.As(err, &synErr), errors.As(err, &typErr):
		return fmt.Errorf("%w: anthropic: %w", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: anthropic: %w", ErrUnavailable, err)
	}
}
