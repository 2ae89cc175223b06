package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/jstepanek/textlens/internal/core"
)

type OpenAILLM struct {
	client *openai.Client
}

var _ core.Completer = (*OpenAILLM)(nil)

// NewOpenAILLM builds a client for the OpenAI API or any server speaking the
// same protocol when baseURL is set.
func NewOpenAILLM(apiKey, baseURL string, httpClient *http.Client) *OpenAILLM {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAILLM{client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt, model string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
		MaxTokens:   MaxTokens,
		Temperature: float32(Temperature),
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		synErr *json.SyntaxError
		typErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		return fmt.Errorf("%w: openai: %w", ErrUnavailable, err)
	case errors.As(err, &synErr), errors.As(err, &typErr):
		return fmt.Errorf("%w: openai: %w", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: openai: %w", ErrUnavailable, err)
	}
}
