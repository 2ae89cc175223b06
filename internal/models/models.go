package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// UploadedDocument is a file received from a caller. It only lives for the
// duration of one upload request.
type UploadedDocument struct {
	Name     string
	Raw      []byte
	MimeHint string
}

// ExtractedText is the UTF-8 text derived from an UploadedDocument.
type ExtractedText struct {
	Content string `json:"content"`
}

// IsBlank reports whether the text has no content after trimming whitespace.
func (t ExtractedText) IsBlank() bool {
	return strings.TrimSpace(t.Content) == ""
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label is the speaker name used when rendering a turn into a prompt.
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

// ConversationTurn is one entry in a session log. Turns are append-only and
// ordered by arrival.
type ConversationTurn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role" validate:"required,oneof=user assistant"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Provider names one of the interchangeable LLM backends.
type Provider string

const (
	ProviderOllama    Provider = "ollama"    // local inference server
	ProviderOpenAI    Provider = "openai"    // cloud A
	ProviderAnthropic Provider = "anthropic" // cloud B
	ProviderGemini    Provider = "gemini"    // cloud C
)

var ErrUnknownProvider = errors.New("unknown provider")

// Providers lists every supported backend in display order.
func Providers() []Provider {
	return []Provider{ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderGemini}
}

// ParseProvider maps a user supplied provider name onto the typed enum.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ollama", "local":
		return ProviderOllama, nil
	case "openai":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// UnmarshalText accepts any ParseProvider spelling. Blank input leaves the
// provider unset so the server default applies.
func (p *Provider) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*p = ""
		return nil
	}
	parsed, err := ParseProvider(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// IsLocal reports whether the provider runs on the local inference server.
func (p Provider) IsLocal() bool {
	return p == ProviderOllama
}

// ProviderConfig selects the backend and model for one request. Credentials
// are configured on the server and never travel with the request.
type ProviderConfig struct {
	Provider Provider `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
}
