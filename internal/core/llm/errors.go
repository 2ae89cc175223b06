package llm

import (
	"errors"
	"fmt"

	"github.com/jstepanek/textlens/internal/models"
)

// Backends wrap one of these so the dispatcher can classify a failure without
// knowing which SDK produced it.
var (
	ErrUnavailable = errors.New("backend unavailable")
	ErrMalformed   = errors.New("malformed backend response")
)

type ErrorKind string

const (
	KindBackendUnavailable    ErrorKind = "backend_unavailable"
	KindAuthenticationMissing ErrorKind = "authentication_missing"
	KindMalformedResponse     ErrorKind = "malformed_response"
)

// DispatchError is returned by Dispatcher.Ask. Message is safe to show to the
// end user and names the remediation step for the failing provider.
type DispatchError struct {
	Kind     ErrorKind
	Provider models.Provider
	Model    string
	Err      error
}

func (e *DispatchError) Error() string {
	if e.Err == nil {
		return e.Message()
	}
	return e.Message() + " (" + e.Err.Error() + ")"
}

func (e *DispatchError) Unwrap() error { return e.Err }

func (e *DispatchError) Message() string {
	name := DisplayName(e.Provider)
	switch e.Kind {
	case KindAuthenticationMissing:
		return fmt.Sprintf("%s is not configured. Set %s in the server environment.", name, CredentialEnv(e.Provider))
	case KindMalformedResponse:
		return fmt.Sprintf("%s returned a response that could not be read. Please try again.", name)
	default:
		if e.Provider.IsLocal() {
			return fmt.Sprintf("Ollama service is not available. Please make sure Ollama is running (`ollama serve`) and the %q model is pulled (`ollama pull %s`).", e.Model, e.Model)
		}
		return fmt.Sprintf("%s is not reachable right now. Check the network connection and API quota, then try again.", name)
	}
}

// AsDispatchError unwraps err into a *DispatchError when it is one.
func AsDispatchError(err error) (*DispatchError, bool) {
	var de *DispatchError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func DisplayName(p models.Provider) string {
	switch p {
	case models.ProviderOllama:
		return "Ollama"
	case models.ProviderOpenAI:
		return "OpenAI"
	case models.ProviderAnthropic:
		return "Anthropic"
	case models.ProviderGemini:
		return "Gemini"
	default:
		return string(p)
	}
}

// CredentialEnv names the environment variable holding a provider's API key.
func CredentialEnv(p models.Provider) string {
	switch p {
	case models.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case models.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case models.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}
