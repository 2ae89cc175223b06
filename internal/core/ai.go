package core

import "context"

// Completer is the single capability every LLM backend shares: turn a
// composed prompt into completion text using the given model.
//
// An empty string with a nil error means the backend answered successfully
// but produced no text.
type Completer interface {
	Complete(ctx context.Context, prompt string, model string) (string, error)
}
