package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jstepanek/textlens/internal/core/prompt"
	"github.com/jstepanek/textlens/internal/models"
)

var (
	ErrEmptyMessage  = errors.New("message is required")
	ErrEmptyDocument = errors.New("document content is required")
)

// Asker sends a composed prompt to whichever backend the config selects.
type Asker interface {
	Ask(ctx context.Context, prompt string, pc *models.ProviderConfig) (string, error)
}

// ChatService answers one question against a document. It holds no state
// between calls; the caller supplies the whole conversation every time.
type ChatService struct {
	composer prompt.Composer
	asker    Asker
}

func NewChatService(composer prompt.Composer, asker Asker) *ChatService {
	return &ChatService{composer: composer, asker: asker}
}

func (s *ChatService) Answer(ctx context.Context, documentText string, history []models.ConversationTurn, message string, pc *models.ProviderConfig) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	if strings.TrimSpace(documentText) == "" {
		return "", ErrEmptyDocument
	}
	return s.asker.Ask(ctx, s.composer.Compose(documentText, history, message), pc)
}
