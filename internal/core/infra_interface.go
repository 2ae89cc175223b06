package core

import (
	"context"
	"errors"

	"github.com/jstepanek/textlens/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps server-side sessions until they expire.
// It abstracts the backing cache so services never depend on a specific store.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}
