package sessionstore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jstepanek/textlens/internal/core"
	"github.com/jstepanek/textlens/internal/models"
)

// MemoryStore keeps sessions in process. Every Save restarts the session TTL.
type MemoryStore struct {
	cache *cache.Cache
}

var _ core.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := ttl / 3
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, core.ErrSessionNotFound
	}
	return x.(*models.Session).Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, session *models.Session) error {
	s.cache.Set(session.ID, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if _, found := s.cache.Get(id); !found {
		return core.ErrSessionNotFound
	}
	s.cache.Delete(id)
	return nil
}
