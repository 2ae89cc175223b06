package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/core"
	"github.com/jstepanek/textlens/internal/models"
)

// SessionService drives the server-side session lifecycle:
// Empty -> DocumentLoaded -> Conversing, with Reset back to Empty and a new
// upload always discarding prior turns.
//
// mu serialises read-modify-write cycles against the store. It is never held
// while a backend is generating an answer.
type SessionService struct {
	store core.SessionStore
	docs  *DocumentService
	chat  *ChatService
	log   *zap.Logger
	now   func() time.Time
	mu    sync.Mutex
}

func NewSessionService(store core.SessionStore, docs *DocumentService, chat *ChatService, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{store: store, docs: docs, chat: chat, log: log, now: time.Now}
}

func (s *SessionService) Create(ctx context.Context) (*models.Session, error) {
	session := models.NewSession(s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.store.Get(ctx, id)
}

// LoadDocument extracts the upload and makes it the session's document. A
// failed extraction leaves the session untouched.
func (s *SessionService) LoadDocument(ctx context.Context, id string, upload models.UploadedDocument) (*models.Session, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}

	text, err := s.docs.Extract(ctx, upload.Name, upload.MimeHint, upload.Raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session.LoadDocument(upload.Name, text, s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Ask answers message against the session document and records the exchange.
// When the document was replaced or the session reset while the backend was
// working, the answer is still returned but not recorded.
func (s *SessionService) Ask(ctx context.Context, id, message string, pc *models.ProviderConfig) (string, *models.Session, error) {
	s.mu.Lock()
	session, err := s.store.Get(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return "", nil, err
	}
	if session.Document == nil {
		return "", session, models.ErrNoDocument
	}

	documentID := session.DocumentID
	answer, err := s.chat.Answer(ctx, session.Document.Content, session.Turns, message, pc)
	if err != nil {
		return "", session, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Get(ctx, id)
	if errors.Is(err, core.ErrSessionNotFound) {
		s.log.Info("session gone before answer arrived", zap.String("session", id))
		return answer, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if current.DocumentID != documentID {
		s.log.Info("document replaced during exchange, answer not recorded", zap.String("session", id))
		return answer, current, nil
	}

	if err := current.RecordExchange(message, answer, s.now()); err != nil {
		return "", current, err
	}
	if err := s.store.Save(ctx, current); err != nil {
		return "", nil, err
	}
	return answer, current, nil
}

func (s *SessionService) Reset(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Reset(s.now())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, id)
}
