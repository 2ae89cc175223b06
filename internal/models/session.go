package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type SessionState string

const (
	StateEmpty          SessionState = "empty"
	StateDocumentLoaded SessionState = "document_loaded"
	StateConversing     SessionState = "conversing"
)

var ErrNoDocument = errors.New("no document loaded")

// Session is one conversation scoped to a single uploaded document.
//
// DocumentID changes every time a document is loaded so an exchange that was
// started against a replaced document can be told apart.
type Session struct {
	ID           string             `json:"id"`
	DocumentID   string             `json:"documentId,omitempty"`
	DocumentName string             `json:"documentName,omitempty"`
	Document     *ExtractedText     `json:"document,omitempty"`
	Turns        []ConversationTurn `json:"turns"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Turns:     []ConversationTurn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) State() SessionState {
	switch {
	case s.Document == nil:
		return StateEmpty
	case len(s.Turns) == 0:
		return StateDocumentLoaded
	default:
		return StateConversing
	}
}

// LoadDocument replaces the session document and discards every turn.
func (s *Session) LoadDocument(name string, text ExtractedText, now time.Time) {
	doc := text
	s.Document = &doc
	s.DocumentName = name
	s.DocumentID = uuid.NewString()
	s.Turns = []ConversationTurn{}
	s.UpdatedAt = now
}

// RecordExchange appends the user question followed by the assistant answer.
func (s *Session) RecordExchange(question, answer string, now time.Time) error {
	if s.Document == nil {
		return ErrNoDocument
	}
	s.Turns = append(s.Turns,
		ConversationTurn{ID: uuid.NewString(), Role: RoleUser, Content: question, Timestamp: now},
		ConversationTurn{ID: uuid.NewString(), Role: RoleAssistant, Content: answer, Timestamp: now},
	)
	s.UpdatedAt = now
	return nil
}

// Reset returns the session to Empty. Resetting an empty session is a no-op.
func (s *Session) Reset(now time.Time) {
	if s.State() == StateEmpty {
		return
	}
	s.Document = nil
	s.DocumentName = ""
	s.DocumentID = ""
	s.Turns = []ConversationTurn{}
	s.UpdatedAt = now
}

// Clone returns a deep copy so stores never share turn slices with callers.
func (s *Session) Clone() *Session {
	c := *s
	if s.Document != nil {
		doc := *s.Document
		c.Document = &doc
	}
	c.Turns = make([]ConversationTurn, len(s.Turns))
	copy(c.Turns, s.Turns)
	return &c
}
