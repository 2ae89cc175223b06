package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/models"
	"github.com/jstepanek/textlens/internal/services"
)

type SessionHandler struct {
	sessions  *services.SessionService
	maxUpload int64
	log       *zap.Logger
}

func NewSessionHandler(sessions *services.SessionService, maxUpload int64, log *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, maxUpload: maxUpload, log: log}
}

type sessionResponse struct {
	ID           string                    `json:"id"`
	State        models.SessionState       `json:"state"`
	DocumentName string                    `json:"documentName,omitempty"`
	Content      string                    `json:"content,omitempty"`
	Turns        []models.ConversationTurn `json:"turns"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

func toSessionResponse(s *models.Session) sessionResponse {
	out := sessionResponse{
		ID:           s.ID,
		State:        s.State(),
		DocumentName: s.DocumentName,
		Turns:        s.Turns,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.Document != nil {
		out.Content = s.Document.Content
	}
	if out.Turns == nil {
		out.Turns = []models.ConversationTurn{}
	}
	return out
}

type SessionChatRequest struct {
	Message        string                 `json:"message" validate:"required"`
	ProviderConfig *models.ProviderConfig `json:"providerConfig,omitempty"`
}

type sessionChatResponse struct {
	Response string                    `json:"response"`
	State    models.SessionState       `json:"state,omitempty"`
	Turns    []models.ConversationTurn `json:"turns"`
}

// CreateSession starts a session. A multipart "file" part, when present, is
// loaded as the session document straight away.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var upload *models.UploadedDocument
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		u, err := readUpload(w, r, h.maxUpload)
		if err != nil {
			writeServiceError(w, h.log, err)
			return
		}
		upload = &u
	}

	session, err := h.sessions.Create(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	if upload != nil {
		loaded, err := h.sessions.LoadDocument(r.Context(), session.ID, *upload)
		if err != nil {
			_ = h.sessions.Delete(r.Context(), session.ID)
			writeServiceError(w, h.log, err)
			return
		}
		session = loaded
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *SessionHandler) LoadDocument(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	session, err := h.sessions.LoadDocument(r.Context(), chi.URLParam(r, "id"), upload)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *SessionHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req SessionChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	answer, session, err := h.sessions.Ask(r.Context(), chi.URLParam(r, "id"), req.Message, req.ProviderConfig)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	resp := sessionChatResponse{Response: answer, Turns: []models.ConversationTurn{}}
	if session != nil {
		resp.State = session.State()
		resp.Turns = session.Turns
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// DeleteSession is idempotent: deleting an unknown or expired session is not
// an error.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil && !isNotFound(err) {
		writeServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
