package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/models"
	"github.com/jstepanek/textlens/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
	log  *zap.Logger
}

func NewChatHandler(chat *services.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

// ChatRequest carries the whole conversation; the server keeps nothing
// between calls.
type ChatRequest struct {
	Message             string                    `json:"message" validate:"required"`
	DocumentContent     string                    `json:"documentContent" validate:"required"`
	ConversationHistory []models.ConversationTurn `json:"conversationHistory" validate:"dive"`
	ProviderConfig      *models.ProviderConfig    `json:"providerConfig,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	answer, err := h.chat.Answer(r.Context(), req.DocumentContent, req.ConversationHistory, req.Message, req.ProviderConfig)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}
