package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	app_errors "leetmate/agent/internal/errors"
	"leetmate/agent/internal/interfaces"
	"leetmate/agent/internal/model"
	"leetmate/agent/internal/relay"
	"leetmate/agent/internal/service"
)

type ChatHandler struct {
	service interfaces.ChatService
	hub     *relay.Hub
}

func NewChatHandler(svc interfaces.ChatService, hub *relay.Hub) *ChatHandler {
	return &ChatHandler{service: svc, hub: hub}
}

// SaveResponseRequest marks or unmarks a bookmarked assistant message.
type SaveResponseRequest struct {
	MessageID string `json:"messageId" validate:"required"`
}

// GetChats godoc
// @Summary      List chat sessions for a problem
// @Tags         chats
// @Produce      json
// @Param        slug  path      string  true  "Problem slug"
// @Success      200   {array}   model.Chat
// @Router       /v1/problems/{slug}/chats [get]
func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	chats, err := h.service.LoadChats(r.Context(), slug)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, chats)
}

// GetChat godoc
// @Summary      Fetch a single chat session
// @Tags         chats
// @Produce      json
// @Param        slug    path      string  true  "Problem slug"
// @Param        chatID  path      string  true  "Chat id"
// @Success      200     {object}  model.Chat
// @Router       /v1/problems/{slug}/chats/{chatID} [get]
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	chatID := chi.URLParam(r, "chatID")
	chat, err := h.service.GetChat(r.Context(), slug, chatID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, chat)
}

// DeleteChat godoc
// @Summary      Delete a chat session
// @Tags         chats
// @Produce      json
// @Param        slug    path      string  true  "Problem slug"
// @Param        chatID  path      string  true  "Chat id"
// @Success      200     {object}  StatusResponse
// @Router       /v1/problems/{slug}/chats/{chatID} [delete]
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	chatID := chi.URLParam(r, "chatID")
	if err := h.service.DeleteChat(r.Context(), slug, chatID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// GetProblemTitle godoc
// @Summary      Resolve a problem's display title
// @Tags         problems
// @Produce      json
// @Param        slug  path      string  true  "Problem slug"
// @Success      200   {object}  map[string]string
// @Router       /v1/problems/{slug}/title [get]
func (h *ChatHandler) GetProblemTitle(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	respondWithJSON(w, http.StatusOK, map[string]string{"title": h.service.DisplayTitle(r.Context(), slug)})
}

// GetSavedResponses godoc
// @Summary      List bookmarked assistant message ids
// @Tags         saved
// @Produce      json
// @Param        slug  path      string  true  "Problem slug"
// @Success      200   {array}   string
// @Router       /v1/problems/{slug}/saved [get]
func (h *ChatHandler) GetSavedResponses(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	ids, err := h.service.ListSavedResponses(r.Context(), slug)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ids)
}

// SaveResponse godoc
// @Summary      Bookmark an assistant message
// @Tags         saved
// @Accept       json
// @Produce      json
// @Param        slug     path      string               true  "Problem slug"
// @Param        request  body      SaveResponseRequest  true  "Message id"
// @Success      200      {object}  StatusResponse
// @Router       /v1/problems/{slug}/saved [post]
func (h *ChatHandler) SaveResponse(w http.ResponseWriter, r *http.Request) {
	h.mutateSavedResponses(w, r, h.service.SaveResponse, "saved")
}

// UnsaveResponse godoc
// @Summary      Remove a bookmarked assistant message
// @Tags         saved
// @Accept       json
// @Produce      json
// @Param        slug     path      string               true  "Problem slug"
// @Param        request  body      SaveResponseRequest  true  "Message id"
// @Success      200      {object}  StatusResponse
// @Router       /v1/problems/{slug}/saved [delete]
func (h *ChatHandler) UnsaveResponse(w http.ResponseWriter, r *http.Request) {
	h.mutateSavedResponses(w, r, h.service.UnsaveResponse, "removed")
}

func (h *ChatHandler) mutateSavedResponses(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, slug, messageID string) error,
	status string,
) {
	slug := chi.URLParam(r, "slug")
	var req SaveResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request body", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := op(r.Context(), slug, req.MessageID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: status})
}

// HandleStreamMessage godoc
// @Summary      Send a message and stream the assistant's response
// @Tags         chats
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  service.SendMessageRequest  true  "Message"
// @Router       /v1/chats/messages [post]
func (h *ChatHandler) HandleStreamMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	var req service.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		sendStreamError(w, err.Error())
		return
	}

	updates := make(chan model.MessageUpdate)
	go h.service.HandleSendMessage(r.Context(), &req, updates)
	h.streamUpdates(w, r, updates)
}

// HandleRetryMessage godoc
// @Summary      Retry a failed assistant message
// @Tags         chats
// @Produce      text/event-stream
// @Param        messageID  path  string  true  "Failed message id"
// @Router       /v1/chats/messages/{messageID}/retry [post]
func (h *ChatHandler) HandleRetryMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)
	messageID := chi.URLParam(r, "messageID")

	updates := make(chan model.MessageUpdate)
	go h.service.RetryMessage(r.Context(), messageID, updates)
	h.streamUpdates(w, r, updates)
}

// ToggleChat godoc
// @Summary      Ask connected widgets to toggle visibility
// @Tags         widget
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /v1/widget/toggle [post]
func (h *ChatHandler) ToggleChat(w http.ResponseWriter, r *http.Request) {
	h.hub.BroadcastToggleChat()
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "toggled"})
}

func (h *ChatHandler) streamUpdates(w http.ResponseWriter, r *http.Request, updates <-chan model.MessageUpdate) {
	for update := range updates {
		if r.Context().Err() != nil {
			slog.Debug("Client disconnected during stream")
			// Keep draining so the service can finish and persist.
			continue
		}
		if err := writeStreamEvent(w, update); err != nil {
			slog.Debug("Stream write failed, draining remaining updates", "error", err)
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
