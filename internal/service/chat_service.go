package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	app_errors "leetmate/agent/internal/errors"
	"leetmate/agent/internal/llm"
	"leetmate/agent/internal/model"
	"leetmate/agent/internal/parser"
	"leetmate/agent/internal/repository"
)

// ChatService drives the per-message state machine
// (sending -> streaming -> succeeded | failed) and owns persistence of
// completed turns. Stream events for one assistant message are applied
// strictly in arrival order; every applied event is mirrored to the caller's
// update channel before the next one is read.
type ChatService struct {
	store    repository.Store
	llm      llm.Provider
	thinking bool

	mu      sync.Mutex
	pending map[string]*pendingTurn
}

// SendMessageRequest is a new user message for one problem's chat session.
type SendMessageRequest struct {
	Slug    string `json:"slug" validate:"required"`
	ChatID  string `json:"chatId"`
	Content string `json:"content" validate:"required,min=1"`
}

// pendingTurn keeps everything needed to replay a failed message: the exact
// provider request (same problem/code/test-result snapshot), the chat it
// belongs to, and both half-finished messages.
type pendingTurn struct {
	slug      string
	chatID    string
	req       *llm.ChatRequest
	userMsg   model.ChatMessage
	assistant model.ChatMessage
}

func NewChatService(store repository.Store, provider llm.Provider, thinking bool) *ChatService {
	return &ChatService{
		store:    store,
		llm:      provider,
		thinking: thinking,
		pending:  make(map[string]*pendingTurn),
	}
}

// HandleSendMessage processes one user message end to end: assembles the
// grounding context, streams the model's response, and persists the session
// on success. Updates are written to the channel in event order; the channel
// is closed when the turn terminates either way.
func (s *ChatService) HandleSendMessage(ctx context.Context, req *SendMessageRequest, updates chan<- model.MessageUpdate) {
	defer close(updates)

	chatID := req.ChatID
	if chatID == "" {
		chatID = uuid.NewString()
	}

	history, err := s.chatHistory(ctx, req.Slug, chatID)
	if err != nil {
		slog.Error("Could not load chat history", "slug", req.Slug, "chat_id", chatID, "error", err)
		updates <- model.MessageUpdate{Done: true, Error: "Could not load chat history"}
		return
	}

	problemCtx := s.problemContext(ctx, req.Slug)

	turn := &pendingTurn{
		slug:   req.Slug,
		chatID: chatID,
		req: &llm.ChatRequest{
			History:  history,
			Message:  req.Content,
			Context:  problemCtx,
			Thinking: s.thinking,
		},
		userMsg: model.ChatMessage{
			ID:     uuid.NewString(),
			Text:   req.Content,
			IsUser: true,
			Status: model.StatusSending,
		},
		assistant: model.ChatMessage{
			ID:     uuid.NewString(),
			Status: model.StatusStreaming,
		},
	}

	s.runTurn(ctx, turn, updates)
}

// RetryMessage replays a failed turn with its original request parameters.
// The context snapshot the failed attempt used is reused verbatim, so a retry
// against a now-succeeding provider lands the same grounded conversation.
func (s *ChatService) RetryMessage(ctx context.Context, messageID string, updates chan<- model.MessageUpdate) {
	defer close(updates)

	s.mu.Lock()
	turn, ok := s.pending[messageID]
	s.mu.Unlock()
	if !ok {
		updates <- model.MessageUpdate{Done: true, Error: "No failed message to retry"}
		return
	}

	turn.assistant.Text = ""
	turn.assistant.Thinking = nil
	turn.assistant.ThinkingStartTime = 0
	turn.assistant.ThinkingEndTime = 0
	turn.assistant.Status = model.StatusSending

	s.runTurn(ctx, turn, updates)
}

func (s *ChatService) runTurn(ctx context.Context, turn *pendingTurn, updates chan<- model.MessageUpdate) {
	turn.assistant.Status = model.StatusStreaming

	events := make(chan model.StreamEvent)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.llm.GenerateStream(ctx, turn.req, events)
	}()

	for ev := range events {
		if applyEvent(&turn.assistant, ev) {
			updates <- model.MessageUpdate{Message: turn.assistant}
		}
	}

	if err := <-errCh; err != nil {
		// Partial text and thinking are retained for display and retry.
		turn.assistant.Status = model.StatusFailed
		s.mu.Lock()
		s.pending[turn.assistant.ID] = turn
		s.mu.Unlock()
		slog.Warn("Assistant turn failed", "chat_id", turn.chatID, "message_id", turn.assistant.ID, "error", err)
		updates <- model.MessageUpdate{Message: turn.assistant, Done: true, Error: err.Error()}
		return
	}

	turn.userMsg.Status = model.StatusSucceeded
	turn.assistant.Status = model.StatusSucceeded

	if err := s.persistTurn(ctx, turn); err != nil {
		slog.Error("Failed to persist completed turn", "chat_id", turn.chatID, "error", err)
		updates <- model.MessageUpdate{Message: turn.assistant, Done: true, Error: "Could not save the conversation"}
		return
	}

	s.mu.Lock()
	delete(s.pending, turn.assistant.ID)
	s.mu.Unlock()

	updates <- model.MessageUpdate{Message: turn.assistant, Done: true}
}

// applyEvent mutates the in-flight assistant message per one stream event.
// Returns false for empty no-op events, which must not touch message state
// or timers.
func applyEvent(msg *model.ChatMessage, ev model.StreamEvent) bool {
	switch {
	case ev.Thought != "" && ev.ThinkingStartTime != 0:
		msg.Thinking = []string{ev.Thought}
		msg.ThinkingStartTime = ev.ThinkingStartTime
	case ev.Thought != "":
		msg.Thinking = append(msg.Thinking, ev.Thought)
	case ev.Text != "" && ev.ThinkingEndTime != 0:
		msg.ThinkingEndTime = ev.ThinkingEndTime
		msg.Text += ev.Text
	case ev.Text != "":
		msg.Text += ev.Text
	default:
		return false
	}
	return true
}

// persistTurn appends the finished user/assistant pair to the session and
// stores the whole chat list back under the problem slug (get-then-put).
func (s *ChatService) persistTurn(ctx context.Context, turn *pendingTurn) error {
	chats, err := s.store.GetChats(ctx, turn.slug)
	if err != nil {
		return err
	}

	now := model.NowMillis()
	found := false
	for i := range chats {
		if chats[i].ID == turn.chatID {
			chats[i].Messages = append(chats[i].Messages, turn.userMsg, turn.assistant)
			chats[i].LastUpdated = now
			found = true
			break
		}
	}
	if !found {
		chats = append(chats, model.Chat{
			ID:          turn.chatID,
			Messages:    []model.ChatMessage{turn.userMsg, turn.assistant},
			LastUpdated: now,
		})
	}

	return s.store.PutChats(ctx, turn.slug, chats)
}

func (s *ChatService) chatHistory(ctx context.Context, slug, chatID string) ([]model.ChatMessage, error) {
	chats, err := s.store.GetChats(ctx, slug)
	if err != nil {
		return nil, err
	}
	for _, chat := range chats {
		if chat.ID == chatID {
			return chat.Messages, nil
		}
	}
	return []model.ChatMessage{}, nil
}

// problemContext loads the cached unified update for the slug. Absence is
// normal (the user may chat before any scrape landed); the provider request
// falls back to placeholders.
func (s *ChatService) problemContext(ctx context.Context, slug string) *model.UnifiedUpdate {
	update, err := s.store.GetProblem(ctx, slug)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Warn("Could not load cached problem context", "slug", slug, "error", err)
		}
		return nil
	}
	return update
}

// LoadChats returns all sessions for a problem, backfilling a lastUpdated
// timestamp for legacy entries that lack one. Entries that already have one
// are left untouched.
func (s *ChatService) LoadChats(ctx context.Context, slug string) ([]model.Chat, error) {
	chats, err := s.store.GetChats(ctx, slug)
	if err != nil {
		return nil, err
	}
	now := model.NowMillis()
	for i := range chats {
		if chats[i].LastUpdated == 0 {
			chats[i].LastUpdated = now
		}
	}
	return chats, nil
}

// GetChat returns one session by id.
func (s *ChatService) GetChat(ctx context.Context, slug, chatID string) (*model.Chat, error) {
	chats, err := s.store.GetChats(ctx, slug)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		if chats[i].ID == chatID {
			return &chats[i], nil
		}
	}
	return nil, fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
}

// DeleteChat removes one session from a problem's chat list.
func (s *ChatService) DeleteChat(ctx context.Context, slug, chatID string) error {
	chats, err := s.store.GetChats(ctx, slug)
	if err != nil {
		return err
	}
	kept := chats[:0]
	found := false
	for _, chat := range chats {
		if chat.ID == chatID {
			found = true
			continue
		}
		kept = append(kept, chat)
	}
	if !found {
		return fmt.Errorf("%w: chat %s", app_errors.ErrNotFound, chatID)
	}
	return s.store.PutChats(ctx, slug, kept)
}

// SaveResponse bookmarks an assistant message id for the problem. Saving an
// already-saved id is a no-op.
func (s *ChatService) SaveResponse(ctx context.Context, slug, messageID string) error {
	ids, err := s.store.GetSavedResponses(ctx, slug)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == messageID {
			return nil
		}
	}
	return s.store.PutSavedResponses(ctx, slug, append(ids, messageID))
}

// UnsaveResponse removes a bookmarked message id.
func (s *ChatService) UnsaveResponse(ctx context.Context, slug, messageID string) error {
	ids, err := s.store.GetSavedResponses(ctx, slug)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != messageID {
			kept = append(kept, id)
		}
	}
	return s.store.PutSavedResponses(ctx, slug, kept)
}

// ListSavedResponses returns the bookmarked message ids for a problem.
func (s *ChatService) ListSavedResponses(ctx context.Context, slug string) ([]string, error) {
	return s.store.GetSavedResponses(ctx, slug)
}

// RecordProblemUpdate caches the latest unified update for a problem so chat
// context survives restarts.
func (s *ChatService) RecordProblemUpdate(ctx context.Context, update *model.UnifiedUpdate) error {
	return s.store.PutProblem(ctx, update.ProblemSlug, update)
}

// DisplayTitle resolves a problem's display title from the cache, falling
// back to a slug-derived title when the cached one cannot be read. The load
// failure is logged, never surfaced.
func (s *ChatService) DisplayTitle(ctx context.Context, slug string) string {
	update, err := s.store.GetProblem(ctx, slug)
	if err != nil || update.Title == "" {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Warn("Could not load cached problem title", "slug", slug, "error", err)
		}
		return parser.DisplayTitleFromSlug(slug)
	}
	return update.Title
}
