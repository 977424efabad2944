package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "leetmate/agent/internal/errors"
	"leetmate/agent/internal/model"
	"leetmate/agent/internal/relay"
	"leetmate/agent/internal/service"
)

// fakeChatService lets each test script the session controller's behavior.
type fakeChatService struct {
	handleSendMessage func(ctx context.Context, req *service.SendMessageRequest, updates chan<- model.MessageUpdate)
	retryMessage      func(ctx context.Context, messageID string, updates chan<- model.MessageUpdate)
	loadChats         func(ctx context.Context, slug string) ([]model.Chat, error)
	getChat           func(ctx context.Context, slug, chatID string) (*model.Chat, error)
	deleteChat        func(ctx context.Context, slug, chatID string) error
	saveResponse      func(ctx context.Context, slug, messageID string) error
	unsaveResponse    func(ctx context.Context, slug, messageID string) error
	listSaved         func(ctx context.Context, slug string) ([]string, error)
	recordUpdate      func(ctx context.Context, update *model.UnifiedUpdate) error
	displayTitle      func(ctx context.Context, slug string) string
}

func (f *fakeChatService) HandleSendMessage(ctx context.Context, req *service.SendMessageRequest, updates chan<- model.MessageUpdate) {
	if f.handleSendMessage != nil {
		f.handleSendMessage(ctx, req, updates)
		return
	}
	close(updates)
}

func (f *fakeChatService) RetryMessage(ctx context.Context, messageID string, updates chan<- model.MessageUpdate) {
	if f.retryMessage != nil {
		f.retryMessage(ctx, messageID, updates)
		return
	}
	close(updates)
}

func (f *fakeChatService) LoadChats(ctx context.Context, slug string) ([]model.Chat, error) {
	return f.loadChats(ctx, slug)
}

func (f *fakeChatService) GetChat(ctx context.Context, slug, chatID string) (*model.Chat, error) {
	return f.getChat(ctx, slug, chatID)
}

func (f *fakeChatService) DeleteChat(ctx context.Context, slug, chatID string) error {
	return f.deleteChat(ctx, slug, chatID)
}

func (f *fakeChatService) SaveResponse(ctx context.Context, slug, messageID string) error {
	return f.saveResponse(ctx, slug, messageID)
}

func (f *fakeChatService) UnsaveResponse(ctx context.Context, slug, messageID string) error {
	return f.unsaveResponse(ctx, slug, messageID)
}

func (f *fakeChatService) ListSavedResponses(ctx context.Context, slug string) ([]string, error) {
	return f.listSaved(ctx, slug)
}

func (f *fakeChatService) RecordProblemUpdate(ctx context.Context, update *model.UnifiedUpdate) error {
	return f.recordUpdate(ctx, update)
}

func (f *fakeChatService) DisplayTitle(ctx context.Context, slug string) string {
	return f.displayTitle(ctx, slug)
}

func newTestRouter(svc *fakeChatService) http.Handler {
	hub := relay.NewHub(relay.Handlers{})
	return NewRouter(NewChatHandler(svc, hub), hub)
}

func TestGetChats(t *testing.T) {
	t.Run("returns the sessions", func(t *testing.T) {
		svc := &fakeChatService{
			loadChats: func(_ context.Context, slug string) ([]model.Chat, error) {
				assert.Equal(t, "two-sum", slug)
				return []model.Chat{{ID: "chat-1", LastUpdated: 42}}, nil
			},
		}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/problems/two-sum/chats", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var chats []model.Chat
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chats))
		require.Len(t, chats, 1)
		assert.Equal(t, "chat-1", chats[0].ID)
	})

	t.Run("store failure maps to 500", func(t *testing.T) {
		svc := &fakeChatService{
			loadChats: func(_ context.Context, _ string) ([]model.Chat, error) {
				return nil, fmt.Errorf("db exploded")
			},
		}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/problems/two-sum/chats", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetChat(t *testing.T) {
	t.Run("returns the session", func(t *testing.T) {
		svc := &fakeChatService{
			getChat: func(_ context.Context, slug, chatID string) (*model.Chat, error) {
				assert.Equal(t, "two-sum", slug)
				assert.Equal(t, "chat-1", chatID)
				return &model.Chat{ID: "chat-1", LastUpdated: 42}, nil
			},
		}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/problems/two-sum/chats/chat-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var chat model.Chat
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
		assert.Equal(t, "chat-1", chat.ID)
	})

	t.Run("unknown chat maps to 404", func(t *testing.T) {
		svc := &fakeChatService{
			getChat: func(_ context.Context, _, _ string) (*model.Chat, error) {
				return nil, fmt.Errorf("%w: chat ghost", app_errors.ErrNotFound)
			},
		}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/problems/two-sum/chats/ghost", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteChat(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		svc := &fakeChatService{
			deleteChat: func(_ context.Context, slug, chatID string) error {
				assert.Equal(t, "two-sum", slug)
				assert.Equal(t, "chat-1", chatID)
				return nil
			},
		}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/problems/two-sum/chats/chat-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "deleted")
	})

	t.Run("unknown chat maps to 404", func(t *testing.T) {
		svc := &fakeChatService{
			deleteChat: func(_ context.Context, _, _ string) error {
				return fmt.Errorf("%w: chat ghost", app_errors.ErrNotFound)
			},
		}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/problems/two-sum/chats/ghost", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetProblemTitle(t *testing.T) {
	svc := &fakeChatService{
		displayTitle: func(_ context.Context, slug string) string {
			assert.Equal(t, "two-sum", slug)
			return "1. Two Sum"
		},
	}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/problems/two-sum/title", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"1. Two Sum"}`, rec.Body.String())
}

func TestSavedResponses(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		svc := &fakeChatService{
			listSaved: func(_ context.Context, _ string) ([]string, error) { return []string{"m1"}, nil },
		}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/problems/two-sum/saved", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `["m1"]`, rec.Body.String())
	})

	t.Run("save", func(t *testing.T) {
		var gotID string
		svc := &fakeChatService{
			saveResponse: func(_ context.Context, _, messageID string) error {
				gotID = messageID
				return nil
			},
		}
		body := bytes.NewBufferString(`{"messageId":"m1"}`)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/problems/two-sum/saved", body))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "m1", gotID)
	})

	t.Run("save without a message id fails validation", func(t *testing.T) {
		svc := &fakeChatService{}
		body := bytes.NewBufferString(`{}`)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/problems/two-sum/saved", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("save with a malformed body fails", func(t *testing.T) {
		svc := &fakeChatService{}
		body := bytes.NewBufferString(`{not json`)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/problems/two-sum/saved", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsave", func(t *testing.T) {
		var gotID string
		svc := &fakeChatService{
			unsaveResponse: func(_ context.Context, _, messageID string) error {
				gotID = messageID
				return nil
			},
		}
		body := bytes.NewBufferString(`{"messageId":"m1"}`)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/problems/two-sum/saved", body))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "m1", gotID)
	})
}

func TestHandleStreamMessage(t *testing.T) {
	t.Run("streams updates as SSE", func(t *testing.T) {
		svc := &fakeChatService{
			handleSendMessage: func(_ context.Context, req *service.SendMessageRequest, updates chan<- model.MessageUpdate) {
				defer close(updates)
				assert.Equal(t, "two-sum", req.Slug)
				assert.Equal(t, "help", req.Content)
				updates <- model.MessageUpdate{Message: model.ChatMessage{ID: "a1", Text: "Hi", Status: model.StatusStreaming}}
				updates <- model.MessageUpdate{Message: model.ChatMessage{ID: "a1", Text: "Hi there", Status: model.StatusSucceeded}, Done: true}
			},
		}
		body := bytes.NewBufferString(`{"slug":"two-sum","content":"help"}`)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chats/messages", body))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

		events := parseSSE(t, rec.Body.String())
		require.Len(t, events, 2)
		assert.Equal(t, "Hi", events[0].Message.Text)
		assert.False(t, events[0].Done)
		assert.Equal(t, "Hi there", events[1].Message.Text)
		assert.True(t, events[1].Done)
	})

	t.Run("missing content fails before streaming", func(t *testing.T) {
		svc := &fakeChatService{}
		body := bytes.NewBufferString(`{"slug":"two-sum"}`)
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chats/messages", body))

		assert.Contains(t, rec.Body.String(), "event: error")
	})
}

func TestHandleRetryMessage(t *testing.T) {
	svc := &fakeChatService{
		retryMessage: func(_ context.Context, messageID string, updates chan<- model.MessageUpdate) {
			defer close(updates)
			assert.Equal(t, "m-failed", messageID)
			updates <- model.MessageUpdate{Message: model.ChatMessage{ID: "m-failed", Status: model.StatusSucceeded}, Done: true}
		},
	}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chats/messages/m-failed/retry", nil))

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.True(t, events[0].Done)
}

func TestToggleChat(t *testing.T) {
	svc := &fakeChatService{}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/widget/toggle", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "toggled")
}

func TestHealthz(t *testing.T) {
	svc := &fakeChatService{}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func parseSSE(t *testing.T, body string) []model.MessageUpdate {
	t.Helper()
	var out []model.MessageUpdate
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var update model.MessageUpdate
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &update))
		out = append(out, update)
	}
	return out
}
