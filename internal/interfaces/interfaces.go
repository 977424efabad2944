package interfaces

import (
	"context"

	"leetmate/agent/internal/model"
	"leetmate/agent/internal/service"
)

// This file defines the interfaces for our core services. Depending on these
// instead of concrete implementations decouples the API layer from the
// service layer and makes both mockable in tests.

// ChatService is the contract of the chat session controller.
type ChatService interface {
	HandleSendMessage(ctx context.Context, req *service.SendMessageRequest, updates chan<- model.MessageUpdate)
	RetryMessage(ctx context.Context, messageID string, updates chan<- model.MessageUpdate)
	LoadChats(ctx context.Context, slug string) ([]model.Chat, error)
	GetChat(ctx context.Context, slug, chatID string) (*model.Chat, error)
	DeleteChat(ctx context.Context, slug, chatID string) error
	SaveResponse(ctx context.Context, slug, messageID string) error
	UnsaveResponse(ctx context.Context, slug, messageID string) error
	ListSavedResponses(ctx context.Context, slug string) ([]string, error)
	RecordProblemUpdate(ctx context.Context, update *model.UnifiedUpdate) error
	DisplayTitle(ctx context.Context, slug string) string
}
