package repository

import (
	"context"

	"leetmate/agent/internal/model"
)

// Store is the persistence collaborator: get/put semantics over three
// problem-slug-keyed stores. Writes are whole-value replacements; callers do
// get-then-put read-modify-write cycles. The design assumes a single writer
// per key (the agent process itself), so there is no optimistic-concurrency
// check; this is a known limitation, not an oversight.
type Store interface {
	// GetChats returns the chat sessions stored for a problem. A missing key
	// yields an empty slice, not an error.
	GetChats(ctx context.Context, slug string) ([]model.Chat, error)
	PutChats(ctx context.Context, slug string, chats []model.Chat) error

	// GetSavedResponses returns the bookmarked message ids for a problem.
	// A missing key yields an empty slice.
	GetSavedResponses(ctx context.Context, slug string) ([]string, error)
	PutSavedResponses(ctx context.Context, slug string, ids []string) error

	// GetProblem returns the last forwarded unified update for a problem, or
	// ErrNotFound when none was stored.
	GetProblem(ctx context.Context, slug string) (*model.UnifiedUpdate, error)
	PutProblem(ctx context.Context, slug string, update *model.UnifiedUpdate) error
}
