package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"leetmate/agent/internal/model"
)

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore is the Redis-backed alternative to the SQLite store, for
// setups where the agent shares state with other local tooling.
func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (r *redisStore) chatsKey(slug string) string { return fmt.Sprintf("chats:%s", slug) }
func (r *redisStore) savedKey(slug string) string { return fmt.Sprintf("saved:%s", slug) }
func (r *redisStore) problemKey(slug string) string { return fmt.Sprintf("problem:%s", slug) }

func (r *redisStore) GetChats(ctx context.Context, slug string) ([]model.Chat, error) {
	var chats []model.Chat
	if err := r.getJSON(ctx, r.chatsKey(slug), &chats); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.Chat{}, nil
		}
		return nil, err
	}
	if chats == nil {
		chats = []model.Chat{}
	}
	return chats, nil
}

func (r *redisStore) PutChats(ctx context.Context, slug string, chats []model.Chat) error {
	return r.putJSON(ctx, r.chatsKey(slug), chats)
}

func (r *redisStore) GetSavedResponses(ctx context.Context, slug string) ([]string, error) {
	var ids []string
	if err := r.getJSON(ctx, r.savedKey(slug), &ids); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *redisStore) PutSavedResponses(ctx context.Context, slug string, ids []string) error {
	return r.putJSON(ctx, r.savedKey(slug), ids)
}

func (r *redisStore) GetProblem(ctx context.Context, slug string) (*model.UnifiedUpdate, error) {
	var update model.UnifiedUpdate
	if err := r.getJSON(ctx, r.problemKey(slug), &update); err != nil {
		return nil, err
	}
	return &update, nil
}

func (r *redisStore) PutProblem(ctx context.Context, slug string, update *model.UnifiedUpdate) error {
	return r.putJSON(ctx, r.problemKey(slug), update)
}

func (r *redisStore) getJSON(ctx context.Context, key string, out any) error {
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (r *redisStore) putJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode document for %s: %w", key, err)
	}
	return r.rdb.Set(ctx, key, string(raw), 0).Err()
}
