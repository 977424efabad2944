package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"leetmate/agent/internal/model"
)

type sqliteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) GetChats(ctx context.Context, slug string) ([]model.Chat, error) {
	var chats []model.Chat
	if err := s.getJSON(ctx, "chats", slug, &chats); err != nil {
		if err == ErrNotFound {
			return []model.Chat{}, nil
		}
		return nil, err
	}
	if chats == nil {
		chats = []model.Chat{}
	}
	return chats, nil
}

func (s *sqliteStore) PutChats(ctx context.Context, slug string, chats []model.Chat) error {
	return s.putJSON(ctx, "chats", slug, chats)
}

func (s *sqliteStore) GetSavedResponses(ctx context.Context, slug string) ([]string, error) {
	var ids []string
	if err := s.getJSON(ctx, "saved_responses", slug, &ids); err != nil {
		if err == ErrNotFound {
			return []string{}, nil
		}
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *sqliteStore) PutSavedResponses(ctx context.Context, slug string, ids []string) error {
	return s.putJSON(ctx, "saved_responses", slug, ids)
}

func (s *sqliteStore) GetProblem(ctx context.Context, slug string) (*model.UnifiedUpdate, error) {
	var update model.UnifiedUpdate
	if err := s.getJSON(ctx, "problems", slug, &update); err != nil {
		return nil, err
	}
	return &update, nil
}

func (s *sqliteStore) PutProblem(ctx context.Context, slug string, update *model.UnifiedUpdate) error {
	return s.putJSON(ctx, "problems", slug, update)
}

// The three stores share one layout: a slug-keyed JSON document per row.
// Table names are fixed by the migrations, never caller-supplied.
func (s *sqliteStore) getJSON(ctx context.Context, table, slug string, out any) error {
	query := fmt.Sprintf("SELECT data FROM %s WHERE problem_slug = ?", table)
	var raw string
	err := s.db.QueryRowContext(ctx, query, slug).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("could not decode stored %s document: %w", table, err)
	}
	return nil
}

func (s *sqliteStore) putJSON(ctx context.Context, table, slug string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode %s document: %w", table, err)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (problem_slug, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(problem_slug) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, table)
	_, err = s.db.ExecContext(ctx, query, slug, string(raw), time.Now().UTC())
	return err
}
