package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/playbook-access-api/internal/database"
)

// contentRepo is the concrete implementation of ContentRepository
type contentRepo struct {
	db *database.DB
}

// NewContentRepo creates a new content repository
func NewContentRepo(db *database.DB) ContentRepository {
	return &contentRepo{db: db}
}

// Get reads a single entry. The second return value distinguishes an
// absent key from legitimately empty content.
func (r *contentRepo) Get(ctx context.Context, userID, key string) (string, bool, error) {
	var value string
	query := `SELECT value FROM content_entries WHERE user_id = $1 AND key = $2`
	err := r.db.QueryRowContext(ctx, query, userID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts an entry, last write wins
func (r *contentRepo) Set(ctx context.Context, userID, key, value string) error {
	query := `
		INSERT INTO content_entries (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, userID, key, value, time.Now())
	return err
}

// CountLike counts entries whose key matches a SQL LIKE pattern. Served
// by the (user_id, key) primary key index, not a table scan.
func (r *contentRepo) CountLike(ctx context.Context, userID, pattern string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM content_entries WHERE user_id = $1 AND key LIKE $2`
	err := r.db.QueryRowContext(ctx, query, userID, pattern).Scan(&count)
	return count, err
}

// ListKeys returns the keys matching a SQL LIKE pattern
func (r *contentRepo) ListKeys(ctx context.Context, userID, pattern string) ([]string, error) {
	query := `SELECT key FROM content_entries WHERE user_id = $1 AND key LIKE $2 ORDER BY key`
	rows, err := r.db.QueryContext(ctx, query, userID, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
