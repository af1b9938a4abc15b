package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore keeps settings in the user_settings table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore returns a store backed by db. The user_settings table
// must already exist (see the migrations package).
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// GetUserSettings implements Store.
func (s *SQLiteStore) GetUserSettings(ctx context.Context, userID string) (UserSettings, error) {
	return s.get(ctx, s.db, userID)
}

// SaveUserSettings implements Store.
func (s *SQLiteStore) SaveUserSettings(ctx context.Context, userID string, us UserSettings) error {
	return s.put(ctx, s.db, userID, us)
}

// UpdateUserSettings implements Store. The read and write happen in one
// transaction.
func (s *SQLiteStore) UpdateUserSettings(ctx context.Context, userID string, patch UserSettings) (UserSettings, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := s.get(ctx, tx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	merged := current.Merge(patch)
	if err := s.put(ctx, tx, userID, merged); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing settings: %w", err)
	}
	return merged, nil
}

// DeleteUserSettings implements Store.
func (s *SQLiteStore) DeleteUserSettings(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM user_settings WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("deleting settings: %w", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) get(ctx context.Context, q querier, userID string) (UserSettings, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	var raw string
	err := q.QueryRowContext(ctx, "SELECT settings FROM user_settings WHERE user_id = ?", userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}

	us := UserSettings{}
	if err := json.Unmarshal([]byte(raw), &us); err != nil {
		return nil, fmt.Errorf("decoding settings for %s: %w", userID, err)
	}
	return us, nil
}

func (s *SQLiteStore) put(ctx context.Context, q querier, userID string, us UserSettings) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	data, err := json.Marshal(us.Clone())
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, settings, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET settings = excluded.settings, updated_at = excluded.updated_at`,
		userID, string(data), s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
