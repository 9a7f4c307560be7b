// Package sqlite persists portal bearer tokens in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/smsportal/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/smsportal/internal/services/portal/storage"
	"github.com/louisbranch/smsportal/internal/services/portal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed token persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens, creating parent directories as needed, and migrates the token
// database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadToken returns the unexpired token stored under key.
func (s *Store) LoadToken(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.sqlDB == nil {
		return "", false, storage.ErrClosed
	}
	key, err := storage.ValidateKey(key)
	if err != nil {
		return "", false, err
	}
	var token string
	var expiresAt int64
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT token, expires_at FROM portal_tokens WHERE token_key = ?`,
		key,
	).Scan(&token, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load token: %w", err)
	}
	if expiresAt > 0 && expiresAt <= s.now().UTC().UnixMilli() {
		if err := s.DeleteToken(ctx, key); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return token, true, nil
}

// SaveToken upserts the token stored under key.
func (s *Store) SaveToken(ctx context.Context, key string, token string, expiresAt time.Time) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrClosed
	}
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required")
	}
	if !expiresAt.IsZero() && !s.now().Before(expiresAt) {
		return storage.ErrTokenExpired
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO portal_tokens (token_key, token, expires_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(token_key) DO UPDATE SET
		    token = excluded.token,
		    expires_at = excluded.expires_at,
		    updated_at = excluded.updated_at`,
		key,
		token,
		timeToUnixMillis(expiresAt),
		timeToUnixMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// DeleteToken removes the token stored under key. Missing keys are not an error.
func (s *Store) DeleteToken(ctx context.Context, key string) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrClosed
	}
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM portal_tokens WHERE token_key = ?`, key); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// PurgeExpiredTokens deletes every token that expired at or before now.
func (s *Store) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, storage.ErrClosed
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM portal_tokens WHERE expires_at > 0 AND expires_at <= ?`,
		timeToUnixMillis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return result.RowsAffected()
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

var (
	_ storage.TokenStore         = (*Store)(nil)
	_ storage.ExpiredTokenPurger = (*Store)(nil)
)
