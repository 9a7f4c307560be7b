// Package redis persists portal bearer tokens in Redis. Replicas pointed at
// the same database share browser sessions: the session manager compares its
// cached state with the stored token on every request.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/louisbranch/smsportal/internal/services/portal/storage"
)

// keyPrefix namespaces portal keys inside a shared Redis database.
const keyPrefix = "smsportal:"

// Store is a Redis-backed storage.TokenStore. Expiry is delegated to Redis
// key TTLs.
type Store struct {
	client *goredis.Client
	now    func() time.Time
}

// Connect opens a client from a redis:// URL or a bare host:port and verifies
// it with PING.
func Connect(ctx context.Context, redisURL string) (*Store, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return nil, errors.New("redis url is required")
	}
	var opts *goredis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &goredis.Options{Addr: redisURL}
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client), nil
}

// New wraps an existing client.
func New(client *goredis.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func (s *Store) redisKey(key string) string {
	return keyPrefix + key
}

// LoadToken returns the token stored under key.
func (s *Store) LoadToken(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.client == nil {
		return "", false, storage.ErrClosed
	}
	key, err := storage.ValidateKey(key)
	if err != nil {
		return "", false, err
	}
	token, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load token: %w", err)
	}
	return token, true, nil
}

// SaveToken stores token under key with a TTL derived from expiresAt.
func (s *Store) SaveToken(ctx context.Context, key string, token string, expiresAt time.Time) error {
	if s == nil || s.client == nil {
		return storage.ErrClosed
	}
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is required")
	}
	ttl, err := ttlUntil(expiresAt, s.now())
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.redisKey(key), token, ttl).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ttlUntil maps an absolute expiry onto a key TTL. Zero means the key never
// expires.
func ttlUntil(expiresAt, now time.Time) (time.Duration, error) {
	if expiresAt.IsZero() {
		return 0, nil
	}
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return 0, storage.ErrTokenExpired
	}
	return ttl, nil
}

// DeleteToken removes the token stored under key.
func (s *Store) DeleteToken(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return storage.ErrClosed
	}
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

var _ storage.TokenStore = (*Store)(nil)
