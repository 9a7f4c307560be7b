// Package portal parses portal command flags and composes the HTTP server.
package portal

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/smsportal/internal/platform/cmd"
	"github.com/louisbranch/smsportal/internal/services/portal"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/requestmeta"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
	"github.com/louisbranch/smsportal/internal/services/portal/storage"
	"github.com/louisbranch/smsportal/internal/services/portal/storage/memory"
	"github.com/louisbranch/smsportal/internal/services/portal/storage/redis"
	"github.com/louisbranch/smsportal/internal/services/portal/storage/sqlite"
)

// Token store backends.
const (
	TokenStoreSQLite = "sqlite"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// Config holds portal command configuration. Env names carry the
// SMS_PORTAL_ prefix.
type Config struct {
	HTTPAddr            string        `env:"HTTP_ADDR"             envDefault:"localhost:8080"`
	APIBaseURL          string        `env:"API_BASE_URL"          envDefault:"http://localhost/sms/api"`
	APITimeout          time.Duration `env:"API_TIMEOUT"           envDefault:"10s"`
	TokenStore          string        `env:"TOKEN_STORE"           envDefault:"sqlite"`
	DBPath              string        `env:"DB_PATH"               envDefault:"data/portal.db"`
	RedisURL            string        `env:"REDIS_URL"             envDefault:"localhost:6379"`
	SessionIdleTTL      time.Duration `env:"SESSION_IDLE_TTL"      envDefault:"30m"`
	TrustForwardedProto bool          `env:"TRUST_FORWARDED_PROTO" envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if fs == nil {
		return Config{}, fmt.Errorf("flag parser is required")
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "portal HTTP listen address")
	fs.StringVar(&cfg.APIBaseURL, "api-base-url", cfg.APIBaseURL, "SMS REST API base URL")
	fs.DurationVar(&cfg.APITimeout, "api-timeout", cfg.APITimeout, "timeout for one SMS API call")
	fs.StringVar(&cfg.TokenStore, "token-store", cfg.TokenStore, "token persistence backend: sqlite, redis, or memory")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite token database path")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis address or redis:// URL")
	fs.DurationVar(&cfg.SessionIdleTTL, "session-idle-ttl", cfg.SessionIdleTTL, "evict in-memory browser sessions idle this long")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "honor X-Forwarded-Proto from a trusted proxy")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.TokenStore = strings.ToLower(strings.TrimSpace(cfg.TokenStore))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.TokenStore {
	case TokenStoreSQLite, TokenStoreRedis, TokenStoreMemory:
	default:
		return fmt.Errorf("unknown token store %q", c.TokenStore)
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("api timeout must not be negative")
	}
	return nil
}

// Run builds the portal and serves it until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePortal, func(ctx context.Context) error {
		tokens, err := openTokenStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open token store: %w", err)
		}
		defer func() {
			if err := tokens.Close(); err != nil {
				log.Printf("token store close failed err=%v", err)
			}
		}()

		api, err := apiclient.New(cfg.APIBaseURL, apiclient.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}))
		if err != nil {
			return fmt.Errorf("init api client: %w", err)
		}
		sessions, err := session.NewManager(session.ManagerConfig{
			Backend:     api,
			Signals:     api,
			Tokens:      tokens,
			IdleTTL:     cfg.SessionIdleTTL,
			InitTimeout: cfg.APITimeout,
			Logger:      log.Default(),
		})
		if err != nil {
			return fmt.Errorf("init session manager: %w", err)
		}

		server, err := portal.NewServer(ctx, portal.Config{
			HTTPAddr:     cfg.HTTPAddr,
			API:          api,
			Sessions:     sessions,
			SchemePolicy: requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto},
			Logger:       log.Default(),
		})
		if err != nil {
			sessions.Close()
			return fmt.Errorf("init portal server: %w", err)
		}
		defer server.Close()

		log.Printf("portal listening addr=%s api=%s token_store=%s", cfg.HTTPAddr, api.BaseURL(), cfg.TokenStore)
		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve portal: %w", err)
		}
		return nil
	})
}

func openTokenStore(ctx context.Context, cfg Config) (storage.TokenStore, error) {
	switch cfg.TokenStore {
	case TokenStoreSQLite:
		return sqlite.Open(ctx, cfg.DBPath)
	case TokenStoreRedis:
		return redis.Connect(ctx, cfg.RedisURL)
	case TokenStoreMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}
