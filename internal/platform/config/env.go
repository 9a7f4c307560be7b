// Package config loads service configuration from the process environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
//
// A non-empty prefix is prepended to every `env` tag on target, so a field
// tagged `env:"HTTP_ADDR"` with prefix "SMS_PORTAL_" reads SMS_PORTAL_HTTP_ADDR.
func ParseEnv(target any, prefix string) error {
	opts := env.Options{Prefix: strings.TrimSpace(prefix)}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
