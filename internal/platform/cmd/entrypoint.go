// Package cmd holds the shared startup plumbing for service commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/smsportal/internal/platform/config"
	"github.com/louisbranch/smsportal/internal/platform/otel"
)

// EnvPrefix namespaces every environment variable read by portal commands.
const EnvPrefix = "SMS_PORTAL_"

// ServicePortal names the browser-facing portal for telemetry and logs.
const ServicePortal = "portal"

const defaultTelemetryFlush = 5 * time.Second

// ParseConfig fills cfg from EnvPrefix-ed environment variables and their
// envDefault tags. Flags registered afterwards override these values.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg, EnvPrefix)
}

// ParseArgs parses command-line flags. Nil args parse as empty.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunOption adjusts RunWithTelemetry.
type RunOption func(*runOptions)

type runOptions struct {
	flushTimeout time.Duration
}

// WithTelemetryFlush bounds how long exporters may flush on exit.
func WithTelemetryFlush(timeout time.Duration) RunOption {
	return func(o *runOptions) {
		if timeout > 0 {
			o.flushTimeout = timeout
		}
	}
}

// RunWithTelemetry installs the trace provider for service, runs run, and
// flushes telemetry once run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error, opts ...RunOption) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	options := runOptions{flushTimeout: defaultTelemetryFlush}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), options.flushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("telemetry flush failed service=%s err=%v", service, err)
		}
	}()
	return run(ctx)
}
