package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port    int           `env:"TEST_PORT" envDefault:"123"`
	Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"2s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg, "SMS_CONFIG_"); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("Port = %d, want 123", cfg.Port)
	}
	if cfg.Timeout != 2*time.Second {
		t.Fatalf("Timeout = %v, want 2s", cfg.Timeout)
	}
}

func TestParseEnvAppliesPrefix(t *testing.T) {
	t.Setenv("SMS_CONFIG_TEST_PORT", "9000")
	t.Setenv("TEST_PORT", "1")

	var cfg envTestConfig
	if err := ParseEnv(&cfg, "SMS_CONFIG_"); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("Port = %d, want 9000", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("SMS_CONFIG_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg, "SMS_CONFIG_")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
