package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.BotToken = "123:abc"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "missing token",
			mutate: func(cfg *Config) {
				cfg.BotToken = ""
			},
			wantErr: "TELEGRAM_BOT_TOKEN",
		},
		{
			name: "zero workers",
			mutate: func(cfg *Config) {
				cfg.Workers = 0
			},
			wantErr: "workers",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.FetchTimeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "zero rate",
			mutate: func(cfg *Config) {
				cfg.USDToBRLRate = 0
			},
			wantErr: "rate",
		},
		{
			name: "empty address",
			mutate: func(cfg *Config) {
				cfg.HTTPAddr = ""
			},
			wantErr: "http address",
		},
		{
			name: "zero dedupe size",
			mutate: func(cfg *Config) {
				cfg.DedupeMaxSize = 0
			},
			wantErr: "dedupe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigNeedsToken(t *testing.T) {
	if err := DefaultConfig().Validate(); err == nil {
		t.Fatalf("default config without a token should not validate")
	}
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("config with a token should validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", " 42:token ")
	t.Setenv("PORT", "8080")
	t.Setenv("SJOFERTAS_WORKERS", "8")
	t.Setenv("SJOFERTAS_USD_BRL_RATE", "5.5")
	t.Setenv("SJOFERTAS_FETCH_TIMEOUT", "5s")
	t.Setenv("SJOFERTAS_VERBOSE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotToken != "42:token" {
		t.Fatalf("token = %q, want trimmed value", cfg.BotToken)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.Workers != 8 || cfg.USDToBRLRate != 5.5 || cfg.FetchTimeout != 5*time.Second || !cfg.Verbose {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate, got %v", err)
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("SJOFERTAS_WORKERS", "many")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SJOFERTAS_WORKERS") {
		t.Fatalf("expected SJOFERTAS_WORKERS error, got %v", err)
	}
}

func TestLoadWithoutTokenFailsValidation(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("missing token must fail validation")
	}
}
