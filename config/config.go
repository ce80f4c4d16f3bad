package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// Config holds bot configuration. It is built once at startup and only read
// afterwards.
type Config struct {
	BotToken       string
	HTTPAddr       string
	FetchTimeout   time.Duration
	UserAgent      string
	AcceptLanguage string
	USDToBRLRate   float64
	Workers        int
	QueueSize      int
	DedupeMaxSize  int
	PollTimeout    time.Duration
	Verbose        bool
}

// DefaultConfig returns the defaults used in production.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:       ":10000",
		FetchTimeout:   20 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		USDToBRLRate:   5.0,
		Workers:        4,
		QueueSize:      64,
		DedupeMaxSize:  1024,
		PollTimeout:    30 * time.Second,
		Verbose:        false,
	}
}

// Load reads a .env file when present and overlays environment variables on
// the defaults. The result still has to be validated.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if value, ok := EnvString("TELEGRAM_BOT_TOKEN"); ok {
		cfg.BotToken = value
	}
	if value, ok := EnvString("PORT"); ok {
		cfg.HTTPAddr = ":" + value
	}
	if value, ok, err := EnvInt("SJOFERTAS_WORKERS"); err != nil {
		return nil, err
	} else if ok {
		cfg.Workers = value
	}
	if value, ok, err := EnvFloat("SJOFERTAS_USD_BRL_RATE"); err != nil {
		return nil, err
	} else if ok {
		cfg.USDToBRLRate = value
	}
	if value, ok, err := EnvDuration("SJOFERTAS_FETCH_TIMEOUT"); err != nil {
		return nil, err
	} else if ok {
		cfg.FetchTimeout = value
	}
	if value, ok, err := EnvBool("SJOFERTAS_VERBOSE"); err != nil {
		return nil, err
	} else if ok {
		cfg.Verbose = value
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not configured")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http address cannot be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.USDToBRLRate <= 0 {
		return fmt.Errorf("usd to brl rate must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.PollTimeout < 0 {
		return fmt.Errorf("poll timeout cannot be negative")
	}
	return nil
}
