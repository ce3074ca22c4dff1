package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	DatabaseURL    string `env:"DATABASE_URL,required"`
	RedisAddr      string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB,default=0"`
	GoogleClientID string `env:"GOOGLE_CLIENT_ID,required"`

	Port        int      `env:"PORT,default=8080"`
	LogLevel    string   `env:"LOG_LEVEL,default=info"`
	CORSOrigins []string `env:"CORS_ORIGINS"`

	// API key authentication
	APIKeyCacheTTL       time.Duration `env:"API_KEY_CACHE_TTL,default=300s"`
	APIKeyRotationExpiry time.Duration `env:"API_KEY_ROTATION_EXPIRY,default=720h"`
	CacheOpTimeout       time.Duration `env:"CACHE_OP_TIMEOUT,default=250ms"`
	StoreOpTimeout       time.Duration `env:"STORE_OP_TIMEOUT,default=5s"`

	// Per-route rate limits (requests per window)
	CollectRateMax    int           `env:"COLLECT_RATE_MAX,default=1000"`
	CollectRateWindow time.Duration `env:"COLLECT_RATE_WINDOW,default=60s"`
	QueryRateMax      int           `env:"QUERY_RATE_MAX,default=100"`
	QueryRateWindow   time.Duration `env:"QUERY_RATE_WINDOW,default=60s"`
	KeyMgmtRateMax    int           `env:"KEY_MGMT_RATE_MAX,default=10"`
	KeyMgmtRateWindow time.Duration `env:"KEY_MGMT_RATE_WINDOW,default=60s"`

	// HTTP server timeouts
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT,default=60s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.APIKeyCacheTTL <= 0 {
		return fmt.Errorf("API_KEY_CACHE_TTL must be positive, got %s", c.APIKeyCacheTTL)
	}
	if c.APIKeyRotationExpiry <= 0 {
		return fmt.Errorf("API_KEY_ROTATION_EXPIRY must be positive, got %s", c.APIKeyRotationExpiry)
	}
	if c.CollectRateMax < 1 || c.QueryRateMax < 1 || c.KeyMgmtRateMax < 1 {
		return fmt.Errorf("rate limit maximums must be at least 1")
	}
	return nil
}
