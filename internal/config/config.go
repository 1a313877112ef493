// Package config loads process configuration from the environment.
// A .env file in the working directory is honoured when present.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   int    `env:"PORT" envDefault:"3000"`

	// DatabaseURL selects the document store. postgres:// and postgresql:// use pgx,
	// anything else is treated as a SQLite DSN.
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:utnode.db"`

	// RedisURL enables the Redis session store. Empty keeps sessions in memory.
	RedisURL string `env:"REDIS_URL"`

	SessionKey string        `env:"SESSION_KEY"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"4000s"`
	CSRFKey    string        `env:"CSRF_KEY"`

	RateLimitPerSecond int `env:"RATE_LIMIT_PER_SECOND" envDefault:"20"`
	SlowRequestMs      int `env:"SLOW_REQUEST_MS" envDefault:"200"`
	SlowQueryMs        int `env:"SLOW_QUERY_MS" envDefault:"50"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"UT Node <noreply@utnode.local>"`
	// MailReplyTo receives replies to outbound mail. Empty sends replies to MailFrom.
	MailReplyTo string `env:"MAIL_REPLY_TO"`

	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@utnode.local"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`

	StaticDir string `env:"STATIC_DIR" envDefault:"public"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsPostgres reports whether DatabaseURL points at PostgreSQL.
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// SessionKeyBytes decodes SESSION_KEY. Outside production a random key is generated
// when the variable is unset, so sessions do not survive a restart.
func (c *Config) SessionKeyBytes() ([]byte, error) {
	return c.secret("SESSION_KEY", c.SessionKey, 32)
}

// CSRFKeyBytes decodes CSRF_KEY, which gorilla/csrf requires to be exactly 32 bytes.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	key, err := c.secret("CSRF_KEY", c.CSRFKey, 32)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CSRF_KEY must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

func (c *Config) secret(name, value string, size int) ([]byte, error) {
	if value != "" {
		key, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be hex encoded: %w", name, err)
		}
		if len(key) < size {
			return nil, fmt.Errorf("%s must be at least %d bytes", name, size)
		}
		return key, nil
	}
	if c.IsProduction() {
		return nil, fmt.Errorf("%s is required in production", name)
	}
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate %s: %w", name, err)
	}
	return key, nil
}

// Load reads .env (if any) and parses environment variables into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
