// Package config loads service configuration from MONIFTAR_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWT           JWTConfig
	Twilio        TwilioConfig
	Notify        NotifyConfig
	Bootstrap     BootstrapConfig
	RateLimit     RateLimitConfig
	LogLevel      string `env:"MONIFTAR_LOG_LEVEL" envDefault:"info"`
	TimeZone      string `env:"MONIFTAR_TIMEZONE" envDefault:"Europe/Paris"`
	ListCapacity  int    `env:"MONIFTAR_DEFAULT_LIST_CAPACITY" envDefault:"100"`
	PublicBaseURL string `env:"MONIFTAR_PUBLIC_BASE_URL"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `env:"MONIFTAR_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"MONIFTAR_REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"MONIFTAR_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig selects the Postgres store. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL             string        `env:"MONIFTAR_DATABASE_URL"`
	MaxOpenConns    int           `env:"MONIFTAR_DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MONIFTAR_DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"MONIFTAR_DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig backs the token revocation list. An empty URL uses the in-memory list.
type RedisConfig struct {
	URL          string        `env:"MONIFTAR_REDIS_URL"`
	PoolSize     int           `env:"MONIFTAR_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MONIFTAR_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"MONIFTAR_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"MONIFTAR_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"MONIFTAR_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig routes audit events. No brokers means audit events are only logged.
type KafkaConfig struct {
	Brokers    []string `env:"MONIFTAR_KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"MONIFTAR_KAFKA_AUDIT_TOPIC" envDefault:"moniftar.audit"`
	ClientID   string   `env:"MONIFTAR_KAFKA_CLIENT_ID" envDefault:"moniftar"`
}

// Enabled reports whether at least one broker is configured.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

type JWTConfig struct {
	SigningKey string        `env:"MONIFTAR_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer     string        `env:"MONIFTAR_JWT_ISSUER" envDefault:"moniftar"`
	TTL        time.Duration `env:"MONIFTAR_JWT_TTL" envDefault:"12h"`
}

// TwilioConfig configures WhatsApp delivery. Missing credentials fall back to console delivery.
type TwilioConfig struct {
	AccountSID string        `env:"MONIFTAR_TWILIO_ACCOUNT_SID"`
	AuthToken  string        `env:"MONIFTAR_TWILIO_AUTH_TOKEN"`
	From       string        `env:"MONIFTAR_TWILIO_FROM"`
	BaseURL    string        `env:"MONIFTAR_TWILIO_BASE_URL" envDefault:"https://api.twilio.com"`
	Timeout    time.Duration `env:"MONIFTAR_TWILIO_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether enough credentials are present to call Twilio.
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

type NotifyConfig struct {
	Console     bool `env:"MONIFTAR_NOTIFY_CONSOLE"`
	Concurrency int  `env:"MONIFTAR_NOTIFY_CONCURRENCY" envDefault:"8"`
}

// RateLimitConfig bounds request rates per client IP on public routes and per
// volunteer on the API. A zero limit disables that policy.
type RateLimitConfig struct {
	PublicLimit  int           `env:"MONIFTAR_RATE_LIMIT_PUBLIC" envDefault:"30"`
	PublicWindow time.Duration `env:"MONIFTAR_RATE_LIMIT_PUBLIC_WINDOW" envDefault:"1m"`
	APILimit     int           `env:"MONIFTAR_RATE_LIMIT_API" envDefault:"600"`
	APIWindow    time.Duration `env:"MONIFTAR_RATE_LIMIT_API_WINDOW" envDefault:"1m"`
}

// BootstrapConfig seeds an administrator at startup when both fields are set.
type BootstrapConfig struct {
	AdminPhone    string `env:"MONIFTAR_BOOTSTRAP_ADMIN_PHONE"`
	AdminPassword string `env:"MONIFTAR_BOOTSTRAP_ADMIN_PASSWORD"`
}

func (c BootstrapConfig) Enabled() bool {
	return c.AdminPhone != "" && c.AdminPassword != ""
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot start with.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid MONIFTAR_TIMEZONE %q: %w", c.TimeZone, err)
	}
	if c.ListCapacity < 0 {
		return fmt.Errorf("MONIFTAR_DEFAULT_LIST_CAPACITY must be >= 0, got %d", c.ListCapacity)
	}
	if c.JWT.SigningKey == "" {
		return fmt.Errorf("MONIFTAR_JWT_SIGNING_KEY is required")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("MONIFTAR_JWT_TTL must be positive")
	}
	if c.RateLimit.PublicLimit < 0 || c.RateLimit.APILimit < 0 {
		return fmt.Errorf("rate limits must be >= 0")
	}
	if c.Notify.Concurrency <= 0 {
		return fmt.Errorf("MONIFTAR_NOTIFY_CONCURRENCY must be positive")
	}
	return nil
}

// Location resolves the configured time zone; Validate has already checked it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
