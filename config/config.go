package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the portal runtime configuration, read from PORTAL_* environment variables.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
	ResetTTL      time.Duration `env:"RESET_TTL" envDefault:"1h"`

	CurrencySymbol string `env:"CURRENCY_SYMBOL" envDefault:"₦"`

	DB     DBConfig     `envPrefix:"DB_"`
	SMTP   SMTPConfig   `envPrefix:"SMTP_"`
	Outbox OutboxConfig `envPrefix:"OUTBOX_"`
}

// DBConfig tunes the connection pool.
type DBConfig struct {
	MaxConns        int32         `env:"MAX_CONNS" envDefault:"16"`
	MaxConnIdleTime time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"30s"`
	MaxConnLifetime time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"5m"`
}

// SMTPConfig controls outbound mail. An empty Host disables delivery.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@localhost"`
}

// OutboxConfig controls the outbox dispatcher loop.
type OutboxConfig struct {
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"20"`
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"5"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses the given environment map, or the process environment when vars is nil.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: "PORTAL_"}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("config: PORTAL_SESSION_SECRET must be at least 32 bytes")
	}
	if c.SessionTTL <= 0 || c.ResetTTL <= 0 {
		return errors.New("config: session and reset TTLs must be positive")
	}
	if c.Outbox.BatchSize <= 0 || c.Outbox.MaxAttempts <= 0 || c.Outbox.PollInterval <= 0 {
		return errors.New("config: outbox batch size, attempts and poll interval must be positive")
	}
	return nil
}
