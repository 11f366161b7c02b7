// Package dbconfig resolves runtime configuration from the environment:
// the Postgres connection shared by the server and the seed tools, plus the
// process-level knobs (listen port, NATS address) that sit outside the YAML
// config file.
package dbconfig

import (
	"net/url"
	"os"
)

// Config holds Postgres connection settings. A non-empty DATABASE_URL wins
// over the individual DB_* variables.
type Config struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewConfigFromEnv reads DATABASE_URL and the DB_* variables, with local
// development defaults.
func NewConfigFromEnv() Config {
	return Config{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     Env("DB_HOST", "localhost"),
		Port:     Env("DB_PORT", "5432"),
		User:     Env("DB_USER", "postgres"),
		Password: Env("DB_PASSWORD", "postgres"),
		Database: Env("DB_NAME", "auctionhouse"),
		SSLMode:  Env("DB_SSLMODE", "disable"),
	}
}

// DSN returns the Postgres connection URL.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// Env returns the value of key, or fallback when unset or empty.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NATSURL returns the NATS address used by the outbox relay and the gateway
// consumer.
func NATSURL() string {
	return Env("NATS_URL", "nats://localhost:4222")
}

// HTTPPort returns the listen port for a server binary.
func HTTPPort(fallback string) string {
	return Env("PORT", fallback)
}
