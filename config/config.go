// Package config loads deployment configuration from environment
// variables, with optional .env support for development.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every deployment-level setting of the gateway. The shared
// secret and the upstream binding are configuration, not business logic.
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Upstream UpstreamConfig
	Sync     SyncConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string
	Port int
}

// AuthConfig holds the single shared secret the session credential derives
// from.
type AuthConfig struct {
	Secret string
}

// StoreConfig holds the key-value store binding.
type StoreConfig struct {
	Path string // bbolt database file path
}

// UpstreamConfig holds the static-asset origin the proxy forwards to.
type UpstreamConfig struct {
	Origin string // scheme://host
	Prefix string // path prefix on the origin, may be empty
}

// SyncConfig holds the settings for the client command.
type SyncConfig struct {
	GatewayURL string        // base URL of a running gateway
	Window     time.Duration // debounce quiet period between edit and save
}

// Load builds a Config from environment variables. A .env file is loaded
// first when present; missing files are ignored so production relies on
// real environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SUBTRACK_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUBTRACK_PORT: %w", err)
	}

	secret := getEnv("SUBTRACK_PASSWORD", "")
	if secret == "" {
		return nil, fmt.Errorf("SUBTRACK_PASSWORD environment variable is required")
	}

	origin := getEnv("SUBTRACK_UPSTREAM_ORIGIN", "")
	if origin == "" {
		return nil, fmt.Errorf("SUBTRACK_UPSTREAM_ORIGIN environment variable is required")
	}
	if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("SUBTRACK_UPSTREAM_ORIGIN must be scheme://host, got %q", origin)
	}

	window, err := time.ParseDuration(getEnv("SUBTRACK_DEBOUNCE_WINDOW", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUBTRACK_DEBOUNCE_WINDOW: %w", err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("SUBTRACK_DEBOUNCE_WINDOW must be positive, got %s", window)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SUBTRACK_HOST", "0.0.0.0"),
			Port: port,
		},
		Auth: AuthConfig{
			Secret: secret,
		},
		Store: StoreConfig{
			Path: getEnv("SUBTRACK_DB_PATH", "./data/subtrack.db"),
		},
		Upstream: UpstreamConfig{
			Origin: origin,
			Prefix: getEnv("SUBTRACK_UPSTREAM_PREFIX", ""),
		},
		Sync: SyncConfig{
			GatewayURL: getEnv("SUBTRACK_GATEWAY_URL", "http://localhost:8080"),
			Window:     window,
		},
	}

	return cfg, nil
}

// Addr returns the listen address, e.g. "0.0.0.0:8080".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
