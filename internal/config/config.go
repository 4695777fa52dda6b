// Package config loads application configuration from command-line flags,
// environment variables, and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	Logger LoggerConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string // CORS origins for a separately hosted frontend
	IdleTimeout    time.Duration
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver string // sqlite or badger
	Path   string // database file (sqlite) or directory (badger)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret    string
	BcryptCost   int
	CookieSecure bool
	// AnonymousSessions lets visitors keep a scrapbook without an account,
	// keyed by a generated session identifier.
	AnonymousSessions bool
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// Load builds a Config with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("clip", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	port := fs.String("port", "", "Server port (default: 8080)")
	driver := fs.String("store", "", "Store driver: sqlite or badger (default: sqlite)")
	storePath := fs.String("store-path", "", "Database file or directory")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; existing environment variables win over it.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getConfigValue(*port, "PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue("", "ALLOWED_ORIGINS", "")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getConfigValue(*driver, "STORE_DRIVER", DriverSQLite)),
			Path:   getConfigValue(*storePath, "DATABASE_PATH", ""),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			// Default to secure cookies; disable only for local development.
			CookieSecure:      getBoolConfigValue("COOKIE_SECURE", true),
			AnonymousSessions: getBoolConfigValue("ANONYMOUS_SESSIONS", true),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getConfigValue(*logLevel, "LOG_LEVEL", "info")),
		},
	}

	if cfg.Store.Path == "" {
		if cfg.Store.Driver == DriverBadger {
			cfg.Store.Path = "clip-data"
		} else {
			cfg.Store.Path = "clip.db"
		}
	}

	cost, err := strconv.Atoi(getConfigValue("", "BCRYPT_COST", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	cfg.Auth.BcryptCost = cost

	idle, err := time.ParseDuration(getConfigValue("", "SERVER_IDLE_TIMEOUT", "120s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_IDLE_TIMEOUT: %w", err)
	}
	cfg.Server.IdleTimeout = idle

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost)
	}
	if c.Store.Driver != DriverSQLite && c.Store.Driver != DriverBadger {
		return fmt.Errorf("invalid store driver: %s (must be sqlite or badger)", c.Store.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	return nil
}

func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return defaultValue
}

func getBoolConfigValue(envKey string, defaultValue bool) bool {
	val := os.Getenv(envKey)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
