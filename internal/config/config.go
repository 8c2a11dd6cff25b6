// Package config loads server configuration from command-line flags,
// environment variables, and an optional .env file, in that order of
// precedence.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
	Cleanup   CleanupConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// FrontendURL is the base URL verification links point at.
	FrontendURL string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
// The data directory contains the SQLite database, the auth key,
// and the media subtree for recipe images.
type DataConfig struct {
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey []byte
	// AccessTokenDuration is the session lifetime, e.g., 24h
	AccessTokenDuration time.Duration
}

// MailConfig holds outbound email configuration.
// When Host is empty, mail is logged instead of delivered.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// RateLimitConfig holds request throttling configuration for auth endpoints.
type RateLimitConfig struct {
	// RequestsPerMinute per client IP on /auth routes (default: 20)
	RequestsPerMinute int
	// Burst allows short spikes above the sustained rate (default: 5)
	Burst int
}

// CleanupConfig holds background maintenance configuration.
type CleanupConfig struct {
	// Interval between sweeps of expired unverified accounts and
	// expired sessions (default: 1h)
	Interval time.Duration
}

// LoadConfig assembles the configuration. Flags beat environment variables,
// which beat the .env file, which beats the built-in defaults.
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	frontendURL := flag.String("frontend-url", "", "Base URL for verification links")
	serverName := flag.String("server-name", "", "Name for the server")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")
	smtpHost := flag.String("smtp-host", "", "SMTP relay host (empty = log mail instead of sending)")
	smtpPort := flag.String("smtp-port", "", "SMTP relay port (default: 587)")
	smtpFrom := flag.String("smtp-from", "", "From address for outbound mail")
	rateLimitRPM := flag.String("auth-rate-limit", "", "Auth requests per minute per IP (default: 20)")
	rateLimitBurst := flag.String("auth-rate-burst", "", "Auth rate limit burst (default: 5)")
	cleanupInterval := flag.String("cleanup-interval", "", "Background cleanup interval (default: 1h)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// A missing .env file is not an error.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: pick(*env, "ENV", "development"),
			FrontendURL: pick(*frontendURL, "FRONTEND_URL", "http://localhost:3000"),
		},
		Logger: LoggerConfig{
			Level: pick(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: pick(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name: pick(*serverName, "SERVER_NAME", "Plateful Server"),
			Port: pick(*serverPort, "SERVER_PORT", "8080"),
		},
		Mail: MailConfig{
			Host:     pick(*smtpHost, "SMTP_HOST", ""),
			Port:     pickInt(*smtpPort, "SMTP_PORT", 587),
			Username: pick("", "SMTP_USERNAME", ""),
			Password: pick("", "SMTP_PASSWORD", ""),
			From:     pick(*smtpFrom, "SMTP_FROM", "no-reply@plateful.local"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: pickInt(*rateLimitRPM, "AUTH_RATE_LIMIT", 20),
			Burst:             pickInt(*rateLimitBurst, "AUTH_RATE_BURST", 5),
		},
		// Auth.AccessTokenKey is filled in by auth.LoadOrGenerateKey at boot.
	}

	durations := []struct {
		dst  *time.Duration
		flag string
		env  string
		def  string
	}{
		{&cfg.Auth.AccessTokenDuration, *accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h"},
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Cleanup.Interval, *cleanupInterval, "CLEANUP_INTERVAL", "1h"},
	}
	for _, d := range durations {
		raw := pick(d.flag, d.env, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(strings.ReplaceAll(d.env, "_", " ")), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}
	if c.App.FrontendURL == "" {
		return errors.New("frontend URL is required for verification links")
	}
	if c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("auth rate limit must be at least 1, got %d", c.RateLimit.RequestsPerMinute)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("auth rate burst must be at least 1, got %d", c.RateLimit.Burst)
	}
	if c.Cleanup.Interval < time.Minute {
		return fmt.Errorf("cleanup interval must be at least 1m, got %s", c.Cleanup.Interval)
	}
	return nil
}

// DatabasePath returns the SQLite database file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.BasePath, "plateful.db")
}

// MediaPath returns the directory recipe images are stored under.
func (c *Config) MediaPath() string {
	return filepath.Join(c.Data.BasePath, "media")
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != ""
}

// expandDataPath resolves the data directory to an absolute path, expanding
// a leading ~ and defaulting to ~/Plateful/data.
func (c *Config) expandDataPath() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	path := c.Data.BasePath
	switch {
	case path == "":
		path = filepath.Join(home, "Plateful", "data")
	case strings.HasPrefix(path, "~/"):
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if path, err = filepath.Abs(path); err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}
	}
	c.Data.BasePath = filepath.Clean(path)
	return nil
}

// pick returns the flag value if set, then the environment variable, then
// the default.
func pick(flagValue, envKey, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

// pickInt is pick for integer settings; unparsable values fall back to the
// default.
func pickInt(flagValue, envKey string, def int) int {
	raw := pick(flagValue, envKey, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// loadEnvFile reads KEY=value lines into the process environment. Existing
// variables win over file entries. Lines starting with # are comments.
func loadEnvFile(path string) error {
	f, err := os.Open(path) //#nosec G304 -- the .env path is operator-supplied
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		key, value, found := strings.Cut(text, "=")
		if !found {
			return fmt.Errorf("invalid format at line %d: %s", line, text)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
