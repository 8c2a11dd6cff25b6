package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate, for mutation in tests.
func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
			FrontendURL: "http://localhost:3000",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Data: DataConfig{
			BasePath: "/some/path",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 20,
			Burst:             5,
		},
		Cleanup: CleanupConfig{
			Interval: 15 * time.Minute,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"staging environment", func(c *Config) { c.App.Environment = "staging" }, ""},
		{"production environment", func(c *Config) { c.App.Environment = "production" }, ""},
		{"unknown environment", func(c *Config) { c.App.Environment = "test" }, "invalid environment"},
		{"environment is case sensitive", func(c *Config) { c.App.Environment = "DEVELOPMENT" }, "invalid environment"},
		{"missing environment", func(c *Config) { c.App.Environment = "" }, "ENV is required"},
		{"log level is case insensitive", func(c *Config) { c.Logger.Level = "DEBUG" }, ""},
		{"unknown log level", func(c *Config) { c.Logger.Level = "trace" }, "invalid log level"},
		{"empty data path", func(c *Config) { c.Data.BasePath = "" }, "data base path cannot be empty"},
		{"missing frontend URL", func(c *Config) { c.App.FrontendURL = "" }, "frontend URL"},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, "auth rate limit"},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }, "auth rate burst"},
		{"cleanup interval too short", func(c *Config) { c.Cleanup.Interval = 10 * time.Second }, "cleanup interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestExpandDataPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty uses default", "", filepath.Join(home, "Plateful", "data")},
		{"tilde expands to home", "~/my-data", filepath.Join(home, "my-data")},
		{"absolute passes through", "/absolute/path/to/data", "/absolute/path/to/data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Data: DataConfig{BasePath: tt.input}}
			require.NoError(t, cfg.expandDataPath())
			assert.Equal(t, tt.expected, cfg.Data.BasePath)
		})
	}

	t.Run("relative becomes absolute", func(t *testing.T) {
		cfg := &Config{Data: DataConfig{BasePath: "relative/path"}}
		require.NoError(t, cfg.expandDataPath())
		assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
		assert.Contains(t, cfg.Data.BasePath, "relative/path")
	})
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "/data"}}

	assert.Equal(t, filepath.Join("/data", "plateful.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join("/data", "media"), cfg.MediaPath())
}

func TestMailEnabled(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.MailEnabled())

	cfg.Mail.Host = "smtp.example.com"
	assert.True(t, cfg.MailEnabled())
}

func TestPick_Precedence(t *testing.T) {
	t.Setenv("PLATEFUL_TEST_KEY", "env-value")

	assert.Equal(t, "flag-value", pick("flag-value", "PLATEFUL_TEST_KEY", "default"))
	assert.Equal(t, "env-value", pick("", "PLATEFUL_TEST_KEY", "default"))
	assert.Equal(t, "default", pick("", "PLATEFUL_TEST_MISSING", "default"))
}

func TestPickInt(t *testing.T) {
	assert.Equal(t, 42, pickInt("42", "PLATEFUL_TEST_MISSING", 7))
	assert.Equal(t, 7, pickInt("", "PLATEFUL_TEST_MISSING", 7))
	assert.Equal(t, 7, pickInt("not-a-number", "PLATEFUL_TEST_MISSING", 7))
}

func TestLoadEnvFile(t *testing.T) {
	writeEnv := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("parses keys, comments, and quotes", func(t *testing.T) {
		for _, key := range []string{"PF_ENV", "PF_QUOTED", "PF_SINGLE"} {
			t.Setenv(key, "")
			os.Unsetenv(key) //nolint:errcheck // cleanup restored by t.Setenv
		}
		path := writeEnv(t, "# header comment\nPF_ENV=staging\n\nPF_QUOTED=\"some value\"\nPF_SINGLE='another value'\n")

		require.NoError(t, loadEnvFile(path))
		assert.Equal(t, "staging", os.Getenv("PF_ENV"))
		assert.Equal(t, "some value", os.Getenv("PF_QUOTED"))
		assert.Equal(t, "another value", os.Getenv("PF_SINGLE"))
	})

	t.Run("trims whitespace around key and value", func(t *testing.T) {
		t.Setenv("PF_PADDED", "")
		os.Unsetenv("PF_PADDED") //nolint:errcheck // cleanup restored by t.Setenv
		path := writeEnv(t, "  PF_PADDED  =  value with spaces  \n")

		require.NoError(t, loadEnvFile(path))
		assert.Equal(t, "value with spaces", os.Getenv("PF_PADDED"))
	})

	t.Run("does not overwrite existing variables", func(t *testing.T) {
		t.Setenv("PF_EXISTING", "original")
		path := writeEnv(t, "PF_EXISTING=overridden\n")

		require.NoError(t, loadEnvFile(path))
		assert.Equal(t, "original", os.Getenv("PF_EXISTING"))
	})

	t.Run("rejects lines without equals", func(t *testing.T) {
		path := writeEnv(t, "VALID=ok\nINVALID LINE WITHOUT EQUALS\n")

		err := loadEnvFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})

	t.Run("missing file returns an error", func(t *testing.T) {
		assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	})
}
