package logger

import (
	"bytes"
	"encoding/json/v2"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestNew_ProductionEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})

	log.Info("Recipe created", "recipe_id", "recipe-x7")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Recipe created", line["msg"])
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "recipe-x7", line["recipe_id"])
}

func TestNew_DevelopmentEmitsConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development"})

	log.Warn("Rate limit exceeded", "ip", "203.0.113.9")

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "Rate limit exceeded")
	assert.Contains(t, out, "ip=203.0.113.9")
	assert.Contains(t, out, "\033[", "console format should carry ANSI colors")

	var line map[string]any
	assert.Error(t, json.Unmarshal(buf.Bytes(), &line))
}

func TestNew_ExplicitFormatWinsOverEnvironment(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development", Format: "json"})

	log.Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "console", Level: slog.LevelWarn})

	log.Debug("hidden")
	log.Info("also hidden")
	log.Error("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestConsoleHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "console"})

	scoped := log.With("user_id", "user-a2")
	scoped.Info("Profile updated", "field", "name")

	out := buf.String()
	assert.Contains(t, out, "user_id=user-a2")
	assert.Contains(t, out, "field=name")

	// The parent logger is unaffected by With on the child.
	buf.Reset()
	log.Info("plain")
	assert.NotContains(t, buf.String(), "user_id")
}

func TestConsoleHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "console"})

	log.WithGroup("recipe").Info("created", "id", "recipe-x7")

	assert.Contains(t, buf.String(), "recipe.id=recipe-x7")
}

func TestNew_AddSourceIncludesCallSite(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "console", AddSource: true})

	log.Info("locating")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestNew_JSONSourceUsesBaseName(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json", AddSource: true})

	log.Info("locating")

	var line struct {
		Source struct {
			File string `json:"file"`
		} `json:"source"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "logger_test.go", line.Source.File)
}
