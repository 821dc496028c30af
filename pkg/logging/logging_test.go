package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/strix/pkg/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(logging.EnvLevel, "debug")
	t.Setenv(logging.EnvFormat, "json")
	t.Setenv(logging.EnvOutput, "discard")

	cfg := logging.ConfigFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "discard", cfg.Output)
	assert.Equal(t, "kitchen", cfg.TimeFormat)
}

func TestNewLoggerFromConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strix.log")
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
		Fields: map[string]any{"app": "strix", "pid": 7},
	})
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "strix", entry["app"])
	assert.EqualValues(t, 7, entry["pid"])
}

func TestContext(t *testing.T) {
	tl := logging.NewTestLogger(t)

	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))

	ctx := logging.WithLogger(context.Background(), &tl.Logger)
	ctx = logging.WithCore(ctx, "spotify")
	ctx = logging.WithOperation(ctx, "add_source")
	logging.FromContext(ctx).Info().Msg("Added core")

	entries := tl.Find("Added core")
	require.Len(t, entries, 1)
	assert.Equal(t, "spotify", entries[0]["core_id"])
	assert.Equal(t, "add_source", entries[0]["operation"])
	assert.Equal(t, "info", entries[0]["level"])

	assert.Same(t, logging.Default(), logging.FromContext(logging.WithLogger(context.Background(), nil)))
}

func TestSetDefault(t *testing.T) {
	previous := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(previous) })

	tl := logging.NewTestLogger(t)
	logging.SetDefault(tl.Logger)
	logging.FromContext(context.Background()).Debug().Msg("through default")
	assert.Len(t, tl.Find("through default"), 1)

	logging.Configure(&logging.Config{Level: "error", Output: "discard"})
	assert.Equal(t, zerolog.ErrorLevel, logging.Default().GetLevel())
}
