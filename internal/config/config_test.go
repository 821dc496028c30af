package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/strix/internal/config"
	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/merge"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "ranked", cfg.SortMode)
	assert.Empty(t, cfg.Ranking)
	assert.Equal(t, "strix.fixture.yaml", cfg.Fixtures)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
merge:
  sort_mode: alternating
  ranking: [local, spotify]
fixtures: mem://localhost/cores.yaml
log:
  level: debug
`)
	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "alternating", cfg.SortMode)
	assert.Equal(t, []string{"local", "spotify"}, cfg.Ranking)
	assert.Equal(t, "mem://localhost/cores.yaml", cfg.Fixtures)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "merge:\n  ranking: [local]\n")
	t.Setenv("STRIX_MERGE_RANKING", "spotify, local")
	t.Setenv("STRIX_LOG_LEVEL", "warn")

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify", "local"}, cfg.Ranking)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var configErr *errors.ConfigError
	assert.True(t, errors.As(err, &configErr))
}

func TestConfig_UpdateFromFlags(t *testing.T) {
	cfg := &config.Config{Format: "json", LogLevel: "info", Ranking: []string{"local"}}

	cfg.UpdateFromFlags(true, false, "", "", nil)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"local"}, cfg.Ranking)

	cfg.UpdateFromFlags(false, true, "yaml", "trace", []string{"spotify"})
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, []string{"spotify"}, cfg.Ranking)
}

func TestConfig_MergeConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		mode    merge.SortMode
		ranking []media.CoreID
		wantErr bool
	}{
		{name: "empty", mode: merge.SortRanked},
		{
			name:    "ranked",
			cfg:     config.Config{SortMode: "ranked", Ranking: []string{"local", "spotify"}},
			mode:    merge.SortRanked,
			ranking: []media.CoreID{"local", "spotify"},
		},
		{name: "alternating", cfg: config.Config{SortMode: "alternating"}, mode: merge.SortAlternating},
		{name: "unknown mode", cfg: config.Config{SortMode: "shuffle"}, wantErr: true},
		{name: "duplicate core", cfg: config.Config{Ranking: []string{"a", "a"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.MergeConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, got.SortMode())
			assert.Equal(t, tt.ranking, got.Ranking())
		})
	}
}
