// Package config loads the strix CLI configuration from config files,
// environment variables and .env files, and turns it into merge settings.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/merge"
)

// Configuration keys.
const (
	KeySortMode  = "merge.sort_mode"
	KeyRanking   = "merge.ranking"
	KeyFixtures  = "fixtures"
	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
	KeyLogOutput = "log.output"
)

// EnvPrefix prefixes every environment variable read by Load, so
// merge.sort_mode is read from STRIX_MERGE_SORT_MODE.
const EnvPrefix = "STRIX"

// Config holds the application configuration.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	Format  string

	// Config file
	ConfigFile string

	// Merge configuration
	SortMode string
	Ranking  []string

	// Fixtures is the location of the YAML fixture describing the cores.
	Fixtures string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads configuration in order of precedence:
// 1. Command-line flags (applied later with UpdateFromFlags)
// 2. Environment variables
// 3. .env files
// 4. Config file (strix.yaml in the working or home directory)
// 5. Defaults
//
// A nil v uses a fresh viper instance.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	loadEnvFiles()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeySortMode, string(merge.SortRanked))
	v.SetDefault(KeyFixtures, "strix.fixture.yaml")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyLogOutput, "stderr")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigType("yaml")
		v.SetConfigName("strix")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("file", "reading "+configFile, err)
		}
	}

	return &Config{
		ConfigFile: v.ConfigFileUsed(),
		SortMode:   v.GetString(KeySortMode),
		Ranking:    rankingOf(v),
		Fixtures:   v.GetString(KeyFixtures),
		LogLevel:   v.GetString(KeyLogLevel),
		LogFormat:  v.GetString(KeyLogFormat),
		LogOutput:  v.GetString(KeyLogOutput),
	}, nil
}

// rankingOf reads the ranking either as a list or, as environment
// variables are, as a comma separated string.
func rankingOf(v *viper.Viper) []string {
	var out []string
	for _, entry := range v.GetStringSlice(KeyRanking) {
		for _, id := range strings.Split(entry, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

// UpdateFromFlags applies parsed command flags. Empty values keep what
// was loaded.
func (c *Config) UpdateFromFlags(verbose, quiet bool, format, logLevel string, ranking []string) {
	c.Verbose = verbose
	c.Quiet = quiet
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if len(ranking) > 0 {
		c.Ranking = ranking
	}
}

// MergeConfig builds the merge settings shared by the aggregate.
func (c *Config) MergeConfig() (*merge.Config, error) {
	var ranking []media.CoreID
	for _, id := range c.Ranking {
		ranking = append(ranking, media.CoreID(id))
	}
	mode := merge.SortMode(c.SortMode)
	if mode == "" {
		mode = merge.SortRanked
	}
	cfg, err := merge.NewConfig(merge.WithSortMode(mode), merge.WithRanking(ranking...))
	if err != nil {
		return nil, errors.NewConfigError("merge", "invalid merge settings", err)
	}
	return cfg, nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
