// Package config loads tabask settings from defaults, an optional config
// file and TABASK_* environment variables, in increasing precedence.
//
// Nested keys map to environment variables by upper-casing and replacing
// dots with underscores, e.g. narrative.api_key is TABASK_NARRATIVE_API_KEY.
package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/vegasq/tabask/logging"
	"github.com/vegasq/tabask/narrative"
	"github.com/vegasq/tabask/output"
	"github.com/vegasq/tabask/reader"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "TABASK"

// Config is the full application configuration.
type Config struct {
	Log       logging.Config   `mapstructure:"log"`
	Output    OutputConfig     `mapstructure:"output"`
	Server    ServerConfig     `mapstructure:"server"`
	Narrative narrative.Config `mapstructure:"narrative"`
	Reader    ReaderConfig     `mapstructure:"reader"`
}

// OutputConfig controls how CLI results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Limit  int    `mapstructure:"limit"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ReaderConfig controls table loading.
type ReaderConfig struct {
	Delimiter string `mapstructure:"delimiter"`
	MaxFiles  int    `mapstructure:"max_files"`
	DSN       string `mapstructure:"dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("output.format", "jsonl")
	v.SetDefault("output.limit", 0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	v.SetDefault("narrative.provider", narrative.ProviderOpenAI)
	v.SetDefault("narrative.endpoint", "")
	v.SetDefault("narrative.api_key", "")
	v.SetDefault("narrative.model", "")
	v.SetDefault("narrative.temperature", 0.3)
	v.SetDefault("narrative.timeout", narrative.DefaultTimeout)

	v.SetDefault("reader.delimiter", "")
	v.SetDefault("reader.max_files", reader.DefaultMaxFiles)
	v.SetDefault("reader.dsn", "")
}

// Load reads configuration from the OS filesystem. An empty path skips the
// config file.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads configuration with the config file taken from fs. The file
// format follows its extension (yaml, toml, json, ...).
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := output.New(c.Output.Format, nil); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Output.Limit < 0 {
		return fmt.Errorf("output.limit must not be negative, got %d", c.Output.Limit)
	}
	if utf8.RuneCountInString(c.Reader.Delimiter) > 1 {
		return fmt.Errorf("reader.delimiter must be a single character, got %q", c.Reader.Delimiter)
	}
	if c.Reader.MaxFiles < 0 {
		return fmt.Errorf("reader.max_files must not be negative, got %d", c.Reader.MaxFiles)
	}
	return nil
}

// ReaderOptions converts the reader section into reader.Options.
func (c *Config) ReaderOptions() reader.Options {
	opts := reader.Options{MaxFiles: c.Reader.MaxFiles}
	if r, _ := utf8.DecodeRuneInString(c.Reader.Delimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}
	return opts
}
