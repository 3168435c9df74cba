package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read into the config.
const EnvPrefix = "THAIFLASH_"

// Config holds the process configuration.
type Config struct {
	Addr      string `koanf:"addr" validate:"required,hostname_port"`
	DBPath    string `koanf:"db-path" validate:"required"`
	VocabPath string `koanf:"vocab-path"`
	VocabRepo string `koanf:"vocab-repo"`
	VocabFile string `koanf:"vocab-file" validate:"required"`
	ReposDir  string `koanf:"repos-dir" validate:"required"`
	LogLevel  string `koanf:"log-level" validate:"oneof=debug info warn error"`
}

// FlagSet returns the command line flags with their defaults.
func FlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file")
	fs.String("addr", "127.0.0.1:8080", "Address to serve the trainer on")
	fs.String("db-path", "thaiflash.db", "Path to the SQLite database file")
	fs.String("vocab-path", "thai_vocab_v1.json", "Path to the vocabulary JSON document")
	fs.String("vocab-repo", "", "Git URL of a repository holding the vocabulary (overrides --vocab-path)")
	fs.String("vocab-file", "thai_vocab_v1.json", "Vocabulary document path inside --vocab-repo")
	fs.String("repos-dir", "repos", "Directory git vocabulary sources are cloned into")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	return fs
}

// Load layers the config file, the environment and the parsed flags, in
// increasing order of precedence, and validates the result.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// THAIFLASH_DB_PATH -> db-path
	envKey := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Unchanged flags only fill keys no other source set.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Level maps the configured log level to a slog level.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
