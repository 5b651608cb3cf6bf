// Package config loads the utcp YAML configuration.
//
// The file is optional. Its location is, in order: the --config flag, the
// UTCP_CONFIG environment variable, then ~/.utcp/config.yaml. Values missing
// from the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/utcp/internal/codec"
	"github.com/rcliao/utcp/internal/store"
)

// Config is the utcp configuration.
type Config struct {
	// DB is the catalog path. Empty means ~/.utcp/catalog.db.
	DB string `yaml:"db"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Encode  EncodeConfig  `yaml:"encode"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// EncodeConfig holds encoder defaults.
type EncodeConfig struct {
	MinOccurrences    int  `yaml:"min_occurrences"`
	MinTermLength     int  `yaml:"min_term_length"`
	PreserveVerbatim  bool `yaml:"preserve_verbatim"`
	Parallel          bool `yaml:"parallel"`
	ParallelThreshold int  `yaml:"parallel_threshold"`
	Split             bool `yaml:"split"`
	MaxTokensPerFile  int  `yaml:"max_tokens_per_file"`
	CharsPerToken     int  `yaml:"chars_per_token"`
	LightThreshold    int  `yaml:"light_threshold"`
}

// CatalogConfig controls recording of encode sessions.
type CatalogConfig struct {
	// Record stores every encode session in the catalog.
	Record bool `yaml:"record"`

	// Compression is the codec for stored envelope bodies: zstd, lz4 or none.
	Compression string `yaml:"compression"`
}

// Default returns the default configuration.
func Default() *Config {
	lib := codec.DefaultOptions()
	return &Config{
		LogLevel: "warn",
		Encode: EncodeConfig{
			MinOccurrences:    3,
			MinTermLength:     lib.MinTermLength,
			ParallelThreshold: lib.ParallelThreshold,
			MaxTokensPerFile:  lib.MaxTokensPerFile,
			CharsPerToken:     lib.CharsPerToken,
			LightThreshold:    lib.LightThreshold,
		},
		Catalog: CatalogConfig{
			Record:      true,
			Compression: string(store.CompressionZstd),
		},
	}
}

// Path resolves the config file location.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("UTCP_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".utcp", "config.yaml")
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults; a malformed or invalid one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.DB = os.ExpandEnv(cfg.DB)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// DBPath resolves the catalog location: the --db flag, UTCP_DB, the config
// file, then ~/.utcp/catalog.db.
func (c *Config) DBPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("UTCP_DB"); env != "" {
		return env
	}
	if c.DB != "" {
		return c.DB
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".utcp", "catalog.db")
}

// CodecOptions converts the encode section into codec options.
func (c *Config) CodecOptions() codec.Options {
	opts := codec.DefaultOptions()
	e := c.Encode
	opts.MinOccurrences = e.MinOccurrences
	opts.MinTermLength = e.MinTermLength
	opts.PreserveVerbatim = e.PreserveVerbatim
	opts.UseParallelCounting = e.Parallel
	opts.ParallelThreshold = e.ParallelThreshold
	opts.SplitByTokenBudget = e.Split
	opts.MaxTokensPerFile = e.MaxTokensPerFile
	opts.CharsPerToken = e.CharsPerToken
	opts.LightThreshold = e.LightThreshold
	return opts
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel parses a log level name. Unknown names are an error and map to warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q", name)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := store.ParseCompression(c.Catalog.Compression); err != nil {
		errs = append(errs, fmt.Errorf("catalog.compression: %w", err))
	}

	positive := []struct {
		name  string
		value int
	}{
		{"encode.min_occurrences", c.Encode.MinOccurrences},
		{"encode.min_term_length", c.Encode.MinTermLength},
		{"encode.parallel_threshold", c.Encode.ParallelThreshold},
		{"encode.max_tokens_per_file", c.Encode.MaxTokensPerFile},
		{"encode.chars_per_token", c.Encode.CharsPerToken},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}
	if c.Encode.LightThreshold < 0 {
		errs = append(errs, fmt.Errorf("encode.light_threshold must not be negative"))
	}

	return errors.Join(errs...)
}
