// Package config loads symptom-catalog settings.
//
// Precedence, highest first:
//  1. command-line flags (applied by the caller)
//  2. environment variables prefixed SYMPTOM_
//  3. the YAML config file
//  4. built-in defaults
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/rcliao/symptom-catalog/internal/extractor"
	"github.com/rcliao/symptom-catalog/internal/logging"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
	envPrefix         = "SYMPTOM_"
)

// Config is the full application configuration.
type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Extractor ExtractorConfig `koanf:"extractor"`
	Reviews   ReviewsConfig   `koanf:"reviews"`
	Logging   logging.Config  `koanf:"logging"`
	Server    ServerConfig    `koanf:"server"`
}

// CatalogConfig locates the vocabulary file.
type CatalogConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"`
}

// ExtractorConfig tunes candidate extraction.
type ExtractorConfig struct {
	MaxInputRunes  int `koanf:"max_input_runes"`
	MaxNGram       int `koanf:"max_ngram"`
	MaxPhraseWords int `koanf:"max_phrase_words"`
}

// Options converts the config to extractor options.
func (c ExtractorConfig) Options() extractor.Options {
	return extractor.Options{
		MaxInputRunes:  c.MaxInputRunes,
		MaxNGram:       c.MaxNGram,
		MaxPhraseWords: c.MaxPhraseWords,
	}
}

// ReviewsConfig controls the unknown-mention review log.
type ReviewsConfig struct {
	Enabled bool   `koanf:"enabled"`
	DBPath  string `koanf:"db_path"`
}

// ServerConfig is the HTTP listen address.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Catalog: CatalogConfig{Path: filepath.Join("data", "symptoms_catalog.csv")},
		Extractor: ExtractorConfig{
			MaxInputRunes:  extractor.DefaultMaxInputRunes,
			MaxNGram:       extractor.DefaultMaxNGram,
			MaxPhraseWords: extractor.DefaultMaxPhraseWords,
		},
		Reviews: ReviewsConfig{
			Enabled: true,
			DBPath:  filepath.Join("~", ".symptom-catalog", "reviews.db"),
		},
		Logging: logging.NewDefaultConfig(),
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8080},
	}
}

// DefaultPath is ~/.config/symptom-catalog/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "symptom-catalog", "config.yaml"), nil
}

// Load reads configuration. An empty path uses DefaultPath and tolerates a
// missing file; an explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	content, err := readFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Reviews.DBPath = expandHome(cfg.Reviews.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps SYMPTOM_REVIEWS_DB_PATH to reviews.db_path: the first
// underscore after the prefix separates section from field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s is %d bytes, limit is %d", path, info.Size(), maxConfigFileSize)
	}
	return io.ReadAll(io.LimitReader(f, maxConfigFileSize))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return errors.New("catalog.path is required")
	}
	if c.Extractor.MaxInputRunes < 0 || c.Extractor.MaxNGram < 0 || c.Extractor.MaxPhraseWords < 0 {
		return errors.New("extractor limits must not be negative")
	}
	if c.Reviews.Enabled && strings.TrimSpace(c.Reviews.DBPath) == "" {
		return errors.New("reviews.db_path is required when reviews are enabled")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
