// Package config loads readalong.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFile        = "readalong.yaml"
	DefaultEnvFile     = ".env"
	DefaultProvider    = "openai"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultRotationTol = 2.0
	DefaultMatchWindow = 6
)

type Config struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	Language          string        `yaml:"language"`
	OpenAIKey         string        `yaml:"openai_api_key"`
	GeminiKey         string        `yaml:"gemini_api_key"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	RotationTolerance float64       `yaml:"rotation_tolerance"`
	MatchWindow       int           `yaml:"match_window"`
	ProbeAudio        bool          `yaml:"probe_audio"`
}

func Default() *Config {
	return &Config{
		Provider:          DefaultProvider,
		HTTPTimeout:       DefaultHTTPTimeout,
		RotationTolerance: DefaultRotationTol,
		MatchWindow:       DefaultMatchWindow,
	}
}

// Load reads path on top of the defaults. A missing file is not an error
// when path is the default name, so the CLI runs without any config.
// Variables from ./.env are loaded first; the real environment wins over
// both .env and the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", DefaultEnvFile, err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.OpenAIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.GeminiKey = key
	}
}

func (c *Config) Validate() error {
	switch c.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported provider %q (use openai or gemini)", c.Provider)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", c.HTTPTimeout)
	}
	if c.RotationTolerance < 0 {
		return fmt.Errorf("rotation_tolerance must not be negative")
	}
	if c.MatchWindow < 1 {
		return fmt.Errorf("match_window must be at least 1, got %d", c.MatchWindow)
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.Provider == "gemini" {
		return c.GeminiKey
	}
	return c.OpenAIKey
}
