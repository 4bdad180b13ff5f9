// Package config loads the server configuration from YAML, falling
// back to defaults when no config file exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"rulehub/internal/match"
)

// Config holds all tunables for the rule service.
type Config struct {
	// RulesDir and TemplatesDir are loaded into the corpus at startup.
	// Empty dirs are fine; the corpus starts empty and fills via imports.
	RulesDir     string `yaml:"rules_dir"`
	TemplatesDir string `yaml:"templates_dir"`

	// DataDir holds the usage journal database.
	DataDir string `yaml:"data_dir"`

	MaxSearchResults int `yaml:"max_search_results"`
	SynthesisTopN    int `yaml:"synthesis_top_n"`

	Weights match.Weights `yaml:"weights"`
}

// Default returns the built-in configuration, rooted under ~/.rulehub.
func Default() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".rulehub")
	return Config{
		RulesDir:         filepath.Join(base, "rules"),
		TemplatesDir:     filepath.Join(base, "templates"),
		DataDir:          filepath.Join(base, "data"),
		MaxSearchResults: 10,
		SynthesisTopN:    5,
		Weights:          match.DefaultWeights(),
	}
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rulehub", "config.yaml")
}

// Load reads the config file at path, or DefaultPath when path is
// empty. A missing default file yields Default(); a missing explicit
// path is an error, since the caller asked for that exact file.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxSearchResults <= 0 {
		return fmt.Errorf("max_search_results must be positive, got %d", c.MaxSearchResults)
	}
	if c.SynthesisTopN <= 0 {
		return fmt.Errorf("synthesis_top_n must be positive, got %d", c.SynthesisTopN)
	}
	for name, w := range map[string]float64{
		"language":     c.Weights.Language,
		"domain":       c.Weights.Domain,
		"tag":          c.Weights.Tag,
		"content_type": c.Weights.ContentType,
		"text":         c.Weights.Text,
	} {
		if w < 0 {
			return fmt.Errorf("weight %s must not be negative, got %v", name, w)
		}
	}
	return nil
}
