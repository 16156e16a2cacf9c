// Package config handles the global bibfix configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bibtools/bibfix/internal/bibtex"
)

// Config represents configuration stored in ~/.config/bibfix/config.yml.
// Every key has a default matching the stock fixer behavior, so a missing
// file is not an error.
type Config struct {
	Input          string   `yaml:"input,omitempty"`  // default input .bib file
	Output         string   `yaml:"output,omitempty"` // default output .bib file
	DB             string   `yaml:"db,omitempty"`     // default index database path
	KeepAnnote     bool     `yaml:"keep_annote"`
	KeepAbstract   bool     `yaml:"keep_abstract"`
	ISSNAsYear     bool     `yaml:"issn_as_year"`
	KeepAllURLs    bool     `yaml:"keep_all_urls"`
	DropURLWithDOI bool     `yaml:"drop_url_with_doi"`
	URLExceptions  []string `yaml:"url_exceptions,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "bibfix"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// DefaultInput and DefaultOutput are the stock file names of the
	// Mendeley export and the corrected copy.
	DefaultInput  = "library.bib"
	DefaultOutput = "library_fixed.bib"
	// DefaultDB is the stock index database path.
	DefaultDB = "bibfix.db"
)

// EnvConfigPath names the environment variable that overrides the config
// file location (also honored from a .env file).
const EnvConfigPath = "BIBFIX_CONFIG"

// configCache caches the loaded config.
var configCache *Config

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Input:          DefaultInput,
		Output:         DefaultOutput,
		DB:             DefaultDB,
		KeepAllURLs:    true,
		DropURLWithDOI: true,
		URLExceptions:  []string{"misc", "unpublished"},
	}
}

// Path returns the path to the config file. BIBFIX_CONFIG wins, then
// XDG_CONFIG_HOME, then ~/.config/bibfix/config.yml.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file, falling back to defaults when it doesn't
// exist. Keys absent from the file keep their default values.
func Load() (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}

	cfg := Default()
	path := Path()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	configCache = cfg
	return cfg, nil
}

// ResetCache clears the cached config. Useful for testing.
func ResetCache() {
	configCache = nil
}

// Save writes the config file, creating its directory if needed.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Options converts the configuration into rewriter options.
func (c *Config) Options() bibtex.Options {
	return bibtex.Options{
		KeepAnnote:     c.KeepAnnote,
		KeepAbstract:   c.KeepAbstract,
		ISSNAsYear:     c.ISSNAsYear,
		KeepAllURLs:    c.KeepAllURLs,
		DropURLWithDOI: c.DropURLWithDOI,
		URLExceptions:  c.URLExceptions,
	}
}
