// Package config manages the cfgmerge configuration file and the data
// directory next to it. It handles loading, saving, validating, and
// initializing the configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/pelletier/go-toml/v2"
)

const (
	ConfigFile   = ".cfgmerge.toml"
	DataDir      = ".cfgmerge"
	DatabaseFile = "history.db"
)

const (
	BackendBolt   = "bbolt"
	BackendSQLite = "sqlite"
)

// ErrNotFound is returned by FindRoot when no configuration file exists
// in the directory or any of its parents
var ErrNotFound = errors.New("no " + ConfigFile + " found (or any parent up to root)")

// Config represents the cfgmerge configuration
type Config struct {
	MaxDepth     int                     `toml:"max_depth"`
	Strategy     models.ConflictStrategy `toml:"strategy"`
	OutputFormat string                  `toml:"output_format"` // Empty means same as LOCAL
	Indent       int                     `toml:"indent"`
	Concurrency  int                     `toml:"concurrency"` // Parallel merges in batch mode
	LogLevel     string                  `toml:"log_level"`
	History      HistoryConfig           `toml:"history"`
	root         string                  // directory holding the config file
}

// HistoryConfig controls the merge history store
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Backend string `toml:"backend"`
	Path    string `toml:"path,omitempty"` // Relative to the config directory
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		MaxDepth:     50,
		Strategy:     models.ConflictAbort,
		OutputFormat: "",
		Indent:       2,
		Concurrency:  4,
		LogLevel:     "info",
		History: HistoryConfig{
			Enabled: true,
			Backend: BackendBolt,
		},
	}
}

// FindRoot finds the directory holding the config file by walking up from start
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load finds and loads the configuration above start. Without a config file
// it returns the defaults with history disabled, so nothing is written to
// disk in directories that were never initialized.
func Load(start string) (*Config, error) {
	root, err := FindRoot(start)
	if errors.Is(err, ErrNotFound) {
		cfg := Default()
		cfg.History.Enabled = false
		return cfg, nil
	} else if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(root, ConfigFile))
}

// LoadFile loads a specific config file. Unset fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.root = filepath.Dir(path)
	return cfg, nil
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.MaxDepth < 1 {
		result = multierror.Append(result, fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth))
	}
	if !c.Strategy.Valid() {
		result = multierror.Append(result, fmt.Errorf("strategy must be abort, ours or theirs, got %q", c.Strategy))
	}
	switch c.OutputFormat {
	case "", "json", "yaml", "toml":
	default:
		result = multierror.Append(result, fmt.Errorf("output_format must be json, yaml or toml, got %q", c.OutputFormat))
	}
	if c.Indent < 0 || c.Indent > 8 {
		result = multierror.Append(result, fmt.Errorf("indent must be between 0 and 8, got %d", c.Indent))
	}
	if c.Concurrency < 1 {
		result = multierror.Append(result, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	switch c.History.Backend {
	case BackendBolt, BackendSQLite:
	default:
		result = multierror.Append(result, fmt.Errorf("history.backend must be %s or %s, got %q", BackendBolt, BackendSQLite, c.History.Backend))
	}

	return result.ErrorOrNil()
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if c.root == "" {
		return fmt.Errorf("config has no location; use Initialize")
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(c.root, ConfigFile), data, 0644)
}

// Root returns the directory holding the config file, or "" when the
// configuration was not loaded from disk
func (c *Config) Root() string {
	return c.root
}

// DatabasePath returns the path to the history database
func (c *Config) DatabasePath() string {
	if c.History.Path != "" {
		if filepath.IsAbs(c.History.Path) {
			return c.History.Path
		}
		return filepath.Join(c.root, c.History.Path)
	}
	return filepath.Join(c.root, DataDir, DatabaseFile)
}

// Initialize writes a default config file and creates the data directory in dir
func Initialize(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	// Check if already initialized
	if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
		return nil, fmt.Errorf("%s already exists in %s", ConfigFile, dir)
	}

	dataPath := filepath.Join(dir, DataDir)
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", DataDir, err)
	}

	cfg := Default()
	cfg.root = dir

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(dataPath)
		return nil, err
	}

	return cfg, nil
}
