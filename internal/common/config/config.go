package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Defaults applied when a setting is absent from the configuration file
const (
	DefaultIndent         = "32"
	DefaultSorting        = "none"
	DefaultIndexKind      = "json"
	DefaultServiceURL     = "https://pypi.org/pypi"
	DefaultTimeoutSeconds = 10
	DefaultThreads        = 10
	DefaultEggsDirectory  = "./eggs/"
	DefaultPolicyFile     = "bvc.toml"
)

// Config represents the application configuration
type Config struct {
	Writer WriterConfig `yaml:"writer"`
	Index  IndexConfig  `yaml:"index"`
	Unused UnusedConfig `yaml:"unused"`
	Policy string       `yaml:"policy"` // project policy file looked up next to the source
}

// WriterConfig holds buildout file formatting settings
type WriterConfig struct {
	Indent  string `yaml:"indent"`  // column width or "auto"
	Sorting string `yaml:"sorting"` // none, alpha, ascii or length
}

// IndexConfig holds package index settings
type IndexConfig struct {
	Kind              string  `yaml:"kind"` // json, simple or find-links
	ServiceURL        string  `yaml:"service_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	Threads           int     `yaml:"threads"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables pacing
	CacheTTLMinutes   int     `yaml:"cache_ttl_minutes"`   // 0 disables the release cache
	UserAgent         string  `yaml:"user_agent,omitempty"`
}

// UnusedConfig holds settings for the unused pin detector
type UnusedConfig struct {
	Eggs string `yaml:"eggs"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Writer: WriterConfig{
			Indent:  DefaultIndent,
			Sorting: DefaultSorting,
		},
		Index: IndexConfig{
			Kind:           DefaultIndexKind,
			ServiceURL:     DefaultServiceURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
			Threads:        DefaultThreads,
		},
		Unused: UnusedConfig{
			Eggs: DefaultEggsDirectory,
		},
		Policy: DefaultPolicyFile,
	}
}

// Timeout returns the per-lookup timeout
func (i IndexConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// CacheTTL returns the release cache lifetime
func (i IndexConfig) CacheTTL() time.Duration {
	return time.Duration(i.CacheTTLMinutes) * time.Minute
}

// Validate checks numeric settings
func (c *Config) Validate() error {
	switch {
	case c.Index.TimeoutSeconds <= 0:
		return fmt.Errorf("%w: index.timeout_seconds must be positive, got %d", ErrInvalidConfig, c.Index.TimeoutSeconds)
	case c.Index.Threads <= 0:
		return fmt.Errorf("%w: index.threads must be positive, got %d", ErrInvalidConfig, c.Index.Threads)
	case c.Index.RequestsPerSecond < 0:
		return fmt.Errorf("%w: index.requests_per_second must not be negative", ErrInvalidConfig)
	case c.Index.CacheTTLMinutes < 0:
		return fmt.Errorf("%w: index.cache_ttl_minutes must not be negative", ErrInvalidConfig)
	case c.Index.ServiceURL == "":
		return fmt.Errorf("%w: index.service_url is empty", ErrInvalidConfig)
	}
	return nil
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/bvc/config.yaml (XDG standard - priority)
// 2. ~/.bvc/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	// Check XDG_CONFIG_HOME first, fallback to ~/.config
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "bvc", "config.yaml"),
		filepath.Join(home, ".bvc", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// CacheDir returns the directory holding the release cache
func CacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	xdgCache := os.Getenv("XDG_CACHE_HOME")
	if xdgCache == "" {
		xdgCache = filepath.Join(home, ".cache")
	}

	return filepath.Join(xdgCache, "bvc"), nil
}

// Load reads configuration from the first available config file
// Priority: ~/.config/bvc/config.yaml > ~/.bvc/config.yaml
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file yields the defaults; settings absent from the file keep their default.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to the default config file
func (c *Config) Save() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
