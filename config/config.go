// Package config loads the middleware's YAML configuration file:
// file-cache and PIN-cache policy plus reader selection.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level document.
type Config struct {
	Reader ReaderConfig `yaml:"reader"`
	Cache  CacheConfig  `yaml:"cache"`
}

// ReaderConfig selects which PC/SC reader to open.
type ReaderConfig struct {
	// Name matches a PC/SC reader name exactly. Empty means "use the
	// first reader reporting a card".
	Name string `yaml:"name"`
}

// CacheConfig mirrors the three pkcs15.Options knobs.
type CacheConfig struct {
	UseFileCache    *bool `yaml:"use_file_cache"`
	UsePinCache     *bool `yaml:"use_pin_cache"`
	PinCacheCounter *int  `yaml:"pin_cache_counter"`
}

// Defaults matches the teacher's convention of nil-pointer "unset"
// fields resolving to explicit defaults at the call site rather than
// in the YAML schema.
const (
	defaultUseFileCache    = true
	defaultUsePinCache     = true
	defaultPinCacheCounter = 10
)

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges; all fields are optional, so an empty
// document is valid.
func (c *Config) Validate() error {
	c.Reader.Name = strings.TrimSpace(c.Reader.Name)
	if c.Cache.PinCacheCounter != nil && *c.Cache.PinCacheCounter < 0 {
		return fmt.Errorf("config: cache.pin_cache_counter must be >= 0")
	}
	return nil
}

// UseFileCache resolves the effective use_file_cache setting.
func (c *Config) UseFileCache() bool {
	if c.Cache.UseFileCache == nil {
		return defaultUseFileCache
	}
	return *c.Cache.UseFileCache
}

// UsePinCache resolves the effective use_pin_cache setting.
func (c *Config) UsePinCache() bool {
	if c.Cache.UsePinCache == nil {
		return defaultUsePinCache
	}
	return *c.Cache.UsePinCache
}

// PinCacheCounter resolves the effective pin_cache_counter setting.
// A resolved value of 0 disables caching outright, matching
// pin.NewCache's limit<=0 convention.
func (c *Config) PinCacheCounter() int {
	if c.Cache.PinCacheCounter == nil {
		return defaultPinCacheCounter
	}
	return *c.Cache.PinCacheCounter
}

// DefaultPath returns the conventional config file location under the
// user's home directory, used when no --config flag is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".pkcs15mw.yaml"), nil
}
