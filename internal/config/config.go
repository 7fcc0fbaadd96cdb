// Package config loads and persists deckflow configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Deck queue settings
	Deck DeckConfig `toml:"deck"`

	// Prefetch scheduling settings
	Prefetch PrefetchConfig `toml:"prefetch"`

	// Swipe state machine settings
	Swipe SwipeConfig `toml:"swipe"`

	// Remote collaborator settings
	Remote RemoteConfig `toml:"remote"`

	// Storage settings
	Storage StorageConfig `toml:"storage"`

	// Active browsing filters
	Filters FiltersConfig `toml:"filters"`

	// Application settings
	App AppConfig `toml:"app"`
}

// DeckConfig contains deck queue settings.
type DeckConfig struct {
	Capacity  int `toml:"capacity"`   // Max retained cards per deck
	LookAhead int `toml:"look_ahead"` // Cards warmed eagerly on advance
	LowWater  int `toml:"low_water"`  // Remaining cards triggering a page fetch
}

// PrefetchConfig contains prefetch scheduling settings.
type PrefetchConfig struct {
	Debounce    string `toml:"debounce"`     // Delay before detail prefetch (e.g. "300ms")
	IdleCeiling string `toml:"idle_ceiling"` // Max wait for an idle slot (e.g. "2s")
}

// SwipeConfig contains swipe state machine settings.
type SwipeConfig struct {
	FlushTimeout string `toml:"flush_timeout"` // Safety-flush timeout (e.g. "350ms")
}

// RemoteConfig contains remote collaborator settings.
type RemoteConfig struct {
	BaseURL string `toml:"base_url"` // Supply/decision service base URL
	Timeout string `toml:"timeout"`  // HTTP request timeout (e.g. "30s")
}

// StorageConfig contains durable mirror settings.
type StorageConfig struct {
	Path string `toml:"path"` // SQLite path ("" = default, ":memory:" for volatile)
}

// FiltersConfig is the active browsing context. Changing it resets the
// matching deck.
type FiltersConfig struct {
	Role     string `toml:"role"`     // "buyer" or "seller"
	Category string `toml:"category"` // Listing category
	Query    string `toml:"query"`    // Free-text filter
}

// AppConfig contains general application settings.
type AppConfig struct {
	UserID    string `toml:"user_id"`    // Acting user's identifier
	DebugMode bool   `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Deck: DeckConfig{
			Capacity:  50,
			LookAhead: 5,
			LowWater:  3,
		},
		Prefetch: PrefetchConfig{
			Debounce:    "300ms",
			IdleCeiling: "2s",
		},
		Swipe: SwipeConfig{
			FlushTimeout: "350ms",
		},
		Remote: RemoteConfig{
			BaseURL: "",
			Timeout: "30s",
		},
		Storage: StorageConfig{
			Path: "",
		},
		Filters: FiltersConfig{
			Role: "buyer",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// DefaultPath returns the path to the configuration file.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".deckflow")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// DefaultStoragePath returns the default durable mirror location.
func DefaultStoragePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".deckflow", "decks.db"), nil
}

// Load loads the configuration from path. Returns the default config
// if the file doesn't exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// DebounceDuration parses the prefetch debounce delay.
func (c *Config) DebounceDuration() time.Duration {
	return parseDuration(c.Prefetch.Debounce, 300*time.Millisecond)
}

// IdleCeilingDuration parses the prefetch idle ceiling.
func (c *Config) IdleCeilingDuration() time.Duration {
	return parseDuration(c.Prefetch.IdleCeiling, 2*time.Second)
}

// FlushTimeoutDuration parses the safety-flush timeout.
func (c *Config) FlushTimeoutDuration() time.Duration {
	return parseDuration(c.Swipe.FlushTimeout, 350*time.Millisecond)
}

// RemoteTimeoutDuration parses the remote HTTP timeout.
func (c *Config) RemoteTimeoutDuration() time.Duration {
	return parseDuration(c.Remote.Timeout, 30*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
