package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Deck.Capacity != 50 {
		t.Errorf("Expected capacity 50, got %d", cfg.Deck.Capacity)
	}
	if cfg.Deck.LookAhead != 5 {
		t.Errorf("Expected look-ahead 5, got %d", cfg.Deck.LookAhead)
	}
	if cfg.Deck.LowWater != 3 {
		t.Errorf("Expected low-water 3, got %d", cfg.Deck.LowWater)
	}
	if got := cfg.DebounceDuration(); got != 300*time.Millisecond {
		t.Errorf("Expected 300ms debounce, got %v", got)
	}
	if got := cfg.IdleCeilingDuration(); got != 2*time.Second {
		t.Errorf("Expected 2s idle ceiling, got %v", got)
	}
	if got := cfg.FlushTimeoutDuration(); got != 350*time.Millisecond {
		t.Errorf("Expected 350ms flush timeout, got %v", got)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Deck.Capacity != 50 {
		t.Errorf("Expected defaults, got capacity %d", cfg.Deck.Capacity)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Filters.Category = "bikes"
	cfg.Remote.BaseURL = "https://api.example.com"
	cfg.App.UserID = "user-1"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Filters.Category != "bikes" {
		t.Errorf("Expected category 'bikes', got %q", loaded.Filters.Category)
	}
	if loaded.Remote.BaseURL != "https://api.example.com" {
		t.Errorf("Expected base URL to round-trip, got %q", loaded.Remote.BaseURL)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prefetch.Debounce = "not-a-duration"
	if got := cfg.DebounceDuration(); got != 300*time.Millisecond {
		t.Errorf("Expected fallback 300ms, got %v", got)
	}
}

func TestWatcherDetectsFilterChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var mu sync.Mutex
	var changes []bool
	watcher, err := NewWatcher(path, cfg, func(_ *Config, filtersChanged bool) {
		mu.Lock()
		changes = append(changes, filtersChanged)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = watcher.Close() }()

	cfg.Filters.Category = "books"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(changes)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 {
		t.Fatal("Expected the watcher to observe the config write")
	}
	sawFilterChange := false
	for _, c := range changes {
		if c {
			sawFilterChange = true
		}
	}
	if !sawFilterChange {
		t.Error("Expected a filters-changed notification")
	}

	_ = os.Remove(path)
}
