// Package config holds ccpulse configuration and the static pricing table.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all ccpulse configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Engine  EngineConfig  `toml:"engine"`
	Cache   CacheConfig   `toml:"cache"`
}

// GeneralConfig holds data location preferences.
type GeneralConfig struct {
	// DataDir is the root of the log tree, organized as
	// <DataDir>/<project>/<session>.jsonl.
	DataDir string `toml:"data_dir,omitempty"`
}

// EngineConfig controls refresh and aggregation behavior.
type EngineConfig struct {
	RefreshIntervalSec int `toml:"refresh_interval_sec"`
	DebounceMs         int `toml:"debounce_ms"`
	WindowHours        int `toml:"window_hours"`
	DailyDays          int `toml:"daily_days"`

	DailyHistoryPeriods   int `toml:"daily_history_periods"`
	WeeklyHistoryPeriods  int `toml:"weekly_history_periods"`
	MonthlyHistoryPeriods int `toml:"monthly_history_periods"`

	// TokenLimit is the assumed rolling-window token ceiling used for
	// the percentage-used estimate. Not a vendor quota.
	TokenLimit int64 `toml:"token_limit"`
}

// CacheConfig controls the optional SQLite parse cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		General: GeneralConfig{
			DataDir: filepath.Join(home, ".claude", "projects"),
		},
		Engine: EngineConfig{
			RefreshIntervalSec:    60,
			DebounceMs:            500,
			WindowHours:           5,
			DailyDays:             7,
			DailyHistoryPeriods:   7,
			WeeklyHistoryPeriods:  8,
			MonthlyHistoryPeriods: 6,
			TokenLimit:            100_000_000,
		},
	}
}

// RefreshInterval returns the refresh interval as a duration.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.Engine.RefreshIntervalSec) * time.Second
}

// Debounce returns the filesystem-event debounce window as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Engine.DebounceMs) * time.Millisecond
}

// Window returns the rolling window length as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.Engine.WindowHours) * time.Hour
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ccpulse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ccpulse")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ccpulse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "ccpulse")
}

// CachePath returns the configured cache database path, or the default.
func (c Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(), "events.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg.normalized(), nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// normalized clamps nonsensical values back to defaults so a partial or
// hand-edited config file cannot disable the engine.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Engine.RefreshIntervalSec <= 0 {
		c.Engine.RefreshIntervalSec = def.Engine.RefreshIntervalSec
	}
	if c.Engine.DebounceMs <= 0 {
		c.Engine.DebounceMs = def.Engine.DebounceMs
	}
	if c.Engine.WindowHours <= 0 {
		c.Engine.WindowHours = def.Engine.WindowHours
	}
	if c.Engine.DailyDays <= 0 {
		c.Engine.DailyDays = def.Engine.DailyDays
	}
	if c.Engine.DailyHistoryPeriods <= 0 {
		c.Engine.DailyHistoryPeriods = def.Engine.DailyHistoryPeriods
	}
	if c.Engine.WeeklyHistoryPeriods <= 0 {
		c.Engine.WeeklyHistoryPeriods = def.Engine.WeeklyHistoryPeriods
	}
	if c.Engine.MonthlyHistoryPeriods <= 0 {
		c.Engine.MonthlyHistoryPeriods = def.Engine.MonthlyHistoryPeriods
	}
	if c.Engine.TokenLimit <= 0 {
		c.Engine.TokenLimit = def.Engine.TokenLimit
	}
	if c.General.DataDir == "" {
		c.General.DataDir = def.General.DataDir
	}
	return c
}
