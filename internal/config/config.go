// Package config provides configuration management for treeselect.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/osteele/treeselect/internal/listbox"
	"github.com/osteele/treeselect/internal/selection"
	"github.com/osteele/treeselect/internal/viewport"
)

// ThemeMode represents the theme selection mode.
type ThemeMode string

const (
	ThemeModeAuto  ThemeMode = "auto"
	ThemeModeLight ThemeMode = "light"
	ThemeModeDark  ThemeMode = "dark"
)

// UIConfig contains UI-related settings.
type UIConfig struct {
	Theme ThemeMode `toml:"theme"`
}

// ListConfig contains list behaviour settings.
type ListConfig struct {
	Mode            string `toml:"mode"`
	Sizing          string `toml:"sizing"`
	ItemSize        int    `toml:"item_size"`
	DefaultItemSize int    `toml:"default_item_size"`
	MinSearchLength int    `toml:"min_search_length"`
	PageSize        int    `toml:"page_size"`
	HideSelected    bool   `toml:"hide_selected"`
	MaxHeight       int    `toml:"max_height"`
	CloseDelayMs    int64  `toml:"close_delay_ms"`
}

// DebounceConfig contains debounce intervals in milliseconds.
type DebounceConfig struct {
	ScrollMs        int64 `toml:"scroll_ms"`
	ShowMs          int64 `toml:"show_ms"`
	KeyboardResetMs int64 `toml:"keyboard_reset_ms"`
	SearchResetMs   int64 `toml:"search_reset_ms"`
	FilterMs        int64 `toml:"filter_ms"`
}

// SourceConfig contains item source settings.
type SourceConfig struct {
	PageSize  int    `toml:"page_size"`
	Watch     bool   `toml:"watch"`
	StateFile string `toml:"state_file"`
}

// Config represents the application configuration.
type Config struct {
	UI       UIConfig       `toml:"ui"`
	List     ListConfig     `toml:"list"`
	Debounce DebounceConfig `toml:"debounce"`
	Source   SourceConfig   `toml:"source"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Theme: ThemeModeAuto,
		},
		List: ListConfig{
			Mode:            "select",
			Sizing:          "fixed",
			ItemSize:        1,
			DefaultItemSize: 1,
			CloseDelayMs:    10,
		},
		Debounce: DebounceConfig{
			ScrollMs:        30,
			ShowMs:          50,
			KeyboardResetMs: 1000,
			SearchResetMs:   750,
			FilterMs:        250,
		},
		Source: SourceConfig{
			PageSize: 200,
		},
	}
}

// configPathFunc is the function used to determine the config file path.
// It can be overridden in tests to control the config location.
var configPathFunc = defaultConfigPath

// Load loads the configuration from the standard config file location.
// Returns the default config if no config file exists.
func Load() (*Config, error) {
	return LoadFile(configPathFunc())
}

// LoadFile loads the configuration from path. A missing file, or an empty
// path, yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// Options converts the list settings into listbox options. Unknown mode
// names and bad sizes are reported as *listbox.ConfigError.
func (c *Config) Options() (listbox.Options, error) {
	opts := listbox.DefaultOptions()

	mode, err := selection.ParseMode(c.List.Mode)
	if err != nil {
		return opts, &listbox.ConfigError{Field: "list.mode", Value: c.List.Mode, Err: selection.ErrInvalidMode}
	}
	sizing, err := viewport.ParseMode(c.List.Sizing)
	if err != nil {
		return opts, &listbox.ConfigError{Field: "list.sizing", Value: c.List.Sizing, Err: viewport.ErrInvalidMode}
	}

	opts.Mode = mode
	opts.Sizing = sizing
	opts.ItemSize = c.List.ItemSize
	opts.DefaultItemSize = c.List.DefaultItemSize
	opts.MinSearchLength = c.List.MinSearchLength
	opts.PageSize = c.List.PageSize
	opts.HideSelected = c.List.HideSelected
	opts.CloseDelay = millis(c.List.CloseDelayMs)
	opts.ScrollDebounce = millis(c.Debounce.ScrollMs)
	opts.ShowDebounce = millis(c.Debounce.ShowMs)
	opts.KeyboardReset = millis(c.Debounce.KeyboardResetMs)
	opts.SearchReset = millis(c.Debounce.SearchResetMs)
	opts.FilterDebounce = millis(c.Debounce.FilterMs)

	if err := opts.Validate(); err != nil {
		var cfgErr *listbox.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Field = "list." + cfgErr.Field
		}
		return opts, err
	}
	return opts, nil
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// defaultConfigPath returns the standard config file path for the current platform.
func defaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "treeselect", "config.toml")
}
