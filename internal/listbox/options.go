package listbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/osteele/treeselect/internal/nav"
	"github.com/osteele/treeselect/internal/selection"
	"github.com/osteele/treeselect/internal/viewport"
)

// ErrInvalidSize is wrapped by ConfigError for negative or zero sizes and
// negative durations.
var ErrInvalidSize = errors.New("invalid size")

// ConfigError reports a bad option value. It wraps one of
// selection.ErrInvalidMode, viewport.ErrInvalidMode or ErrInvalidSize.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s = %s: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Options configures a Model. They are fixed for the life of the model.
type Options struct {
	Mode   selection.Mode
	Sizing viewport.Mode

	// ItemSize is the size of every row in fixed sizing mode.
	ItemSize int
	// DefaultItemSize estimates unmeasured rows in auto sizing mode.
	DefaultItemSize int
	// MinSearchLength is the query length at which filtering starts.
	MinSearchLength int
	// PageSize is the PageUp/PageDown step; zero derives it from the
	// container size.
	PageSize int
	// HideSelected removes selected items from the list.
	HideSelected bool
	// CloseOnSelect closes the list after a selection in exclusive modes.
	CloseOnSelect bool

	ScrollDebounce time.Duration
	ShowDebounce   time.Duration
	CloseDelay     time.Duration
	KeyboardReset  time.Duration
	SearchReset    time.Duration
	FilterDebounce time.Duration

	// Selecting and Unselecting optionally approve selection changes.
	Selecting   selection.Gate
	Unselecting selection.Gate
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Mode:            selection.ReadOnlySelect,
		Sizing:          viewport.Fixed,
		ItemSize:        1,
		DefaultItemSize: 1,
		CloseOnSelect:   true,
		ScrollDebounce:  30 * time.Millisecond,
		ShowDebounce:    50 * time.Millisecond,
		CloseDelay:      10 * time.Millisecond,
		KeyboardReset:   time.Second,
		SearchReset:     nav.DefaultSearchReset,
		FilterDebounce:  250 * time.Millisecond,
	}
}

// Validate checks option values.
func (o Options) Validate() error {
	if o.Mode < selection.Single || o.Mode > selection.Autocomplete {
		return &ConfigError{Field: "mode", Value: o.Mode.String(), Err: selection.ErrInvalidMode}
	}
	if o.Sizing < viewport.Fixed || o.Sizing > viewport.Disabled {
		return &ConfigError{Field: "sizing", Value: o.Sizing.String(), Err: viewport.ErrInvalidMode}
	}

	sizes := []struct {
		field string
		value int
		min   int
	}{
		{"item_size", o.ItemSize, 1},
		{"default_item_size", o.DefaultItemSize, 1},
		{"min_search_length", o.MinSearchLength, 0},
		{"page_size", o.PageSize, 0},
	}
	for _, s := range sizes {
		if s.value < s.min {
			return &ConfigError{Field: s.field, Value: fmt.Sprint(s.value), Err: ErrInvalidSize}
		}
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"scroll_debounce", o.ScrollDebounce},
		{"show_debounce", o.ShowDebounce},
		{"close_delay", o.CloseDelay},
		{"keyboard_reset", o.KeyboardReset},
		{"search_reset", o.SearchReset},
		{"filter_debounce", o.FilterDebounce},
	}
	for _, d := range durations {
		if d.value < 0 {
			return &ConfigError{Field: d.field, Value: d.value.String(), Err: ErrInvalidSize}
		}
	}
	return nil
}
