// Package viewport computes which slice of a flattened list must be
// materialized for a scrollable container.
package viewport

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how item sizes are known.
type Mode int

const (
	// Fixed gives every item the same size.
	Fixed Mode = iota
	// Auto uses measured sizes reported by the renderer and estimates the rest.
	Auto
	// Disabled materializes the whole list. Only suitable for small lists.
	Disabled
)

// ErrInvalidMode is returned by ParseMode for unknown mode names.
var ErrInvalidMode = errors.New("invalid sizing mode")

// ParseMode parses "fixed", "auto" or "none".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "":
		return Fixed, nil
	case "auto":
		return Auto, nil
	case "none", "disabled":
		return Disabled, nil
	}
	return Fixed, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) String() string {
	switch m {
	case Fixed:
		return "fixed"
	case Auto:
		return "auto"
	case Disabled:
		return "none"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Window is the materialized slice of the flattened sequence.
type Window struct {
	Start    int
	Count    int
	Leading  int // size of the items before Start
	Trailing int // size of the items after Start+Count

	// OutOfRange is set when the requested offset scrolls past the end of the
	// list, typically after the list shrank. The caller must clamp its scroll
	// position and compute again.
	OutOfRange bool
}

// End returns the index one past the last materialized item.
func (w Window) End() int {
	return w.Start + w.Count
}

// Contains reports whether flat index i is materialized.
func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End()
}

// KeyFunc maps a flat index to the key its measured size is cached under.
type KeyFunc func(i int) string
