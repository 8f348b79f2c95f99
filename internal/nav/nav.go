// Package nav interprets normalized keyboard input against a flattened list:
// it moves the active index, requests collapse changes, and runs the
// incremental type-ahead search.
package nav

import (
	"strings"
	"time"
	"unicode"

	"github.com/osteele/treeselect/internal/tree"
)

// DefaultSearchReset is the idle time after which the search prefix restarts.
const DefaultSearchReset = 750 * time.Millisecond

// Action is a logical key.
type Action int

const (
	NoAction Action = iota
	Up
	Down
	PageUp
	PageDown
	Home
	End
	Space
	Enter
	Char
)

// Input is one normalized key press.
type Input struct {
	Action   Action
	Modifier bool // ctrl/alt/meta held
	Rune     rune // for Char
}

// Effect tells the owner of the list what to do after a key press.
type Effect int

const (
	NoEffect Effect = iota
	// Moved means the active index changed and must be scrolled into view.
	Moved
	// ToggleCollapse asks for the entry at Outcome.Index to flip its state.
	ToggleCollapse
	// ToggleAll asks for every parent to be collapsed or expanded.
	ToggleAll
	// Commit asks for the entry at Outcome.Index to be selected.
	Commit
)

func (e Effect) String() string {
	switch e {
	case Moved:
		return "moved"
	case ToggleCollapse:
		return "toggle-collapse"
	case ToggleAll:
		return "toggle-all"
	case Commit:
		return "commit"
	}
	return "none"
}

// Outcome is the result of Handle. Handled is false when the key was not a
// navigation key and should be passed on (for example to a text field).
type Outcome struct {
	Effect  Effect
	Index   int
	Handled bool
}

// List is the flattened sequence the controller navigates.
type List interface {
	Len() int
	At(i int) (tree.Entry, bool)
}

// Config holds controller settings.
type Config struct {
	// PageSize is the PageUp/PageDown step. Zero derives it from the
	// container and row size.
	PageSize int
	// SearchReset is the idle time before the search prefix restarts.
	SearchReset time.Duration
	// ReadOnly makes Space on a leaf commit the active entry.
	ReadOnly bool
	// TextEntry sends printable characters to the query field instead of the
	// type-ahead search.
	TextEntry bool
}

// Controller tracks the active index of one list.
type Controller struct {
	cfg    Config
	active int

	prefix  string
	lastKey time.Time
}

// New creates a controller with no active entry.
func New(cfg Config) *Controller {
	if cfg.SearchReset <= 0 {
		cfg.SearchReset = DefaultSearchReset
	}
	return &Controller{cfg: cfg, active: -1}
}

// Active returns the active index, or -1 when nothing is active.
func (c *Controller) Active() int {
	return c.active
}

// SetActive sets the active index, clamped to the list bounds. A negative
// index clears it.
func (c *Controller) SetActive(i int, list List) {
	if i < 0 {
		c.active = -1
		return
	}
	c.active = clampIndex(i, list.Len())
}

// Prefix returns the current search prefix.
func (c *Controller) Prefix() string {
	return c.prefix
}

// Clamp keeps the active index inside a list that changed length. An empty
// list leaves nothing active.
func (c *Controller) Clamp(list List) {
	n := list.Len()
	switch {
	case n == 0:
		c.active = -1
	case c.active >= n:
		c.active = n - 1
	}
}

// PageLen returns the page step for a container of the given size.
func (c *Controller) PageLen(container, rowSize int) int {
	if c.cfg.PageSize > 0 {
		return c.cfg.PageSize
	}
	if rowSize <= 0 {
		rowSize = 1
	}
	return max(1, container/rowSize)
}

// Handle applies one key press. container and rowSize derive the page size
// when none is configured; now drives the search reset.
func (c *Controller) Handle(in Input, list List, container, rowSize int, now time.Time) Outcome {
	n := list.Len()
	if in.Action != Char {
		c.prefix = ""
	}

	switch in.Action {
	case Home, End:
		if in.Modifier {
			return Outcome{Effect: ToggleAll, Index: c.active, Handled: true}
		}
		if in.Action == Home {
			return c.moveTo(FirstSelectable(list, 0, 1))
		}
		return c.moveTo(FirstSelectable(list, n-1, -1))

	case Up:
		if c.active < 0 {
			return c.moveTo(FirstSelectable(list, n-1, -1))
		}
		return c.moveTo(FirstSelectable(list, c.active-1, -1))

	case Down:
		return c.moveTo(FirstSelectable(list, c.active+1, 1))

	case PageUp, PageDown:
		if n == 0 {
			return Outcome{Handled: true}
		}
		step := c.PageLen(container, rowSize)
		dir := 1
		if in.Action == PageUp {
			dir = -1
		}
		target := clampIndex(max(c.active, 0)+dir*step, n)
		i := FirstSelectable(list, target, dir)
		if i < 0 {
			i = FirstSelectable(list, target, -dir)
		}
		return c.moveTo(i)

	case Space:
		e, ok := list.At(c.active)
		if !ok {
			return Outcome{}
		}
		if e.Collapsible() {
			return Outcome{Effect: ToggleCollapse, Index: c.active, Handled: true}
		}
		if c.cfg.ReadOnly && e.Item.IsSelectable() {
			return Outcome{Effect: Commit, Index: c.active, Handled: true}
		}
		return Outcome{}

	case Enter:
		e, ok := list.At(c.active)
		if !ok || !e.Item.IsSelectable() {
			return Outcome{Handled: ok}
		}
		return Outcome{Effect: Commit, Index: c.active, Handled: true}

	case Char:
		if c.cfg.TextEntry || in.Modifier || !unicode.IsPrint(in.Rune) {
			return Outcome{}
		}
		return c.search(in.Rune, list, now)
	}
	return Outcome{}
}

func (c *Controller) moveTo(i int) Outcome {
	if i < 0 || i == c.active {
		return Outcome{Index: c.active, Handled: true}
	}
	c.active = i
	return Outcome{Effect: Moved, Index: i, Handled: true}
}

func (c *Controller) search(r rune, list List, now time.Time) Outcome {
	if now.Sub(c.lastKey) > c.cfg.SearchReset {
		c.prefix = ""
	}
	c.lastKey = now
	c.prefix += strings.ToLower(string(r))
	return c.moveTo(Search(list, c.prefix, max(c.active, 0)))
}

// Search returns the first selectable entry at or after from whose label
// starts with prefix, ignoring case, or -1. It does not wrap.
func Search(list List, prefix string, from int) int {
	prefix = strings.ToLower(prefix)
	for i := max(from, 0); i < list.Len(); i++ {
		e, _ := list.At(i)
		if !e.Item.IsSelectable() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(e.Item.Label()), prefix) {
			return i
		}
	}
	return -1
}

// FirstSelectable walks from i in direction dir (+1 or -1) and returns the
// first selectable index, or -1.
func FirstSelectable(list List, i, dir int) int {
	for n := list.Len(); i >= 0 && i < n; i += dir {
		if e, _ := list.At(i); e.Item.IsSelectable() {
			return i
		}
	}
	return -1
}

func clampIndex(i, n int) int {
	if n == 0 {
		return -1
	}
	return min(max(i, 0), n-1)
}
