// Package selection owns the selected item set of a list and the optional
// asynchronous approval gates that guard changes to it.
package selection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/osteele/treeselect/internal/tree"
)

// Mode is the selection behaviour of a list.
type Mode int

const (
	// Single keeps at most one selected item.
	Single Mode = iota
	// Multi keeps an ordered set, in selection order.
	Multi
	// ReadOnlySelect behaves like Single without a free-text query.
	ReadOnlySelect
	// Autocomplete behaves like Single and clears on every query change.
	Autocomplete
)

// ErrInvalidMode is returned by ParseMode for unknown mode names.
var ErrInvalidMode = errors.New("invalid selection mode")

// ParseMode parses the mode names used in configuration files.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return Single, nil
	case "select", "":
		return ReadOnlySelect, nil
	case "multiselect", "multi":
		return Multi, nil
	case "autocomplete":
		return Autocomplete, nil
	}
	return Single, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Multi:
		return "multiselect"
	case ReadOnlySelect:
		return "select"
	case Autocomplete:
		return "autocomplete"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Exclusive reports whether the mode keeps at most one selected item.
func (m Mode) Exclusive() bool {
	return m != Multi
}

// Gate approves or rejects a pending selection change. A returned error is
// treated as a rejection.
type Gate func(ctx context.Context, it *tree.Item) (bool, error)

// GateMsg carries the decision of a gate back into the update loop.
type GateMsg struct {
	Item    *tree.Item
	Select  bool
	Allowed bool
	Err     error

	id  int
	seq uint64
}

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Engine holds the selection state of one list instance. It is not safe for
// concurrent use; gate decisions are applied through Update on the caller's
// loop.
type Engine struct {
	// Selecting and Unselecting are optional approval gates.
	Selecting   Gate
	Unselecting Gate

	id       int
	mode     Mode
	selected []*tree.Item
	pending  map[string]uint64
	seq      uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an engine in the given mode.
func New(mode Mode) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		id:      nextID(),
		mode:    mode,
		pending: make(map[string]uint64),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Mode returns the selection mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Toggle requests that items be selected or unselected. Changes without a gate
// apply immediately; gated changes return a command that resolves to a
// GateMsg. A newer request for the same key supersedes any pending one.
func (e *Engine) Toggle(items []*tree.Item, sel bool) (changed bool, cmd tea.Cmd) {
	gate := e.Unselecting
	if sel {
		gate = e.Selecting
	}

	var cmds []tea.Cmd
	for _, it := range items {
		if it == nil {
			continue
		}
		if gate == nil {
			delete(e.pending, it.Key)
			if e.apply(it, sel) {
				changed = true
			}
			continue
		}
		e.seq++
		e.pending[it.Key] = e.seq
		cmds = append(cmds, e.ask(gate, it, sel, e.seq))
	}
	return changed, tea.Batch(cmds...)
}

func (e *Engine) ask(gate Gate, it *tree.Item, sel bool, seq uint64) tea.Cmd {
	ctx, id := e.ctx, e.id
	return func() tea.Msg {
		ok, err := gate(ctx, it)
		return GateMsg{Item: it, Select: sel, Allowed: ok && err == nil, Err: err, id: id, seq: seq}
	}
}

// Update applies a gate decision. Decisions for other engines, and decisions
// superseded by a newer request for the same key, are dropped. It reports
// whether the selection changed.
func (e *Engine) Update(msg GateMsg) bool {
	if msg.id != e.id || msg.Item == nil {
		return false
	}
	if e.pending[msg.Item.Key] != msg.seq {
		return false
	}
	delete(e.pending, msg.Item.Key)
	if !msg.Allowed || e.ctx.Err() != nil {
		return false
	}
	return e.apply(msg.Item, msg.Select)
}

func (e *Engine) apply(it *tree.Item, sel bool) bool {
	i := e.index(it.Key)
	if sel {
		if e.mode.Exclusive() {
			if len(e.selected) == 1 && i == 0 && e.selected[0] == it {
				return false
			}
			e.selected = []*tree.Item{it}
			return true
		}
		if i >= 0 {
			// Keep the position, but follow the refetched object.
			e.selected[i] = it
			return false
		}
		e.selected = append(e.selected, it)
		return true
	}
	if i < 0 {
		return false
	}
	e.selected = slices.Delete(e.selected, i, i+1)
	return true
}

func (e *Engine) index(key string) int {
	return slices.IndexFunc(e.selected, func(s *tree.Item) bool { return s.Key == key })
}

// Pending reports whether a gate decision is outstanding for key.
func (e *Engine) Pending(key string) bool {
	_, ok := e.pending[key]
	return ok
}

// Selected returns the selected items in selection order.
func (e *Engine) Selected() []*tree.Item {
	return slices.Clone(e.selected)
}

// SelectedModels returns the wrapped business objects of the selected items,
// or the items themselves when they wrap nothing.
func (e *Engine) SelectedModels() []any {
	out := make([]any, 0, len(e.selected))
	for _, it := range e.selected {
		if it.Model != nil {
			out = append(out, it.Model)
		} else {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of selected items.
func (e *Engine) Len() int {
	return len(e.selected)
}

// IsSelected reports whether an item with the same key is selected.
func (e *Engine) IsSelected(it *tree.Item) bool {
	return it != nil && e.index(it.Key) >= 0
}

// IsSelectedKey reports whether key is selected.
func (e *Engine) IsSelectedKey(key string) bool {
	return e.index(key) >= 0
}

// Clear drops the selection and every pending request.
func (e *Engine) Clear() bool {
	clear(e.pending)
	if len(e.selected) == 0 {
		return false
	}
	e.selected = nil
	return true
}

// QueryChanged is called when the free-text query changes. Autocomplete lists
// drop their selection until a new one is made.
func (e *Engine) QueryChanged() bool {
	if e.mode != Autocomplete {
		return false
	}
	return e.Clear()
}

// SetValue replaces the selection without consulting gates. Exclusive modes
// keep the last item.
func (e *Engine) SetValue(items ...*tree.Item) {
	clear(e.pending)
	e.selected = nil
	for _, it := range items {
		if it != nil {
			e.apply(it, true)
		}
	}
}

// Close cancels the context passed to in-flight gates. Decisions arriving
// afterwards are ignored.
func (e *Engine) Close() {
	e.cancel()
	clear(e.pending)
}
