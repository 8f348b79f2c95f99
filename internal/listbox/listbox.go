// Package listbox is a virtualized, hierarchical select list. A Model ties
// together the item source, the tree flattener, the viewport calculator, the
// selection engine and the keyboard navigation controller, and drives them
// from a bubbletea update loop.
//
// The model does not render anything. A renderer reads Rows, Window, Active
// and the selection after each update, and feeds back input, scroll offsets,
// container sizes and measured row sizes as messages.
package listbox

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/osteele/treeselect/internal/debug"
	"github.com/osteele/treeselect/internal/nav"
	"github.com/osteele/treeselect/internal/selection"
	"github.com/osteele/treeselect/internal/source"
	"github.com/osteele/treeselect/internal/tree"
	"github.com/osteele/treeselect/internal/viewport"
)

// Input messages.
type (
	// ScrollMsg reports the container's scroll offset.
	ScrollMsg struct{ Offset int }

	// ResizeMsg reports the container's visible size.
	ResizeMsg struct{ Size int }

	// MeasureMsg reports rendered sizes of materialized rows in auto mode.
	MeasureMsg struct{ Sizes []Measurement }

	// KeyMsg is a normalized key press.
	KeyMsg struct{ Input nav.Input }

	// QueryMsg reports the free-text query.
	QueryMsg struct{ Text string }

	// PointerMsg is a pointer press or release on a flat index.
	PointerMsg struct {
		Index int
		Down  bool
	}

	// OpenMsg asks for the list to open (after the show debounce).
	OpenMsg struct{}

	// CloseMsg asks for the list to close (after the close delay).
	CloseMsg struct{}
)

// Measurement is the rendered size of the row at a tree path. Sizes are
// keyed by path so a measurement taken before a collapse or filter still
// lands on the row it was taken for.
type Measurement struct {
	Path string
	Size int
}

// SelectionChangedMsg is emitted after the selection changes.
type SelectionChangedMsg struct {
	Selected []*tree.Item
}

var lastID int64

// Model is one list instance. It is not safe for concurrent use; all
// mutation happens in Update.
type Model struct {
	opts Options
	id   int

	src  *source.Adapter
	tree *tree.Tree
	calc *viewport.Calculator
	sel  *selection.Engine
	nav  *nav.Controller

	timers [numTimers]timer

	container int
	offset    int
	pending   int // requested by ScrollMsg, promoted by the viewport timer
	stored    int
	window    viewport.Window

	query   string
	matches map[string]bool

	open        bool
	keyboard    bool
	pointerDown int
	closed      bool

	now func() time.Time
}

// New creates a model. Invalid options are reported as *ConfigError.
func New(opts Options) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		opts:        opts,
		id:          int(atomic.AddInt64(&lastID, 1)),
		src:         source.NewAdapter(),
		tree:        tree.New(nil),
		calc:        viewport.NewCalculator(opts.Sizing, opts.ItemSize, opts.DefaultItemSize),
		sel:         selection.New(opts.Mode),
		pointerDown: -1,
		now:         time.Now,
	}
	m.nav = nav.New(nav.Config{
		PageSize:    opts.PageSize,
		SearchReset: opts.SearchReset,
		ReadOnly:    opts.Mode == selection.ReadOnlySelect,
		TextEntry:   opts.Mode != selection.ReadOnlySelect,
	})
	m.sel.Selecting = opts.Selecting
	m.sel.Unselecting = opts.Unselecting
	m.tree.SetFilter(m.keep)
	for c := range m.timers {
		m.timers[c] = timer{id: m.id, concern: concern(c)}
	}
	return m, nil
}

// SetProvider replaces the item source.
func (m *Model) SetProvider(p source.Provider) tea.Cmd {
	cmd := m.src.Set(p)
	m.dataChanged()
	return cmd
}

// Update handles one message and returns the follow-up command.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if m.closed {
		return nil
	}

	switch msg := msg.(type) {
	case source.LoadedMsg:
		changed, cmd := m.src.Update(msg)
		if changed {
			m.dataChanged()
		}
		return cmd

	case selection.GateMsg:
		if m.sel.Update(msg) {
			return m.selectionChanged()
		}
		return nil

	case ScrollMsg:
		m.pending = max(0, msg.Offset)
		return m.timers[viewportTimer].start(m.opts.ScrollDebounce)

	case ResizeMsg:
		m.container = max(0, msg.Size)
		return m.timers[viewportTimer].start(m.opts.ScrollDebounce)

	case MeasureMsg:
		changed := false
		for _, s := range msg.Sizes {
			if m.calc.Measure(s.Path, s.Size) {
				changed = true
			}
		}
		if changed {
			return m.timers[viewportTimer].start(m.opts.ScrollDebounce)
		}
		return nil

	case KeyMsg:
		cmd, _ := m.HandleKey(msg.Input)
		return cmd

	case QueryMsg:
		return m.setQuery(msg.Text)

	case PointerMsg:
		return m.handlePointer(msg)

	case OpenMsg:
		return m.RequestOpen()

	case CloseMsg:
		return m.RequestClose()

	case TimerMsg:
		return m.handleTimer(msg)
	}
	return nil
}

func (m *Model) handleTimer(msg TimerMsg) tea.Cmd {
	if msg.concern < 0 || msg.concern >= numTimers || !m.timers[msg.concern].fire(msg) {
		return nil
	}
	debug.Log("listbox %d: %s timer fired", m.id, msg.concern)

	switch msg.concern {
	case viewportTimer:
		m.offset = m.pending
		m.recompute()
		m.stored = m.offset
	case showTimer:
		m.show()
	case hideTimer:
		m.open = false
	case filterTimer:
		return m.applyQuery()
	case keyboardTimer:
		m.keyboard = false
	}
	return nil
}

// RequestOpen opens the list after the show debounce and cancels a pending
// close.
func (m *Model) RequestOpen() tea.Cmd {
	m.timers[hideTimer].stop()
	if m.open {
		return nil
	}
	return m.timers[showTimer].start(m.opts.ShowDebounce)
}

// RequestClose closes the list after the close delay and cancels a pending
// open.
func (m *Model) RequestClose() tea.Cmd {
	m.timers[showTimer].stop()
	if !m.open {
		return nil
	}
	return m.timers[hideTimer].start(m.opts.CloseDelay)
}

func (m *Model) show() {
	m.open = true
	m.setOffset(m.stored)
	m.recompute()

	if sel := m.sel.Selected(); len(sel) > 0 {
		if i := m.tree.IndexOfKey(sel[0].Key); i >= 0 {
			m.nav.SetActive(i, m.tree)
		}
	}
	if m.nav.Active() < 0 {
		m.nav.SetActive(nav.FirstSelectable(m.tree, 0, 1), m.tree)
	}
	m.scrollToActive()
}

// HandleKey applies a key press. It reports false when the key is not a
// navigation key, so a caller with a text field can pass it on.
func (m *Model) HandleKey(in nav.Input) (tea.Cmd, bool) {
	if m.closed {
		return nil, false
	}
	if !m.open {
		switch in.Action {
		case nav.Up, nav.Down, nav.PageUp, nav.PageDown, nav.Enter:
			return m.RequestOpen(), true
		}
	}

	out := m.nav.Handle(in, m.tree, m.container, m.calc.RowSize(), m.now())
	if !out.Handled {
		return nil, false
	}

	var cmds []tea.Cmd
	m.keyboard = true
	cmds = append(cmds, m.timers[keyboardTimer].start(m.opts.KeyboardReset))

	switch out.Effect {
	case nav.Moved:
		m.scrollToActive()
	case nav.ToggleCollapse:
		m.preserveActive(func() { m.tree.ToggleCollapse(out.Index) })
	case nav.ToggleAll:
		m.preserveActive(func() { m.tree.ToggleAll() })
	case nav.Commit:
		cmds = append(cmds, m.commit(out.Index))
	}
	return tea.Batch(cmds...), true
}

func (m *Model) handlePointer(msg PointerMsg) tea.Cmd {
	if msg.Down {
		m.pointerDown = msg.Index
		return nil
	}
	down := m.pointerDown
	m.pointerDown = -1
	if down != msg.Index {
		return nil
	}
	e, ok := m.tree.At(msg.Index)
	if !ok {
		return nil
	}
	m.keyboard = false
	if e.Collapsible() {
		m.preserveActive(func() { m.tree.ToggleCollapse(msg.Index) })
		return nil
	}
	if !e.Item.IsSelectable() {
		return nil
	}
	m.nav.SetActive(msg.Index, m.tree)
	if m.sel.IsSelected(e.Item) {
		return nil
	}
	return m.commit(msg.Index)
}

// commit selects the entry at i, or unselects it in multi mode when it is
// already selected.
func (m *Model) commit(i int) tea.Cmd {
	e, ok := m.tree.At(i)
	if !ok || !e.Item.IsSelectable() {
		return nil
	}
	sel := true
	if m.opts.Mode == selection.Multi && m.sel.IsSelected(e.Item) {
		sel = false
	}
	changed, cmd := m.sel.Toggle([]*tree.Item{e.Item}, sel)
	if changed {
		return tea.Batch(cmd, m.selectionChanged())
	}
	return cmd
}

// RemoveSelection unselects an item, as when a selected chip is closed.
// Exclusive modes also clear the query.
func (m *Model) RemoveSelection(it *tree.Item) tea.Cmd {
	var cmds []tea.Cmd
	if m.opts.Mode.Exclusive() && m.query != "" {
		m.query = ""
		cmds = append(cmds, m.timers[filterTimer].start(m.opts.FilterDebounce))
	}
	changed, cmd := m.sel.Toggle([]*tree.Item{it}, false)
	cmds = append(cmds, cmd)
	if changed {
		cmds = append(cmds, m.selectionChanged())
	}
	return tea.Batch(cmds...)
}

// SetValue replaces the selection programmatically, bypassing gates. In
// exclusive modes with a query field the query shows the selected text.
func (m *Model) SetValue(items ...*tree.Item) {
	m.sel.SetValue(items...)
	if m.opts.Mode == selection.Single || m.opts.Mode == selection.Autocomplete {
		m.query = ""
		if sel := m.sel.Selected(); len(sel) > 0 {
			m.query = sel[0].Label()
		}
	}
	if m.opts.HideSelected {
		m.reflatten()
	}
}

func (m *Model) selectionChanged() tea.Cmd {
	if m.opts.HideSelected {
		m.preserveActive(func() { m.tree.Invalidate() })
	}
	selected := m.sel.Selected()
	cmds := []tea.Cmd{func() tea.Msg { return SelectionChangedMsg{Selected: selected} }}
	if m.opts.CloseOnSelect && m.opts.Mode.Exclusive() && len(selected) > 0 {
		cmds = append(cmds, m.RequestClose())
	}
	return tea.Batch(cmds...)
}

func (m *Model) setQuery(text string) tea.Cmd {
	if text == m.query {
		return nil
	}
	m.query = text
	var cmds []tea.Cmd
	if m.sel.QueryChanged() {
		cmds = append(cmds, m.selectionChanged())
	}
	cmds = append(cmds, m.timers[filterTimer].start(m.opts.FilterDebounce))
	return tea.Batch(cmds...)
}

// applyQuery runs when the filter debounce fires.
func (m *Model) applyQuery() tea.Cmd {
	active := len([]rune(m.query)) >= m.opts.MinSearchLength
	m.updateMatches()
	m.preserveActive(func() { m.tree.Invalidate() })

	if m.opts.Mode == selection.ReadOnlySelect {
		return nil
	}
	if active {
		if m.nav.Active() < 0 || !m.activeSelectable() {
			m.nav.SetActive(nav.FirstSelectable(m.tree, 0, 1), m.tree)
			m.scrollToActive()
		}
		return m.RequestOpen()
	}
	return m.RequestClose()
}

func (m *Model) updateMatches() {
	if m.query == "" || len([]rune(m.query)) < m.opts.MinSearchLength {
		m.matches = nil
		return
	}
	m.matches = matchPaths(m.tree, m.query)
}

func (m *Model) activeSelectable() bool {
	e, ok := m.tree.At(m.nav.Active())
	return ok && e.Item.IsSelectable()
}

// keep is the tree filter: query matches, minus selected items when they
// are hidden.
func (m *Model) keep(path string, it *tree.Item) bool {
	if m.opts.HideSelected && m.sel.IsSelected(it) {
		return false
	}
	return m.matches == nil || m.matches[path]
}

// dataChanged installs the adapter's current snapshot.
func (m *Model) dataChanged() {
	m.tree.SetItems(m.src.Snapshot())
	m.updateMatches()
	m.reflatten()
}

// reflatten re-runs the flattener, prunes sizes of rows that left the
// sequence, and recomputes the window.
func (m *Model) reflatten() {
	m.tree.Invalidate()
	entries := m.tree.Entries()
	if m.calc.Cache.Len() > 0 {
		visible := make(map[string]bool, len(entries))
		for _, e := range entries {
			visible[e.Path] = true
		}
		m.calc.Cache.Retain(func(key string) bool { return visible[key] })
	}
	m.nav.Clamp(m.tree)
	m.recompute()
}

// preserveActive runs a mutation that changes the flattened sequence and
// keeps the active row on the same item, or on its closest visible ancestor.
func (m *Model) preserveActive(mutate func()) {
	var path string
	if e, ok := m.tree.At(m.nav.Active()); ok {
		path = e.Path
	}
	mutate()
	m.reflatten()
	for p := path; p != ""; p = tree.ParentPath(p) {
		if i := m.tree.IndexOfPath(p); i >= 0 {
			m.nav.SetActive(i, m.tree)
			break
		}
	}
	m.scrollToActive()
}

func (m *Model) key(i int) string {
	e, _ := m.tree.At(i)
	return e.Path
}

// recompute settles the window for the current offset, clamping the offset
// once if the list shrank below it.
func (m *Model) recompute() {
	w, offset := m.calc.Settle(m.tree.Len(), m.offset, m.container, m.key)
	if offset != m.offset {
		debug.Log("listbox %d: offset %d out of range, clamped to %d", m.id, m.offset, offset)
		m.pending = min(m.pending, offset)
	}
	m.window, m.offset = w, offset
}

// setOffset moves the settled offset and drops any scroll still waiting for
// the viewport timer.
func (m *Model) setOffset(offset int) {
	m.offset = offset
	m.pending = offset
}

func (m *Model) scrollToActive() {
	if i := m.nav.Active(); i >= 0 {
		m.setOffset(m.calc.EnsureVisible(i, m.offset, m.container, m.tree.Len(), m.key))
	}
	m.recompute()
}

// Close releases the source and pending gates and invalidates every timer.
// The model ignores all messages afterwards.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.src.Close()
	m.sel.Close()
	for c := range m.timers {
		m.timers[c].stop()
	}
}

// Accessors for renderers.

// Window returns the materialized range.
func (m *Model) Window() viewport.Window { return m.window }

// Rows returns the materialized entries.
func (m *Model) Rows() []tree.Entry {
	entries := m.tree.Entries()
	w := m.window
	if w.Start >= len(entries) {
		return nil
	}
	return entries[w.Start:min(w.End(), len(entries))]
}

// Len returns the length of the flattened sequence.
func (m *Model) Len() int { return m.tree.Len() }

// Active returns the focused flat index, or -1.
func (m *Model) Active() int { return m.nav.Active() }

// Offset returns the settled scroll offset.
func (m *Model) Offset() int { return m.offset }

// ScrollTarget returns the most recently requested scroll offset, which
// Offset catches up to when the viewport timer fires.
func (m *Model) ScrollTarget() int { return m.pending }

// Container returns the last reported container size.
func (m *Model) Container() int { return m.container }

// RowSize returns the fixed row size or the current auto-mode average.
func (m *Model) RowSize() int { return m.calc.RowSize() }

// Sizing returns the sizing mode.
func (m *Model) Sizing() viewport.Mode { return m.calc.Mode }

// Mode returns the selection mode.
func (m *Model) Mode() selection.Mode { return m.opts.Mode }

// Selected returns the selected items in selection order.
func (m *Model) Selected() []*tree.Item { return m.sel.Selected() }

// SelectedModels returns the business objects behind the selection.
func (m *Model) SelectedModels() []any { return m.sel.SelectedModels() }

// IsSelected reports whether it is selected.
func (m *Model) IsSelected(it *tree.Item) bool { return m.sel.IsSelected(it) }

// IsPending reports whether a gate decision for it is outstanding.
func (m *Model) IsPending(it *tree.Item) bool { return m.sel.Pending(it.Key) }

// MeasuredSize returns the recorded size of a row in auto mode.
func (m *Model) MeasuredSize(e tree.Entry) (int, bool) { return m.calc.Cache.Get(e.Path) }

// IsCollapsed reports the effective collapse state of a row.
func (m *Model) IsCollapsed(e tree.Entry) bool { return m.tree.IsCollapsed(e.Path, e.Item) }

// IsOpen reports whether the list is shown.
func (m *Model) IsOpen() bool { return m.open }

// KeyboardNav reports whether a navigation key was pressed recently.
// Renderers suppress hover feedback while it is set.
func (m *Model) KeyboardNav() bool { return m.keyboard }

// Query returns the free-text query.
func (m *Model) Query() string { return m.query }

// SearchPrefix returns the type-ahead search prefix.
func (m *Model) SearchPrefix() string { return m.nav.Prefix() }

// Hint returns the message to show instead of the list after a source
// failure.
func (m *Model) Hint() string { return m.src.Hint() }

// Loading reports whether the source has not delivered yet.
func (m *Model) Loading() bool { return m.src.Loading() }

// Tree returns the flattener, for collapse-state persistence.
func (m *Model) Tree() *tree.Tree { return m.tree }

// MaxDepth returns the number of visible levels.
func (m *Model) MaxDepth() int { return m.tree.MaxDepth() }
