package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/osteele/treeselect/internal/listbox"
	"github.com/osteele/treeselect/internal/nav"
	"github.com/osteele/treeselect/internal/selection"
	"github.com/osteele/treeselect/internal/source"
	"github.com/osteele/treeselect/internal/tree"
	"github.com/osteele/treeselect/internal/viewport"
)

// Fixed chrome around the list: header, list border and title, status and
// help bars.
const (
	headerHeight = 3
	statusHeight = 3
	helpHeight   = 3
	listChrome   = 3 // top border, title, bottom border
	listTop      = headerHeight + 2
	wheelStep    = 3
)

// Model is the Bubble Tea model for the picker.
type Model struct {
	// UI state
	Theme     Theme
	Width     int
	Height    int
	MaxHeight int
	Title     string

	List  *listbox.Model
	Input textinput.Model

	// InitialValue holds item keys to select once the source has loaded.
	InitialValue []string

	// Result is the accepted selection; Cancelled is set when the user quit
	// without accepting.
	Result    []*tree.Item
	Cancelled bool

	provider source.Provider
	hover    int
}

// KeyMap defines the key bindings.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Home      key.Binding
	End       key.Binding
	ToggleAll key.Binding
	Toggle    key.Binding
	Enter     key.Binding
	Accept    key.Binding
	Remove    key.Binding
	Escape    key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "first"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "last"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("ctrl+home", "ctrl+end"),
			key.WithHelp("ctrl+home", "fold all"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "fold"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "select"),
		),
		Accept: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "done"),
		),
		Remove: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "remove last"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

var keys = DefaultKeyMap()

// NewModel creates a picker over list, fed from provider.
func NewModel(list *listbox.Model, provider source.Provider, theme Theme) Model {
	input := textinput.New()
	input.Placeholder = "Type to filter"
	input.Prompt = "> "
	input.PromptStyle = theme.Prompt
	input.Cursor.SetMode(cursor.CursorStatic)
	input.Focus()

	return Model{
		Theme:    theme,
		Title:    "Select",
		List:     list,
		Input:    input,
		provider: provider,
		hover:    -1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.List.SetProvider(m.provider),
		func() tea.Msg { return listbox.OpenMsg{} },
	)
}

func (m Model) textEntry() bool {
	return m.List.Mode() != selection.ReadOnlySelect
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouseEvent(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Input.Width = max(1, m.contentWidth()-len(m.Input.Prompt)-1)
		return m, tea.Batch(m.List.Update(listbox.ResizeMsg{Size: m.listHeight()}), m.measureCmd())

	case listbox.SelectionChangedMsg:
		if m.List.Mode().Exclusive() && len(msg.Selected) > 0 {
			m.Result = msg.Selected
			return m, tea.Quit
		}
		return m, nil
	}

	cmd := m.List.Update(msg)
	m.applyInitialValue()
	return m, tea.Batch(cmd, m.measureCmd())
}

// applyInitialValue selects InitialValue once the source has delivered.
func (m *Model) applyInitialValue() {
	if len(m.InitialValue) == 0 || m.List.Loading() {
		return
	}
	want := make(map[string]bool, len(m.InitialValue))
	for _, k := range m.InitialValue {
		want[k] = true
	}
	var items []*tree.Item
	m.List.Tree().Walk(func(_ string, _ int, it *tree.Item) bool {
		if want[it.Key] {
			items = append(items, it)
		}
		return true
	})
	m.InitialValue = nil
	if len(items) == 0 {
		return
	}
	m.List.SetValue(items...)
	if m.textEntry() {
		m.Input.SetValue(m.List.Query())
	}
}

// measureCmd reports rendered row heights in auto sizing mode.
func (m Model) measureCmd() tea.Cmd {
	if m.List.Sizing() != viewport.Auto || m.Width == 0 {
		return nil
	}
	var sizes []listbox.Measurement
	width := m.contentWidth()
	for _, e := range m.List.Rows() {
		h := lipgloss.Height(strings.Join(m.renderItem(e, width), "\n"))
		if got, ok := m.List.MeasuredSize(e); !ok || got != h {
			sizes = append(sizes, listbox.Measurement{Path: e.Path, Size: h})
		}
	}
	if len(sizes) == 0 {
		return nil
	}
	return func() tea.Msg { return listbox.MeasureMsg{Sizes: sizes} }
}

func (m Model) handleMouseEvent(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return m, m.List.Update(listbox.ScrollMsg{Offset: m.List.ScrollTarget() - wheelStep*m.List.RowSize()})
	case tea.MouseButtonWheelDown:
		return m, m.List.Update(listbox.ScrollMsg{Offset: m.List.ScrollTarget() + wheelStep*m.List.RowSize()})
	}

	index := m.rowAt(msg.Y)
	switch msg.Action {
	case tea.MouseActionMotion:
		m.hover = index
		return m, nil
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m, m.List.Update(listbox.PointerMsg{Index: index, Down: true})
	case tea.MouseActionRelease:
		return m, tea.Batch(m.List.Update(listbox.PointerMsg{Index: index}), m.measureCmd())
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.Cancelled = true
		return m, tea.Quit

	case key.Matches(msg, keys.Escape):
		if m.List.IsOpen() {
			return m, m.List.RequestClose()
		}
		m.Cancelled = true
		return m, tea.Quit

	case key.Matches(msg, keys.Accept) && m.List.Mode() == selection.Multi:
		m.Result = m.List.Selected()
		return m, tea.Quit

	case key.Matches(msg, keys.Remove) && m.List.Mode() == selection.Multi && m.Input.Value() == "":
		if sel := m.List.Selected(); len(sel) > 0 {
			return m, m.List.RemoveSelection(sel[len(sel)-1])
		}
		return m, nil
	}

	if in, ok := keyInput(msg); ok {
		if cmd, handled := m.List.HandleKey(in); handled {
			return m, tea.Batch(cmd, m.measureCmd())
		}
	}
	if !m.textEntry() {
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	if v := m.Input.Value(); v != m.List.Query() {
		cmd = tea.Batch(cmd, m.List.Update(listbox.QueryMsg{Text: v}))
	}
	return m, cmd
}

// keyInput maps a terminal key press to a navigation input.
func keyInput(msg tea.KeyMsg) (nav.Input, bool) {
	switch {
	case key.Matches(msg, keys.ToggleAll):
		return nav.Input{Action: nav.Home, Modifier: true}, true
	case key.Matches(msg, keys.Up):
		return nav.Input{Action: nav.Up}, true
	case key.Matches(msg, keys.Down):
		return nav.Input{Action: nav.Down}, true
	case key.Matches(msg, keys.PageUp):
		return nav.Input{Action: nav.PageUp}, true
	case key.Matches(msg, keys.PageDown):
		return nav.Input{Action: nav.PageDown}, true
	case key.Matches(msg, keys.Home):
		return nav.Input{Action: nav.Home}, true
	case key.Matches(msg, keys.End):
		return nav.Input{Action: nav.End}, true
	case key.Matches(msg, keys.Toggle):
		return nav.Input{Action: nav.Space}, true
	case key.Matches(msg, keys.Enter):
		return nav.Input{Action: nav.Enter}, true
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		return nav.Input{Action: nav.Char, Rune: msg.Runes[0], Modifier: msg.Alt}, true
	}
	return nav.Input{}, false
}

// listHeight returns the number of terminal lines available for rows.
func (m Model) listHeight() int {
	h := m.Height - headerHeight - statusHeight - helpHeight - listChrome
	if m.MaxHeight > 0 {
		h = min(h, m.MaxHeight)
	}
	return max(1, h)
}

func (m Model) contentWidth() int {
	return max(10, m.Width-4)
}

// rowAt returns the flat index of the row drawn at screen line y, or -1.
func (m Model) rowAt(y int) int {
	i := y - listTop
	lines := m.layout(m.contentWidth())
	if !m.List.IsOpen() || i < 0 || i >= len(lines) {
		return -1
	}
	return lines[i].index
}
