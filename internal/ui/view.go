package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/osteele/treeselect/internal/selection"
	"github.com/osteele/treeselect/internal/tree"
	"github.com/osteele/treeselect/internal/viewport"
)

// line is one terminal line of the list and the row it belongs to.
type line struct {
	text  string
	index int
}

// View implements tea.Model.
func (m Model) View() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderList(),
		m.renderStatus(),
		m.renderHelp(),
	)
}

func (m Model) renderHeader() string {
	var content string
	if m.textEntry() {
		content = m.Input.View()
	} else {
		content = m.Theme.HeaderTitle.Render(m.Title)
	}
	return m.Theme.Header.Width(m.Width - 2).Render(content)
}

func (m Model) renderList() string {
	height := m.listHeight()
	width := m.contentWidth()
	title := fmt.Sprintf(" %s (%d items) ", m.Title, m.List.Len())

	var lines []string
	switch {
	case m.List.Hint() != "":
		lines = []string{m.Theme.Hint.Render(truncateLine(m.List.Hint(), width))}
	case m.List.Loading():
		lines = []string{"Loading..."}
	case !m.List.IsOpen():
		lines = []string{m.Theme.HelpText.Render("Press ↓ to open")}
	case m.List.Len() == 0:
		lines = []string{m.Theme.HelpText.Render("No matches")}
	default:
		for _, l := range m.layout(width) {
			lines = append(lines, l.text)
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}

	return m.Theme.ListBorder.
		Width(m.Width - 2).
		Render(m.Theme.ListTitle.Render(title) + "\n" + strings.Join(lines, "\n"))
}

// layout renders the materialized rows and cuts them to the visible lines:
// the part of the first row above the scroll offset is skipped.
func (m Model) layout(width int) []line {
	w := m.List.Window()
	skip := max(0, m.List.Offset()-w.Leading)
	height := m.listHeight()

	var lines []line
	for _, e := range m.List.Rows() {
		for _, text := range m.renderItem(e, width) {
			if skip > 0 {
				skip--
				continue
			}
			lines = append(lines, line{text: text, index: e.Index})
			if len(lines) == height {
				return lines
			}
		}
	}
	return lines
}

// itemLines returns the unstyled lines of a row: indentation, collapse
// marker and check box on the first line, continuation lines aligned under
// the text.
func (m Model) itemLines(e tree.Entry, width int) []string {
	marker := "  "
	if e.Collapsible() {
		marker = "▼ "
		if m.List.IsCollapsed(e) {
			marker = "▶ "
		}
	}
	check := ""
	if m.List.Mode() == selection.Multi && e.Item.IsSelectable() {
		switch {
		case m.List.IsPending(e.Item):
			check = "[~] "
		case m.List.IsSelected(e.Item):
			check = "[x] "
		default:
			check = "[ ] "
		}
	}
	prefix := strings.Repeat("  ", e.Depth) + marker + check
	pad := strings.Repeat(" ", runewidth.StringWidth(prefix))

	text := strings.Split(e.Item.Label(), "\n")
	if m.List.Sizing() == viewport.Fixed {
		size := m.List.RowSize()
		for len(text) < size {
			text = append(text, "")
		}
		text = text[:size]
	}

	lines := make([]string, len(text))
	for i, t := range text {
		p := pad
		if i == 0 {
			p = prefix
		}
		lines[i] = truncateLine(p+t, width)
	}
	return lines
}

func (m Model) renderItem(e tree.Entry, width int) []string {
	style := m.Theme.Item
	switch {
	case !e.Item.IsSelectable():
		style = m.Theme.DisabledItem
	case m.List.IsPending(e.Item):
		style = m.Theme.PendingItem
	case m.List.IsSelected(e.Item):
		style = m.Theme.SelectedItem
	case e.Collapsible():
		style = m.Theme.ParentItem
	}
	switch {
	case e.Index == m.List.Active():
		style = m.Theme.ActiveItem.Width(width)
	case e.Index == m.hover && !m.List.KeyboardNav():
		style = style.Inherit(m.Theme.Hover)
	}

	lines := m.itemLines(e, width)
	for i, l := range lines {
		lines[i] = style.Render(l)
	}
	return lines
}

func (m Model) renderStatus() string {
	var text string
	style := m.Theme.StatusMessage

	switch {
	case m.List.Hint() != "":
		text = m.List.Hint()
		style = m.Theme.StatusError
	case m.List.Loading():
		text = "⏳ Loading"
	case m.List.SearchPrefix() != "":
		text = "Search: " + m.List.SearchPrefix()
	case m.List.Mode() == selection.Multi:
		sel := m.List.Selected()
		labels := make([]string, len(sel))
		for i, it := range sel {
			labels[i] = it.Label()
		}
		text = fmt.Sprintf("%d selected", len(sel))
		if len(labels) > 0 {
			text += ": " + strings.Join(labels, ", ")
		}
	default:
		text = "Ready"
	}

	return m.Theme.StatusBar.Width(m.Width - 2).Render(style.Render(truncateLine(text, m.contentWidth())))
}

func (m Model) renderHelp() string {
	var items []string

	items = append(items,
		m.Theme.HelpKey.Render("↑/↓")+" Nav",
		m.Theme.HelpKey.Render("space")+" Fold",
		m.Theme.HelpKey.Render("↵")+" Select",
	)
	if m.List.Mode() == selection.Multi {
		items = append(items,
			m.Theme.HelpKey.Render("tab")+" Done",
			m.Theme.HelpKey.Render("⌫")+" Remove",
		)
	}
	items = append(items, m.Theme.HelpKey.Render("esc")+" Close")

	sep := m.Theme.HelpSep.Render(" | ")
	return m.Theme.HelpBar.Width(m.Width - 2).Render(strings.Join(items, sep))
}

// truncateLine truncates a plain line to maxWidth cells, adding an ellipsis
// when it is cut.
func truncateLine(line string, maxWidth int) string {
	if runewidth.StringWidth(line) <= maxWidth {
		return line
	}
	if maxWidth < 1 {
		return ""
	}
	return runewidth.Truncate(line, maxWidth, "…")
}
