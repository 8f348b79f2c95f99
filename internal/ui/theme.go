// Package ui provides the terminal front end for treeselect.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the styles used in the UI.
type Theme struct {
	// Base styles
	App lipgloss.Style

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Prompt      lipgloss.Style

	// List styles
	ListBorder   lipgloss.Style
	ListTitle    lipgloss.Style
	ActiveItem   lipgloss.Style
	SelectedItem lipgloss.Style
	Item         lipgloss.Style
	ParentItem   lipgloss.Style
	DisabledItem lipgloss.Style
	PendingItem  lipgloss.Style
	Hover        lipgloss.Style
	Hint         lipgloss.Style

	// Status bar
	StatusBar     lipgloss.Style
	StatusMessage lipgloss.Style
	StatusError   lipgloss.Style

	// Help bar
	HelpBar  lipgloss.Style
	HelpKey  lipgloss.Style
	HelpText lipgloss.Style
	HelpSep  lipgloss.Style
}

// DarkTheme returns a theme for dark terminals.
func DarkTheme() Theme {
	return Theme{
		App: lipgloss.NewStyle(),

		Header:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")), // Cyan
		Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")),

		ListBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		ListTitle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		ActiveItem:   lipgloss.NewStyle().Background(lipgloss.Color("17")).Foreground(lipgloss.Color("15")), // Dark blue bg
		SelectedItem: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),                                  // Lime
		Item:         lipgloss.NewStyle(),
		ParentItem:   lipgloss.NewStyle().Bold(true),
		DisabledItem: lipgloss.NewStyle().Foreground(lipgloss.Color("240")), // Gray
		PendingItem:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),  // Yellow
		Hover:        lipgloss.NewStyle().Underline(true),
		Hint:         lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Italic(true),

		StatusBar:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		StatusMessage: lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // Yellow
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),  // Red

		HelpBar:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		HelpKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")), // Cyan
		HelpText: lipgloss.NewStyle().Foreground(lipgloss.Color("15")), // White
		HelpSep:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// LightTheme returns a theme for light terminals.
func LightTheme() Theme {
	return Theme{
		App: lipgloss.NewStyle(),

		Header:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")), // Blue
		Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		ListBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		ListTitle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")),
		ActiveItem:   lipgloss.NewStyle().Background(lipgloss.Color("252")).Foreground(lipgloss.Color("0")), // Light gray bg
		SelectedItem: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),                                   // Dark green
		Item:         lipgloss.NewStyle(),
		ParentItem:   lipgloss.NewStyle().Bold(true),
		DisabledItem: lipgloss.NewStyle().Foreground(lipgloss.Color("245")), // Gray
		PendingItem:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),   // Dark yellow
		Hover:        lipgloss.NewStyle().Underline(true),
		Hint:         lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Italic(true),

		StatusBar:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		StatusMessage: lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // Dark yellow
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // Red

		HelpBar:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		HelpKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")), // Blue
		HelpText: lipgloss.NewStyle().Foreground(lipgloss.Color("0")), // Black
		HelpSep:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// DetectTheme picks a theme from the TREESELECT_THEME env var, falling back
// to the terminal's background.
func DetectTheme() Theme {
	if override := os.Getenv("TREESELECT_THEME"); override != "" {
		switch strings.ToLower(override) {
		case "dark":
			return DarkTheme()
		case "light":
			return LightTheme()
		}
	}
	if lipgloss.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

// GetTheme returns the theme based on the theme name.
func GetTheme(name string) Theme {
	switch strings.ToLower(name) {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	default:
		return DetectTheme()
	}
}
