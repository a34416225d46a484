package tui

import "github.com/charmbracelet/lipgloss"

// Theme carries every color the dashboard renders with. Render functions
// take it as an argument; nothing reads a package-level theme.
type Theme struct {
	Name   string
	Title  lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Bar    lipgloss.Color
	Border lipgloss.Color
	Empty  lipgloss.Color
	// Scale runs from the lowest to the highest value of the map.
	Scale []lipgloss.Color
}

// reds is a 256-color ramp in the spirit of ColorBrewer's Reds.
var reds = []lipgloss.Color{"224", "217", "210", "203", "196", "160", "124", "88"}

var (
	LightTheme = Theme{
		Name:   "light",
		Title:  lipgloss.Color("0"),
		Text:   lipgloss.Color("235"),
		Muted:  lipgloss.Color("244"),
		Accent: lipgloss.Color("63"),
		Bar:    lipgloss.Color("63"),
		Border: lipgloss.Color("250"),
		Empty:  lipgloss.Color("254"),
		Scale:  reds,
	}
	DarkTheme = Theme{
		Name:   "dark",
		Title:  lipgloss.Color("15"),
		Text:   lipgloss.Color("252"),
		Muted:  lipgloss.Color("245"),
		Accent: lipgloss.Color("214"),
		Bar:    lipgloss.Color("214"),
		Border: lipgloss.Color("238"),
		Empty:  lipgloss.Color("236"),
		Scale:  reds,
	}
)

// ThemeByName falls back to the light theme for unknown names.
func ThemeByName(name string) Theme {
	if name == DarkTheme.Name {
		return DarkTheme
	}
	return LightTheme
}

func (t Theme) toggled() Theme {
	if t.Name == DarkTheme.Name {
		return LightTheme
	}
	return DarkTheme
}

func (t Theme) hint(text string) string {
	return lipgloss.NewStyle().Foreground(t.Muted).Render(text)
}
