package viz

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/chemsim/internal/chem"
)

// Theme defines color scheme for the TUI
type Theme struct {
	Name     string
	Primary  lipgloss.Color
	Accent   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Success  lipgloss.Color
	Warning  lipgloss.Color
	Bond     lipgloss.Color
	Elements [chem.NumElements]lipgloss.Color
}

// Available themes
var (
	ThemeCPK = Theme{
		Name:    "cpk",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffaa00"),
		Bond:    lipgloss.Color("#888899"),
		Elements: [chem.NumElements]lipgloss.Color{
			chem.H: "#f0f0f0",
			chem.C: "#909090",
			chem.N: "#3050f8",
			chem.O: "#ff0d0d",
			chem.P: "#ff8000",
			chem.S: "#ffff30",
		},
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"), // Green phosphor
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Bond:    lipgloss.Color("#00aa00"),
		Elements: [chem.NumElements]lipgloss.Color{
			chem.H: "#ccffcc",
			chem.C: "#00cc00",
			chem.N: "#66ff66",
			chem.O: "#aaff00",
			chem.P: "#ffff66",
			chem.S: "#88ff88",
		},
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#0077be"), // Ocean blue
		Accent:  lipgloss.Color("#ffd700"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Bond:    lipgloss.Color("#4488aa"),
		Elements: [chem.NumElements]lipgloss.Color{
			chem.H: "#e0f0ff",
			chem.C: "#00a8cc",
			chem.N: "#7fdbff",
			chem.O: "#ff4444",
			chem.P: "#ffcc00",
			chem.S: "#ffd700",
		},
	}

	// Default theme
	CurrentTheme = ThemeCPK

	// All available themes
	Themes = []Theme{
		ThemeCPK,
		ThemeRetroGreen,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCPK
}

// SetTheme changes the current theme
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Color returns the foreground color for a canvas tag.
func (t Theme) Color(tag Tag) lipgloss.Color {
	switch {
	case tag == TagGrab:
		return t.Accent
	case tag == TagTarget:
		return t.Warning
	case tag == TagBox:
		return t.Muted
	case tag > TagNone && int(tag) < chem.NumElements:
		return t.Elements[tag]
	default:
		return t.Bond
	}
}

// Paint returns a Canvas.Render callback coloring cells with t.
func (t Theme) Paint() func(Tag, string) string {
	var styles [256]*lipgloss.Style
	return func(tag Tag, s string) string {
		st := styles[tag]
		if st == nil {
			ns := lipgloss.NewStyle().Foreground(t.Color(tag))
			st = &ns
			styles[tag] = st
		}
		return st.Render(s)
	}
}
