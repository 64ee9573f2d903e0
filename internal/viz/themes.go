package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme defines the color scheme for the TUI and its charts.
type Theme struct {
	Name        string
	Primary     lipgloss.Color
	Accent      lipgloss.Color
	Text        lipgloss.Color
	Muted       lipgloss.Color
	Success     lipgloss.Color
	Warning     lipgloss.Color
	Error       lipgloss.Color
	Setpoint    asciigraph.AnsiColor
	Measurement asciigraph.AnsiColor
	Output      asciigraph.AnsiColor
}

var (
	ThemeCyberpunk = Theme{
		Name:        "cyberpunk",
		Primary:     lipgloss.Color("#ff00ff"),
		Accent:      lipgloss.Color("#00ffff"),
		Text:        lipgloss.Color("#ffffff"),
		Muted:       lipgloss.Color("#666666"),
		Success:     lipgloss.Color("#00ff88"),
		Warning:     lipgloss.Color("#ffaa00"),
		Error:       lipgloss.Color("#ff4444"),
		Setpoint:    asciigraph.Yellow,
		Measurement: asciigraph.Cyan,
		Output:      asciigraph.Magenta,
	}

	ThemeRetroGreen = Theme{
		Name:        "retro",
		Primary:     lipgloss.Color("#00ff00"),
		Accent:      lipgloss.Color("#88ff88"),
		Text:        lipgloss.Color("#00ff00"),
		Muted:       lipgloss.Color("#005500"),
		Success:     lipgloss.Color("#88ff88"),
		Warning:     lipgloss.Color("#ffff00"),
		Error:       lipgloss.Color("#ff0000"),
		Setpoint:    asciigraph.Yellow,
		Measurement: asciigraph.Green,
		Output:      asciigraph.White,
	}

	ThemeMinimal = Theme{
		Name:        "minimal",
		Primary:     lipgloss.Color("#ffffff"),
		Accent:      lipgloss.Color("#0088ff"),
		Text:        lipgloss.Color("#ffffff"),
		Muted:       lipgloss.Color("#888888"),
		Success:     lipgloss.Color("#00ff00"),
		Warning:     lipgloss.Color("#ffaa00"),
		Error:       lipgloss.Color("#ff0000"),
		Setpoint:    asciigraph.Default,
		Measurement: asciigraph.Blue,
		Output:      asciigraph.White,
	}

	Themes = []Theme{ThemeCyberpunk, ThemeRetroGreen, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
