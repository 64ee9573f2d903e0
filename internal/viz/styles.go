package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	active lipgloss.Style
	panel  lipgloss.Style
	help   lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		active: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		help: lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		ok:   lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		warn: lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		bad:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}

// SaturationBar shows how far value sits between low and high.
func SaturationBar(value, low, high float64, width int) string {
	frac := 0.0
	if high > low {
		frac = (value - low) / (high - low)
	}
	frac = math.Max(0, math.Min(1, frac))
	filled := int(math.Round(frac * float64(width)))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// Sparkline renders the last width values as block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune("▁▂▃▄▅▆▇█")
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return b.String()
}

// ResponseChart plots the measurement against the setpoint.
func ResponseChart(setpoints, measurements []float64, width, height int, t Theme) string {
	if len(measurements) < 2 {
		return ""
	}
	return asciigraph.PlotMany(
		[][]float64{setpoints, measurements},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(t.Setpoint, t.Measurement),
		asciigraph.SeriesLegends("setpoint", "measurement"),
	)
}

// OutputChart plots the controller output.
func OutputChart(outputs []float64, width, height int, t Theme) string {
	if len(outputs) < 2 {
		return ""
	}
	return asciigraph.Plot(
		outputs,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(t.Output),
		asciigraph.Caption("output"),
	)
}
