package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pidctrl/internal/loop"
	"github.com/san-kum/pidctrl/pkg/pid"
)

const (
	historyCapacity = 600
	chartWidth      = 60
	chartHeight     = 10
	gainStep        = 1.05
	minGain         = 1e-3
)

var gainNames = []string{"kp", "ki", "kd", "ksat"}

type TickMsg time.Time

// Model steps a control loop once per tick and renders its history.
type Model struct {
	runner  *loop.Runner
	cfg     loop.Config
	initial pid.Gains
	tick    time.Duration

	running  bool
	showHelp bool
	selected int
	theme    int
	err      error

	setpoints    []float64
	measurements []float64
	outputs      []float64
	errors       []float64
	saturated    int
	steps        int
	title        string
}

// NewModel starts r with cfg and returns a model stepping it every tick.
func NewModel(r *loop.Runner, cfg loop.Config, tick time.Duration, title string) (Model, error) {
	if tick <= 0 {
		tick = time.Second / 30
	}
	if err := r.Start(cfg); err != nil {
		return Model{}, err
	}
	return Model{
		runner:       r,
		cfg:          cfg,
		initial:      r.Controller().Gains(),
		tick:         tick,
		running:      true,
		title:        title,
		setpoints:    make([]float64, 0, historyCapacity),
		measurements: make([]float64, 0, historyCapacity),
		outputs:      make([]float64, 0, historyCapacity),
		errors:       make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return m.nextTick()
}

func (m Model) nextTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "tab":
			m.selected = (m.selected + 1) % len(gainNames)
		case "up", "k":
			m.adjustGain(gainStep)
		case "down", "j":
			m.adjustGain(1 / gainStep)
		case "+", "=":
			m.runner.SetSetpoint(m.runner.Setpoint() + setpointStep(m.runner.Setpoint()))
		case "-", "_":
			m.runner.SetSetpoint(m.runner.Setpoint() - setpointStep(m.runner.Setpoint()))
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.nextTick()
	}
	return m, nil
}

func setpointStep(sp float64) float64 {
	if step := 0.1 * sp; step > 0 {
		return step
	} else if step < 0 {
		return -step
	}
	return 1
}

func (m *Model) step() {
	s, err := m.runner.Next()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.steps++
	if s.Saturated() {
		m.saturated++
	}
	m.setpoints = push(m.setpoints, s.Setpoint)
	m.measurements = push(m.measurements, s.Measurement)
	m.outputs = push(m.outputs, s.Output)
	m.errors = push(m.errors, s.Error())
}

func push(buf []float64, v float64) []float64 {
	buf = append(buf, v)
	if len(buf) > historyCapacity {
		buf = buf[1:]
	}
	return buf
}

// adjustGain scales the selected gain; a zero gain is bumped to minGain.
func (m *Model) adjustGain(factor float64) {
	ctrl := m.runner.Controller()
	g := ctrl.Gains()
	vals := []*float64{&g.Kp, &g.Ki, &g.Kd, &g.Ksat}
	v := vals[m.selected]
	switch {
	case *v == 0 && factor > 1:
		*v = minGain
	case *v*factor < minGain && factor < 1:
		*v = 0
	default:
		*v *= factor
	}
	ctrl.SetConstants(g.Kp, g.Ki, g.Kd, g.Ksat)
}

// reset restarts the loop and restores the initial gains.
func (m *Model) reset() {
	ctrl := m.runner.Controller()
	ctrl.SetConstants(m.initial.Kp, m.initial.Ki, m.initial.Kd, m.initial.Ksat)
	if err := m.runner.Start(m.cfg); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.err = nil
	m.running = true
	m.steps, m.saturated = 0, 0
	m.setpoints = m.setpoints[:0]
	m.measurements = m.measurements[:0]
	m.outputs = m.outputs[:0]
	m.errors = m.errors[:0]
}

// View renders the TUI interface.
func (m Model) View() string {
	theme := Themes[m.theme]
	st := newStyles(theme)
	ctrl := m.runner.Controller()
	tel := ctrl.Telemetry()
	lim := ctrl.Limits()

	status := st.ok.Render("RUNNING")
	switch {
	case m.err != nil:
		status = st.bad.Render("STOPPED: " + m.err.Error())
	case !m.running:
		status = st.warn.Render("PAUSED")
	}

	var charts strings.Builder
	if c := ResponseChart(m.setpoints, m.measurements, chartWidth, chartHeight, theme); c != "" {
		charts.WriteString(c + "\n\n")
	}
	if c := OutputChart(m.outputs, chartWidth, chartHeight/2, theme); c != "" {
		charts.WriteString(c)
	}
	if charts.Len() == 0 {
		charts.WriteString(st.label.Render("waiting for samples..."))
	}

	row := func(label, value string) string {
		return st.label.Render(label) + st.value.Render(value) + "\n"
	}

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(status + "\n\n")
	s.WriteString(row("Strategy", m.runner.Strategy().String()))
	s.WriteString(row("Time", fmt.Sprintf("%.3fs", m.runner.Time())))
	s.WriteString(row("Setpoint", fmt.Sprintf("%.3f", m.runner.Setpoint())))
	s.WriteString(row("Measure", fmt.Sprintf("%.4f", m.runner.Measurement())))
	s.WriteString(row("Error", fmt.Sprintf("%.4f", tel.Error)))
	s.WriteString(row("Output", fmt.Sprintf("%.4f", tel.OutputSat)))
	s.WriteString(row("Raw", fmt.Sprintf("%.4f", tel.Output)))
	s.WriteString(row("Integral", fmt.Sprintf("%.4f", ctrl.Integral())))
	s.WriteString(row("Limits", SaturationBar(tel.OutputSat, lim.Lower, lim.Upper, 16)))
	sat := 0.0
	if m.steps > 0 {
		sat = float64(m.saturated) / float64(m.steps)
	}
	s.WriteString(row("Saturated", fmt.Sprintf("%.0f%%", 100*sat)))
	s.WriteString(row("Trend", Sparkline(m.errors, 24)))

	s.WriteString("\nGAINS\n")
	g := ctrl.Gains()
	for i, v := range []float64{g.Kp, g.Ki, g.Kd, g.Ksat} {
		line := fmt.Sprintf("%-5s %.4f", gainNames[i], v)
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\nTab/↑↓:Tune +/-:Setpoint\nT:Theme ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		st.panel.Render(charts.String()),
		st.panel.Width(40).Render(s.String()),
	)
	if m.showHelp {
		return st.panel.Render(helpText) + "\n" + main
	}
	return main
}

const helpText = `KEYBOARD SHORTCUTS
  Space    Pause/Resume
  R        Reset loop and gains
  Q        Quit
  Tab      Cycle gains
  Up/K     Increase gain (+5%)
  Down/J   Decrease gain (-5%)
  +/-      Raise/lower setpoint (10%)
  T        Cycle themes
  ?        Toggle this help`

// Run blocks until the program exits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
