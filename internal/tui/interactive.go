package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/chemsim/internal/analysis"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/sim"
	"github.com/san-kum/chemsim/internal/viz"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	frameInterval = 16 * time.Millisecond
	tempStep      = 0.05
	maxTemp       = 5.0
	targetStep    = 0.5 // simulation units per arrow press
	rotateStep    = math.Pi / 24
	historyLen    = 120
	listLen       = 8
)

// Model is the live view. The runner is stepped only from Update, so the
// simulation never sees concurrent access.
type Model struct {
	runner *sim.Runner
	title  string

	cam   *viz.Camera
	theme viz.Theme

	paused   bool
	lastTick time.Time
	fps      float64
	temps    []float64
	err      error

	width  int
	height int
}

// NewModel wraps runner for interactive display. title is shown in the
// header, typically the preset or config name.
func NewModel(runner *sim.Runner, title string) Model {
	p := runner.Params()
	return Model{
		runner: runner,
		title:  title,
		cam:    viz.NewCamera(p.BoxHalf),
		theme:  viz.CurrentTheme,
		temps:  make([]float64, 0, historyLen),
		width:  80,
		height: 24,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		now := time.Time(msg)
		if !m.paused && m.err == nil {
			m.advance(now)
		}
		m.lastTick = now
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance(now time.Time) {
	if m.lastTick.IsZero() {
		return
	}
	elapsed := now.Sub(m.lastTick)
	if elapsed > 0 {
		m.fps = 0.9*m.fps + 0.1/elapsed.Seconds()
	}
	if _, err := m.runner.Advance(elapsed); err != nil {
		m.err = err
		m.paused = true
		return
	}
	m.temps = append(m.temps, m.runner.Simulation().Temperature())
	if len(m.temps) > historyLen {
		m.temps = m.temps[1:]
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	s := m.runner.Simulation()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "+", "=":
		m.adjustTemperature(tempStep)
	case "-", "_":
		m.adjustTemperature(-tempStep)
	case "g":
		m.grabNearest()
	case "r":
		s.Release()
	case "up":
		m.moveTarget(0, -1)
	case "down":
		m.moveTarget(0, 1)
	case "left":
		m.moveTarget(-1, 0)
	case "right":
		m.moveTarget(1, 0)
	case "a":
		m.cam.RotateY(-rotateStep)
	case "d":
		m.cam.RotateY(rotateStep)
	case "w":
		m.cam.RotateX(-rotateStep)
	case "s":
		m.cam.RotateX(rotateStep)
	case "z":
		m.cam.ZoomIn()
	case "x":
		m.cam.ZoomOut()
	case "0":
		m.cam.Reset()
	case "t":
		m.theme = viz.NextTheme(m.theme.Name)
	}
	return m, nil
}

func (m *Model) adjustTemperature(delta float64) {
	p := m.runner.Params()
	p.Temperature = math.Max(0, math.Min(maxTemp, p.Temperature+delta))
	if err := m.runner.SetParams(p); err != nil {
		m.err = err
	}
}

// grabNearest holds the atom drawn closest to the canvas centre, with the
// target starting at its current position.
func (m *Model) grabNearest() {
	s := m.runner.Simulation()
	w, h := m.canvasSize()
	dw, dh := w*2, h*4
	id, ok := viz.Nearest(m.cam, s.Snapshot(), dw/2, dh/2, dw, dh)
	if !ok {
		return
	}
	a, _ := s.Atom(id)
	s.Grab(id, a.Pos)
}

// moveTarget shifts the drag target along the screen axes.
func (m *Model) moveTarget(dx, dy int) {
	s := m.runner.Simulation()
	target, ok := s.Target()
	if !ok {
		return
	}
	w, h := m.canvasSize()
	dw, dh := w*2, h*4
	origin := m.cam.Unproject(dw/2, dh/2, dw, dh)
	axis := m.cam.Unproject(dw/2+dx, dh/2+dy, dw, dh).Sub(origin).Normalize()
	next := target.Add(axis.Scale(targetStep))
	half := m.runner.Params().BoxHalf
	next = dynamo.V(clamp(next.X, half), clamp(next.Y, half), clamp(next.Z, half))
	s.SetTarget(next)
}

func clamp(v, half float64) float64 { return math.Max(-half, math.Min(half, v)) }

func (m Model) canvasSize() (int, int) {
	cw := m.width - 6
	ch := m.height - 14
	return max(cw, 40), max(ch, 10)
}

func (m Model) View() string {
	s := m.runner.Simulation()
	cw, ch := m.canvasSize()

	canvas := viz.NewCanvas(cw, ch)
	scene := viz.Scene{Snapshot: s.Snapshot(), Box: m.runner.Params().BoxHalf}
	if id, ok := s.Grabbed(); ok {
		scene.Grabbed = id
	}
	if t, ok := s.Target(); ok {
		scene.Target = &t
	}
	viz.Draw(canvas, m.cam, scene)

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	if m.err != nil {
		statusIcon = red.Render("✕")
		statusText = red.Render("halted")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.title), statusText,
		dim.Render(fmt.Sprintf("step %d  t=%.2f  %.0ffps", m.runner.Steps(), m.runner.Time(), m.fps))))
	b.WriteString("   " + m.theme.Separator(cw) + "\n")

	for _, row := range strings.Split(strings.TrimRight(canvas.Render(m.theme.Paint()), "\n"), "\n") {
		b.WriteString("   " + row + "\n")
	}

	p := m.runner.Params()
	b.WriteString(fmt.Sprintf("\n   %s %s  %s %s  %s %s  %s %s\n",
		dim.Render("atoms"), white.Render(fmt.Sprint(s.NumAtoms())),
		dim.Render("bonds"), white.Render(fmt.Sprint(s.NumBonds())),
		dim.Render("T"), magenta.Render(fmt.Sprintf("%.3f", s.Temperature())),
		dim.Render("bath"), magenta.Render(fmt.Sprintf("%.2f", p.Temperature))))
	if len(m.temps) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("T"), m.theme.Sparkline(m.temps, 32)))
	}
	if id, ok := s.Grabbed(); ok {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("holding"), yellow.Render(fmt.Sprintf("atom %d", id))))
	}

	b.WriteString(m.viewMolecules())

	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("   space pause  ± temp  g grab  ←↑↓→ drag  r release  wasd rotate  z/x zoom  t theme  q quit") + "\n")
	return b.String()
}

func (m Model) viewMolecules() string {
	species := m.runner.Census().Current()
	var b strings.Builder
	shown := 0
	for _, sp := range species {
		if sp.Atoms < 2 {
			continue
		}
		if shown == listLen {
			b.WriteString("   " + dimmer.Render(fmt.Sprintf("… %d more", countMulti(species)-listLen)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("   %s %s %s\n",
			cyan.Render(fmt.Sprintf("%-10s", sp.Formula)),
			white.Render(fmt.Sprintf("×%d", sp.Count)),
			dimmer.Render(fmt.Sprintf("bonds %d  rings %d  max order %d", sp.Bonds, sp.Rings, sp.MaxOrder))))
		shown++
	}
	if shown == 0 {
		b.WriteString("   " + dimmer.Render("no molecules yet") + "\n")
	}
	return b.String()
}

func countMulti(species []analysis.Species) int {
	n := 0
	for _, sp := range species {
		if sp.Atoms >= 2 {
			n++
		}
	}
	return n
}

// RunInteractive blocks until the user quits.
func RunInteractive(runner *sim.Runner, title string) error {
	p := tea.NewProgram(NewModel(runner, title), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
