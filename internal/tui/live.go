package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/san-kum/chemsim/internal/analysis"
	"github.com/san-kum/chemsim/internal/physics"
	"github.com/san-kum/chemsim/internal/sim"
	"github.com/san-kum/chemsim/internal/viz"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a sim.Observer that redraws the box in place while a
// headless run is stepping. Frames are throttled to frameRate per second of
// wall time; steps in between are not drawn.
type LiveRenderer struct {
	title     string
	frameRate int
	lastFrame time.Time
	out       io.Writer
	cam       *viz.Camera
	canvas    *viz.Canvas
	box       float64
	now       func() time.Time
	formula   string
}

func NewLiveRenderer(title string, frameRate int, box float64) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{
		title:     title,
		frameRate: frameRate,
		out:       os.Stdout,
		cam:       viz.NewCamera(box),
		canvas:    viz.NewCanvas(width, height),
		box:       box,
		now:       time.Now,
	}
}

// SetOutput redirects frames, mainly for tests.
func (r *LiveRenderer) SetOutput(w io.Writer) { r.out = w }

func (r *LiveRenderer) OnStep(f *sim.Frame) {
	if f.Analyzed() {
		r.formula = summarize(f)
	}
	now := r.now()
	if now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now

	r.canvas.Clear()
	snap := f.Sim.Snapshot()
	sc := viz.Scene{Snapshot: snap, Box: r.box}
	if id, ok := f.Sim.Grabbed(); ok {
		sc.Grabbed = id
	}
	viz.Draw(r.canvas, r.cam, sc)
	r.render(f, snap)
}

// summarize lists the multi-atom species of an analysis frame, most
// common first.
func summarize(f *sim.Frame) string {
	var parts []string
	for _, sp := range analysis.Tally(f.Molecules) {
		if sp.Atoms < 2 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s×%d", sp.Formula, sp.Count))
		if len(parts) == 6 {
			break
		}
	}
	return strings.Join(parts, " ")
}

func (r *LiveRenderer) render(f *sim.Frame, snap physics.Snapshot) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  step=%d  t=%.2f\n", r.title, f.Step, f.Time))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas.Grid {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("  atoms=%d bonds=%d T=%.3f\n", len(snap.Atoms), len(snap.Bonds), f.Sim.Temperature()))
	if r.formula != "" {
		b.WriteString("  " + r.formula + "\n")
	}

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
