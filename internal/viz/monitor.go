package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	historyCapacity = 120
	frameInterval   = time.Second / 30
	maxStepsPerTick = 1 << 10
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Monitor is the Bubble Tea model behind the watch command.
type Monitor struct {
	initial      *sim.Universe
	universe     *sim.Universe
	parallel     bool
	running      bool
	stepsPerTick int
	start        metrics.Summary
	last         metrics.Summary
	rate         float64
	rateHistory  []float64
	driftHistory []float64
	width        int
}

// NewMonitor watches a clone of u so that reset can restore it.
func NewMonitor(u *sim.Universe, parallel bool, stepsPerTick int) Monitor {
	summary := metrics.Summarize(u)
	return Monitor{
		initial:      u.Clone(),
		universe:     u.Clone(),
		parallel:     parallel,
		running:      true,
		stepsPerTick: max(stepsPerTick, 1),
		start:        summary,
		last:         summary,
		rateHistory:  make([]float64, 0, historyCapacity),
		driftHistory: make([]float64, 0, historyCapacity),
		width:        80,
	}
}

func (m Monitor) Init() tea.Cmd { return tick() }

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "m":
			m.parallel = !m.parallel
		case "r":
			m.reset()
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Monitor) reset() {
	m.universe = m.initial.Clone()
	m.start = metrics.Summarize(m.universe)
	m.last = m.start
	m.rate = 0
	m.rateHistory = m.rateHistory[:0]
	m.driftHistory = m.driftHistory[:0]
}

// advance runs one frame worth of steps and records its rate.
func (m *Monitor) advance() {
	began := time.Now()
	for i := 0; i < m.stepsPerTick; i++ {
		if m.parallel {
			m.universe.StepParallel()
		} else {
			m.universe.StepSequential()
		}
	}
	if secs := time.Since(began).Seconds(); secs > 0 {
		m.rate = float64(m.stepsPerTick) / secs
	}

	m.last = metrics.Summarize(m.universe)
	m.rateHistory = push(m.rateHistory, m.rate)
	m.driftHistory = push(m.driftHistory, metrics.Drift(m.start, m.last))
}

func push(h []float64, v float64) []float64 {
	if len(h) == historyCapacity {
		copy(h, h[1:])
		h = h[:len(h)-1]
	}
	return append(h, v)
}

func (m Monitor) mode() string {
	if m.parallel {
		return "parallel (" + m.universe.Backend().Name() + ")"
	}
	return "sequential"
}

func (m Monitor) View() string {
	var b strings.Builder

	status := StatusRunning.Render("● running")
	if !m.running {
		status = StatusPaused.Render("‖ paused")
	}
	if !m.last.Finite {
		status = StatusBad.Render("✗ non-finite state")
	}
	b.WriteString(HeaderStyle.Render(Title.Render("gravsim watch")+"  "+status) + "\n\n")

	rows := []string{
		Metric("particles", fmt.Sprintf("%d", m.last.Particles)),
		Metric("step", fmt.Sprintf("%d", m.last.Time)),
		Metric("mode", m.mode()),
		Metric("steps/frame", fmt.Sprintf("%d", m.stepsPerTick)),
		Metric("steps/sec", fmt.Sprintf("%.1f", m.rate)),
		Metric("energy", fmt.Sprintf("%.6e", m.last.Energy())),
		Metric("drift", fmt.Sprintf("%.3e", metrics.Drift(m.start, m.last))),
		Metric("momentum", fmt.Sprintf("(%.3e, %.3e)", m.last.Momentum.X, m.last.Momentum.Y)),
		Metric("center", fmt.Sprintf("(%.4f, %.4f)", m.last.CenterOfMass.X, m.last.CenterOfMass.Y)),
	}
	stats := Panel.Render(strings.Join(rows, "\n"))

	graphWidth := max(m.width-lipgloss.Width(stats)-8, 20)
	graph := Subtle.Render("collecting samples…")
	if len(m.rateHistory) > 1 {
		graph = asciigraph.Plot(m.rateHistory,
			asciigraph.Height(8),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("steps/sec"))
	}
	drift := Sparkline(m.driftHistory, graphWidth)

	right := lipgloss.JoinVertical(lipgloss.Left, graph, "", Subtle.Render("energy drift"), drift)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, stats, "  ", right))
	b.WriteString("\n\n" + KeyHint.Render("space pause · m mode · r reset · +/- steps per frame · q quit") + "\n")
	return b.String()
}

// Run starts the monitor on the terminal and blocks until it quits.
func Run(u *sim.Universe, parallel bool, stepsPerTick int) error {
	_, err := tea.NewProgram(NewMonitor(u, parallel, stepsPerTick), tea.WithAltScreen()).Run()
	return err
}
