// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"hush/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	strengthStep = 0.05
	meterFloorDB = -60.0
	defaultWidth = 60
)

var (
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")).Bold(true)
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84855")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Width(5).Bold(true)
	sparkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7D7D"))

	sparkRunes = []rune("▁▂▃▄▅▆▇█")
)

// Engine is what the monitor needs from the audio engine.
type Engine interface {
	Observe(snap *audio.Snapshot)
	SetStrength(v float32)
	DeviceNames() (input, output string)
}

type monitorKeys struct {
	Down key.Binding
	Up   key.Binding
	Min  key.Binding
	Max  key.Binding
	Quit key.Binding
}

var defaultMonitorKeys = monitorKeys{
	Down: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-5%")),
	Up:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+5%")),
	Min:  key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "dry")),
	Max:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "wet")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

// MonitorModel polls the engine on a fixed tick and renders levels,
// histories and the wet/dry control.
type MonitorModel struct {
	engine   Engine
	interval time.Duration
	keys     monitorKeys
	title    string
	notice   string // startup diagnostic shown under the title
	route    string // "input → output" once a stream is open

	snap     audio.Snapshot
	strength float32
	inBar    progress.Model
	outBar   progress.Model
	mixBar   progress.Model
	width    int
}

// NewMonitorModel builds the monitor. notice, if set, explains why audio is
// inactive.
func NewMonitorModel(engine Engine, interval time.Duration, title, notice string) MonitorModel {
	bar := func() progress.Model {
		return progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(defaultWidth-8))
	}
	m := MonitorModel{
		engine:   engine,
		interval: interval,
		keys:     defaultMonitorKeys,
		title:    title,
		notice:   notice,
		inBar:    bar(),
		outBar:   bar(),
		mixBar:   progress.New(progress.WithSolidFill("#25A065"), progress.WithoutPercentage(), progress.WithWidth(defaultWidth-8)),
		width:    defaultWidth,
	}
	if in, out := engine.DeviceNames(); in != "" || out != "" {
		m.route = in + " → " + out
	}
	m.refresh()
	return m
}

func (m MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *MonitorModel) refresh() {
	m.engine.Observe(&m.snap)
	m.strength = m.snap.Strength
}

// Init starts polling.
func (m MonitorModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles ticks, resizes and the strength keys.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 20)
		w := m.width - 8
		m.inBar.Width, m.outBar.Width, m.mixBar.Width = w, w, w

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Down):
			m.setStrength(m.strength - strengthStep)
		case key.Matches(msg, m.keys.Up):
			m.setStrength(m.strength + strengthStep)
		case key.Matches(msg, m.keys.Min):
			m.setStrength(0)
		case key.Matches(msg, m.keys.Max):
			m.setStrength(1)
		}
	}
	return m, nil
}

// setStrength rounds to whole percent so repeated steps do not drift.
func (m *MonitorModel) setStrength(v float32) {
	v = audio.ClampStrength(float32(math.Round(float64(v)*100) / 100))
	m.strength = v
	m.engine.SetStrength(v)
}

// Strength returns the value last written or observed.
func (m MonitorModel) Strength() float32 { return m.strength }

// View renders the monitor.
func (m MonitorModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("  ")
	if m.snap.Active {
		sb.WriteString(activeStyle.Render("● Active"))
	} else {
		sb.WriteString(inactiveStyle.Render("○ Inactive"))
	}
	sb.WriteString("\n")
	if m.route != "" {
		sb.WriteString(sparkStyle.Render(m.route))
		sb.WriteString("\n")
	}
	if m.notice != "" {
		sb.WriteString(infoStyle.Render(m.notice))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "%s%s %3.0f%%\n", labelStyle.Render("MIX"), m.mixBar.ViewAs(float64(m.strength)), m.strength*100)
	fmt.Fprintf(&sb, "%s%s %s\n", labelStyle.Render("IN"), m.inBar.ViewAs(meterPercent(m.snap.InputLevel)), formatDB(m.snap.InputLevel))
	fmt.Fprintf(&sb, "%s%s\n", labelStyle.Render(""), sparkStyle.Render(Sparkline(m.snap.InputHistory, m.width-8)))
	fmt.Fprintf(&sb, "%s%s %s\n", labelStyle.Render("OUT"), m.outBar.ViewAs(meterPercent(m.snap.OutputLevel)), formatDB(m.snap.OutputLevel))
	fmt.Fprintf(&sb, "%s%s\n", labelStyle.Render(""), sparkStyle.Render(Sparkline(m.snap.OutputHistory, m.width-8)))

	fmt.Fprintf(&sb, "\nframes %d  fallbacks %d  xruns %d\n", m.snap.Frames, m.snap.Fallbacks, m.snap.XRuns)
	sb.WriteString(infoStyle.Render(helpLine(m.keys.Down, m.keys.Up, m.keys.Min, m.keys.Max, m.keys.Quit)))
	return sb.String()
}

// levelDB converts an RMS level to dBFS, bounded below by the meter floor.
func levelDB(level float32) float64 {
	if level <= 0 {
		return meterFloorDB
	}
	return max(20*math.Log10(float64(level)), meterFloorDB)
}

// meterPercent maps a level onto [0,1] across the meter's dB range.
func meterPercent(level float32) float64 {
	return min(1, (levelDB(level)-meterFloorDB)/-meterFloorDB)
}

func formatDB(level float32) string {
	db := levelDB(level)
	if db <= meterFloorDB {
		return "  -inf dB"
	}
	return fmt.Sprintf("%6.1f dB", db)
}

// Sparkline renders values as block characters, oldest first, keeping the
// newest width values.
func Sparkline(values []float32, width int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	out := make([]rune, len(values))
	top := len(sparkRunes) - 1
	for i, v := range values {
		idx := int(math.Round(meterPercent(v) * float64(top)))
		out[i] = sparkRunes[idx]
	}
	return string(out)
}

// RunMonitor runs the monitor full screen until the user quits.
func RunMonitor(m MonitorModel) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
