package tui

import (
	"fmt"
	"strings"

	"hush/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ScreenType selects the device browser view.
type ScreenType int

const (
	ListScreen ScreenType = iota
	DetailScreen
)

// chrome is the number of rows taken by the title and help line.
const chrome = 4

type deviceKeys struct {
	Prev key.Binding
	Next key.Binding
	Open key.Binding
	Back key.Binding
	Quit key.Binding
}

var defaultDeviceKeys = deviceKeys{
	Prev: key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous")),
	Next: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
	Open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type devicesMsg []audio.Device

type errMsg struct{ err error }

// DeviceListModel browses host audio devices and shows the ids to pass
// to --input and --output.
type DeviceListModel struct {
	fetch  func() ([]audio.Device, error)
	keys   deviceKeys
	screen ScreenType

	devices []audio.Device
	cursor  int
	err     error

	viewport viewport.Model
	ready    bool
}

// NewDeviceListModel returns a browser that loads devices with fetch,
// normally audio.HostDevices.
func NewDeviceListModel(fetch func() ([]audio.Device, error)) DeviceListModel {
	return DeviceListModel{fetch: fetch, keys: defaultDeviceKeys}
}

// StartDeviceListUI runs the device browser full screen.
func StartDeviceListUI() error {
	_, err := tea.NewProgram(NewDeviceListModel(audio.HostDevices), tea.WithAltScreen()).Run()
	return err
}

func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg(devices)
	}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.screen == ListScreen {
			m.updateList(msg)
		} else {
			m.updateDetail(msg)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DeviceListModel) updateList(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Prev):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Next):
		m.cursor = max(min(m.cursor+1, len(m.devices)-1), 0)
	case key.Matches(msg, m.keys.Open):
		if len(m.devices) == 0 {
			return
		}
		m.screen = DetailScreen
		m.viewport.GotoTop()
	default:
		return
	}
	m.refresh()
}

func (m *DeviceListModel) updateDetail(msg tea.KeyMsg) {
	if key.Matches(msg, m.keys.Back) {
		m.screen = ListScreen
		m.refresh()
	}
}

// refresh re-renders the active screen into the viewport.
func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.screen == DetailScreen {
		m.viewport.SetContent(renderDeviceDetail(m.devices[m.cursor]))
		return
	}
	m.viewport.SetContent(m.renderList())
}

func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	title, help := "Audio Devices", helpLine(m.keys.Prev, m.keys.Next, m.keys.Open, m.keys.Quit)
	if m.screen == DetailScreen {
		title, help = "Device Details", helpLine(m.keys.Back, m.keys.Quit)
	}
	return titleStyle.Render(title) + "\n\n" + m.viewport.View() + "\n\n" + infoStyle.Render(help)
}

func (m DeviceListModel) renderList() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		entry := fmt.Sprintf("[%d] %s (%s)", d.ID, d.Name, d.Direction())
		if d.Preferred {
			entry += " *"
		}
		entry += fmt.Sprintf("\n    in %d / out %d channels", d.MaxInputChannels, d.MaxOutputChannels)
		if i == m.cursor {
			entry = highlightStyle.Render(entry)
		}
		sb.WriteString(entry)
		sb.WriteString("\n\n")
	}
	sb.WriteString(infoStyle.Render("* preferred when no device id is configured"))
	return sb.String()
}

func renderDeviceDetail(d audio.Device) string {
	rows := [][2]string{
		{"ID", fmt.Sprint(d.ID)},
		{"Host API", d.HostAPI},
		{"Direction", d.Direction()},
		{"Input channels", fmt.Sprint(d.MaxInputChannels)},
		{"Output channels", fmt.Sprint(d.MaxOutputChannels)},
		{"Default sample rate", fmt.Sprintf("%.0f Hz", d.DefaultSampleRate)},
		{"Low input latency", fmt.Sprintf("%.2f ms", d.LowInputLatency.Seconds()*1000)},
		{"Low output latency", fmt.Sprintf("%.2f ms", d.LowOutputLatency.Seconds()*1000)},
	}

	var sb strings.Builder
	sb.WriteString(highlightStyle.Render(d.Name))
	sb.WriteString("\n\n")
	for _, r := range rows {
		sb.WriteString("  " + fieldStyle.Render(r[0]) + r[1] + "\n")
	}
	if d.Preferred {
		sb.WriteString("\n  Picked automatically when no device id is configured.\n")
	}
	fmt.Fprintf(&sb, "\n  Use with: --input %d / --output %d\n", d.ID, d.ID)
	return sb.String()
}

// Selected returns the highlighted device, if any.
func (m DeviceListModel) Selected() (audio.Device, bool) {
	if m.cursor < 0 || m.cursor >= len(m.devices) {
		return audio.Device{}, false
	}
	return m.devices[m.cursor], true
}
