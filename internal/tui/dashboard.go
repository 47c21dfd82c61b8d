package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/store"
	"github.com/muurk/budsctl/internal/ui"
)

const (
	changeBuffer    = 64
	batteryBarWidth = 30
)

// Controller is the part of the connection manager the dashboard drives.
type Controller interface {
	Store() *store.Store
	Status() connection.Status
	Watch() (<-chan connection.Status, func())
	Submit(cmd device.Command) error
	Reconnect()
}

// Messages for async operations
type statusMsg connection.Status

type changeMsg store.Change

type submitDoneMsg struct {
	cmd device.Command
	err error
}

// dashboardKeyMap defines key bindings for the dashboard screen
type dashboardKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Prev      key.Binding
	Next      key.Binding
	Toggle    key.Binding
	ANCMode   key.Binding
	ANCLevel  key.Binding
	Equalizer key.Binding
	Reconnect key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Prev, k.Next, k.Reconnect, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Prev, k.Next, k.Toggle},
		{k.ANCMode, k.ANCLevel, k.Equalizer},
		{k.Reconnect, k.Help, k.Quit},
	}
}

func newDashboardKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "toggle"),
		),
		ANCMode: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "anc mode"),
		),
		ANCLevel: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "anc level"),
		),
		Equalizer: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "equalizer"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconnect"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DashboardModel shows one headset and edits its settings.
type DashboardModel struct {
	ctl Controller

	statusCh    <-chan connection.Status
	stopStatus  func()
	changes     <-chan store.Change
	stopChanges func()

	Status   connection.Status
	Props    map[string]map[string]string
	Controls []device.Control

	// Cursor indexes Controls.
	Cursor  int
	Pending bool
	Notice  string
	Err     error

	Width  int
	Height int

	Spinner spinner.Model
	Battery progress.Model
	Help    help.Model
	Keys    dashboardKeyMap
}

// NewDashboardModel subscribes to ctl. Call Close once the program exits.
func NewDashboardModel(ctl Controller) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = batteryBarWidth

	statusCh, stopStatus := ctl.Watch()
	changes, stopChanges := ctl.Store().Subscribe(changeBuffer)

	m := DashboardModel{
		ctl:         ctl,
		statusCh:    statusCh,
		stopStatus:  stopStatus,
		changes:     changes,
		stopChanges: stopChanges,
		Status:      ctl.Status(),
		Spinner:     s,
		Battery:     bar,
		Help:        help.New(),
		Keys:        newDashboardKeyMap(),
	}
	m.refresh()
	return m
}

// Close releases the status and store subscriptions.
func (m DashboardModel) Close() {
	m.stopStatus()
	m.stopChanges()
}

// Init starts the spinner and both listeners.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		waitForStatus(m.statusCh),
		waitForChange(m.changes),
	)
}

func waitForStatus(ch <-chan connection.Status) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg(st)
	}
}

func waitForChange(ch <-chan store.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(c)
	}
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.Status = connection.Status(msg)
		if m.Status.Connected() {
			m.Err = nil
		}
		return m, waitForStatus(m.statusCh)

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case submitDoneMsg:
		m.Pending = false
		if msg.err != nil {
			m.Err = msg.err
			m.Notice = ""
		} else {
			m.Err = nil
			m.Notice = ui.SuccessMarker + " " + msg.cmd.String()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll

	case key.Matches(msg, m.Keys.Reconnect):
		m.ctl.Reconnect()
		m.Notice = "reconnecting"

	case key.Matches(msg, m.Keys.Up):
		if n := len(m.Controls); n > 0 {
			m.Cursor = (m.Cursor - 1 + n) % n
		}

	case key.Matches(msg, m.Keys.Down):
		if n := len(m.Controls); n > 0 {
			m.Cursor = (m.Cursor + 1) % n
		}

	case key.Matches(msg, m.Keys.Prev):
		return m.change(-1, false)

	case key.Matches(msg, m.Keys.Next):
		return m.change(1, false)

	case key.Matches(msg, m.Keys.Toggle):
		return m.change(1, true)

	case key.Matches(msg, m.Keys.ANCMode):
		return m.cycle(device.CategoryANC, "mode")

	case key.Matches(msg, m.Keys.ANCLevel):
		return m.cycle(device.CategoryANC, "level")

	case key.Matches(msg, m.Keys.Equalizer):
		return m.cycle(device.CategorySound, "equalizer_preset")
	}
	return m, nil
}

// cycle selects the named control, if present, and steps it forward.
func (m DashboardModel) cycle(category, name string) (tea.Model, tea.Cmd) {
	for i, c := range m.Controls {
		if c.Category == category && c.Key == name {
			m.Cursor = i
			return m.change(1, false)
		}
	}
	return m, nil
}

// change steps the selected control and submits the new value.
func (m DashboardModel) change(delta int, toggleOnly bool) (tea.Model, tea.Cmd) {
	if m.Pending || !m.Status.Connected() || m.Cursor >= len(m.Controls) {
		return m, nil
	}
	c := m.Controls[m.Cursor]
	if toggleOnly && !c.Toggle {
		return m, nil
	}
	value := c.Next(delta)
	if value == c.Value {
		return m, nil
	}
	m.Pending = true
	m.Notice = ""
	return m, m.submit(c.Command(value))
}

func (m DashboardModel) submit(cmd device.Command) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		return submitDoneMsg{cmd: cmd, err: ctl.Submit(cmd)}
	}
}

// refresh reloads the property snapshot and keeps the cursor on the same
// control when it still exists.
func (m *DashboardModel) refresh() {
	var selected string
	if m.Cursor < len(m.Controls) {
		c := m.Controls[m.Cursor]
		selected = c.Category + "." + c.Key
	}

	m.Props = m.ctl.Store().Snapshot()
	m.Controls = device.Controls(m.Props)

	m.Cursor = 0
	for i, c := range m.Controls {
		if c.Category+"."+c.Key == selected {
			m.Cursor = i
			break
		}
	}
}

// View renders the dashboard
func (m DashboardModel) View() string {
	return RenderApplicationContainer(m.buildContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m DashboardModel) buildContent() string {
	width := m.Width - 8
	if width < ui.MinTerminalWidth {
		width = ui.MinTerminalWidth
	}

	var b strings.Builder

	state := ui.RenderState(m.Status)
	if !m.Status.Connected() {
		state = m.Spinner.View() + " " + state
	}
	b.WriteString(state)
	b.WriteString("\n\n")

	if battery := m.Props[device.CategoryBattery]; len(battery) > 0 {
		b.WriteString(m.renderBattery(battery))
		b.WriteString("\n\n")
	}

	b.WriteString(TitleStyle.Render("Settings"))
	b.WriteString("\n")
	if len(m.Controls) == 0 {
		b.WriteString(ui.OptionsStyle.Render("  waiting for the headset to report its settings"))
		b.WriteString("\n")
	}
	for i, c := range m.Controls {
		b.WriteString(m.renderControl(i, c))
		b.WriteString("\n")
	}

	switch {
	case m.Pending:
		b.WriteString("\n" + m.Spinner.View() + " applying")
	case m.Err != nil:
		b.WriteString("\n" + ErrorStyle.Render(ui.FailureMarker+" "+m.Err.Error()))
	case m.Notice != "":
		b.WriteString("\n" + NoticeStyle.Render(m.Notice))
	}

	if info := m.Props[device.CategoryInfo]; len(info) > 0 {
		b.WriteString("\n\n")
		b.WriteString(ui.RenderSection(device.CategoryInfo, "Device info", info, width))
	}
	return b.String()
}

func (m DashboardModel) renderControl(i int, c device.Control) string {
	label := fmt.Sprintf("%-32s", c.Category+" / "+c.Key)
	value := ValueStyle.Render(c.Value)
	if !c.Toggle && len(c.Options) > 1 {
		value = "‹ " + value + " ›"
	}
	return RenderMenuItem(label+" "+value, i == m.Cursor)
}

var batteryParts = []string{"left", "right", "case", "global"}

// renderBattery draws one progress bar per reported part. The global level
// is only shown when the buds do not report left and right separately.
func (m DashboardModel) renderBattery(values map[string]string) string {
	lines := []string{TitleStyle.Render("Battery")}
	_, hasLeft := values["left"]
	for _, part := range batteryParts {
		raw, ok := values[part]
		if !ok || (part == "global" && hasLeft) {
			continue
		}
		level, err := strconv.Atoi(raw)
		if err != nil || level < 0 {
			continue
		}
		label := fmt.Sprintf("  %-8s", part)
		line := label + m.Battery.ViewAs(float64(level)/100)
		if values[part+"_charging"] == "true" || (part == "global" && values["is_charging"] == "true") {
			line += " ⚡"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
