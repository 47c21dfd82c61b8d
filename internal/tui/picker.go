package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/budsctl/internal/bluez"
	"github.com/muurk/budsctl/internal/ui"
)

// deviceItem wraps a paired device for use with bubbles/list
type deviceItem struct {
	device  bluez.Device
	profile string
}

func (d deviceItem) FilterValue() string {
	return d.device.Name + " " + d.device.Address
}

func (d deviceItem) Title() string { return d.device.Name }

func (d deviceItem) Description() string {
	desc := d.device.Address + " • " + d.profile
	if d.device.Connected {
		desc += " • connected"
	}
	return desc
}

// deviceDelegate renders one device per two lines.
type deviceDelegate struct{}

func (deviceDelegate) Height() int { return 2 }
func (deviceDelegate) Spacing() int { return 1 }
func (deviceDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	d, ok := item.(deviceItem)
	if !ok {
		return
	}
	fmt.Fprintf(w, "%s\n%s",
		RenderMenuItem(d.Title(), index == m.Index()),
		ui.OptionsStyle.Render("    "+d.Description()))
}

type pickerKeyMap struct {
	Select key.Binding
	Quit   key.Binding
}

func (k pickerKeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Select, k.Quit} }

func (k pickerKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Select, k.Quit}} }

// PickerModel lets the user choose one of several paired headsets.
type PickerModel struct {
	List     list.Model
	Selected *bluez.Device
	Width    int
	Height   int

	Help help.Model
	Keys pickerKeyMap
}

// NewPickerModel lists devices. profileOf names the profile each device
// would be driven with.
func NewPickerModel(devices []bluez.Device, profileOf func(bluez.Device) string) PickerModel {
	items := make([]list.Item, 0, len(devices))
	for _, d := range devices {
		items = append(items, deviceItem{device: d, profile: profileOf(d)})
	}

	l := list.New(items, deviceDelegate{}, defaultWidth-8, defaultHeight-8)
	l.Title = "Paired headsets"
	l.Styles.Title = TitleStyle
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return PickerModel{
		List: l,
		Help: help.New(),
		Keys: pickerKeyMap{
			Select: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "connect"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

func (m PickerModel) Init() tea.Cmd { return nil }

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(msg.Width-8, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.List.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Select):
			if item, ok := m.List.SelectedItem().(deviceItem); ok {
				d := item.device
				m.Selected = &d
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

func (m PickerModel) View() string {
	return RenderApplicationContainer(m.List.View(), m.Help.View(m.Keys), m.Width, m.Height)
}
