package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/budsctl/internal/bluez"
	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/store"
)

type fakeController struct {
	store      *store.Store
	status     connection.Status
	submitted  []device.Command
	submitErr  error
	reconnects int
	stopped    int
}

func newFakeController() *fakeController {
	st := store.New()
	st.PutAll(device.CategoryANC, map[string]string{
		"mode":         "normal",
		"mode_options": "normal,cancellation,awareness",
	})
	st.Put(device.CategoryConfig, "auto_pause", "false")
	st.Put(device.CategoryBattery, "global", "55")
	return &fakeController{
		store:  st,
		status: connection.Status{State: connection.StateConnected, Address: "AA:BB:CC:DD:EE:FF", Profile: "HUAWEI FreeBuds 4i"},
	}
}

func (f *fakeController) Store() *store.Store { return f.store }
func (f *fakeController) Status() connection.Status { return f.status }
func (f *fakeController) Reconnect() { f.reconnects++ }
func (f *fakeController) Submit(cmd device.Command) error {
	f.submitted = append(f.submitted, cmd)
	return f.submitErr
}

func (f *fakeController) Watch() (<-chan connection.Status, func()) {
	return make(chan connection.Status), func() { f.stopped++ }
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m DashboardModel, s string) (DashboardModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(keyMsg(s))
	return updated.(DashboardModel), cmd
}

func TestDashboardControls(t *testing.T) {
	m := NewDashboardModel(newFakeController())

	if len(m.Controls) != 2 {
		t.Fatalf("len(Controls) = %d, want 2", len(m.Controls))
	}
	if m.Controls[0].Key != "mode" || m.Controls[1].Key != "auto_pause" {
		t.Errorf("Controls = %v, %v, want anc mode then auto_pause", m.Controls[0].Key, m.Controls[1].Key)
	}
	if m.Props[device.CategoryBattery]["global"] != "55" {
		t.Errorf("battery not in snapshot: %v", m.Props)
	}
}

func TestDashboardSubmit(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want device.Command
	}{
		{
			name: "next option",
			keys: []string{"right"},
			want: device.Command{Group: "anc", Prop: "mode", Value: "cancellation"},
		},
		{
			name: "previous option wraps",
			keys: []string{"left"},
			want: device.Command{Group: "anc", Prop: "mode", Value: "awareness"},
		},
		{
			name: "toggle",
			keys: []string{"down", "enter"},
			want: device.Command{Group: "auto_pause", Prop: "auto_pause", Value: "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newFakeController()
			m := NewDashboardModel(ctl)

			var cmd tea.Cmd
			for _, k := range tt.keys {
				m, cmd = press(t, m, k)
			}
			if cmd == nil {
				t.Fatal("expected a submit command")
			}
			if !m.Pending {
				t.Error("Pending = false after submit")
			}

			updated, _ := m.Update(cmd())
			m = updated.(DashboardModel)

			if len(ctl.submitted) != 1 || ctl.submitted[0] != tt.want {
				t.Errorf("submitted = %v, want [%v]", ctl.submitted, tt.want)
			}
			if m.Pending || m.Err != nil {
				t.Errorf("after result Pending = %v, Err = %v", m.Pending, m.Err)
			}
			if !strings.Contains(m.Notice, tt.want.String()) {
				t.Errorf("Notice = %q, want it to mention %s", m.Notice, tt.want)
			}
		})
	}
}

func TestDashboardToggleIgnoresOptionControls(t *testing.T) {
	m := NewDashboardModel(newFakeController())
	if _, cmd := press(t, m, "enter"); cmd != nil {
		t.Error("enter on an option list should not submit")
	}
}

func TestDashboardSubmitError(t *testing.T) {
	ctl := newFakeController()
	ctl.submitErr = errors.New("device rejected")
	m := NewDashboardModel(ctl)

	m, cmd := press(t, m, "right")
	updated, _ := m.Update(cmd())
	m = updated.(DashboardModel)

	if m.Err == nil || m.Err.Error() != "device rejected" {
		t.Errorf("Err = %v, want device rejected", m.Err)
	}
	if !strings.Contains(m.buildContent(), "device rejected") {
		t.Error("view does not show the error")
	}
}

func TestDashboardDisconnected(t *testing.T) {
	ctl := newFakeController()
	ctl.status = connection.Status{State: connection.StateBackoff, Attempt: 2}
	m := NewDashboardModel(ctl)

	if _, cmd := press(t, m, "right"); cmd != nil {
		t.Error("changes must not be submitted while disconnected")
	}

	m, _ = press(t, m, "r")
	if ctl.reconnects != 1 {
		t.Errorf("reconnects = %d, want 1", ctl.reconnects)
	}

	updated, _ := m.Update(statusMsg(connection.Status{State: connection.StateConnected}))
	m = updated.(DashboardModel)
	if !m.Status.Connected() {
		t.Errorf("Status = %v, want connected", m.Status.State)
	}
}

func TestDashboardRefreshKeepsCursor(t *testing.T) {
	ctl := newFakeController()
	m := NewDashboardModel(ctl)
	m, _ = press(t, m, "down")

	ctl.store.Put(device.CategoryConfig, "low_latency", "false")
	updated, _ := m.Update(changeMsg(store.Change{Kind: store.ChangeSet, Category: device.CategoryConfig, Key: "low_latency"}))
	m = updated.(DashboardModel)

	if len(m.Controls) != 3 {
		t.Fatalf("len(Controls) = %d, want 3", len(m.Controls))
	}
	if got := m.Controls[m.Cursor].Key; got != "auto_pause" {
		t.Errorf("cursor on %q, want auto_pause", got)
	}
}

func TestDashboardShortcut(t *testing.T) {
	ctl := newFakeController()
	m := NewDashboardModel(ctl)
	m, _ = press(t, m, "down")

	m, cmd := press(t, m, "a")
	if cmd == nil {
		t.Fatal("a should submit the next ANC mode")
	}
	if m.Controls[m.Cursor].Key != "mode" {
		t.Errorf("cursor on %q, want mode", m.Controls[m.Cursor].Key)
	}
	cmd()
	want := device.Command{Group: "anc", Prop: "mode", Value: "cancellation"}
	if len(ctl.submitted) != 1 || ctl.submitted[0] != want {
		t.Errorf("submitted = %v, want [%v]", ctl.submitted, want)
	}

	// No equalizer reported yet.
	if _, cmd := press(t, m, "e"); cmd != nil {
		t.Error("e without an equalizer control should do nothing")
	}
}

func TestDashboardBattery(t *testing.T) {
	ctl := newFakeController()
	ctl.store.PutAll(device.CategoryBattery, map[string]string{
		"left": "40", "right": "90", "right_charging": "true",
	})
	m := NewDashboardModel(ctl)

	out := m.renderBattery(m.Props[device.CategoryBattery])
	for _, want := range []string{"left", "right", "⚡", "40%", "90%"} {
		if !strings.Contains(out, want) {
			t.Errorf("battery view missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "global") {
		t.Error("global level shown alongside per-bud levels")
	}
}

func TestDashboardClose(t *testing.T) {
	ctl := newFakeController()
	m := NewDashboardModel(ctl)
	m.Close()
	if ctl.stopped != 1 {
		t.Errorf("status watch stopped %d times, want 1", ctl.stopped)
	}
}

func TestPickerSelect(t *testing.T) {
	devices := []bluez.Device{
		{Address: "AA:BB:CC:DD:EE:01", Name: "HUAWEI FreeBuds 4i"},
		{Address: "AA:BB:CC:DD:EE:02", Name: "AirPods Pro", Connected: true},
	}
	m := NewPickerModel(devices, func(d bluez.Device) string { return "profile for " + d.Name })

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(PickerModel)

	if m.Selected == nil || m.Selected.Address != "AA:BB:CC:DD:EE:02" {
		t.Fatalf("Selected = %v, want second device", m.Selected)
	}
	if cmd == nil {
		t.Error("selection should quit the picker")
	}
}

func TestPickerQuit(t *testing.T) {
	m := NewPickerModel(nil, func(bluez.Device) string { return "" })
	updated, cmd := m.Update(keyMsg("q"))
	if updated.(PickerModel).Selected != nil {
		t.Error("quit should not select")
	}
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestRenderApplicationContainer(t *testing.T) {
	out := RenderApplicationContainer("body text", "q quit", 80, 20)
	for _, want := range []string{AppName, "body text", "q quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("container missing %q", want)
		}
	}
}
