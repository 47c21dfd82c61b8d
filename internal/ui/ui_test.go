package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/budsctl/internal/connection"
)

func TestBatteryBar(t *testing.T) {
	tests := []struct {
		name       string
		level      int
		wantFilled int
	}{
		{name: "full", level: 100, wantFilled: 10},
		{name: "half", level: 50, wantFilled: 5},
		{name: "empty", level: 0, wantFilled: 0},
		{name: "clamped high", level: 140, wantFilled: 10},
		{name: "clamped low", level: -5, wantFilled: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := BatteryBar(tt.level, 10)
			if got := strings.Count(bar, "█"); got != tt.wantFilled {
				t.Errorf("filled cells = %d, want %d", got, tt.wantFilled)
			}
			if got := lipgloss.Width(bar); got != 10 {
				t.Errorf("bar width = %d, want 10", got)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	st := connection.Status{State: connection.StateConnected, Address: "AA:BB:CC:DD:EE:FF", Profile: "HUAWEI FreeBuds 5i"}
	props := map[string]map[string]string{
		"battery": {"left": "80", "right": "60", "left_charging": "true"},
		"anc":     {"mode": "cancellation", "mode_options": "normal,cancellation,awareness"},
		"dual_connect": {
			"enabled":          "true",
			"preferred_device": "11:22:33:44:55:66",
			"devices":          `{"11:22:33:44:55:66":{"name":"Laptop","connected":true,"playing":false,"auto_connect":true}}`,
		},
		"state": {"connection": "connected"},
	}

	out := RenderStatus(st, props, 80)

	for _, want := range []string{
		"connected", "HUAWEI FreeBuds 5i",
		"Battery", "left ⚡", " 80%", " 60%",
		"Noise control", "cancellation", "(normal, cancellation, awareness)",
		"Dual connect", "Laptop", "(connected, auto, preferred)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderStatus() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "mode_options") {
		t.Error("options key should be folded into its property")
	}
	if strings.Index(out, "Battery") > strings.Index(out, "Noise control") {
		t.Error("sections out of order")
	}
}

func TestRenderProperties(t *testing.T) {
	if got := RenderProperties(map[string]map[string]string{"state": {"connection": "connected"}}, 80); got != "" {
		t.Errorf("RenderProperties() with only state = %q, want empty", got)
	}

	out := RenderProperties(map[string]map[string]string{"config": {"auto_pause": "true"}}, 80)
	if !strings.Contains(out, "Settings") || !strings.Contains(out, "auto_pause") {
		t.Errorf("RenderProperties() = %q", out)
	}
}

func TestRenderStateBackoff(t *testing.T) {
	st := connection.Status{State: connection.StateBackoff, Attempt: 3, LastError: "host is down"}
	out := RenderState(st)
	for _, want := range []string{"backoff", "attempt 3", "host is down"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderState() missing %q in %q", want, out)
		}
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"NAME", "ADDRESS"}, [][]string{
		{"AirPods Pro", "AA:BB:CC:DD:EE:FF"},
		{"Buds", "11:22:33:44:55:66"},
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("RenderTable() = %d lines, want 3", len(lines))
	}
	if strings.Index(lines[1], "AA:BB") != strings.Index(lines[2], "11:22") {
		t.Errorf("columns not aligned:\n%s", out)
	}
}

func TestRenderBoxes(t *testing.T) {
	ok := RenderSuccessBox("Command applied", map[string]string{"Group": "anc"}, 70)
	if !strings.Contains(ok, "Command applied") || !strings.Contains(ok, "anc") {
		t.Errorf("RenderSuccessBox() = %q", ok)
	}

	fail := RenderErrorBox("Connection failed", errors.New("host is down"), []string{"Turn the earbuds on"}, 70)
	for _, want := range []string{"Connection failed", "host is down", "Troubleshooting", "Turn the earbuds on"} {
		if !strings.Contains(fail, want) {
			t.Errorf("RenderErrorBox() missing %q", want)
		}
	}
}
