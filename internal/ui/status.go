package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/device"
)

const optionsSuffix = "_options"

// sections lists the categories in display order with their titles.
var sections = []struct {
	category string
	title    string
}{
	{device.CategoryBattery, "Battery"},
	{device.CategoryANC, "Noise control"},
	{device.CategorySound, "Sound"},
	{device.CategoryConfig, "Settings"},
	{device.CategoryAction, "Gestures"},
	{device.CategoryEarDetection, "Ear detection"},
	{device.CategoryConversationAwareness, "Conversation awareness"},
	{device.CategoryPersonalizedVolume, "Personalized volume"},
	{device.CategoryDualConnect, "Dual connect"},
	{device.CategoryInfo, "Device info"},
}

var batteryParts = []string{"global", "left", "right", "case"}

// StateStyle returns the colour used for a connection state.
func StateStyle(s connection.State) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch s {
	case connection.StateConnected:
		return style.Foreground(SuccessColor)
	case connection.StateConnecting, connection.StateHandshaking, connection.StateBackoff:
		return style.Foreground(WarningColor)
	default:
		return style.Foreground(MutedColor)
	}
}

// RenderState renders a one-line connection summary.
func RenderState(st connection.Status) string {
	line := StateStyle(st.State).Render(StateMarker + " " + string(st.State))
	if st.Profile != "" {
		line += "  " + PropValueStyle.Render(st.Profile)
	}
	if st.Address != "" {
		line += "  " + OptionsStyle.Render(st.Address)
	}
	if st.State == connection.StateBackoff {
		line += "  " + OptionsStyle.Render(fmt.Sprintf("attempt %d, retry in %s", st.Attempt, st.NextRetry))
	}
	if st.LastError != "" && !st.Connected() {
		line += "\n" + ErrorMessageStyle.Render("  "+st.LastError)
	}
	return line
}

// RenderStatus renders the connection summary followed by one section per
// populated property category.
func RenderStatus(st connection.Status, props map[string]map[string]string, width int) string {
	blocks := []string{RenderState(st)}
	if body := RenderProperties(props, width); body != "" {
		blocks = append(blocks, body)
	}
	return strings.Join(blocks, "\n\n")
}

// RenderProperties renders every populated category in display order.
func RenderProperties(props map[string]map[string]string, width int) string {
	var blocks []string
	for _, sec := range sections {
		values := props[sec.category]
		if len(values) == 0 {
			continue
		}
		blocks = append(blocks, RenderSection(sec.category, sec.title, values, width))
	}
	return strings.Join(blocks, "\n\n")
}

// RenderSection renders one property category.
func RenderSection(category, title string, values map[string]string, width int) string {
	lines := []string{SectionTitleStyle.Render(title)}

	switch category {
	case device.CategoryBattery:
		lines = append(lines, renderBattery(values, width)...)
	case device.CategoryDualConnect:
		lines = append(lines, renderDualConnect(values)...)
	default:
		lines = append(lines, renderProperties(values)...)
	}
	return strings.Join(lines, "\n")
}

// renderProperties lists key/value pairs, showing "<key>_options" next to
// its key instead of on its own line.
func renderProperties(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.HasSuffix(k, optionsSuffix) {
			if _, ok := values[strings.TrimSuffix(k, optionsSuffix)]; ok {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		line := PropKeyStyle.Render(k) + PropValueStyle.Render(values[k])
		if opts, ok := values[k+optionsSuffix]; ok && opts != "" {
			line += "  " + OptionsStyle.Render("("+strings.ReplaceAll(opts, ",", ", ")+")")
		}
		lines = append(lines, line)
	}
	return lines
}

func renderBattery(values map[string]string, width int) []string {
	barWidth := width / 4
	if barWidth < 10 {
		barWidth = 10
	}

	var lines []string
	for _, part := range batteryParts {
		v, ok := values[part]
		if !ok {
			continue
		}
		level, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		label := part
		if charging := values[part+"_charging"]; charging == "true" {
			label += " ⚡"
		}
		lines = append(lines, PropKeyStyle.Render(label)+BatteryBar(level, barWidth)+fmt.Sprintf(" %3d%%", level))
	}
	if values["is_charging"] == "true" {
		lines = append(lines, PropKeyStyle.Render("charging")+PropValueStyle.Render("yes"))
	}
	return lines
}

// BatteryBar renders a level between 0 and 100 as a coloured bar.
func BatteryBar(level, width int) string {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	filled := level * width / 100

	color := SuccessColor
	switch {
	case level <= 20:
		color = ErrorColor
	case level <= 50:
		color = WarningColor
	}
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(MutedColor).Render(strings.Repeat("░", width-filled))
}

func renderDualConnect(values map[string]string) []string {
	rest := make(map[string]string, len(values))
	for k, v := range values {
		if k != "devices" {
			rest[k] = v
		}
	}
	lines := renderProperties(rest)

	raw, ok := values["devices"]
	if !ok {
		return lines
	}
	var devices map[string]device.PairedDevice
	if err := json.Unmarshal([]byte(raw), &devices); err != nil {
		return append(lines, PropKeyStyle.Render("devices")+ErrorMessageStyle.Render("unreadable"))
	}

	macs := make([]string, 0, len(devices))
	for mac := range devices {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	for _, mac := range macs {
		d := devices[mac]
		var flags []string
		if d.Connected {
			flags = append(flags, "connected")
		}
		if d.Playing {
			flags = append(flags, "playing")
		}
		if d.AutoConnect {
			flags = append(flags, "auto")
		}
		if mac == values["preferred_device"] {
			flags = append(flags, "preferred")
		}
		line := PropKeyStyle.Render(mac) + PropValueStyle.Render(d.Name)
		if len(flags) > 0 {
			line += "  " + OptionsStyle.Render("("+strings.Join(flags, ", ")+")")
		}
		lines = append(lines, line)
	}
	return lines
}
