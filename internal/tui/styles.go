package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/budsctl/internal/ui"
	"github.com/muurk/budsctl/internal/version"
)

// Application branding constants
const (
	AppName   = "BUDSCTL"
	GitHubURL = "github.com/muurk/budsctl"
)

// Fallback size until the first tea.WindowSizeMsg arrives
const (
	defaultWidth  = 80
	defaultHeight = 24
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true)

	MenuItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(ui.TextColor)

	SelectedMenuItemStyle = lipgloss.NewStyle().
				Foreground(ui.SuccessColor).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor).
			Bold(true)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor).
			Bold(true)
)

// RenderMenuItem renders a menu line with a selection indicator.
func RenderMenuItem(text string, selected bool) string {
	if selected {
		return SelectedMenuItemStyle.Render("→ " + text)
	}
	return MenuItemStyle.Render(text)
}

// BuildHeaderContent creates the header with app name, version and URL.
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(ui.TextColor).
		Bold(true).
		Render(AppName + " " + version.Version)

	right := lipgloss.NewStyle().
		Foreground(ui.MutedColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps a screen's content with the common
// header, a footer holding helpText, and an outer border sized to the
// terminal.
func RenderApplicationContainer(content, helpText string, width, height int) string {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(ui.PrimaryColor).
		Width(width-4).
		Padding(0, 1).
		Render(BuildHeaderContent())

	footer := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(ui.PrimaryColor).
		Width(width-4).
		Padding(0, 1).
		Foreground(ui.MutedColor).
		Render(helpText)

	body := lipgloss.NewStyle().
		Width(width-4).
		Padding(1, 1).
		Render(content)

	inner := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(ui.PrimaryColor).
		Width(width - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, bordered)
}
