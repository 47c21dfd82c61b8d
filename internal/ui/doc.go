// Package ui renders styled terminal output for the budsctl CLI.
//
// Components follow a "run once and exit" pattern: commands build a
// Printer and print headers, status panels, tables and result boxes. The
// interactive dashboard lives in the tui package and reuses the palette
// and the status renderer from here.
//
// Example:
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Status", "budsctl status", map[string]string{
//	    "Device": "AA:BB:CC:DD:EE:FF",
//	})
//	p.Println(ui.RenderStatus(status, store.Snapshot(), p.Width()))
//
// # Colour
//
// Lipgloss drops colour automatically when stdout is not a terminal, so the
// same output can be piped into files. IsTerminal reports the same
// condition for callers that need to change behaviour, not just styling.
//
// # Logging Integration
//
// Logging is controlled via the BUDSCTL_LOG_LEVEL environment variable.
// When unset, zap logging is silent so the styled output stays clean.
package ui
