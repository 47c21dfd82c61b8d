// Package tui implements the interactive terminal dashboard for budsctl.
//
// It is built on Bubble Tea and follows the Model-Update-View pattern. Two
// models are provided:
//   - PickerModel lists paired headsets so the user can choose one when
//     no device is configured.
//   - DashboardModel shows live connection state, battery and device
//     properties, and lets the user change settings.
//
// The dashboard never talks to the link itself. It reads a Controller
// (normally a *connection.Manager), turns store changes and status updates
// into messages, and runs Submit inside a tea.Cmd so the UI goroutine never
// blocks on the headset.
//
// # Key Bindings
//
//   - ↑/↓ select a setting
//   - ←/→ cycle through its options, enter/space toggles switches
//   - a, l and e step the ANC mode, ANC level and equalizer preset
//   - r reconnects immediately, skipping any backoff delay
//   - ? expands help, q quits
//
// All screens are wrapped by RenderApplicationContainer for a consistent
// header and footer.
package tui
