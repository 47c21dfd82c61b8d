package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/budsctl/internal/bluez"
	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/profile"
	"github.com/muurk/budsctl/internal/tui"
	"github.com/muurk/budsctl/internal/ui"
)

var errNoSelection = errors.New("no device selected")

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Long: `Launch a full-screen dashboard for the earbuds.

The dashboard shows the connection state, battery levels and device
information, and lets you change settings with the arrow keys. When no
device is configured and several supported headsets are paired, a picker
is shown first.

With auto_connect disabled in the config file the dashboard starts idle;
press r to connect.`,
	Example: `  # Launch the dashboard (also the default without a command)
  budsctl tui
  budsctl

  # Dashboard for a specific device
  budsctl tui --device AA:BB:CC:DD:EE:FF`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// lazyController starts the manager on the first reconnect request.
type lazyController struct {
	*connection.Manager
	ctx context.Context
}

func (c lazyController) Reconnect() {
	if err := c.Start(c.ctx); errors.Is(err, connection.ErrAlreadyStarted) {
		c.Manager.Reconnect()
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if !ui.IsTerminal() {
		return errors.New("the dashboard needs a terminal; use 'budsctl status' or 'budsctl run' instead")
	}

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.DeviceAddress == "" {
		if err := pickDevice(ctx); err != nil {
			if errors.Is(err, errNoSelection) {
				return nil
			}
			return err
		}
	}

	s, err := openSession(ctx)
	if err != nil {
		printConnectFailure(ui.NewPrinter(cmd.OutOrStdout()), "Cannot start session", err)
		return err
	}
	defer s.Close()

	ctl := lazyController{Manager: s.manager, ctx: ctx}
	if cfg.AutoConnect {
		if err := s.manager.Start(ctx); err != nil {
			return err
		}
	}

	model := tui.NewDashboardModel(ctl)
	defer model.Close()

	var opts []tea.ProgramOption
	if !cfg.StartMinimized {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, tea.WithContext(ctx))

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}

// pickDevice lets the user choose among several supported paired devices
// and stores the choice in cfg. It does nothing when BlueZ is unavailable
// or at most one device qualifies.
func pickDevice(ctx context.Context) error {
	client, err := bluez.Dial()
	if err != nil {
		logging.Debug("BlueZ unavailable, skipping device picker", zap.Error(err))
		return nil
	}
	defer client.Close()

	devices, err := client.PairedDevices(ctx)
	if err != nil {
		return err
	}

	reg := profile.Default()
	var known []bluez.Device
	for _, d := range devices {
		if reg.Known(d.Name) {
			known = append(known, d)
		}
	}
	if len(known) < 2 {
		return nil
	}

	picker := tui.NewPickerModel(known, func(d bluez.Device) string {
		return reg.Match(d.Name, d.Address).Name
	})
	final, err := tea.NewProgram(picker, tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("device picker error: %w", err)
	}

	selected := final.(tui.PickerModel).Selected
	if selected == nil {
		return errNoSelection
	}
	cfg.DeviceAddress = selected.Address
	cfg.DeviceName = selected.Name
	return nil
}
