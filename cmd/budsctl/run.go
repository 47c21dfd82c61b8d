package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/ui"
)

var showChanges bool

var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"connect"},
	Short:   "Keep a session open and print connection changes",
	Long: `Connect to the earbuds and keep the session open in the foreground.

The connection manager reconnects with exponential backoff when the link
drops, switches RFCOMM channels when the profile's channel is refused, and
resets the Bluetooth link through BlueZ after repeated failures. Each state
change is printed as it happens. Press Ctrl+C to disconnect.`,
	Example: `  # Connect to the first supported paired device
  budsctl run

  # Connect to a specific address and print every property update
  budsctl connect --device AA:BB:CC:DD:EE:FF --changes

  # Record every frame for later analysis with 'budsctl replay'
  budsctl run --capture-dir ./captures --log-level debug`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&showChanges, "changes", false, "Print every property change")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	ctx, cancel := signalContext()
	defer cancel()

	printer := ui.NewPrinter(os.Stdout)
	s, err := openSession(ctx)
	if err != nil {
		printConnectFailure(printer, "Cannot start session", err)
		return err
	}
	defer s.Close()

	printer.PrintHeader("Connection", "budsctl run", map[string]string{
		"Device":  s.target.Address.String(),
		"Name":    s.target.Name,
		"Profile": s.profileName(),
	})

	updates, stop := s.manager.Watch()
	defer stop()
	changes, unsubscribe := s.manager.Store().Subscribe(64)
	defer unsubscribe()

	if err := s.manager.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			printer.Println(ui.OptionsStyle.Render("Disconnecting..."))
			return nil
		case st := <-updates:
			printer.Println(ui.RenderState(st))
		case c := <-changes:
			if showChanges && c.Category != device.CategoryState {
				printer.Println(fmt.Sprintf("  %s %s.%s = %s", c.Kind, c.Category, c.Key, c.Value))
			}
		}
	}
}
