package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/budsctl/internal/connection"
	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/ui"
)

// Status and set flags
var (
	connectTimeout time.Duration
	settleTime     time.Duration
	outputFormat   string
)

func init() {
	for _, c := range []*cobra.Command{statusCmd, setCmd} {
		c.Flags().DurationVar(&connectTimeout, "timeout", 15*time.Second, "How long to wait for a connection")
		c.Flags().DurationVar(&settleTime, "settle", 2*time.Second, "How long to collect properties after connecting")
	}
	statusCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setCmd)
}

// statusCmd prints a snapshot of the device
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show battery, settings and device information",
	Long: `Connect, collect the properties the earbuds report, print them and exit.

The earbuds answer the initial reads within a second or two; --settle
controls how long budsctl waits for them before printing.`,
	Example: `  # Show status of the default device
  budsctl status

  # JSON output for scripting
  budsctl status --format json

  # Give slow devices more time
  budsctl status --settle 5s`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel := signalContext()
	defer cancel()

	printer := ui.NewPrinter(os.Stdout)
	s, st, err := connectSession(ctx, printer)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := sleepContext(ctx, settleTime); err != nil {
		return err
	}
	st = s.manager.Status()
	props := s.manager.Store().Snapshot()

	if outputFormat == "json" {
		data, err := json.MarshalIndent(struct {
			Status     connection.Status            `json:"status"`
			Properties map[string]map[string]string `json:"properties"`
		}{st, props}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printer.Println(ui.RenderStatus(st, props, printer.Width()))
	return nil
}

// setCmd submits a single command
var setCmd = &cobra.Command{
	Use:   "set <group> <prop> <value>",
	Short: "Change one device setting",
	Long: `Connect and submit one command to the handler named by <group>.

Groups are the handler names of the device profile (see 'budsctl profiles').
Values are the option names shown by 'budsctl status', for example the
entries of anc.mode_options.`,
	Example: `  # Turn on noise cancellation
  budsctl set anc mode cancellation

  # Pause playback when an earbud is removed
  budsctl set auto_pause auto_pause true

  # Map double tap on the left bud to play/pause
  budsctl set gesture_double double_tap_left pause

  # AirPods: switch to transparency
  budsctl set anc mode transparency`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel := signalContext()
	defer cancel()

	command := device.Command{Group: args[0], Prop: args[1], Value: args[2]}

	printer := ui.NewPrinter(os.Stdout)
	s, _, err := connectSession(ctx, printer)
	if err != nil {
		return err
	}
	defer s.Close()

	// Handlers build some writes from reported state, so let the initial
	// reads land first.
	if err := sleepContext(ctx, settleTime); err != nil {
		return err
	}

	if err := s.manager.Submit(command); err != nil {
		printer.PrintError("Command failed", err, []string{
			"Check the group and property names: budsctl profiles",
			"Check the accepted values: budsctl status",
		})
		return fmt.Errorf("failed to submit %s: %w", command, err)
	}

	printer.PrintSuccess("Command sent", map[string]string{
		"Device":  s.target.Address.String(),
		"Profile": s.profileName(),
		"Command": command.String(),
	})
	return nil
}

// connectSession opens a session and waits for the first connection.
func connectSession(ctx context.Context, printer *ui.Printer) (*session, connection.Status, error) {
	s, err := openSession(ctx)
	if err != nil {
		printConnectFailure(printer, "Cannot start session", err)
		return nil, connection.Status{}, err
	}
	if err := s.manager.Start(ctx); err != nil {
		s.Close()
		return nil, connection.Status{}, err
	}

	st, err := waitConnected(ctx, s.manager, connectTimeout)
	if err != nil {
		s.Close()
		printConnectFailure(printer, "Connection failed", err)
		return nil, st, fmt.Errorf("failed to connect to %s: %w", s.target.Address, err)
	}
	return s, st, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
