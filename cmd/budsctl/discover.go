package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/budsctl/internal/discovery"
	"github.com/muurk/budsctl/internal/ui"
)

var scanTimeout int

// discoverCmd finds bridges on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find budsctl bridges on the local network",
	Long: `Browse the local network for bridges started with 'budsctl serve'.

Bridges advertise themselves over mDNS/DNS-SD as _budsctl._tcp with the
device address and profile in their TXT records.`,
	Example: `  # Scan for 5 seconds (default)
  budsctl discover

  # Longer scan for busy networks
  budsctl discover --timeout 15`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	printer := ui.NewPrinter(os.Stdout)
	printer.Println(fmt.Sprintf("Scanning for bridges (timeout: %ds)...", scanTimeout))
	printer.Newline()

	ctx, stop := signalContext()
	defer stop()

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	bridges, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(bridges) == 0 {
		printer.PrintError("No bridges found", nil, []string{
			"Start one with 'budsctl serve' on the machine paired with the earbuds",
			"Check that both machines are on the same network",
			"Firewalls must allow mDNS (UDP 5353) and the bridge port",
			"Try increasing --timeout",
		})
		return nil
	}

	rows := make([][]string, 0, len(bridges))
	for _, b := range bridges {
		rows = append(rows, []string{b.Instance, b.Device, b.Profile, b.URL(), b.Version})
	}
	printer.PrintTable([]string{"INSTANCE", "DEVICE", "PROFILE", "URL", "VERSION"}, rows)
	printer.Newline()
	printer.Println("Found " + strconv.Itoa(len(bridges)) + " bridge(s)")
	return nil
}
