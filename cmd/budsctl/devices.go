package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/budsctl/internal/bluez"
	"github.com/muurk/budsctl/internal/profile"
	"github.com/muurk/budsctl/internal/ui"
	"github.com/muurk/budsctl/internal/urls"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List paired Bluetooth devices and their profiles",
	Long: `List every device paired with this computer, as reported by BlueZ,
together with the profile budsctl would drive it with.

Devices shown as "unsupported" would be connected with the probe profile,
which only logs what the device sends.`,
	RunE: runDevices,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List supported device profiles",
	Example: `  budsctl profiles

  # Force a profile for a device whose name is not recognised
  budsctl run --device AA:BB:CC:DD:EE:FF --profile "HUAWEI FreeBuds 4i"`,
	RunE: runProfiles,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(profilesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	printer := ui.NewPrinter(os.Stdout)

	client, err := bluez.Dial()
	if err != nil {
		printer.PrintError("BlueZ unavailable", err, []string{
			"budsctl reads paired devices from BlueZ over the system D-Bus",
			"Check that bluetoothd is running: systemctl status bluetooth",
		})
		return err
	}
	defer client.Close()

	ctx, stop := signalContext()
	defer stop()

	devices, err := client.PairedDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list paired devices: %w", err)
	}
	if len(devices) == 0 {
		printer.Println("No paired devices. Pair your earbuds with bluetoothctl or your desktop settings first.")
		return nil
	}

	reg := profile.Default()
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.Name, d.Address, yesNo(d.Connected), profileLabel(reg, d)})
	}
	printer.PrintTable([]string{"NAME", "ADDRESS", "CONNECTED", "PROFILE"}, rows)
	return nil
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	printer := ui.NewPrinter(os.Stdout)

	reg := profile.Default()
	names := reg.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		p := reg.Match(name, "")
		rows = append(rows, []string{name, p.Name, p.Transport.String(), strings.Join(p.Groups(), ", ")})
	}
	printer.PrintTable([]string{"DEVICE NAME", "PROFILE", "TRANSPORT", "GROUPS"}, rows)
	printer.Newline()
	printer.Println("Missing your model? " + urls.ContributingProfiles)
	return nil
}

// profileLabel names the profile reg would pick for d.
func profileLabel(reg *profile.Registry, d bluez.Device) string {
	p := reg.Match(d.Name, d.Address)
	if p.Probe {
		return "unsupported"
	}
	return p.Name
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
