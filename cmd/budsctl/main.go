// Budsctl controls Huawei, HONOR and Apple earbuds over Bluetooth.
//
// It keeps a control-channel session open to one paired headset, mirrors
// the headset's state (battery, noise control, gestures, equalizer) into
// a property store, and lets the user change settings from the command
// line, an interactive dashboard, or remote front-ends connected to the
// websocket bridge.
//
// Usage:
//
//	budsctl [command] [flags]
//
// Running without arguments launches the dashboard when stdout is a
// terminal. See 'budsctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/budsctl/internal/config"
	"github.com/muurk/budsctl/internal/logging"
	"github.com/muurk/budsctl/internal/ui"
	"github.com/muurk/budsctl/internal/version"
)

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath  string
	deviceAddr  string
	deviceName  string
	profileName string
	logLevel    string
	captureDir  string
)

// cfg is loaded by the root PersistentPreRunE before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "budsctl",
	Short: "Bluetooth earbuds control utility",
	Long: `Control Huawei, HONOR and Apple earbuds from the command line.

budsctl talks to the earbuds' vendor control channel over Bluetooth
(RFCOMM for Huawei and HONOR, L2CAP for AirPods) to read battery levels
and device information and to change noise control, gestures, equalizer
and connection settings.

If no command is specified, the interactive dashboard will launch.`,
	Version:           version.Version,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsTerminal() {
			return cmd.Help()
		}
		return runTUI(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/budsctl/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&deviceAddr, "device", "d", "", "Device Bluetooth address (skips BlueZ lookup)")
	rootCmd.PersistentFlags().StringVar(&deviceName, "name", "", "Preferred device name when several are paired")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "Force a device profile instead of matching by name")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture-dir", "", "Directory for JSON lines packet captures")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.DeviceAddress = deviceAddr
	}
	if flags.Changed("name") {
		cfg.DeviceName = deviceName
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("capture-dir") {
		cfg.CaptureDir = captureDir
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return logging.Initialize(cfg.LogLevel)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("budsctl %s\n", version.Full())
		fmt.Printf("built with %s\n", version.Platform())
	},
}
