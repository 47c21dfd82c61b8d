package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/budsctl/internal/preset"
	"github.com/muurk/budsctl/internal/ui"
)

var (
	presetName   string
	presetDryRun bool
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Save and apply groups of settings",
	Long: `Presets are YAML files holding the value of every changeable setting.

'preset save' records the current settings of the earbuds. 'preset apply'
changes only the settings that differ, checks that the earbuds report the
new values and restores the previous ones if they do not.`,
}

var presetSaveCmd = &cobra.Command{
	Use:     "save <file>",
	Short:   "Save the current settings to a preset file",
	Example: `  budsctl preset save ~/.config/budsctl/presets/commute.yaml --name commute`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPresetSave,
}

var presetApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Apply a preset file, rolling back on failure",
	Example: `  # Show what would change
  budsctl preset apply commute.yaml --dry-run

  budsctl preset apply commute.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetApply,
}

func init() {
	for _, c := range []*cobra.Command{presetSaveCmd, presetApplyCmd} {
		c.Flags().DurationVar(&connectTimeout, "timeout", 15*time.Second, "How long to wait for a connection")
		c.Flags().DurationVar(&settleTime, "settle", 2*time.Second, "How long to collect properties after connecting")
	}
	presetSaveCmd.Flags().StringVar(&presetName, "name", "", "Preset name (default: file name)")
	presetApplyCmd.Flags().BoolVar(&presetDryRun, "dry-run", false, "Print the changes without sending them")

	presetCmd.AddCommand(presetSaveCmd)
	presetCmd.AddCommand(presetApplyCmd)
	rootCmd.AddCommand(presetCmd)
}

func runPresetSave(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ctx, cancel := signalContext()
	defer cancel()

	printer := ui.NewPrinter(os.Stdout)
	s, _, err := connectSession(ctx, printer)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := sleepContext(ctx, settleTime); err != nil {
		return err
	}

	name := presetName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	p := preset.FromSnapshot(name, s.target.Name, s.manager.Store().Snapshot())
	if len(p.Settings) == 0 {
		printer.PrintError("Nothing to save", nil, []string{
			"The earbuds did not report any changeable setting",
			"Try a longer --settle, or check 'budsctl status'",
		})
		return fmt.Errorf("no settings reported by %s", s.target.Address)
	}

	if err := p.Save(args[0]); err != nil {
		return err
	}
	printer.PrintSuccess("Preset saved", map[string]string{
		"File":     args[0],
		"Profile":  s.profileName(),
		"Settings": strconv.Itoa(len(p.Settings)),
	})
	return nil
}

func runPresetApply(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	p, err := preset.Load(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	printer := ui.NewPrinter(os.Stdout)
	s, _, err := connectSession(ctx, printer)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := sleepContext(ctx, settleTime); err != nil {
		return err
	}

	if presetDryRun {
		steps, skipped := p.Plan(s.manager.Store().Snapshot())
		printer.Println("Changes for " + p.Name + ":")
		printer.Println(preset.FormatChanges(steps))
		for _, err := range skipped {
			printer.Println(ui.ErrorMessageStyle.Render("  skipped " + err.Error()))
		}
		return nil
	}

	res := preset.SafeApply(ctx, s.manager, p, nil)
	for _, err := range res.Skipped {
		printer.Println(ui.ErrorMessageStyle.Render("skipped " + err.Error()))
	}
	if err := res.Err(); err != nil {
		printer.PrintError("Preset failed", err, []string{
			res.String(),
			"Run with --dry-run to see what the preset changes",
			"Check the accepted values: budsctl status",
		})
		return err
	}

	printer.PrintSuccess("Preset applied", map[string]string{
		"Preset":  p.Name,
		"Changed": strconv.Itoa(len(res.Update.Applied)),
		"Checks":  strconv.Itoa(res.Update.Attempts),
	})
	return nil
}
