package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/profile"
	"github.com/muurk/budsctl/internal/protocol"
	"github.com/muurk/budsctl/internal/store"
	"github.com/muurk/budsctl/internal/transport"
	"github.com/muurk/budsctl/internal/ui"
)

var (
	decodeFamily  string
	replayVerbose bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode raw bytes and show what the profile would store",
	Long: `Decode one or more packets from hex and run them through a profile's
handlers, without touching Bluetooth.

Spaces and colons in the hex string are ignored. The profile comes from
--profile; without it the first framed profile is used, or the first
AirPods profile with --family aap.`,
	Example: `  # A frame copied from a capture or a debug log
  budsctl decode "$(cat frame.hex)" -p "HUAWEI FreeBuds 4i"

  # An AirPods notification
  budsctl decode --family aap "04 00 04 00 ..."`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

var replayCmd = &cobra.Command{
	Use:   "replay <capture.jsonl>",
	Short: "Replay a capture file through a profile's handlers",
	Long: `Replay the inbound packets of a capture file recorded with --capture-dir
and print the properties they produce.`,
	Example: `  budsctl run --capture-dir ./captures
  budsctl replay ./captures/capture-20260101-120000.jsonl -p "HUAWEI FreeBuds 5i"`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeFamily, "family", "framed", "Packet family: framed or aap")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Print every packet")
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(replayCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	printer := ui.NewPrinter(os.Stdout)

	raw, err := parseHex(args[0])
	if err != nil {
		return err
	}

	kind, err := familyKind(decodeFamily)
	if err != nil {
		return err
	}
	p, err := offlineProfile(kind)
	if err != nil {
		return err
	}

	pkts, errs := transport.NewCodec(kind).Decode(raw)
	for _, err := range errs {
		printer.Println(ui.ErrorMessageStyle.Render("decode error: " + err.Error()))
	}
	if len(pkts) == 0 {
		return fmt.Errorf("no complete packet in %d bytes", len(raw))
	}

	st := store.New()
	disp := offlineDispatcher(st, p)
	for _, pkt := range pkts {
		printer.Println(pkt.String())
		dispatchOffline(printer, disp, pkt)
	}

	printSnapshot(printer, p, st)
	return nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	printer := ui.NewPrinter(os.Stdout)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := transport.ReadCapture(f)
	if err != nil {
		return err
	}

	// The capture does not name the device; the family of the first
	// inbound record decides the default profile.
	kind := profile.RFCOMM
	for _, rec := range records {
		if rec.Direction == transport.DirectionIn {
			if kind, err = familyKind(rec.Family); err != nil {
				return err
			}
			break
		}
	}
	p, err := offlineProfile(kind)
	if err != nil {
		return err
	}

	st := store.New()
	disp := offlineDispatcher(st, p)
	codec := transport.NewCodec(p.Transport.Kind)

	var inbound, failed int
	for i, rec := range records {
		if rec.Direction != transport.DirectionIn {
			continue
		}
		inbound++

		raw, err := rec.Bytes()
		if err != nil {
			failed++
			printer.Println(ui.ErrorMessageStyle.Render(fmt.Sprintf("record %d: %v", i+1, err)))
			continue
		}
		pkts, errs := codec.Decode(raw)
		for _, err := range errs {
			failed++
			printer.Println(ui.ErrorMessageStyle.Render(fmt.Sprintf("record %d: %v", i+1, err)))
		}
		for _, pkt := range pkts {
			if replayVerbose {
				printer.Println(rec.Time.Format("15:04:05.000") + "  " + pkt.String())
			}
			dispatchOffline(printer, disp, pkt)
		}
	}

	printer.Println(fmt.Sprintf("Replayed %d inbound of %d records (%d errors) with %s", inbound, len(records), failed, p.Name))
	printSnapshot(printer, p, st)
	return nil
}

// parseHex accepts "5a000c", "5a 00 0c" and "5a:00:0c".
func parseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	clean = strings.TrimPrefix(strings.ToLower(clean), "0x")
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return raw, nil
}

func familyKind(family string) (profile.Kind, error) {
	switch strings.ToLower(family) {
	case protocol.FamilyFramed.String(), "rfcomm":
		return profile.RFCOMM, nil
	case protocol.FamilyAccessory.String(), "l2cap":
		return profile.L2CAP, nil
	}
	return 0, fmt.Errorf("unknown packet family %q (want framed or aap)", family)
}

// offlineProfile returns the --profile profile, or a default one for kind.
// A forced profile must speak the same family as the bytes.
func offlineProfile(kind profile.Kind) (*profile.Profile, error) {
	reg := profile.Default()
	if profileName != "" {
		build, err := profileOverride(reg)
		if err != nil {
			return nil, err
		}
		p := build()
		if p.Transport.Kind != kind && !p.Probe {
			return nil, fmt.Errorf("profile %s speaks %s, not %s", p.Name, p.Transport.Kind, kind)
		}
		return p, nil
	}
	if kind == profile.L2CAP {
		return profile.AirPodsPro(), nil
	}
	return profile.FreeBudsPro3(), nil
}

func offlineDispatcher(st *store.Store, p *profile.Profile) *device.Dispatcher {
	disp := device.NewDispatcher(st, p.Handlers...)
	disp.SetUnclaimedLevel(zapcore.InfoLevel)
	return disp
}

// dispatchOffline runs pkt through the handlers. Follow-up packets would
// go to the device and are only shown.
func dispatchOffline(printer *ui.Printer, disp *device.Dispatcher, pkt protocol.Packet) {
	replies, faults := disp.Dispatch(pkt)
	for _, f := range faults {
		printer.Println(ui.ErrorMessageStyle.Render("  handler fault: " + f.Error()))
	}
	for _, r := range replies {
		printer.Println(ui.OptionsStyle.Render("  would send " + r.String()))
	}
}

func printSnapshot(printer *ui.Printer, p *profile.Profile, st *store.Store) {
	printer.Newline()
	body := ui.RenderProperties(st.Snapshot(), printer.Width())
	if body == "" {
		printer.Println("No properties decoded for " + p.Name)
		return
	}
	printer.Println(body)
}
