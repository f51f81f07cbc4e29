package commands

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/cback/internal/paths"
	"github.com/thoreinstein/cback/internal/writer"
)

// devRoot is where device list looks for optical drives.
var devRoot = "/dev"

func init() {
	deviceCmd.AddCommand(deviceInfoCmd)
	deviceCmd.AddCommand(deviceListCmd)
	rootCmd.AddCommand(deviceCmd)
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Inspect optical drives",
	Long: `Inspect the configured optical drive or list the drives present on this
system.

Without a subcommand, shows the configured drive.`,
	Example: `  # Show the configured drive and the capabilities it reports
  cback device info

  # List optical drives
  cback device list

See Also: cback init, cback capacity`,
	RunE: runDeviceInfo,
}

var deviceInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the configured drive",
	Long: `Show the configured drive, the media it expects, and the capabilities
reported by the burner.

For CD drives the capabilities are read with cdrecord -prcap. DVD drives
are not probed.`,
	Args: cobra.NoArgs,
	RunE: runDeviceInfo,
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List optical drives",
	Long:  `List the optical drive device nodes found under /dev.`,
	Args:  cobra.NoArgs,
	RunE:  runDeviceList,
}

func runDeviceInfo(cmd *cobra.Command, _ []string) error {
	cfg, w, err := openWriter(cmd)
	if err != nil {
		return err
	}

	caps := w.Capabilities()
	speed := "drive default"
	if s := w.DriveSpeed(); s != nil {
		speed = strconv.Itoa(*s) + "x"
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{"Device", w.Device()})
	t.AppendRow(table.Row{"Device type", cfg.Store.DeviceType})
	if w.ScsiID() != "" {
		t.AppendRow(table.Row{"SCSI ID", w.ScsiID()})
	}
	t.AppendRow(table.Row{"Hardware ID", w.HardwareID()})
	t.AppendRow(table.Row{"Media", w.Media().Type().String()})
	t.AppendRow(table.Row{"Rewritable", boolWord(w.IsRewritable())})
	t.AppendRow(table.Row{"Drive speed", speed})
	t.AppendSeparator()
	if caps.DeviceVendor != "" || caps.DeviceID != "" {
		t.AppendRow(table.Row{"Vendor", caps.DeviceVendor})
		t.AppendRow(table.Row{"Model", caps.DeviceID})
	}
	if caps.BufferSize > 0 {
		t.AppendRow(table.Row{"Buffer", humanize.IBytes(uint64(caps.BufferSize))})
	}
	t.AppendRow(table.Row{"Multisession", boolWord(caps.SupportsMultisession)})
	t.AppendRow(table.Row{"Tray", boolWord(caps.HasTray)})
	t.AppendRow(table.Row{"Can eject", boolWord(caps.CanEject)})
	t.Render()
	return nil
}

func runDeviceList(cmd *cobra.Command, _ []string) error {
	devices, err := paths.OpticalDevices(devRoot)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(devices) == 0 {
		fmt.Fprintln(out, "No optical drives found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Device", "Writable"})
	for _, dev := range devices {
		t.AppendRow(table.Row{dev, boolWord(writer.ValidateDevice(dev, false) == nil)})
	}
	t.Render()
	return nil
}
