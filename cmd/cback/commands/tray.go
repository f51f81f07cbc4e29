package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/cback/internal/writer"
)

func init() {
	trayCmd.AddCommand(newTrayCmd("open", "Open the drive tray",
		"opened", writer.Writer.OpenTray))
	trayCmd.AddCommand(newTrayCmd("close", "Close the drive tray",
		"closed", writer.Writer.CloseTray))
	trayCmd.AddCommand(newTrayCmd("unlock", "Unlock the drive tray",
		"unlocked", writer.Writer.UnlockTray))
	trayCmd.AddCommand(newTrayCmd("refresh", "Cycle the tray so the drive rereads the media",
		"refreshed", writer.Writer.RefreshMedia))
	rootCmd.AddCommand(trayCmd)
}

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Control the drive tray",
	Long: `Open, close, unlock or cycle the tray of the configured drive.

Tray commands do nothing when store.no_eject is set or when the drive
reports that it has no tray or cannot eject.`,
	Example: `  # Eject the disc
  cback tray open

  # Make the drive reread a freshly burned disc
  cback tray refresh

See Also: cback device info`,
}

func newTrayCmd(use, short, done string, op func(writer.Writer, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, w, err := openWriter(cmd)
			if err != nil {
				return err
			}
			if err := op(w, commandContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tray %s: %s\n", done, w.Device())
			return nil
		},
	}
}
