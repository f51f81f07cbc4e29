package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/cback/internal/medialabel"
	"github.com/thoreinstein/cback/internal/store"
)

var mediaYes bool

func init() {
	mediaInitCmd.Flags().BoolVarP(&mediaYes, "yes", "y", false,
		"do not ask for confirmation")
	mediaCmd.AddCommand(mediaLabelCmd)
	mediaCmd.AddCommand(mediaCheckCmd)
	mediaCmd.AddCommand(mediaInitCmd)
	rootCmd.AddCommand(mediaCmd)
}

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Inspect and prepare backup media",
	Long: `Inspect and prepare the disc in the configured drive.

cback labels the rewritable media it prepares so that a backup never
overwrites a disc it does not own.`,
	Example: `  # Show the disc label
  cback media label

  # Check that the disc may be written
  cback media check

  # Prepare a new rewritable disc
  cback media init

See Also: cback write, cback store`,
}

var mediaLabelCmd = &cobra.Command{
	Use:   "label",
	Short: "Show the volume label of the loaded disc",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, w, err := openWriter(cmd)
		if err != nil {
			return err
		}
		label, err := medialabel.Read(w.Device())
		if err != nil {
			return err
		}
		if label == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "(no label)")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), label)
		return nil
	},
}

var mediaCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the loaded disc was prepared by cback",
	Long: `Check that the loaded disc carries a cback label.

Rewritable media must have been prepared with 'cback media init'.
Write-once media may be unlabeled, but a foreign label is rejected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, w, err := openWriter(cmd)
		if err != nil {
			return err
		}
		if err := medialabel.CheckMediaState(commandContext(cmd), w.Device(), w.IsRewritable()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Media in %s is ready for backups\n", w.Device())
		return nil
	},
}

var mediaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Blank and label a rewritable disc",
	Long: `Blank the loaded rewritable disc and write a small image carrying a
cback label, so later checks accept it.

Everything on the disc is lost. Write-once media cannot be initialized.`,
	Args: cobra.NoArgs,
	RunE: runMediaInit,
}

func runMediaInit(cmd *cobra.Command, _ []string) error {
	cfg, w, err := openWriter(cmd)
	if err != nil {
		return err
	}

	if !mediaYes {
		ok, err := newSelector(cmd).Confirm(
			fmt.Sprintf("Erase the disc in %s?", w.Device()), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	if err := store.InitializeMedia(commandContext(cmd), w, cfg.WorkingDir, timeNow()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized media in %s\n", w.Device())
	return nil
}
