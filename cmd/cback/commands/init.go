package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/cback/internal/cli/prompt"
	"github.com/thoreinstein/cback/internal/config"
	clierrors "github.com/thoreinstein/cback/internal/errors"
	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/paths"
	"github.com/thoreinstein/cback/internal/writer"
)

var (
	initYes        bool
	initForce      bool
	initDevice     string
	initDeviceType string
	initMediaType  string
)

func init() {
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Non-interactive mode, accept all defaults")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing configuration")
	initCmd.Flags().StringVar(&initDevice, "device", "", "Drive device path (default: first detected drive)")
	initCmd.Flags().StringVar(&initDeviceType, "device-type", "", "Drive type: cdwriter, dvdwriter (default: from media type)")
	initCmd.Flags().StringVar(&initMediaType, "media-type", "", "Media type: "+mediaTypeNames(false))
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cback configuration",
	Long: `Bootstrap cback configuration with optical drive detection.

Creates ~/.config/cback/config.yaml describing the drive to write to and
the media loaded in it. Drives are detected under /dev; when more than one
is found you are asked to pick.`,
	Example: `  # Initialize with interactive prompts
  cback init

  # Initialize non-interactively, accepting defaults
  cback init --yes

  # Initialize for a DVD burner
  cback init --device /dev/sr0 --media-type dvd+rw

  # Force overwrite existing configuration
  cback init --force

  See Also: cback config, cback doctor`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path := configFile
	if path == "" {
		path = paths.ConfigFile()
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(out, "Configuration already exists at %s\n", path)
		fmt.Fprintln(out, "Use --force to overwrite")
		return nil
	}

	cfg := config.Default()
	if initMediaType != "" {
		cfg.Store.MediaType = initMediaType
	}
	mt, err := cfg.Store.Media()
	if err != nil {
		return clierrors.NewUserError(err, "Use one of: "+mediaTypeNames(false))
	}
	switch {
	case initDeviceType != "":
		cfg.Store.DeviceType = initDeviceType
	case mt.IsDVD():
		cfg.Store.DeviceType = writer.DeviceTypeDVD
	}

	selector := newSelector(cmd)
	device, err := pickDevice(selector, initDevice, initYes)
	if err != nil {
		return err
	}
	cfg.Store.DevicePath = device
	if p, err := media.NewProfile(mt); err == nil {
		cfg.Store.CheckMedia = p.Rewritable()
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return clierrors.NewUserError(errors.Wrap(errs[0], "building configuration"), "")
	}

	fmt.Fprintf(out, "Drive: %s (%s, %s media)\n", cfg.Store.DevicePath, cfg.Store.DeviceType, cfg.Store.MediaType)
	if !initYes {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "This will create:")
		fmt.Fprintf(out, "  %s\n", path)
		fmt.Fprintln(out)

		ok, err := selector.Confirm("Proceed?", false)
		if err != nil && !errors.Is(err, prompt.ErrSelectionCancelled) {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	if err := writeConfig(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s\n", path)
	return nil
}

// pickDevice returns device when given, else asks the user to choose among
// the detected drives. With yes set the first drive is used.
func pickDevice(selector *prompt.Selector, device string, yes bool) (string, error) {
	if device != "" {
		abs, err := filepath.Abs(device)
		if err != nil {
			return "", errors.Wrapf(err, "resolving %s", device)
		}
		return abs, nil
	}

	devices, err := paths.OpticalDevices(devRoot)
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		return "", clierrors.NewUserError(errors.Wrap(clierrors.ErrNoDevice, "no optical drives found under "+devRoot),
			"Connect a drive or pass --device")
	}
	if yes {
		return devices[0], nil
	}

	options := make([]prompt.Option, len(devices))
	for i, dev := range devices {
		options[i] = prompt.Option{Value: dev}
		if writer.ValidateDevice(dev, false) != nil {
			options[i].Description = "not writable"
		}
	}
	choice, err := selector.Select("Select the drive to write backups to", options)
	if err != nil {
		return "", err
	}
	return choice.Value, nil
}
