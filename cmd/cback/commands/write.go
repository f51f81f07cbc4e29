package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	clierrors "github.com/thoreinstein/cback/internal/errors"
	"github.com/thoreinstein/cback/internal/medialabel"
)

var (
	writeImage    string
	writeNewDisc  bool
	writeNoMulti  bool
	writeLabel    string
	writeEstimate bool
)

func init() {
	writeCmd.Flags().StringVar(&writeImage, "image", "",
		"burn an existing ISO image (absolute path) instead of staging entries")
	writeCmd.Flags().BoolVar(&writeNewDisc, "new-disc", false,
		"blank rewritable media and start a new disc")
	writeCmd.Flags().BoolVar(&writeNoMulti, "no-multi", false,
		"close the disc instead of leaving it open for another session")
	writeCmd.Flags().StringVar(&writeLabel, "label", "",
		"volume label for the staged image (default: a dated cback label)")
	writeCmd.Flags().BoolVar(&writeEstimate, "estimate", false,
		"print the estimated image size and exit without burning")
	writeCmd.MarkFlagsMutuallyExclusive("image", "label")
	writeCmd.MarkFlagsMutuallyExclusive("image", "estimate")
	rootCmd.AddCommand(writeCmd)
}

var writeCmd = &cobra.Command{
	Use:   "write [path[=graft-point]]...",
	Short: "Burn files, directories or an ISO image to disc",
	Long: `Burn files and directories to the loaded disc, or burn an existing image.

Each path is staged into a new image. A path may carry a graft point,
the directory it is placed under on the disc, separated by "=". Without
one, the path is placed at the root of the disc.

The staged image is checked against the space available on the disc
before anything is burned. With --image, the given ISO file is burned as
is and no capacity check is made.

When store.check_media is set, the disc label is checked before writing.`,
	Example: `  # Burn two staging directories under their dated graft points
  cback write /opt/stage/2024/01/01=2024/01/01 /opt/stage/2024/01/02=2024/01/02

  # Blank the disc and start over
  cback write --new-disc /opt/stage/2024/01/01=2024/01/01

  # Burn an existing image
  cback write --image /var/tmp/backup.iso

  # See how large the image would be
  cback write --estimate /opt/stage/2024/01/01

See Also: cback capacity, cback store`,
	RunE: runWrite,
}

// parseEntry splits a "path[=graft-point]" argument. The path must be
// absolute.
func parseEntry(arg string) (path, graft string, err error) {
	path, graft, _ = strings.Cut(arg, "=")
	if path == "" {
		return "", "", errors.Newf("empty path in %q", arg)
	}
	if !filepath.IsAbs(path) {
		return "", "", errors.Newf("path %q must be absolute", path)
	}
	return filepath.Clean(path), strings.Trim(graft, "/"), nil
}

func runWrite(cmd *cobra.Command, args []string) error {
	if writeImage == "" && len(args) == 0 {
		return clierrors.NewUserError(errors.New("nothing to write"),
			"Give one or more paths, or an image with --image")
	}
	if writeImage != "" && len(args) > 0 {
		return clierrors.NewUserError(errors.New("paths cannot be combined with --image"), "")
	}

	cfg, w, err := openWriter(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if cfg.Store.CheckMedia && !writeEstimate {
		if err := medialabel.CheckMediaState(ctx, w.Device(), w.IsRewritable()); err != nil {
			return err
		}
	}

	if writeImage != "" {
		if err := w.WriteImage(ctx, writeImage, writeNewDisc, !writeNoMulti); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s to %s\n", writeImage, w.Device())
		return nil
	}

	label := writeLabel
	if label == "" {
		label = medialabel.Build(timeNow())
	}
	if err := w.InitializeImage(writeNewDisc, cfg.WorkingDir, label); err != nil {
		return err
	}
	for _, arg := range args {
		path, graft, err := parseEntry(arg)
		if err != nil {
			return clierrors.NewUserError(err, "")
		}
		if err := w.AddImageEntry(path, graft); err != nil {
			return err
		}
	}

	if writeEstimate {
		size, err := w.EstimatedImageSize(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Estimated image size: %s\n", humanize.IBytes(uint64(size)))
		return nil
	}

	if err := w.WriteImage(ctx, "", writeNewDisc, !writeNoMulti); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d %s to %s\n", len(args), plural(len(args), "entry", "entries"), w.Device())
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
