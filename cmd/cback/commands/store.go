package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	clierrors "github.com/thoreinstein/cback/internal/errors"
	"github.com/thoreinstein/cback/internal/medialabel"
	"github.com/thoreinstein/cback/internal/store"
)

var (
	storeRoot    string
	storeRebuild bool
)

func init() {
	storeCmd.Flags().StringVar(&storeRoot, "root", "",
		"staging root; graft points are the directories' paths below it (default: parent of each directory)")
	storeCmd.Flags().BoolVar(&storeRebuild, "rebuild", false,
		"rewrite the disc from scratch")
	rootCmd.AddCommand(storeCmd)
}

var storeCmd = &cobra.Command{
	Use:   "store <staging-dir>...",
	Short: "Write staging directories to disc",
	Long: `Write staging directories to the disc under a fresh cback label.

Rewritable media is blanked first on the configured starting day of the
week, when --rebuild is given, or when store.blank_behavior says the
disc is nearly full. Otherwise a new session is appended.

Each directory is placed on the disc at its path below --root.`,
	Example: `  # Write today's staging directory
  cback store --root /opt/stage /opt/stage/2024/01/02

  # Start the disc over
  cback store --rebuild --root /opt/stage /opt/stage/2024/01/02

See Also: cback write, cback media init`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStore,
}

func runStore(cmd *cobra.Command, args []string) error {
	cfg, w, err := openWriter(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	dirs := make([]string, len(args))
	for i, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return errors.Wrapf(err, "resolving %s", arg)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return clierrors.NewUserError(errors.Wrapf(err, "staging directory %s", arg), "")
		}
		if !info.IsDir() {
			return clierrors.NewUserError(errors.Newf("staging directory %s is not a directory", arg), "")
		}
		dirs[i] = abs
	}

	staging := make(map[string]string, len(dirs))
	if storeRoot != "" {
		root, err := filepath.Abs(storeRoot)
		if err != nil {
			return errors.Wrapf(err, "resolving %s", storeRoot)
		}
		if staging, err = store.GraftPoints(root, dirs); err != nil {
			return clierrors.NewUserError(err, "")
		}
	} else {
		for _, dir := range dirs {
			staging[dir] = filepath.Base(dir)
		}
	}

	weekday, err := cfg.Store.Weekday()
	if err != nil {
		return clierrors.NewConfigError(err)
	}
	now := timeNow()

	if cfg.Store.CheckMedia {
		if err := medialabel.CheckMediaState(ctx, w.Device(), w.IsRewritable()); err != nil {
			return err
		}
	}

	err = store.WriteStagingDirs(ctx, w, store.Request{
		WorkingDir:   cfg.WorkingDir,
		StagingDirs:  staging,
		Rebuild:      storeRebuild,
		TodayIsStart: store.IsStartOfWeek(now, weekday),
		Blank:        cfg.Store.Blank(),
		Now:          now,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d staging %s to %s\n",
		len(staging), plural(len(staging), "directory", "directories"), w.Device())
	return nil
}
