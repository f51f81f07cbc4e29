// Package commands implements the CLI commands for cback.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/cback/cmd"
	"github.com/thoreinstein/cback/internal/config"
	clierrors "github.com/thoreinstein/cback/internal/errors"
	"github.com/thoreinstein/cback/internal/logging"
	"github.com/thoreinstein/cback/internal/paths"
)

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configFile holds the value of the --config flag.
var configFile string

// loadedConfig is the configuration read by initConfig, and configLoadErr
// any error that occurred while reading it.
var (
	loadedConfig  *config.Config
	configLoadErr error
)

func init() {
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format; a bare file name is placed in "+paths.LogDir())
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: $XDG_CONFIG_HOME/cback/config.yaml)")

	// Add version flag
	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("cback version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	// Capture load errors for later reporting
	loadedConfig, configLoadErr = config.Load(configFile)
}

var rootCmd = &cobra.Command{
	Use:   "cback",
	Short: "Write backups to CD and DVD media",
	Long: `cback writes staged backup directories and ISO images to optical media.

It drives the external burning tools (cdrecord or growisofs, mkisofs and
eject), works out how much space is left on a disc, and keeps rewritable
media labeled so a backup never lands on the wrong disc.

The drive and media are described in ~/.config/cback/config.yaml.
Run 'cback init' to create it.`,
	Example: `  # Create a configuration, picking the drive interactively
  cback init

  # Show how much space is left on the loaded disc
  cback capacity

  # Burn two directories onto the disc
  cback write /opt/stage/2024/01/01=2024/01/01 /opt/stage/2024/01/02=2024/01/02

  # Check that the tools and drive are usable
  cback doctor

  See Also: cback init, cback doctor, cback config`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupLogging(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return clierrors.NewUserError(errors.New("cannot use --quiet and --verbose together"), "")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("CBACK_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return clierrors.NewUserError(err, "Use --log-format text or --log-format json")
	}
	logCfg := logging.Config{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	}

	if logFile != "" {
		path := logFilePath()
		if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
			return clierrors.NewUserError(errors.Wrap(err, "creating log directory"), "")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return clierrors.NewUserError(errors.Wrap(err, "opening log file"), "")
		}
		logCfg.File = f
	}

	logger := logging.New(logCfg)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// logFilePath resolves --log-file. A bare file name is placed in the log
// directory.
func logFilePath() string {
	if logFile == "" || filepath.Base(logFile) != logFile {
		return logFile
	}
	return filepath.Join(paths.LogDir(), logFile)
}

// Execute runs the root command. Errors are classified into exit errors
// and printed to stderr before being returned.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	err = classify(err)
	printError(rootCmd.ErrOrStderr(), err)
	return err
}

// ExitCode returns the process exit status for an error returned by
// Execute.
func ExitCode(err error) int {
	if err == nil {
		return clierrors.ExitSuccess
	}
	var exitErr *clierrors.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return clierrors.ExitUser
}

func printError(w io.Writer, err error) {
	// These commands have already reported their own failures.
	if errors.Is(err, errDoctorErrors) || errors.Is(err, errDoctorWarnings) || errors.Is(err, errConfigProblems) {
		return
	}
	red := color.New(color.FgRed, color.Bold)
	if !logging.SupportsColor(w) {
		red.DisableColor()
	}
	fmt.Fprintf(w, "%s %v\n", red.Sprint("Error:"), err)

	var exitErr *clierrors.ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		fmt.Fprintf(w, "  %s\n", exitErr.Suggestion)
	}
}
