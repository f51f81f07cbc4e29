package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/utils/exec"

	"github.com/thoreinstein/cback/internal/config"
	clierrors "github.com/thoreinstein/cback/internal/errors"
	"github.com/thoreinstein/cback/internal/paths"
	"github.com/thoreinstein/cback/internal/store"
	"github.com/thoreinstein/cback/internal/validator"
	"github.com/thoreinstein/cback/internal/writer"
	"github.com/thoreinstein/cback/pkg/fileutil"
)

var (
	configFormat       string
	configValidateJSON bool
)

// editorExec runs $EDITOR for config edit.
var editorExec exec.Interface = exec.New()

// errConfigProblems is returned by config validate after the report has
// been printed.
var errConfigProblems = errors.New("configuration has errors")

// configKeys are the keys accepted by config set, besides commands.<name>.
var configKeys = []string{
	"version",
	"working_dir",
	"store.device_type",
	"store.media_type",
	"store.device_path",
	"store.scsi_id",
	"store.drive_speed",
	"store.no_eject",
	"store.check_media",
	"store.starting_day",
	"store.refresh_media_delay",
	"store.eject_delay",
	"store.blank_behavior.mode",
	"store.blank_behavior.factor",
}

func init() {
	configCmd.PersistentFlags().StringVar(&configFormat, "format", "yaml",
		"output format for list: yaml, toml, json")
	configValidateCmd.Flags().BoolVar(&configValidateJSON, "json", false,
		"output as JSON")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cback configuration",
	Long: `Manage cback configuration stored in ~/.config/cback/config.yaml.

Without a subcommand, lists all configuration values. Any value can be
overridden from the environment, e.g. CBACK_STORE_DEVICE_PATH=/dev/sr1.`,
	Example: `  # List all configuration
  cback config

  # Get a specific value
  cback config get store.device_path

  # Set a value
  cback config set store.drive_speed 4

  # Check the configuration for mistakes
  cback config validate

See Also: cback init, cback doctor`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Supports dot notation for nested keys.`,
	Example: `  # Get the drive
  cback config get store.device_path

  # Get the tool overrides
  cback config get commands

See Also: cback config set, cback config list`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write the configuration file.

The resulting configuration is validated before it is written. Tool
paths are set with commands.<name>.`,
	Example: `  # Use the second drive
  cback config set store.device_path /dev/sr1

  # Use a specific cdrecord
  cback config set commands.cdrecord /usr/local/bin/cdrecord

See Also: cback config get, cback config list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values, including defaults, in YAML, TOML or JSON.`,
	Example: `  # List all configuration
  cback config list

  # As TOML
  cback config list --format toml

See Also: cback config get, cback config set`,
	RunE: runConfigList,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $EDITOR environment variable, or falls back to vi.
If no configuration file exists, prints an error suggesting to run 'cback init'.`,
	Example: `  # Open config in default editor
  cback config edit

  # Open with specific editor
  EDITOR=nano cback config edit

See Also: cback config list, cback init`,
	RunE: runConfigEdit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for mistakes",
	Long: `Check the configuration for invalid values and for settings that are
accepted but probably unintended.

Exits with status 1 when the configuration has errors. Warnings and
notes are reported but do not fail.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

// configPath returns the file config set and edit operate on.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return paths.ConfigFile()
}

// formatForPath picks the encoding of a config file from its extension.
func formatForPath(path string) fileutil.Format {
	if f, err := fileutil.ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return fileutil.FormatYAML
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	out := cmd.OutOrStdout()

	if !viper.IsSet(key) {
		fmt.Fprintln(out, "not set")
		return nil
	}

	switch v := viper.Get(key).(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s: %v\n", k, v[k])
		}
	default:
		fmt.Fprintln(out, viper.GetString(key))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	value := args[1]

	if !slices.Contains(configKeys, key) && !strings.HasPrefix(key, "commands.") {
		return clierrors.NewUserError(errors.Newf("unknown configuration key %q", key),
			"Valid keys: "+strings.Join(configKeys, ", ")+", commands.<name>")
	}
	if configLoadErr != nil {
		return clierrors.NewConfigError(configLoadErr)
	}

	viper.Set(key, value)
	if strings.HasPrefix(key, "store.blank_behavior.") {
		// Setting either half of the behavior enables it.
		viper.SetDefault("store.blank_behavior.mode", string(store.BlankWeekly))
		viper.SetDefault("store.blank_behavior.factor", 1.0)
	}
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return clierrors.NewUserError(errors.Wrapf(err, "setting %s", key), "")
	}
	if errs := config.Validate(&cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return clierrors.NewUserError(errors.Newf("setting %s: %s", key, strings.Join(msgs, "; ")), "")
	}

	if err := writeConfig(configPath(), &cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configLoadErr != nil {
		return clierrors.NewConfigError(configLoadErr)
	}
	format, err := fileutil.ParseFormat(configFormat)
	if err != nil {
		return clierrors.NewUserError(err, "")
	}

	cfg := loadedConfig
	if cfg == nil {
		cfg = config.Default()
	}
	data, err := fileutil.Encode(format, cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := configPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return clierrors.NewUserError(errors.Newf("config file not found at %s", path), clierrors.SuggestInit)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := editorExec.Command(editor, path)
	c.SetStdin(cmd.InOrStdin())
	c.SetStdout(cmd.OutOrStdout())
	c.SetStderr(cmd.ErrOrStderr())
	if err := c.Run(); err != nil {
		return errors.Wrap(err, "running editor")
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if configLoadErr != nil {
		return clierrors.NewConfigError(configLoadErr)
	}
	format := validator.FormatText
	if configValidateJSON {
		format = validator.FormatJSON
	}

	cfg := loadedConfig
	if cfg == nil {
		cfg = config.Default()
	}
	result := config.Lint(cfg)
	result.Merge(lintDevice(cfg))
	if err := validator.NewReporter(cmd.OutOrStdout(), format).Report(result); err != nil {
		return err
	}
	if result.HasErrors() {
		return errConfigProblems
	}
	return nil
}

// lintDevice warns when the configured drive is not usable on this
// machine. The configuration may have been written for another host, so
// this is never an error.
func lintDevice(cfg *config.Config) *validator.Result {
	result := &validator.Result{}
	device := cfg.Store.DevicePath
	if !filepath.IsAbs(device) {
		return result
	}
	if err := writer.ValidateDevice(device, false); err != nil {
		result.AddWarning("store.device_path", "is not a writable device on this system", device)
	}
	return result
}

// writeConfig writes cfg to path in the format its extension names,
// creating the directory when needed.
func writeConfig(path string, cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteEncoded(path, formatForPath(path), cfg, fileutil.DefaultFilePerm); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}
