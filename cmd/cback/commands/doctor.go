package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/cback/internal/config"
	"github.com/thoreinstein/cback/internal/doctor"
	"github.com/thoreinstein/cback/internal/process"
)

var (
	doctorJSON    bool
	doctorQuiet   bool
	doctorVerbose bool
	doctorFix     bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorQuiet, "quiet", false,
		"suppress output, exit code only")
	doctorCmd.Flags().BoolVar(&doctorVerbose, "verbose", false,
		"show detailed check-by-check output")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false,
		"repair insecure file and directory permissions")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration issues",
	Long: `Run diagnostic checks on the cback configuration, the external burning
tools, and the configured drive.

Checks that the configuration parses and validates, that cdrecord or
growisofs, mkisofs and eject can be found, that the drive exists and is
writable, and that the configuration and working directories have safe
permissions.

Output modes (mutually exclusive):
  (default)   Show errors and warnings
  --verbose   Show all checks including passed ones
  --quiet     No output, exit code only
  --json      Machine-readable JSON output

Exit codes:
  0 - All checks passed (no errors or warnings)
  1 - Warnings present, no errors
  2 - Errors present`,
	PreRunE: validateDoctorFlags,
	RunE:    runDoctor,
}

// validateDoctorFlags ensures output flags are mutually exclusive.
func validateDoctorFlags(_ *cobra.Command, _ []string) error {
	count := 0
	if doctorJSON {
		count++
	}
	if doctorQuiet {
		count++
	}
	if doctorVerbose {
		count++
	}

	if count > 1 {
		return errors.New("flags --json, --quiet, and --verbose are mutually exclusive")
	}

	return nil
}

// newDoctorRunner registers every check against the loaded configuration.
// A configuration that failed to load is checked with defaults, and the
// syntax check reports why it failed.
func newDoctorRunner() *doctor.Runner {
	cfg := loadedConfig
	if cfg == nil {
		cfg = config.Default()
	}
	path := configPath()

	targets := []doctor.PathTarget{
		{Path: filepath.Dir(path), Role: "config directory", Dir: true},
		{Path: path, Role: "config file"},
		{Path: cfg.WorkingDir, Role: "working directory", Dir: true, Required: true},
	}
	if logFile != "" {
		targets = append(targets, doctor.PathTarget{Path: filepath.Dir(logFilePath()), Role: "log directory", Dir: true, Required: true})
	}

	runner := doctor.NewRunner(doctor.WithClock(appClock))
	runner.AddCheck(doctor.NewPathPermissionCheck(targets...))
	runner.AddCheck(doctor.NewConfigSyntaxCheck(path))
	if configLoadErr == nil {
		runner.AddCheck(doctor.NewConfigValidationCheck(loadedConfig))
	}
	resolver := process.NewExecutor(process.WithOverrides(cfg.Commands))
	runner.AddCheck(doctor.NewToolCheck(resolver, doctor.RequiredTools(cfg.Store.DeviceType, cfg.Store.NoEject)...))
	runner.AddCheck(doctor.NewDeviceCheck(cfg.Store.DevicePath, cfg.Store.ScsiID, devRoot))
	return runner
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	runner := newDoctorRunner()
	report := runner.Run()

	if doctorFix {
		if fixers := runner.Fixers(); len(fixers) > 0 {
			for _, f := range fixers {
				for _, res := range f.Fix() {
					if !doctorQuiet && !doctorJSON {
						outputFixResult(out, res)
					}
				}
			}
			report = runner.Run()
		}
	}

	if err := outputDoctorReport(out, report); err != nil {
		return err
	}

	// Determine exit code based on results
	if report.HasErrors() {
		return errDoctorErrors
	}
	if report.HasWarnings() {
		return errDoctorWarnings
	}
	return nil
}

func outputFixResult(w io.Writer, res doctor.FixResult) {
	if res.Fixed {
		fmt.Fprintf(w, "✓ fixed %s: %s\n", res.Path, res.Description)
		return
	}
	fmt.Fprintf(w, "✗ could not fix %s: %s\n", res.Path, res.Description)
}

func outputDoctorReport(w io.Writer, report *doctor.DoctorReport) error {
	if doctorQuiet {
		return nil
	}

	if doctorJSON {
		return outputDoctorJSON(w, report)
	}

	return outputDoctorText(w, report)
}

func outputDoctorJSON(w io.Writer, report *doctor.DoctorReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "encoding JSON")
	}
	return nil
}

func outputDoctorText(w io.Writer, report *doctor.DoctorReport) error {
	// In normal mode, show only errors and warnings
	// In verbose mode, show all checks
	showAll := doctorVerbose

	hasOutput := false
	for _, result := range report.Results {
		if !showAll && result.Status != doctor.SeverityError && result.Status != doctor.SeverityWarning {
			continue
		}

		hasOutput = true
		icon := statusIcon(result.Status)
		fmt.Fprintf(w, "%s [%s] %s: %s\n", icon, result.Category, result.Name, result.Message)
		if issues, ok := result.Details["issues"].([]map[string]any); ok {
			for _, issue := range issues {
				fmt.Fprintf(w, "  - %v: %v\n", issue["path"], issue["problem"])
			}
		}

		if result.FixHint != "" && (result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning) {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
		if result.Fixable && !doctorFix {
			fmt.Fprintln(w, "  run 'cback doctor --fix' to repair")
		}
	}

	// Print summary
	if hasOutput || showAll {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)

	return nil
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return "✓"
	case doctor.SeverityInfo:
		return "ℹ"
	case doctor.SeverityWarning:
		return "⚠"
	case doctor.SeverityError:
		return "✗"
	default:
		return "?"
	}
}

// errDoctorWarnings is a sentinel error for exit code 1.
var errDoctorWarnings = errors.New("warnings found")

// errDoctorErrors is a sentinel error for exit code 2.
var errDoctorErrors = errors.New("errors found")
