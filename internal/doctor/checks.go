package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/cback/internal/config"
	"github.com/thoreinstein/cback/internal/paths"
	"github.com/thoreinstein/cback/pkg/fileutil"
)

// maxSecureFilePerm is the maximum secure permission for config files (-rw-r--r--).
const maxSecureFilePerm os.FileMode = 0644

// PathTarget is a file or directory inspected by PathPermissionCheck.
type PathTarget struct {
	Path string
	// Role names the path in reports, e.g. "config file" or "working directory".
	Role string
	Dir  bool
	// Required paths must exist. Optional paths are skipped when missing.
	Required bool
}

// PathPermissionCheck validates the paths cback reads and writes: the
// configuration directory and file, and the working directory where images
// are staged.
type PathPermissionCheck struct {
	targets []PathTarget
	issues  []pathIssue
}

var (
	_ Check = (*PathPermissionCheck)(nil)
	_ Fixer = (*PathPermissionCheck)(nil)
)

// NewPathPermissionCheck creates a new path permission check.
func NewPathPermissionCheck(targets ...PathTarget) *PathPermissionCheck {
	return &PathPermissionCheck{targets: targets}
}

// Name returns the unique identifier for this check.
func (c *PathPermissionCheck) Name() string {
	return "path-permissions"
}

// Category returns the grouping for this check.
func (c *PathPermissionCheck) Category() string {
	return "filesystem"
}

// Run executes the path and permission diagnostic check.
func (c *PathPermissionCheck) Run() *CheckResult {
	var issues []pathIssue
	var checked int

	for _, target := range c.targets {
		if target.Path == "" {
			continue
		}
		if target.Dir {
			issues = append(issues, c.checkDirectory(target)...)
		} else {
			issues = append(issues, c.checkFile(target)...)
		}
		checked++
	}

	c.issues = issues
	return c.buildResult(issues, checked)
}

// pathIssue represents a single path or permission problem.
type pathIssue struct {
	Path        string
	Role        string
	Type        string // "file" or "directory"
	Problem     string
	Severity    Severity
	Permissions string // octal representation if available
	Fixable     bool
	FixHint     string
}

func missingIssue(target PathTarget, kind string) []pathIssue {
	if !target.Required {
		return nil
	}
	return []pathIssue{{
		Path:     target.Path,
		Role:     target.Role,
		Type:     kind,
		Problem:  kind + " does not exist",
		Severity: SeverityError,
		FixHint:  "mkdir -p " + target.Path,
	}}
}

// checkFile validates a file path and permissions.
func (c *PathPermissionCheck) checkFile(target PathTarget) []pathIssue {
	var issues []pathIssue
	path := target.Path

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return missingIssue(target, "file")
	}
	if err != nil {
		issues = append(issues, pathIssue{
			Path:     path,
			Role:     target.Role,
			Type:     "file",
			Problem:  fmt.Sprintf("cannot stat file: %v", err),
			Severity: SeverityError,
		})
		return issues
	}

	// Check if file is readable
	f, err := os.Open(path)
	if err != nil {
		issues = append(issues, pathIssue{
			Path:        path,
			Role:        target.Role,
			Type:        "file",
			Problem:     "file is not readable",
			Severity:    SeverityError,
			Permissions: formatPermissions(info.Mode()),
			FixHint:     "chmod 600 " + path,
		})
		return issues
	}
	f.Close()

	// Check permissions (skip on Windows where Unix permissions don't apply)
	if runtime.GOOS != "windows" {
		issues = append(issues, c.checkFilePermissions(target, info.Mode())...)
	}

	return issues
}

// checkDirectory validates a directory path and permissions.
func (c *PathPermissionCheck) checkDirectory(target PathTarget) []pathIssue {
	var issues []pathIssue
	path := target.Path

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return missingIssue(target, "directory")
	}
	if err != nil {
		issues = append(issues, pathIssue{
			Path:     path,
			Role:     target.Role,
			Type:     "directory",
			Problem:  fmt.Sprintf("cannot stat directory: %v", err),
			Severity: SeverityError,
		})
		return issues
	}

	if !info.IsDir() {
		issues = append(issues, pathIssue{
			Path:     path,
			Role:     target.Role,
			Type:     "directory",
			Problem:  "expected directory but found file",
			Severity: SeverityError,
		})
		return issues
	}

	// Images are staged in required directories, so an unwritable one is fatal.
	writable, err := c.isDirectoryWritable(path)
	if err != nil || !writable {
		severity := SeverityWarning
		if target.Required {
			severity = SeverityError
		}
		issues = append(issues, pathIssue{
			Path:        path,
			Role:        target.Role,
			Type:        "directory",
			Problem:     "directory is not writable",
			Severity:    severity,
			Permissions: formatPermissions(info.Mode()),
			FixHint:     "chmod u+w " + path,
		})
	}

	// Check permissions (skip on Windows where Unix permissions don't apply)
	if runtime.GOOS != "windows" {
		issues = append(issues, c.checkDirectoryPermissions(target, info.Mode())...)
	}

	return issues
}

// checkFilePermissions validates file permissions for security concerns.
func (c *PathPermissionCheck) checkFilePermissions(target PathTarget, mode os.FileMode) []pathIssue {
	var issues []pathIssue
	perm := mode.Perm()
	hint := fmt.Sprintf("chmod %o %s", fileutil.DefaultFilePerm, target.Path)

	// World-writable is always a security concern
	if perm&0002 != 0 {
		issues = append(issues, pathIssue{
			Path:        target.Path,
			Role:        target.Role,
			Type:        "file",
			Problem:     "file is world-writable (security risk)",
			Severity:    SeverityWarning,
			Permissions: formatPermissions(mode),
			Fixable:     true,
			FixHint:     hint,
		})
		return issues
	}

	// Command overrides in the config name binaries run as the backup user,
	// so the file must not be group-writable either.
	if perm > maxSecureFilePerm || perm&0020 != 0 {
		issues = append(issues, pathIssue{
			Path:        target.Path,
			Role:        target.Role,
			Type:        "file",
			Problem:     fmt.Sprintf("file has overly permissive permissions (mode %s, expected %s or less)", formatPermissions(mode), formatOctal(maxSecureFilePerm)),
			Severity:    SeverityWarning,
			Permissions: formatPermissions(mode),
			Fixable:     true,
			FixHint:     hint,
		})
	}

	return issues
}

// checkDirectoryPermissions validates directory permissions for security concerns.
func (c *PathPermissionCheck) checkDirectoryPermissions(target PathTarget, mode os.FileMode) []pathIssue {
	var issues []pathIssue
	perm := mode.Perm()

	// Shared scratch directories such as /var/tmp are world-writable with the
	// sticky bit set, which is fine.
	if perm&0002 != 0 && mode&os.ModeSticky == 0 {
		issues = append(issues, pathIssue{
			Path:        target.Path,
			Role:        target.Role,
			Type:        "directory",
			Problem:     "directory is world-writable (security risk)",
			Severity:    SeverityWarning,
			Permissions: formatPermissions(mode),
			Fixable:     true,
			FixHint:     fmt.Sprintf("chmod %o %s", paths.DefaultDirPerm, target.Path),
		})
	}

	return issues
}

// isDirectoryWritable tests if a directory is writable by creating a temp file.
func (c *PathPermissionCheck) isDirectoryWritable(path string) (bool, error) {
	tmpFile, err := os.CreateTemp(path, ".cback-doctor-test-*")
	if err != nil {
		return false, err
	}

	// Clean up the test file
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	os.Remove(tmpPath)

	return true, nil
}

// buildResult constructs the final CheckResult from accumulated issues.
func (c *PathPermissionCheck) buildResult(issues []pathIssue, checked int) *CheckResult {
	if len(issues) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  fmt.Sprintf("all %d paths have valid permissions", checked),
		}
	}

	// Find the highest severity among all issues
	highestSeverity := SeverityPass
	for _, issue := range issues {
		if issue.Severity > highestSeverity {
			highestSeverity = issue.Severity
		}
	}

	details := make(map[string]any)
	details["checked_paths"] = checked
	details["issue_count"] = len(issues)

	issueDetails := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		issueMap := map[string]any{
			"path":     issue.Path,
			"role":     issue.Role,
			"type":     issue.Type,
			"problem":  issue.Problem,
			"severity": issue.Severity.String(),
		}
		if issue.Permissions != "" {
			issueMap["permissions"] = issue.Permissions
		}
		if issue.FixHint != "" {
			issueMap["fix_hint"] = issue.FixHint
		}
		issueDetails = append(issueDetails, issueMap)
	}
	details["issues"] = issueDetails

	fixable := false
	var fixHints []string
	for _, issue := range issues {
		if issue.FixHint != "" {
			fixHints = append(fixHints, issue.FixHint)
		}
		if issue.Fixable {
			fixable = true
		}
	}

	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   highestSeverity,
		Message:  fmt.Sprintf("found %d permission issue(s) across %d paths", len(issues), checked),
		Details:  details,
		Fixable:  fixable,
	}

	if len(fixHints) > 0 {
		result.FixHint = strings.Join(fixHints, "; ")
	}

	return result
}

// formatPermissions returns a human-readable permission string (e.g., "0644").
func formatPermissions(mode os.FileMode) string {
	return fmt.Sprintf("%04o", mode.Perm())
}

// formatOctal returns the octal representation of a file mode.
func formatOctal(mode os.FileMode) string {
	return fmt.Sprintf("%04o", mode)
}

// ConfigSyntaxCheck validates configuration file syntax. YAML is the
// default format; TOML and JSON files are accepted by extension.
type ConfigSyntaxCheck struct {
	path string
}

var _ Check = (*ConfigSyntaxCheck)(nil)

// NewConfigSyntaxCheck creates a ConfigSyntaxCheck for the file at path.
func NewConfigSyntaxCheck(path string) *ConfigSyntaxCheck {
	return &ConfigSyntaxCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *ConfigSyntaxCheck) Name() string {
	return "config-syntax"
}

// Category returns the grouping for this check.
func (c *ConfigSyntaxCheck) Category() string {
	return "config"
}

// Run parses the configuration file and reports the first syntax error.
func (c *ConfigSyntaxCheck) Run() *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Details:  map[string]any{"path": c.path},
	}

	data, err := fileutil.ReadFileWithLimit(c.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Status = SeverityInfo
		result.Message = "no config file found; defaults are in effect"
		result.FixHint = "run: cback init"
		return result
	case errors.Is(err, os.ErrPermission):
		result.Status = SeverityError
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("read error: %v", err)
		return result
	}

	if len(data) == 0 {
		result.Message = "config file is empty; defaults are in effect"
		return result
	}

	if msg := validateSyntax(c.path, data); msg != "" {
		result.Status = SeverityError
		result.Message = msg
		result.FixHint = "fix the syntax error, or run: cback config edit"
		return result
	}

	result.Message = "config file parsed successfully"
	return result
}

// validateSyntax returns a description of the first syntax error in data,
// or "" if it parses.
func validateSyntax(path string, data []byte) string {
	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &v); err != nil {
			return formatJSONError(err, data)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &v); err != nil {
			return formatTOMLError(err)
		}
	default:
		if err := yaml.Unmarshal(data, &v); err != nil {
			return formatYAMLError(err)
		}
	}
	return ""
}

// formatYAMLError keeps yaml.v3's own position text, which already names
// the line.
func formatYAMLError(err error) string {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return "YAML type error: " + strings.Join(typeErr.Errors, "; ")
	}
	return "YAML syntax error: " + strings.TrimPrefix(err.Error(), "yaml: ")
}

// formatJSONError extracts position information from JSON syntax errors.
func formatJSONError(err error, data []byte) string {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(data, int(syntaxErr.Offset))
		return fmt.Sprintf("JSON syntax error at line %d, column %d: %s", line, col, syntaxErr.Error())
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(data, int(typeErr.Offset))
		return fmt.Sprintf("JSON type error at line %d, column %d: %s", line, col, typeErr.Error())
	}

	return fmt.Sprintf("JSON error: %v", err)
}

// formatTOMLError extracts position information from TOML decode errors.
func formatTOMLError(err error) string {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		return fmt.Sprintf("TOML syntax error at line %d, column %d: %s",
			row, col, decodeErr.Error())
	}
	return fmt.Sprintf("TOML error: %v", err)
}

// offsetToLineCol converts a byte offset to line and column numbers.
// Lines and columns are 1-indexed.
func offsetToLineCol(data []byte, offset int) (line, col int) {
	if offset > len(data) {
		offset = len(data)
	}
	if offset < 0 {
		offset = 0
	}

	line = 1
	lineStart := 0

	for i := range offset {
		if data[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	col = offset - lineStart + 1
	return line, col
}

// ConfigValidationCheck applies config.Validate to the loaded
// configuration.
type ConfigValidationCheck struct {
	cfg *config.Config
}

var _ Check = (*ConfigValidationCheck)(nil)

// NewConfigValidationCheck creates a check for cfg. A nil cfg means the
// configuration could not be loaded.
func NewConfigValidationCheck(cfg *config.Config) *ConfigValidationCheck {
	return &ConfigValidationCheck{cfg: cfg}
}

// Name returns the unique identifier for this check.
func (c *ConfigValidationCheck) Name() string {
	return "config-values"
}

// Category returns the grouping for this check.
func (c *ConfigValidationCheck) Category() string {
	return "config"
}

// Run validates every field and lists each problem found.
func (c *ConfigValidationCheck) Run() *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
	}
	if c.cfg == nil {
		result.Status = SeverityInfo
		result.Message = "configuration could not be loaded; see config-syntax"
		return result
	}

	errs := config.Validate(c.cfg)
	if len(errs) == 0 {
		result.Message = "configuration values are valid"
		return result
	}

	problems := make([]string, 0, len(errs))
	for _, err := range errs {
		problems = append(problems, err.Error())
	}
	result.Status = SeverityError
	result.Message = fmt.Sprintf("%d invalid configuration value(s)", len(errs))
	result.Details = map[string]any{"errors": problems}
	result.FixHint = "run: cback config set <key> <value>"
	return result
}
