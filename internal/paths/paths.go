package paths

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName names the cback directories under the XDG base directories.
const AppName = "cback"

// ConfigFileName is the name of the configuration file inside ConfigDir.
const ConfigFileName = "config.yaml"

// DefaultWorkingDir receives temporary images when no working directory is
// configured.
const DefaultWorkingDir = "/var/tmp"

// opticalDevicePatterns are the device nodes offered when choosing a drive.
var opticalDevicePatterns = []string{"sr*", "cdrw*", "cdrom*", "dvd*", "dvdrw*"}

// Sentinel errors for path resolution.
var (
	// ErrInvalidPath indicates the provided path is malformed or invalid.
	ErrInvalidPath = errors.New("invalid path")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
func ConfigHome() string {
	return xdg.ConfigHome
}

// DataHome returns the XDG data home directory.
func DataHome() string {
	return xdg.DataHome
}

// ConfigDir returns the cback configuration directory.
// Returns: <ConfigHome>/cback/
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// ConfigFile returns the default configuration file path.
// Returns: <ConfigHome>/cback/config.yaml
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// LogDir returns the directory suggested for --log-file output.
// Returns: <DataHome>/cback/logs/
func LogDir() string {
	return filepath.Join(DataHome(), AppName, "logs")
}

// OpticalDevices lists the optical drive nodes under devRoot (normally
// /dev), sorted and without duplicates.
func OpticalDevices(devRoot string) ([]string, error) {
	if devRoot == "" {
		return nil, ErrInvalidPath
	}
	var found []string
	for _, pattern := range opticalDevicePatterns {
		matches, err := filepath.Glob(filepath.Join(devRoot, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "matching %s", pattern)
		}
		found = append(found, matches...)
	}
	slices.Sort(found)
	return slices.Compact(found), nil
}
