// Package paths provides path resolution for cback's own files and for the
// optical drives it can drive.
//
// # XDG Base Directory Compliance
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. On Linux, paths follow XDG conventions
// (~/.config, ~/.local/share):
//
//	paths.ConfigFile() // ~/.config/cback/config.yaml
//	paths.LogDir()     // ~/.local/share/cback/logs/
//
// # Devices
//
// [OpticalDevices] globs the usual Linux device nodes for optical drives
// (sr*, cdrw*, cdrom*, dvd*) so callers can offer a choice of device.
package paths
