package doctor

import (
	"fmt"
	"os"
	"strings"

	"github.com/thoreinstein/cback/internal/paths"
	"github.com/thoreinstein/cback/internal/writer"
)

// Resolver locates the binary behind a tool name. *process.Executor
// satisfies it, honoring configured command overrides.
type Resolver interface {
	Resolve(name string) (string, error)
}

// RequiredTools returns the external tools a device type needs. The eject
// tool is only needed when the drive has a tray cback may operate.
func RequiredTools(deviceType string, noEject bool) []string {
	var tools []string
	switch strings.ToLower(strings.TrimSpace(deviceType)) {
	case writer.DeviceTypeDVD:
		tools = []string{"growisofs", "mkisofs"}
	default:
		tools = []string{"cdrecord", "mkisofs"}
	}
	if !noEject {
		tools = append(tools, "eject")
	}
	return tools
}

// ToolCheck verifies that every external tool used for burning can be
// located and executed.
type ToolCheck struct {
	resolver Resolver
	tools    []string
}

var _ Check = (*ToolCheck)(nil)

// NewToolCheck creates a ToolCheck for the given tool names.
func NewToolCheck(resolver Resolver, tools ...string) *ToolCheck {
	return &ToolCheck{resolver: resolver, tools: tools}
}

// Name returns the unique identifier for this check.
func (c *ToolCheck) Name() string {
	return "external-tools"
}

// Category returns the grouping for this check.
func (c *ToolCheck) Category() string {
	return "tools"
}

// Run resolves each tool and confirms the result is an executable file.
func (c *ToolCheck) Run() *CheckResult {
	found := make(map[string]string, len(c.tools))
	var missing []string

	for _, tool := range c.tools {
		path, err := c.resolver.Resolve(tool)
		if err != nil {
			missing = append(missing, tool)
			continue
		}
		if problem := checkExecutable(path); problem != "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool, problem))
			continue
		}
		found[tool] = path
	}

	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Details:  map[string]any{"found": found},
	}
	if len(missing) > 0 {
		result.Status = SeverityError
		result.Message = "missing tools: " + strings.Join(missing, ", ")
		result.Details["missing"] = missing
		result.FixHint = "install the packages providing these tools, or set commands.<name> in the config"
		return result
	}
	result.Message = fmt.Sprintf("all %d tools found", len(c.tools))
	return result
}

// checkExecutable returns why path cannot be run, or "" if it can. Bare
// names are left to the process layer.
func checkExecutable(path string) string {
	if !strings.ContainsRune(path, os.PathSeparator) {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return "not found at " + path
	}
	if info.IsDir() {
		return path + " is a directory"
	}
	if info.Mode().Perm()&0o111 == 0 {
		return path + " is not executable"
	}
	return ""
}

// DeviceCheck verifies the configured writer device and SCSI id.
type DeviceCheck struct {
	device  string
	scsiID  string
	devRoot string
}

var _ Check = (*DeviceCheck)(nil)

// NewDeviceCheck creates a DeviceCheck. devRoot is searched for candidate
// drives when the device is missing; empty means /dev.
func NewDeviceCheck(device, scsiID, devRoot string) *DeviceCheck {
	return &DeviceCheck{device: device, scsiID: scsiID, devRoot: devRoot}
}

// Name returns the unique identifier for this check.
func (c *DeviceCheck) Name() string {
	return "device"
}

// Category returns the grouping for this check.
func (c *DeviceCheck) Category() string {
	return "device"
}

// Run validates the device path and SCSI id. When the device is unusable,
// the optical drives present on the system are listed as candidates.
func (c *DeviceCheck) Run() *CheckResult {
	result := &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Details:  map[string]any{"device": c.device},
	}
	if c.scsiID != "" {
		result.Details["scsi_id"] = c.scsiID
	}

	if err := writer.ValidateScsiID(c.scsiID); err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		result.FixHint = "use the bus,target,lun form reported by: cdrecord -scanbus"
		return result
	}

	if err := writer.ValidateDevice(c.device, false); err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		candidates, _ := paths.OpticalDevices(c.devRoot)
		if len(candidates) > 0 {
			result.Details["candidates"] = candidates
			result.FixHint = "set store.device_path to one of: " + strings.Join(candidates, ", ")
		} else {
			result.FixHint = "connect a drive and set store.device_path"
		}
		return result
	}

	result.Message = c.device + " is writable"
	return result
}
