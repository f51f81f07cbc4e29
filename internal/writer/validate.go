package writer

import (
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/sys/unix"
)

var (
	scsiIDRe  = regexp.MustCompile(`^\s*(.*:)?\s*[0-9][0-9]*\s*,\s*[0-9][0-9]*\s*,\s*[0-9][0-9]*\s*$`)
	macScsiRe = regexp.MustCompile(`^\s*IO.*Services(/[0-9][0-9]*)?\s*$`)
)

// ValidateDevice checks that device is an absolute path. Unless
// skipExistence is set, the path must also exist and be writable by the
// current user.
func ValidateDevice(device string, skipExistence bool) error {
	if device == "" {
		return configErrorf("device path is required")
	}
	if !filepath.IsAbs(device) {
		return configErrorf("device path %q must be absolute", device)
	}
	if skipExistence {
		return nil
	}
	if _, err := os.Stat(device); err != nil {
		return markConfig(err, "device "+device)
	}
	if err := unix.Access(device, unix.W_OK); err != nil {
		return markConfig(err, "device "+device+" is not writable")
	}
	return nil
}

// ValidateScsiID accepts "[method:]bus,target,lun" ids such as "0,0,0" or
// "ATA:1,0,0", and macOS style ids such as "IOCompactDiscServices/2". An
// empty id is valid and means the device path is used.
func ValidateScsiID(id string) error {
	if id == "" {
		return nil
	}
	if scsiIDRe.MatchString(id) || macScsiRe.MatchString(id) {
		return nil
	}
	return configErrorf("SCSI id %q is not in a valid form", id)
}

// ValidateDriveSpeed checks that an explicit drive speed is a positive
// integer. Nil means the drive default.
func ValidateDriveSpeed(speed *int) error {
	if speed == nil {
		return nil
	}
	if *speed < 1 {
		return configErrorf("drive speed %d must be a positive integer", *speed)
	}
	return nil
}
