package writer

import (
	"strconv"

	"github.com/thoreinstein/cback/internal/isoimage"
)

// Logical tool names, resolved by the process runner.
const (
	CDRecordCommand  = "cdrecord"
	GrowisofsCommand = "growisofs"
	EjectCommand     = "eject"
)

// PrcapArgs builds the capability query.
func PrcapArgs(hardwareID string) []string {
	return []string{"-prcap", "dev=" + hardwareID}
}

// MsinfoArgs builds the session boundary query.
func MsinfoArgs(hardwareID string) []string {
	return []string{"-msinfo", "dev=" + hardwareID}
}

// BlankArgs builds the fast blank of rewritable CD media. A nil speed lets
// the drive choose.
func BlankArgs(hardwareID string, speed *int) []string {
	args := []string{"-v", "blank=fast"}
	if speed != nil {
		args = append(args, "speed="+strconv.Itoa(*speed))
	}
	return append(args, "dev="+hardwareID)
}

// CDWriteArgs builds the cdrecord burn of an existing image.
func CDWriteArgs(hardwareID, imagePath string, speed *int, multisession bool) []string {
	args := []string{"-v"}
	if speed != nil {
		args = append(args, "speed="+strconv.Itoa(*speed))
	}
	args = append(args, "dev="+hardwareID)
	if multisession {
		args = append(args, "-multi")
	}
	return append(args, "-data", imagePath)
}

// DVDWriteArgs builds a growisofs burn. With a non-empty imagePath the image
// is written as is and label is ignored. Otherwise entries are mastered on
// the fly with Rock Ridge extensions, in path order. newDisc selects -Z
// (initial session) over -M (append).
//
// -use-the-force-luke=tty is always passed; without it growisofs refuses to
// overwrite media when not attached to a terminal.
func DVDWriteArgs(newDisc bool, hardwareID string, speed *int, imagePath string, entries map[string]string, label string, dryRun bool) []string {
	args := []string{"-use-the-force-luke=tty"}
	if dryRun {
		args = append(args, "-dry-run")
	}
	if speed != nil {
		args = append(args, "-speed="+strconv.Itoa(*speed))
	}
	if newDisc {
		args = append(args, "-Z")
	} else {
		args = append(args, "-M")
	}

	if imagePath != "" {
		return append(args, hardwareID+"="+imagePath)
	}

	args = append(args, hardwareID)
	if label != "" {
		args = append(args, "-V", label)
	}
	args = append(args, "-r", "-graft-points")
	return append(args, isoimage.GraftEntries(entries)...)
}

// OpenTrayArgs ejects the media.
func OpenTrayArgs(device string) []string {
	return []string{device}
}

// CloseTrayArgs loads the media.
func CloseTrayArgs(device string) []string {
	return []string{"-t", device}
}

// UnlockTrayArgs releases a drive lock left behind by some burners.
func UnlockTrayArgs(device string) []string {
	return []string{"-i", "off", device}
}
