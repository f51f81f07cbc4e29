package writer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/cback/internal/media"
)

// Capabilities are the drive features reported by the burner. String fields
// are empty and flags false when the burner does not report them.
type Capabilities struct {
	DeviceType   string
	DeviceVendor string
	DeviceID     string
	// BufferSize is in bytes; zero when unknown.
	BufferSize           int64
	SupportsMultisession bool
	HasTray              bool
	CanEject             bool
}

var (
	deviceTypeRe   = regexp.MustCompile(`^Device type\s*:\s*(.*)$`)
	vendorRe       = regexp.MustCompile(`^Vendor_info\s*:\s*'\s*(.*?)\s*'`)
	identRe        = regexp.MustCompile(`^Identifikation\s*:\s*'\s*(.*?)\s*'`)
	bufferRe       = regexp.MustCompile(`^\s*Buffer size in KB:\s*(.*?)\s*$`)
	multisessionRe = regexp.MustCompile(`^\s*Does read multi-session`)
	trayRe         = regexp.MustCompile(`^\s*Loading mechanism type: tray`)
	ejectRe        = regexp.MustCompile(`^\s*Does support ejection`)

	boundariesRe = regexp.MustCompile(`^\s*(\d+)\s*,\s*(\d+)\s*$`)
	seekRe       = regexp.MustCompile(`seek=\s*(\d+)\s*'\s*$`)
	overburnRe   = regexp.MustCompile(`^:-\(\s*.*:\s*(.*) blocks are free, (.*) to be written!`)
)

// sectorsPerSeek converts the growisofs seek offset (32 KiB blocks) into
// ISO sectors.
const sectorsPerSeek = 16

// ParseCapabilities extracts drive capabilities from cdrecord -prcap output.
// Every field is optional; unmatched fields keep their zero value.
func ParseCapabilities(lines []string) Capabilities {
	var c Capabilities
	for _, line := range lines {
		if m := deviceTypeRe.FindStringSubmatch(line); m != nil {
			c.DeviceType = strings.TrimSpace(m[1])
		}
		if m := vendorRe.FindStringSubmatch(line); m != nil {
			c.DeviceVendor = m[1]
		}
		if m := identRe.FindStringSubmatch(line); m != nil {
			c.DeviceID = m[1]
		}
		if m := bufferRe.FindStringSubmatch(line); m != nil {
			if kb, err := strconv.Atoi(m[1]); err == nil {
				c.BufferSize = int64(kb) * 1024
			}
		}
		if multisessionRe.MatchString(line) {
			c.SupportsMultisession = true
		}
		if trayRe.MatchString(line) {
			c.HasTray = true
		}
		if ejectRe.MatchString(line) {
			c.CanEject = true
		}
	}
	return c
}

// ParseBoundaries parses cdrecord -msinfo output. No output means the disc
// has no session yet and yields nil. A first line that is not an integer
// pair is an ErrParse.
func ParseBoundaries(lines []string) (*media.Boundaries, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	m := boundariesRe.FindStringSubmatch(lines[0])
	if m == nil {
		return nil, errors.Wrapf(ErrParse, "session boundaries %q", lines[0])
	}
	lower, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "lower boundary %q", m[1])
	}
	upper, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "upper boundary %q", m[2])
	}
	return &media.Boundaries{Lower: lower, Upper: upper}, nil
}

// ParseSectorsUsed extracts the sectors already used on DVD media from the
// command echo of a growisofs dry run, e.g.
//
//	Executing 'mkisofs ... | builtin_dd of=/dev/cdrom obs=32k seek=87566'
//
// The token only counts at the end of the quoted echo. Output without one
// yields zero.
func ParseSectorsUsed(lines []string) float64 {
	for _, line := range lines {
		m := seekRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		seek, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return seek * sectorsPerSeek
	}
	return 0
}

// SearchForOverburn scans growisofs output for an overburn report such as
//
//	:-( /dev/cdrom: 894048 blocks are free, 2033746 to be written!
//
// and returns a *CapacityError when one is found. Block counts are ISO
// sectors. A report whose numbers cannot be read still fails, with Known
// unset.
func SearchForOverburn(lines []string) error {
	for _, line := range lines {
		m := overburnRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		free, errFree := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
		requested, errReq := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
		if errFree != nil || errReq != nil {
			return &CapacityError{}
		}
		return &CapacityError{
			Available: media.SectorsToBytes(free),
			Requested: media.SectorsToBytes(requested),
			Known:     true,
		}
	}
	return nil
}
