package media

import (
	"github.com/cockroachdb/errors"
)

// Unit is a size unit understood by ConvertSize.
type Unit int

const (
	// Bytes are single bytes.
	Bytes Unit = iota
	// Kilobytes are 1024 bytes.
	Kilobytes
	// Megabytes are 1024 kilobytes.
	Megabytes
	// Gigabytes are 1024 megabytes.
	Gigabytes
	// Sectors are ISO sectors of SectorSize bytes.
	Sectors
)

// Byte multipliers for each unit.
const (
	SectorSize = 2048.0
	KB         = 1024.0
	MB         = 1024.0 * KB
	GB         = 1024.0 * MB
)

// String returns the unit's short name.
func (u Unit) String() string {
	switch u {
	case Bytes:
		return "bytes"
	case Kilobytes:
		return "KB"
	case Megabytes:
		return "MB"
	case Gigabytes:
		return "GB"
	case Sectors:
		return "sectors"
	default:
		return "unknown"
	}
}

func (u Unit) factor() (float64, error) {
	switch u {
	case Bytes:
		return 1, nil
	case Kilobytes:
		return KB, nil
	case Megabytes:
		return MB, nil
	case Gigabytes:
		return GB, nil
	case Sectors:
		return SectorSize, nil
	default:
		return 0, errors.Newf("unknown size unit %d", int(u))
	}
}

// ConvertSize converts value between two units. The conversion goes through
// bytes, so no precision is lost for whole sector counts.
func ConvertSize(value float64, from, to Unit) (float64, error) {
	fromFactor, err := from.factor()
	if err != nil {
		return 0, err
	}
	toFactor, err := to.factor()
	if err != nil {
		return 0, err
	}
	if from == to {
		return value, nil
	}
	return value * fromFactor / toFactor, nil
}

// SectorsToBytes converts a sector count to bytes.
func SectorsToBytes(sectors float64) float64 {
	return sectors * SectorSize
}

// BytesToSectors converts a byte count to (possibly fractional) sectors.
func BytesToSectors(bytes float64) float64 {
	return bytes / SectorSize
}
