package media

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Boundaries are the sector offsets of the last session on a multisession
// disc, as reported by the burner.
type Boundaries struct {
	Lower int
	Upper int
}

// String renders the boundaries the way the burner prints them.
func (b Boundaries) String() string {
	return fmt.Sprintf("%d,%d", b.Lower, b.Upper)
}

// Capacity is a snapshot of how much of a disc is used and available.
type Capacity struct {
	BytesUsed      float64
	BytesAvailable float64
	// Boundaries is nil unless the capacity was computed from an existing session.
	Boundaries *Boundaries
}

// TotalCapacity returns used plus available bytes.
func (c Capacity) TotalCapacity() float64 {
	return c.BytesUsed + c.BytesAvailable
}

// Utilized returns the percentage of the disc already in use.
func (c Capacity) Utilized() float64 {
	if c.BytesAvailable <= 0 {
		return 100.0
	}
	if c.BytesUsed <= 0 {
		return 0.0
	}
	return c.BytesUsed / c.TotalCapacity() * 100.0
}

// String summarizes the capacity for logs and terminal output.
func (c Capacity) String() string {
	return fmt.Sprintf("utilized %s of %s (%.2f%%)",
		humanize.IBytes(uint64(c.BytesUsed)),
		humanize.IBytes(uint64(c.TotalCapacity())),
		c.Utilized())
}

// ComputeCapacity computes the capacity of CD-style media from the session
// boundaries. A nil boundary or a zero upper boundary means the whole disc
// will be rewritten.
func ComputeCapacity(p Profile, b *Boundaries) Capacity {
	if b == nil || b.Upper == 0 {
		available := math.Max(0, p.capacitySectors-p.initialLeadInSectors)
		return Capacity{
			BytesUsed:      0,
			BytesAvailable: SectorsToBytes(available),
			Boundaries:     b,
		}
	}
	upper := float64(b.Upper)
	available := math.Max(0, p.capacitySectors-upper-p.leadInSectors)
	return Capacity{
		BytesUsed:      SectorsToBytes(upper),
		BytesAvailable: SectorsToBytes(available),
		Boundaries:     b,
	}
}

// ComputeUsedCapacity computes the capacity of media whose usage is measured
// directly as a sector count rather than via session boundaries.
func ComputeUsedCapacity(p Profile, sectorsUsed float64) Capacity {
	used := math.Max(0, sectorsUsed)
	available := math.Max(0, p.capacitySectors-used)
	return Capacity{
		BytesUsed:      SectorsToBytes(used),
		BytesAvailable: SectorsToBytes(available),
	}
}
