package media

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Type identifies a kind of writable optical media.
type Type int

// Supported media types.
const (
	CDR74 Type = iota + 1
	CDRW74
	CDR80
	CDRW80
	DVDPlusR
	DVDPlusRW
)

// ErrUnknownType is returned when a media type name or value is not supported.
var ErrUnknownType = errors.New("unsupported media type")

var typeNames = map[Type]string{
	CDR74:     "cdr-74",
	CDRW74:    "cdrw-74",
	CDR80:     "cdr-80",
	CDRW80:    "cdrw-80",
	DVDPlusR:  "dvd+r",
	DVDPlusRW: "dvd+rw",
}

// Types returns every supported media type in declaration order.
func Types() []Type {
	return []Type{CDR74, CDRW74, CDR80, CDRW80, DVDPlusR, DVDPlusRW}
}

// ParseType parses a configuration name such as "cdrw-74" or "dvd+r".
// Matching is case-insensitive.
func ParseType(name string) (Type, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == want {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownType, "%q", name)
}

// String returns the configuration name of the media type.
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// IsCD reports whether t is a CD media type.
func (t Type) IsCD() bool {
	return t >= CDR74 && t <= CDRW80
}

// IsDVD reports whether t is a DVD media type.
func (t Type) IsDVD() bool {
	return t == DVDPlusR || t == DVDPlusRW
}

// Geometry of the supported media, in sectors.
const (
	cd74Sectors        = 650 * MB / SectorSize
	cd80Sectors        = 700 * MB / SectorSize
	dvdSectors         = 4.4 * GB / SectorSize
	cdInitialLeadIn    = 11400
	cdSuccessiveLeadIn = 6900
)

// Profile is the static geometry of one media type.
type Profile struct {
	mediaType            Type
	rewritable           bool
	capacitySectors      float64
	initialLeadInSectors float64
	leadInSectors        float64
}

// NewProfile returns the profile for t, or an error wrapping ErrUnknownType.
func NewProfile(t Type) (Profile, error) {
	switch t {
	case CDR74:
		return cdProfile(t, false, cd74Sectors), nil
	case CDRW74:
		return cdProfile(t, true, cd74Sectors), nil
	case CDR80:
		return cdProfile(t, false, cd80Sectors), nil
	case CDRW80:
		return cdProfile(t, true, cd80Sectors), nil
	case DVDPlusR:
		return Profile{mediaType: t, capacitySectors: dvdSectors}, nil
	case DVDPlusRW:
		return Profile{mediaType: t, rewritable: true, capacitySectors: dvdSectors}, nil
	default:
		return Profile{}, errors.Wrapf(ErrUnknownType, "media type %d", int(t))
	}
}

func cdProfile(t Type, rewritable bool, capacity float64) Profile {
	return Profile{
		mediaType:            t,
		rewritable:           rewritable,
		capacitySectors:      capacity,
		initialLeadInSectors: cdInitialLeadIn,
		leadInSectors:        cdSuccessiveLeadIn,
	}
}

// Type returns the media type.
func (p Profile) Type() Type { return p.mediaType }

// Rewritable reports whether the media can be blanked and rewritten.
func (p Profile) Rewritable() bool { return p.rewritable }

// CapacitySectors returns the raw capacity of the media.
func (p Profile) CapacitySectors() float64 { return p.capacitySectors }

// InitialLeadInSectors returns the lead-in charged when the first session is
// written. Zero for DVD media.
func (p Profile) InitialLeadInSectors() float64 { return p.initialLeadInSectors }

// LeadInSectors returns the lead-in charged for each successive session. Zero
// for DVD media.
func (p Profile) LeadInSectors() float64 { return p.leadInSectors }
