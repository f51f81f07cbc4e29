package writer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/cback/internal/media"
)

func TestParseCapabilities(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Capabilities
	}{
		{
			name:  "nil output",
			lines: nil,
			want:  Capabilities{},
		},
		{
			name:  "full output",
			lines: prcapFull,
			want: Capabilities{
				DeviceType:           "Removable CD-ROM",
				DeviceVendor:         "SONY",
				DeviceID:             "CD-RW  CRX140E",
				BufferSize:           4096 * 1024,
				SupportsMultisession: true,
				HasTray:              true,
				CanEject:             true,
			},
		},
		{
			name: "caddy without ejection",
			lines: []string{
				"Device type    : Removable CD-ROM",
				"  Loading mechanism type: caddy",
				"  Does not support ejection of CD via START/STOP command",
				"  Does not read multi-session CDs",
			},
			want: Capabilities{DeviceType: "Removable CD-ROM"},
		},
		{
			name:  "unparseable buffer size",
			lines: []string{"  Buffer size in KB: lots"},
			want:  Capabilities{},
		},
		{
			name: "markers anywhere in output",
			lines: []string{
				"Cdrecord-Clone 2.01",
				"  Does support ejection of CD via START/STOP command",
				"scsidev: '/dev/cdrw'",
				"  Does read multi-session CDs",
			},
			want: Capabilities{SupportsMultisession: true, CanEject: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCapabilities(tt.lines))
		})
	}
}

func TestParseBoundaries(t *testing.T) {
	b, err := ParseBoundaries([]string{"10,20"})
	require.NoError(t, err)
	assert.Equal(t, &media.Boundaries{Lower: 10, Upper: 20}, b)

	b, err = ParseBoundaries([]string{"  0 , 11634  ", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, &media.Boundaries{Lower: 0, Upper: 11634}, b)

	b, err = ParseBoundaries([]string{})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseBoundaries(nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	for _, bad := range []string{"garbage", "10", "10,20,30", "-1,5", "a,b"} {
		_, err := ParseBoundaries([]string{bad})
		assert.ErrorIs(t, err, ErrParse, bad)
	}
}

func TestParseSectorsUsed(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  float64
	}{
		{"nil", nil, 0},
		{"empty", []string{}, 0},
		{"unquoted", []string{"... seek=100 ..."}, 0},
		{"not at end of echo", []string{"Executing 'builtin_dd of=/dev/dvd seek=100 obs=32k'"}, 0},
		{"padded", []string{"'    seek=    10     '"}, 160},
		{
			"command echo",
			[]string{
				"Executing 'mkisofs -C 973744,1401056 -M /dev/fd/3 -r -graft-points music4/=music | builtin_dd of=/dev/cdrom obs=32k seek=87566'",
				"Total translation table size: 0",
			},
			87566 * 16,
		},
		{"first match wins", []string{"nothing here", "'seek=1'", "'seek=2'"}, 16},
		{"no token", []string{"Executing 'builtin_dd if=/dev/zero of=/dev/dvd'"}, 0},
		{"not numeric", []string{"'seek=abc'"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseSectorsUsed(tt.lines), 0)
		})
	}
}

func TestSearchForOverburn(t *testing.T) {
	err := SearchForOverburn([]string{
		"Executing 'builtin_dd if=/tmp/img of=/dev/cdrom obs=32k seek=0'",
		":-( /dev/cdrom: 894048 blocks are free, 2033746 to be written!",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, capErr.Known)
	assert.InDelta(t, 894048*media.SectorSize, capErr.Available, 0)
	assert.InDelta(t, 2033746*media.SectorSize, capErr.Requested, 0)
	assert.Contains(t, capErr.Error(), "available")
}

func TestSearchForOverburn_UnknownNumbers(t *testing.T) {
	err := SearchForOverburn([]string{":-( /dev/cdrom: lots blocks are free, more to be written!"})
	require.Error(t, err)

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.False(t, capErr.Known)
	assert.Equal(t, ErrCapacityExceeded.Error(), capErr.Error())
}

func TestSearchForOverburn_NoMatch(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"nil", nil},
		{"empty", []string{}},
		{"missing numbers", []string{":-( /dev/cdrom: blocks are free, to be written!"}},
		{"happy face", []string{":-) /dev/cdrom: 894048 blocks are free, 2033746 to be written!"}},
		{"missing space", []string{":-( /dev/cdrom: 894048blocks are free, 2033746to be written!"}},
		{"not at start", []string{"  :-( /dev/cdrom: 1 blocks are free, 2 to be written!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, SearchForOverburn(tt.lines))
		})
	}
}
