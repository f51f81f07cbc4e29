package writer

import (
	"context"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/cback/internal/media"
)

func newDVD(t *testing.T, cfg Config, steps ...step) (*DVDWriter, *harness) {
	t.Helper()
	if cfg.Device == "" {
		cfg.Device = fakeDevice(t)
	}
	if cfg.MediaType == 0 {
		cfg.MediaType = media.DVDPlusRW
	}
	h := newHarness(t, steps...)
	w, err := NewDVDWriter(context.Background(), cfg, h.options()...)
	require.NoError(t, err)
	return w, h
}

func TestNewDVDWriter(t *testing.T) {
	w, h := newDVD(t, Config{ScsiID: "0,0,0"})

	assert.Zero(t, h.calls(), "growisofs has no capability query")
	assert.Equal(t, Capabilities{SupportsMultisession: true, HasTray: true, CanEject: true}, w.Capabilities())
	assert.Equal(t, "0,0,0", w.ScsiID())
	assert.Equal(t, w.Device(), w.HardwareID())
	assert.True(t, w.IsRewritable())

	noEject, _ := newDVD(t, Config{NoEject: true, MediaType: media.DVDPlusR})
	assert.Equal(t, Capabilities{SupportsMultisession: true}, noEject.Capabilities())
	assert.False(t, noEject.IsRewritable())
}

func TestNewDVDWriter_InvalidConfig(t *testing.T) {
	h := newHarness(t)
	_, err := NewDVDWriter(context.Background(), Config{Device: "/dev/dvd", MediaType: media.CDRW74}, h.options(WithDryRun())...)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewDVDWriter(context.Background(), Config{Device: "/dev/dvd", MediaType: media.DVDPlusR, DriveSpeed: intPtr(-1)}, h.options(WithDryRun())...)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewDVDWriter(context.Background(), Config{Device: "/nonexistent/dvd", MediaType: media.DVDPlusR}, h.options()...)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDVDWriter_RetrieveCapacity(t *testing.T) {
	profile, err := media.NewProfile(media.DVDPlusRW)
	require.NoError(t, err)

	w, h := newDVD(t, Config{},
		ok("Executing 'mkisofs -C 16,1600 -M /dev/fd/3 -r -graft-points /tmp/x | builtin_dd of=/dev/dvd obs=32k seek=100'"))

	got, err := w.RetrieveCapacity(context.Background(), false, true)
	require.NoError(t, err)
	assert.InDelta(t, 1600*media.SectorSize, got.BytesUsed, 0)
	assert.InDelta(t, (profile.CapacitySectors()-1600)*media.SectorSize, got.BytesAvailable, 1e-3)
	assert.Nil(t, got.Boundaries)

	argv := h.argv()[0]
	probe := argv[len(argv)-1]
	assert.Equal(t, []string{"growisofs", "-use-the-force-luke=tty", "-dry-run", "-M", w.Device(), "-r", "-graft-points", probe}, argv)
	_, err = os.Stat(probe)
	assert.True(t, os.IsNotExist(err), "probe directory must be removed")
}

func TestDVDWriter_RetrieveCapacity_Degrades(t *testing.T) {
	profile, err := media.NewProfile(media.DVDPlusR)
	require.NoError(t, err)
	empty := media.ComputeUsedCapacity(profile, 0)

	tests := []struct {
		name       string
		steps      []step
		entireDisc bool
		useMulti   bool
	}{
		{"unreadable disc", []step{fail(1, ":-( unable to proceed with recording: unable to unmount")}, false, true},
		{"no seek token", []step{ok("Total translation table size: 0")}, false, true},
		{"entire disc", nil, true, true},
		{"single session", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := newDVD(t, Config{MediaType: media.DVDPlusR}, tt.steps...)
			got, err := w.RetrieveCapacity(context.Background(), tt.entireDisc, tt.useMulti)
			require.NoError(t, err)
			assert.Equal(t, empty, got)
			assert.Equal(t, len(tt.steps), h.calls())
		})
	}
}

func TestDVDWriter_EstimatedImageSize(t *testing.T) {
	stage := stagedDir(t)

	w, h := newDVD(t, Config{}, ok("1000"))
	require.NoError(t, w.InitializeImage(false, "", ""))

	_, err := w.EstimatedImageSize(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration, "no entries staged")
	assert.Zero(t, h.calls())

	require.NoError(t, w.AddImageEntry(stage, ""))
	size, err := w.EstimatedImageSize(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, (1000+2500)*media.SectorSize, size, 0)
	assert.Equal(t, []string{"mkisofs", "-print-size", "-graft-points", "-r", stage}, h.argv()[0])
}

func TestDVDWriter_StagedWrite(t *testing.T) {
	stage := stagedDir(t)
	other := stagedDir(t)

	w, h := newDVD(t, Config{DriveSpeed: intPtr(2), NoEject: true},
		ok("1000"),
		ok("Executing 'builtin_dd if=/dev/stdin of=/dev/dvd obs=32k seek=0'"),
	)
	require.NoError(t, w.InitializeImage(true, t.TempDir(), "CEDAR BACKUP 02-JAN-2024"))
	require.NoError(t, w.AddImageEntry(stage, "2024/01/02"))
	require.NoError(t, w.AddImageEntry(other, ""))

	require.NoError(t, w.WriteImage(context.Background(), "", false, false))

	require.Equal(t, 2, h.calls(), "new disc skips the sectors-used probe")
	want := append([]string{
		"growisofs", "-use-the-force-luke=tty", "-speed=2", "-Z", w.Device(),
		"-V", "CEDAR BACKUP 02-JAN-2024", "-r", "-graft-points",
	}, DVDWriteArgs(true, "", nil, "", map[string]string{stage: "2024/01/02", other: ""}, "", false)[5:]...)
	assert.Equal(t, want, h.argv()[1])
}

func TestDVDWriter_StagedWrite_CapacityExceededBeforeBurn(t *testing.T) {
	stage := stagedDir(t)

	w, h := newDVD(t, Config{MediaType: media.DVDPlusR},
		ok("2400000"),
		ok("Executing 'builtin_dd of=/dev/dvd obs=32k seek=0'"),
	)
	require.NoError(t, w.InitializeImage(false, t.TempDir(), ""))
	require.NoError(t, w.AddImageEntry(stage, ""))

	err := w.WriteImage(context.Background(), "", false, true)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.InDelta(t, (2400000+2500)*media.SectorSize, capErr.Requested, 0)

	require.Equal(t, 2, h.calls())
	assert.Contains(t, h.argv()[1], "-dry-run", "only the dry-run probe may reach growisofs")
}

func TestDVDWriter_ExplicitImage(t *testing.T) {
	w, h := newDVD(t, Config{NoEject: true}, ok(), ok())

	require.NoError(t, w.WriteImage(context.Background(), "/var/tmp/backup.iso", false, true))
	require.NoError(t, w.WriteImage(context.Background(), "/var/tmp/backup.iso", true, false))

	assert.Equal(t, [][]string{
		{"growisofs", "-use-the-force-luke=tty", "-M", w.Device() + "=/var/tmp/backup.iso"},
		{"growisofs", "-use-the-force-luke=tty", "-Z", w.Device() + "=/var/tmp/backup.iso"},
	}, h.argv())
}

func TestDVDWriter_ExplicitImage_Failures(t *testing.T) {
	t.Run("relative path", func(t *testing.T) {
		w, h := newDVD(t, Config{})
		assert.ErrorIs(t, w.WriteImage(context.Background(), "backup.iso", false, true), ErrConfiguration)
		assert.Zero(t, h.calls())
	})

	t.Run("overburn", func(t *testing.T) {
		w, _ := newDVD(t, Config{NoEject: true},
			fail(1, "Executing 'builtin_dd if=/var/tmp/backup.iso of=/dev/dvd obs=32k seek=0'",
				":-( /dev/dvd: 894048 blocks are free, 2033746 to be written!"))
		err := w.WriteImage(context.Background(), "/var/tmp/backup.iso", false, true)
		assert.ErrorIs(t, err, ErrCapacityExceeded)

		var capErr *CapacityError
		require.True(t, errors.As(err, &capErr))
		assert.InDelta(t, 894048*media.SectorSize, capErr.Available, 0)
	})

	t.Run("generic failure", func(t *testing.T) {
		w, _ := newDVD(t, Config{NoEject: true}, fail(5, ":-( write failed: Input/output error"))
		err := w.WriteImage(context.Background(), "/var/tmp/backup.iso", false, true)
		assert.ErrorIs(t, err, ErrDeviceIO)
	})

	t.Run("success refreshes media", func(t *testing.T) {
		w, h := newDVD(t, Config{}, ok(), ok(), ok(), ok())
		require.NoError(t, w.WriteImage(context.Background(), "/var/tmp/backup.iso", false, true))
		argv := h.argv()
		require.Len(t, argv, 4)
		assert.Equal(t, []string{"eject", w.Device()}, argv[1])
		assert.Equal(t, []string{"eject", "-t", w.Device()}, argv[2])
		assert.Equal(t, []string{"eject", "-i", "off", w.Device()}, argv[3])
	})
}
