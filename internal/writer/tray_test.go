package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/cback/internal/media"
)

// newTrayCD builds a CD writer on a drive with an ejectable tray, followed by
// the given tray steps.
func newTrayCD(t *testing.T, cfg Config, steps ...step) (*CDWriter, *harness) {
	t.Helper()
	cfg.Device = fakeDevice(t)
	if cfg.MediaType == 0 {
		cfg.MediaType = media.CDRW74
	}
	h := newHarness(t, append([]step{ok(prcapFull...)}, steps...)...)
	w, err := NewCDWriter(context.Background(), cfg, h.options()...)
	require.NoError(t, err)
	return w, h
}

func TestOpenTray(t *testing.T) {
	w, h := newTrayCD(t, Config{EjectDelay: 3 * time.Second}, ok())
	start := h.clock.Now()

	require.NoError(t, w.OpenTray(context.Background()))
	assert.Equal(t, []string{"eject", w.Device()}, h.argv()[1])
	assert.Equal(t, 3*time.Second, h.clock.Since(start))
}

func TestOpenTray_UnlockAndRetry(t *testing.T) {
	w, h := newTrayCD(t, Config{EjectDelay: 2 * time.Second},
		fail(1, "eject: unable to eject, last error: Inappropriate ioctl for device"),
		ok(),
		ok(),
	)
	start := h.clock.Now()

	require.NoError(t, w.OpenTray(context.Background()))
	assert.Equal(t, [][]string{
		{"eject", w.Device()},
		{"eject", "-i", "off", w.Device()},
		{"eject", w.Device()},
	}, h.argv()[1:])
	assert.Equal(t, 2*time.Second, h.clock.Since(start))
}

func TestOpenTray_RetryFails(t *testing.T) {
	w, h := newTrayCD(t, Config{EjectDelay: 2 * time.Second}, fail(1), ok(), fail(1))
	start := h.clock.Now()

	err := w.OpenTray(context.Background())
	assert.ErrorIs(t, err, ErrDeviceIO)
	assert.Contains(t, err.Error(), "after unlocking")
	assert.Equal(t, 4, h.calls())
	assert.Zero(t, h.clock.Since(start), "no eject delay after a failure")
}

func TestOpenTray_UnlockFails(t *testing.T) {
	w, h := newTrayCD(t, Config{}, fail(1), fail(2))

	err := w.OpenTray(context.Background())
	assert.ErrorIs(t, err, ErrDeviceIO)
	assert.Contains(t, err.Error(), "unlocking tray")
	assert.Equal(t, 3, h.calls())
}

func TestCloseTray(t *testing.T) {
	w, h := newTrayCD(t, Config{}, ok(), fail(1))

	require.NoError(t, w.CloseTray(context.Background()))
	assert.Equal(t, []string{"eject", "-t", w.Device()}, h.argv()[1])

	assert.ErrorIs(t, w.CloseTray(context.Background()), ErrDeviceIO)
}

func TestRefreshMedia(t *testing.T) {
	w, h := newTrayCD(t, Config{EjectDelay: time.Second, RefreshMediaDelay: 5 * time.Second}, ok(), ok(), ok())
	start := h.clock.Now()

	require.NoError(t, w.RefreshMedia(context.Background()))
	assert.Equal(t, [][]string{
		{"eject", w.Device()},
		{"eject", "-t", w.Device()},
		{"eject", "-i", "off", w.Device()},
	}, h.argv()[1:])
	assert.Equal(t, 6*time.Second, h.clock.Since(start))
}

func TestTray_NoEject(t *testing.T) {
	w, h := newTrayCD(t, Config{NoEject: true, EjectDelay: time.Second, RefreshMediaDelay: 4 * time.Second})
	start := h.clock.Now()
	ctx := context.Background()

	require.NoError(t, w.OpenTray(ctx))
	require.NoError(t, w.CloseTray(ctx))
	require.NoError(t, w.UnlockTray(ctx))
	assert.Zero(t, h.clock.Since(start))

	require.NoError(t, w.RefreshMedia(ctx))
	assert.Equal(t, 1, h.calls(), "only the capability query runs")
	assert.Equal(t, 4*time.Second, h.clock.Since(start), "refresh delay applies without a tray")
}

func TestTray_DriveWithoutEjection(t *testing.T) {
	cfg := Config{Device: fakeDevice(t), MediaType: media.CDR80}
	h := newHarness(t, ok("Device type    : Removable CD-ROM", "  Loading mechanism type: tray"))
	w, err := NewCDWriter(context.Background(), cfg, h.options()...)
	require.NoError(t, err)

	require.NoError(t, w.OpenTray(context.Background()))
	require.NoError(t, w.RefreshMedia(context.Background()))
	assert.Equal(t, 1, h.calls())
}

func TestTray_DVD(t *testing.T) {
	w, h := newDVD(t, Config{}, ok(), ok())

	require.NoError(t, w.OpenTray(context.Background()))
	require.NoError(t, w.CloseTray(context.Background()))
	assert.Equal(t, [][]string{
		{"eject", w.Device()},
		{"eject", "-t", w.Device()},
	}, h.argv())

	noEject, nh := newDVD(t, Config{NoEject: true})
	require.NoError(t, noEject.RefreshMedia(context.Background()))
	assert.Zero(t, nh.calls())
}
