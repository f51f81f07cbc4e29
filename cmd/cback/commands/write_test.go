package commands

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/cback/internal/config"
	clierrors "github.com/thoreinstein/cback/internal/errors"
	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/writer"
)

func resetWriteFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		writeImage = ""
		writeNewDisc = false
		writeNoMulti = false
		writeLabel = ""
		writeEstimate = false
	})
}

func TestRunWrite_StagedEntries(t *testing.T) {
	resetWriteFlags(t)
	withConfig(t, testConfig())
	withClock(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))

	w := mockWriter(t, media.CDRW74)
	w.On("InitializeImage", false, "/var/tmp", "CEDAR BACKUP 02-JAN-2024").Return(nil).Once()
	w.On("AddImageEntry", "/opt/stage/a", "2024/01/01").Return(nil).Once()
	w.On("AddImageEntry", "/opt/stage/b", "").Return(nil).Once()
	w.On("WriteImage", mock.Anything, "", false, true).Return(nil).Once()
	withWriter(t, w)

	cmd, out := newTestCmd(t, "")
	require.NoError(t, runWrite(cmd, []string{"/opt/stage/a=2024/01/01", "/opt/stage/b"}))
	assert.Equal(t, "Wrote 2 entries to /dev/sr0\n", out.String())
}

func TestRunWrite_NewDiscNoMultiLabel(t *testing.T) {
	resetWriteFlags(t)
	writeNewDisc = true
	writeNoMulti = true
	writeLabel = "WEEKLY"
	withConfig(t, testConfig())

	w := mockWriter(t, media.CDRW74)
	w.On("InitializeImage", true, "/var/tmp", "WEEKLY").Return(nil).Once()
	w.On("AddImageEntry", "/opt/stage/a", "").Return(nil).Once()
	w.On("WriteImage", mock.Anything, "", true, false).Return(nil).Once()
	withWriter(t, w)

	cmd, out := newTestCmd(t, "")
	require.NoError(t, runWrite(cmd, []string{"/opt/stage/a"}))
	assert.Contains(t, out.String(), "Wrote 1 entry")
}

func TestRunWrite_Image(t *testing.T) {
	resetWriteFlags(t)
	writeImage = "/var/tmp/backup.iso"
	withConfig(t, testConfig())

	w := mockWriter(t, media.DVDPlusRW)
	w.On("WriteImage", mock.Anything, "/var/tmp/backup.iso", false, true).Return(nil).Once()
	withWriter(t, w)

	cmd, out := newTestCmd(t, "")
	require.NoError(t, runWrite(cmd, nil))
	assert.Equal(t, "Wrote /var/tmp/backup.iso to /dev/sr0\n", out.String())
}

func TestRunWrite_Estimate(t *testing.T) {
	resetWriteFlags(t)
	writeEstimate = true
	cfg := testConfig()
	cfg.Store.CheckMedia = true
	withConfig(t, cfg)

	w := mockWriter(t, media.CDRW74)
	w.On("InitializeImage", false, "/var/tmp", mock.Anything).Return(nil).Once()
	w.On("AddImageEntry", "/opt/stage/a", "").Return(nil).Once()
	w.On("EstimatedImageSize", mock.Anything).Return(float64(10*1024*1024), nil).Once()
	withWriter(t, w)

	cmd, out := newTestCmd(t, "")
	require.NoError(t, runWrite(cmd, []string{"/opt/stage/a"}))
	assert.Equal(t, "Estimated image size: 10 MiB\n", out.String())
	w.AssertNotCalled(t, "WriteImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunWrite_CapacityExceeded(t *testing.T) {
	resetWriteFlags(t)
	withConfig(t, testConfig())

	w := mockWriter(t, media.CDR74)
	w.On("InitializeImage", false, "/var/tmp", mock.Anything).Return(nil).Once()
	w.On("AddImageEntry", "/opt/stage/a", "").Return(nil).Once()
	w.On("WriteImage", mock.Anything, "", false, true).
		Return(&writer.CapacityError{Available: 100, Requested: 200, Known: true}).Once()
	withWriter(t, w)

	cmd, _ := newTestCmd(t, "")
	err := runWrite(cmd, []string{"/opt/stage/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, writer.ErrCapacityExceeded)
	assert.Equal(t, clierrors.ExitSystem, ExitCode(classify(err)))
}

func TestRunWrite_ArgumentErrors(t *testing.T) {
	resetWriteFlags(t)
	withConfig(t, testConfig())

	cmd, _ := newTestCmd(t, "")
	err := runWrite(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to write")

	writeImage = "/var/tmp/backup.iso"
	err = runWrite(cmd, []string{"/opt/stage/a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
	writeImage = ""

	w := mockWriter(t, media.CDRW74)
	w.On("InitializeImage", false, "/var/tmp", mock.Anything).Return(nil).Once()
	withWriter(t, w)
	err = runWrite(cmd, []string{"relative/path"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be absolute")
}

func TestRunWrite_CheckMediaRejectsUnlabeledDisc(t *testing.T) {
	resetWriteFlags(t)
	cfg := testConfig()
	cfg.Store.CheckMedia = true
	withConfig(t, cfg)

	// /dev/sr0 cannot be read in tests, so the disc counts as unlabeled.
	w := mockWriter(t, media.CDRW74)
	withWriter(t, w)

	cmd, _ := newTestCmd(t, "")
	err := runWrite(cmd, []string{"/opt/stage/a"})
	require.Error(t, err)
	assert.Equal(t, "Run: cback media init", classify(err).(*clierrors.ExitError).Suggestion)
	w.AssertNotCalled(t, "InitializeImage", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunWrite_WriterError(t *testing.T) {
	resetWriteFlags(t)
	withConfig(t, testConfig())
	orig := newWriter
	t.Cleanup(func() { newWriter = orig })
	newWriter = func(_ context.Context, _ *config.Config) (writer.Writer, error) {
		return nil, errors.Wrap(writer.ErrDeviceIO, "exit status 1 reading capabilities")
	}

	cmd, _ := newTestCmd(t, "")
	err := runWrite(cmd, []string{"/opt/stage/a"})
	require.Error(t, err)
	assert.Equal(t, clierrors.ExitSystem, ExitCode(classify(err)))
}
