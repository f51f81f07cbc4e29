package writer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/thoreinstein/cback/internal/isoimage"
	"github.com/thoreinstein/cback/internal/media"
)

// CDWriter writes CD-R and CD-RW media with cdrecord.
//
// Images are always materialized on disk before burning. Multisession
// appends are supported when the drive reports it and the caller asks for
// it.
type CDWriter struct {
	base
}

var _ Writer = (*CDWriter)(nil)

// NewCDWriter validates cfg and, unless WithDryRun is given, queries the
// drive's capabilities. A failed query is an ErrDeviceIO.
func NewCDWriter(ctx context.Context, cfg Config, opts ...Option) (*CDWriter, error) {
	if !cfg.MediaType.IsCD() {
		return nil, configErrorf("media type %s is not supported by the CD writer", cfg.MediaType)
	}
	o := buildOptions(opts)
	b, err := newBase(cfg, o)
	if err != nil {
		return nil, err
	}
	w := &CDWriter{base: b}

	if !w.dryRun {
		caps, err := w.queryCapabilities(ctx)
		if err != nil {
			return nil, err
		}
		w.caps = caps
	}
	w.logger.Debug("created CD writer",
		"hardware_id", w.HardwareID(),
		"media", w.profile.Type().String(),
		"multisession", w.caps.SupportsMultisession,
		"tray", w.caps.HasTray,
		"eject", w.caps.CanEject)
	return w, nil
}

// HardwareID returns the SCSI id when one is configured, else the device
// path.
func (w *CDWriter) HardwareID() string {
	if w.cfg.ScsiID != "" {
		return w.cfg.ScsiID
	}
	return w.cfg.Device
}

func (w *CDWriter) queryCapabilities(ctx context.Context) (Capabilities, error) {
	res, err := w.run(ctx, CDRecordCommand, PrcapArgs(w.HardwareID()), true)
	if err != nil {
		return Capabilities{}, err
	}
	if !res.Success() {
		return Capabilities{}, deviceErrorf("exit status %d querying drive capabilities", res.ExitCode)
	}
	return ParseCapabilities(res.Output), nil
}

// RetrieveCapacity computes capacity from the disc's session boundaries.
// Boundaries are only read when the drive supports multisession, useMulti
// is set and entireDisc is not; an unreadable disc is treated as blank.
func (w *CDWriter) RetrieveCapacity(ctx context.Context, entireDisc, useMulti bool) (media.Capacity, error) {
	var b *media.Boundaries
	if w.caps.SupportsMultisession && useMulti && !entireDisc {
		b = w.boundaries(ctx)
	}
	capacity := media.ComputeCapacity(w.profile, b)
	w.logger.DebugContext(ctx, "retrieved capacity", "capacity", capacity.String())
	return capacity, nil
}

func (w *CDWriter) boundaries(ctx context.Context) *media.Boundaries {
	res, err := w.run(ctx, CDRecordCommand, MsinfoArgs(w.HardwareID()), true)
	if err != nil {
		w.logger.WarnContext(ctx, "unable to read disc boundaries; assuming blank disc", "error", err)
		return nil
	}
	if !res.Success() {
		w.logger.WarnContext(ctx, "unable to read disc boundaries (might not be initialized); assuming blank disc", "exit_code", res.ExitCode)
		return nil
	}
	b, err := ParseBoundaries(res.Output)
	if err != nil {
		w.logger.WarnContext(ctx, "unable to parse disc boundaries; assuming blank disc", "error", err)
		return nil
	}
	if b != nil {
		w.logger.DebugContext(ctx, "read disc boundaries", "boundaries", b.String())
	}
	return b
}

// EstimatedImageSize returns the mkisofs estimate for the staged entries.
func (w *CDWriter) EstimatedImageSize(ctx context.Context) (float64, error) {
	img, err := w.requireImage("EstimatedImageSize")
	if err != nil {
		return 0, err
	}
	iso, err := w.isoImage(img)
	if err != nil {
		return 0, err
	}
	size, err := iso.EstimatedSize(ctx)
	if err != nil {
		return 0, imageError(err, "estimating image size")
	}
	return size, nil
}

// isoImage builds an image from the staged entries with the given options.
func (w *CDWriter) isoImage(img *StagedImage, opts ...isoimage.Option) (*isoimage.Image, error) {
	iso := isoimage.New(w.runner, opts...)
	for _, p := range img.Paths() {
		if err := iso.AddEntry(p, img.entries[p], false, true); err != nil {
			return nil, imageError(err, "adding image entry")
		}
	}
	return iso, nil
}

// WriteImage burns an image to the disc. For the staged image, the image
// is built in the staged temp directory after checking it fits, and removed
// afterwards whatever the outcome.
func (w *CDWriter) WriteImage(ctx context.Context, imagePath string, newDisc, writeMulti bool) error {
	logger := w.logger.With("burn_id", uuid.NewString())

	if imagePath != "" {
		if !filepath.IsAbs(imagePath) {
			return configErrorf("image path %q must be absolute", imagePath)
		}
		return w.burn(ctx, logger, imagePath, newDisc, writeMulti)
	}

	img, err := w.requireImage("WriteImage without an image path")
	if err != nil {
		return err
	}

	capacity, err := w.RetrieveCapacity(ctx, img.NewDisc, true)
	if err != nil {
		return err
	}
	iso, err := w.isoImage(img,
		isoimage.WithMultisession(w.cfg.Device, capacity.Boundaries),
		isoimage.WithApplicationID(ApplicationID),
		isoimage.WithVolumeID(img.Label))
	if err != nil {
		return err
	}

	size, err := iso.EstimatedSize(ctx)
	if err != nil {
		return imageError(err, "estimating image size")
	}
	logger.InfoContext(ctx, "image size estimated", "size", humanize.IBytes(uint64(size)),
		"available", humanize.IBytes(uint64(capacity.BytesAvailable)))
	if size > capacity.BytesAvailable {
		logger.ErrorContext(ctx, "image does not fit in available capacity")
		return &CapacityError{Available: capacity.BytesAvailable, Requested: size, Known: true}
	}

	dir := img.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	tmp := filepath.Join(dir, "cback-"+uuid.NewString()+".iso")
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnContext(ctx, "unable to remove temporary image", "path", tmp, "error", err)
		}
	}()

	if err := iso.Write(ctx, tmp); err != nil {
		return imageError(err, "building image")
	}
	logger.DebugContext(ctx, "built temporary image", "path", tmp)

	return w.burn(ctx, logger, tmp, img.NewDisc, writeMulti)
}

func (w *CDWriter) burn(ctx context.Context, logger *slog.Logger, imagePath string, newDisc, writeMulti bool) error {
	if newDisc {
		if err := w.blankMedia(ctx); err != nil {
			return err
		}
	}

	multi := writeMulti && w.caps.SupportsMultisession
	logger.InfoContext(ctx, "writing image", "image", imagePath, "multisession", multi)

	res, err := w.run(ctx, CDRecordCommand, CDWriteArgs(w.HardwareID(), imagePath, w.cfg.DriveSpeed, multi), false)
	if err != nil {
		return err
	}
	if !res.Success() {
		if err := SearchForOverburn(res.Output); err != nil {
			return err
		}
		return deviceErrorf("exit status %d writing disc", res.ExitCode)
	}
	return w.RefreshMedia(ctx)
}

// blankMedia blanks rewritable media and refreshes the drive. Write-once
// media is left alone.
func (w *CDWriter) blankMedia(ctx context.Context) error {
	if !w.IsRewritable() {
		return nil
	}
	w.logger.InfoContext(ctx, "blanking media")
	res, err := w.run(ctx, CDRecordCommand, BlankArgs(w.HardwareID(), w.cfg.DriveSpeed), false)
	if err != nil {
		return err
	}
	if !res.Success() {
		return deviceErrorf("exit status %d blanking disc", res.ExitCode)
	}
	return w.RefreshMedia(ctx)
}

// imageError assigns an image collaborator error to a category: bad
// entries are configuration problems, everything else is device I/O.
func imageError(err error, msg string) error {
	if errors.Is(err, isoimage.ErrNoEntries) || errors.Is(err, isoimage.ErrInvalidEntry) {
		return markConfig(err, msg)
	}
	return markDevice(err, msg)
}
