package writer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/thoreinstein/cback/internal/isoimage"
	"github.com/thoreinstein/cback/internal/media"
)

// dvdFudgeSectors is added to the mkisofs estimate for DVD media. The
// estimate alone runs short of what growisofs actually writes.
const dvdFudgeSectors = 2500

// DVDWriter writes DVD+R and DVD+RW media with growisofs.
//
// growisofs masters the staged entries on the fly, so no temporary image is
// created and rewritable media is never blanked explicitly: -Z reinitializes
// it. Media is always written multisession.
type DVDWriter struct {
	base
}

var _ Writer = (*DVDWriter)(nil)

// NewDVDWriter validates cfg. growisofs has no capability query, so the
// drive is assumed to have a tray that can eject unless NoEject is set.
func NewDVDWriter(_ context.Context, cfg Config, opts ...Option) (*DVDWriter, error) {
	if !cfg.MediaType.IsDVD() {
		return nil, configErrorf("media type %s is not supported by the DVD writer", cfg.MediaType)
	}
	o := buildOptions(opts)
	b, err := newBase(cfg, o)
	if err != nil {
		return nil, err
	}
	w := &DVDWriter{base: b}

	if cfg.ScsiID != "" {
		w.logger.Warn("SCSI id is ignored by the DVD writer; using the device path", "scsi_id", cfg.ScsiID)
	}
	w.caps = Capabilities{
		SupportsMultisession: true,
		HasTray:              !cfg.NoEject,
		CanEject:             !cfg.NoEject,
	}
	w.logger.Debug("created DVD writer", "media", w.profile.Type().String())
	return w, nil
}

// HardwareID is always the device path.
func (w *DVDWriter) HardwareID() string {
	return w.cfg.Device
}

// RetrieveCapacity measures the sectors already used on the disc with a
// growisofs dry run. Nothing is measured for entireDisc or when useMulti is
// unset, and an unreadable disc counts as empty.
func (w *DVDWriter) RetrieveCapacity(ctx context.Context, entireDisc, useMulti bool) (media.Capacity, error) {
	var used float64
	if !entireDisc && useMulti {
		var err error
		used, err = w.sectorsUsed(ctx)
		if err != nil {
			return media.Capacity{}, err
		}
	}
	capacity := media.ComputeUsedCapacity(w.profile, used)
	w.logger.DebugContext(ctx, "retrieved capacity", "capacity", capacity.String())
	return capacity, nil
}

func (w *DVDWriter) sectorsUsed(ctx context.Context) (float64, error) {
	dir, err := os.MkdirTemp("", "cback-probe-")
	if err != nil {
		return 0, markDevice(err, "creating probe directory")
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			w.logger.WarnContext(ctx, "unable to remove probe directory", "path", dir, "error", err)
		}
	}()

	args := DVDWriteArgs(false, w.HardwareID(), w.cfg.DriveSpeed, "", map[string]string{dir: ""}, "", true)
	res, err := w.run(ctx, GrowisofsCommand, args, false)
	if err != nil {
		w.logger.WarnContext(ctx, "unable to read disc; assuming zero sectors used", "error", err)
		return 0, nil
	}
	if !res.Success() {
		w.logger.WarnContext(ctx, "unable to read disc (might not be initialized); assuming zero sectors used", "exit_code", res.ExitCode)
		return 0, nil
	}

	used := ParseSectorsUsed(res.Output)
	if used == 0 {
		w.logger.WarnContext(ctx, "no sector usage reported; assuming zero sectors used")
	}
	w.logger.DebugContext(ctx, "determined sectors used", "sectors", used)
	return used, nil
}

// EstimatedImageSize returns the mkisofs estimate for the staged entries
// plus a fixed margin. It is conservative; the burn can come out a few
// hundred sectors smaller.
func (w *DVDWriter) EstimatedImageSize(ctx context.Context) (float64, error) {
	img, err := w.requireImage("EstimatedImageSize")
	if err != nil {
		return 0, err
	}
	if img.Len() == 0 {
		return 0, configErrorf("must add at least one entry with AddImageEntry")
	}

	iso := isoimage.New(w.runner)
	for _, p := range img.Paths() {
		if err := iso.AddEntry(p, img.entries[p], false, true); err != nil {
			return 0, imageError(err, "adding image entry")
		}
	}
	size, err := iso.EstimatedSize(ctx)
	if err != nil {
		return 0, imageError(err, "estimating image size")
	}
	return size + media.SectorsToBytes(dvdFudgeSectors), nil
}

// WriteImage burns an image, or the staged entries when imagePath is empty.
// writeMulti is ignored.
func (w *DVDWriter) WriteImage(ctx context.Context, imagePath string, newDisc, writeMulti bool) error {
	logger := w.logger.With("burn_id", uuid.NewString())
	if !writeMulti {
		logger.WarnContext(ctx, "writeMulti=false ignored by the DVD writer")
	}

	if imagePath != "" {
		if !filepath.IsAbs(imagePath) {
			return configErrorf("image path %q must be absolute", imagePath)
		}
		logger.InfoContext(ctx, "writing image", "image", imagePath, "new_disc", newDisc)
		return w.burn(ctx, DVDWriteArgs(newDisc, w.HardwareID(), w.cfg.DriveSpeed, imagePath, nil, "", false))
	}

	img, err := w.requireImage("WriteImage without an image path")
	if err != nil {
		return err
	}

	size, err := w.EstimatedImageSize(ctx)
	if err != nil {
		return err
	}
	capacity, err := w.RetrieveCapacity(ctx, img.NewDisc, true)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "image size estimated", "size", humanize.IBytes(uint64(size)),
		"available", humanize.IBytes(uint64(capacity.BytesAvailable)))
	if size > capacity.BytesAvailable {
		logger.ErrorContext(ctx, "image does not fit in available capacity")
		return &CapacityError{Available: capacity.BytesAvailable, Requested: size, Known: true}
	}

	logger.InfoContext(ctx, "writing staged entries", "entries", img.Len(), "new_disc", img.NewDisc)
	return w.burn(ctx, DVDWriteArgs(img.NewDisc, w.HardwareID(), w.cfg.DriveSpeed, "", img.entries, img.Label, false))
}

func (w *DVDWriter) burn(ctx context.Context, args []string) error {
	res, err := w.run(ctx, GrowisofsCommand, args, false)
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
