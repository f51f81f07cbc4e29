package writer

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/thoreinstein/cback/internal/logging"
	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/process"
)

// Writer drives one optical drive. Implementations are not safe for
// concurrent use; callers serialize access per physical drive.
type Writer interface {
	// Device returns the filesystem path of the drive.
	Device() string
	// ScsiID returns the configured SCSI id, or "" when none was given.
	ScsiID() string
	// HardwareID returns the id passed to the burner as dev=.
	HardwareID() string
	// DriveSpeed returns the configured speed, or nil for the drive default.
	DriveSpeed() *int
	Media() media.Profile
	Capabilities() Capabilities
	IsRewritable() bool

	// RetrieveCapacity reports the space used and available on the loaded
	// media. entireDisc assumes the disc will be rewritten from scratch.
	RetrieveCapacity(ctx context.Context, entireDisc, useMulti bool) (media.Capacity, error)

	OpenTray(ctx context.Context) error
	CloseTray(ctx context.Context) error
	UnlockTray(ctx context.Context) error
	// RefreshMedia cycles the tray so the drive rereads the media.
	RefreshMedia(ctx context.Context) error

	// InitializeImage discards any staged entries and starts a new image.
	InitializeImage(newDisc bool, tempDir, label string) error
	AddImageEntry(path, graftPoint string) error
	SetImageNewDisc(newDisc bool) error
	EstimatedImageSize(ctx context.Context) (float64, error)

	// WriteImage burns imagePath, or the staged image when imagePath is
	// empty. newDisc is ignored for the staged image, which carries its own.
	WriteImage(ctx context.Context, imagePath string, newDisc, writeMulti bool) error
}

// Config describes a drive and the media loaded in it.
type Config struct {
	Device     string
	ScsiID     string
	DriveSpeed *int
	MediaType  media.Type
	// NoEject disables every tray operation.
	NoEject           bool
	RefreshMediaDelay time.Duration
	EjectDelay        time.Duration
}

type options struct {
	runner process.Runner
	clock  clock.Clock
	logger *slog.Logger
	dryRun bool
}

// Option configures a writer.
type Option func(*options)

// WithRunner sets the process runner. The default runs real processes.
func WithRunner(r process.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithClock sets the clock used for the configured delays.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDryRun skips the device existence checks and the capability query.
func WithDryRun() Option {
	return func(o *options) {
		o.dryRun = true
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewDiscard()
	}
	if o.clock == nil {
		o.clock = clock.RealClock{}
	}
	if o.runner == nil {
		o.runner = process.NewExecutor(process.WithLogger(o.logger))
	}
	return o
}

// base holds the state and behavior shared by the CD and DVD writers.
type base struct {
	cfg     Config
	profile media.Profile
	caps    Capabilities
	runner  process.Runner
	clock   clock.Clock
	logger  *slog.Logger
	dryRun  bool
	image   *StagedImage
}

func newBase(cfg Config, o options) (base, error) {
	profile, err := media.NewProfile(cfg.MediaType)
	if err != nil {
		return base{}, markConfig(err, "media type")
	}
	if err := ValidateDevice(cfg.Device, o.dryRun); err != nil {
		return base{}, err
	}
	if err := ValidateScsiID(cfg.ScsiID); err != nil {
		return base{}, err
	}
	if err := ValidateDriveSpeed(cfg.DriveSpeed); err != nil {
		return base{}, err
	}
	if cfg.RefreshMediaDelay < 0 || cfg.EjectDelay < 0 {
		return base{}, configErrorf("delays must not be negative")
	}
	if cfg.DriveSpeed != nil {
		speed := *cfg.DriveSpeed
		cfg.DriveSpeed = &speed
	}
	return base{
		cfg:     cfg,
		profile: profile,
		runner:  o.runner,
		clock:   o.clock,
		logger:  o.logger.With("device", cfg.Device),
		dryRun:  o.dryRun,
	}, nil
}

func (b *base) Device() string             { return b.cfg.Device }
func (b *base) ScsiID() string             { return b.cfg.ScsiID }
func (b *base) Media() media.Profile       { return b.profile }
func (b *base) Capabilities() Capabilities { return b.caps }
func (b *base) IsRewritable() bool         { return b.profile.Rewritable() }

func (b *base) DriveSpeed() *int {
	if b.cfg.DriveSpeed == nil {
		return nil
	}
	speed := *b.cfg.DriveSpeed
	return &speed
}

// run executes a command, folding launch failures into ErrDeviceIO.
func (b *base) run(ctx context.Context, name string, args []string, ignoreStderr bool) (process.Result, error) {
	res, err := b.runner.Run(ctx, process.Command{Name: name, Args: args, IgnoreStderr: ignoreStderr})
	if err != nil {
		return process.Result{}, markDevice(err, "executing "+name)
	}
	return res, nil
}

func (b *base) trayEnabled() bool {
	return !b.cfg.NoEject && b.caps.HasTray && b.caps.CanEject
}

func (b *base) sleep(ctx context.Context, d time.Duration, reason string) {
	if d <= 0 {
		return
	}
	b.logger.DebugContext(ctx, "sleeping per configuration", "delay", d, "reason", reason)
	b.clock.Sleep(d)
}

// OpenTray ejects the media. A failed eject is retried once after unlocking
// the tray, which clears the "Inappropriate ioctl for device" state some
// drives are left in after a burn.
func (b *base) OpenTray(ctx context.Context) error {
	if !b.trayEnabled() {
		return nil
	}

	res, err := b.run(ctx, EjectCommand, OpenTrayArgs(b.cfg.Device), false)
	if err != nil {
		return err
	}
	if !res.Success() {
		b.logger.DebugContext(ctx, "eject failed; unlocking tray before retrying", "exit_code", res.ExitCode)
		if err := b.UnlockTray(ctx); err != nil {
			return err
		}
		res, err = b.run(ctx, EjectCommand, OpenTrayArgs(b.cfg.Device), false)
		if err != nil {
			return err
		}
		if !res.Success() {
			return deviceErrorf("exit status %d opening tray (failed even after unlocking tray)", res.ExitCode)
		}
		b.logger.DebugContext(ctx, "eject succeeded after unlocking tray")
	}

	b.sleep(ctx, b.cfg.EjectDelay, "eject delay")
	return nil
}

// CloseTray loads the media.
func (b *base) CloseTray(ctx context.Context) error {
	if !b.trayEnabled() {
		return nil
	}
	res, err := b.run(ctx, EjectCommand, CloseTrayArgs(b.cfg.Device), false)
	if err != nil {
		return err
	}
	if !res.Success() {
		return deviceErrorf("exit status %d closing tray", res.ExitCode)
	}
	return nil
}

// UnlockTray releases the drive's tray lock.
func (b *base) UnlockTray(ctx context.Context) error {
	if !b.trayEnabled() {
		return nil
	}
	res, err := b.run(ctx, EjectCommand, UnlockTrayArgs(b.cfg.Device), false)
	if err != nil {
		return err
	}
	if !res.Success() {
		return deviceErrorf("exit status %d unlocking tray", res.ExitCode)
	}
	return nil
}

// RefreshMedia opens and closes the tray, then unlocks it since some systems
// leave the tray locked after a write. The refresh delay applies even when
// the drive has no usable tray.
func (b *base) RefreshMedia(ctx context.Context) error {
	if err := b.OpenTray(ctx); err != nil {
		return err
	}
	if err := b.CloseTray(ctx); err != nil {
		return err
	}
	if err := b.UnlockTray(ctx); err != nil {
		return err
	}
	b.sleep(ctx, b.cfg.RefreshMediaDelay, "refresh media delay")
	b.logger.DebugContext(ctx, "media refresh complete")
	return nil
}

func (b *base) InitializeImage(newDisc bool, tempDir, label string) error {
	img, err := newStagedImage(newDisc, tempDir, label)
	if err != nil {
		return err
	}
	b.image = img
	b.logger.Debug("initialized image", "new_disc", newDisc, "temp_dir", tempDir, "label", label)
	return nil
}

func (b *base) AddImageEntry(path, graftPoint string) error {
	img, err := b.requireImage("AddImageEntry")
	if err != nil {
		return err
	}
	return img.add(path, graftPoint)
}

func (b *base) SetImageNewDisc(newDisc bool) error {
	img, err := b.requireImage("SetImageNewDisc")
	if err != nil {
		return err
	}
	img.NewDisc = newDisc
	return nil
}

// StagedImage returns the current staged image, or nil before
// InitializeImage.
func (b *base) StagedImage() *StagedImage {
	return b.image
}

func (b *base) requireImage(op string) (*StagedImage, error) {
	if b.image == nil {
		return nil, configErrorf("must call InitializeImage before %s", op)
	}
	return b.image, nil
}
