// Package store writes staged backup directories to optical media.
//
// It holds the decisions made around a burn rather than the burn itself:
// whether the media should be rewritten from scratch, which label it gets,
// and where each staging directory lands on the disc. The actual device work
// is delegated to a [writer.Writer].
package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"github.com/thoreinstein/cback/internal/logging"
	"github.com/thoreinstein/cback/internal/medialabel"
	"github.com/thoreinstein/cback/internal/writer"
)

// InitDirName is the directory written to media by InitializeMedia.
const InitDirName = "CedarBackup"

// BlankMode controls when the blanking factor is consulted.
type BlankMode string

const (
	BlankDaily  BlankMode = "daily"
	BlankWeekly BlankMode = "weekly"
)

// BlankBehavior rewrites media early when it is close to full. The media is
// rewritten when available/(1+required) <= Factor.
type BlankBehavior struct {
	Mode   BlankMode
	Factor float64
}

// ErrNotRewritable is returned when initializing write-once media.
var ErrNotRewritable = errors.New("only rewritable media types can be initialized")

// NewDisc decides whether the next write starts a new disc.
//
// A rebuild always does. Without a blank behavior, the disc is rewritten on
// the first day of the week. With one, the blanking factor decides, checked
// every day for daily mode and on the first day of the week for weekly mode.
// The writer must already have its entries staged.
func NewDisc(ctx context.Context, w writer.Writer, rebuild, todayIsStart bool, behavior *BlankBehavior) (bool, error) {
	logger := logging.FromContext(ctx)

	if rebuild {
		logger.DebugContext(ctx, "new disc required by rebuild")
		return true, nil
	}
	if behavior == nil {
		logger.DebugContext(ctx, "default media blanking behavior in effect", "start_of_week", todayIsStart)
		return todayIsStart, nil
	}
	if behavior.Mode != BlankDaily && !(behavior.Mode == BlankWeekly && todayIsStart) {
		logger.DebugContext(ctx, "no blank factor calculation required", "mode", behavior.Mode)
		return false, nil
	}

	capacity, err := w.RetrieveCapacity(ctx, false, true)
	if err != nil {
		return false, errors.Wrap(err, "retrieving capacity")
	}
	required, err := w.EstimatedImageSize(ctx)
	if err != nil {
		return false, errors.Wrap(err, "estimating image size")
	}
	ratio := capacity.BytesAvailable / (1.0 + required)
	newDisc := ratio <= behavior.Factor
	logger.DebugContext(ctx, "blank factor calculated",
		"available", humanize.IBytes(uint64(capacity.BytesAvailable)),
		"required", humanize.IBytes(uint64(required)),
		"ratio", ratio,
		"factor", behavior.Factor,
		"new_disc", newDisc)
	return newDisc, nil
}

// IsStartOfWeek reports whether now falls on the configured starting day.
func IsStartOfWeek(now time.Time, start time.Weekday) bool {
	return now.Weekday() == start
}

// ParseWeekday parses an English day name such as "monday".
func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, nil
		}
	}
	return 0, errors.Newf("invalid starting day %q", name)
}

// GraftPoints maps each staging directory to its location on disc, the path
// relative to root. With root /opt/stage, /opt/stage/2005/02/10 is written
// to /2005/02/10.
func GraftPoints(root string, dirs []string) (map[string]string, error) {
	out := make(map[string]string, len(dirs))
	for _, dir := range dirs {
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "locating %s under %s", dir, root)
		}
		if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, errors.Newf("staging directory %s is not below %s", dir, root)
		}
		out[dir] = filepath.ToSlash(rel)
	}
	return out, nil
}

// Request describes one store run.
type Request struct {
	// WorkingDir receives the temporary image.
	WorkingDir string
	// StagingDirs maps each staging directory to its graft point.
	StagingDirs  map[string]string
	Rebuild      bool
	TodayIsStart bool
	Blank        *BlankBehavior
	Now          time.Time
}

// WriteStagingDirs burns the staging directories under a fresh media label,
// deciding with NewDisc whether the disc is rewritten first.
func WriteStagingDirs(ctx context.Context, w writer.Writer, req Request) error {
	logger := logging.FromContext(ctx)
	if len(req.StagingDirs) == 0 {
		return errors.New("no staging directories to write")
	}

	label := medialabel.Build(req.Now)
	if err := w.InitializeImage(true, req.WorkingDir, label); err != nil {
		return err
	}
	for dir, graft := range req.StagingDirs {
		logger.DebugContext(ctx, "adding staging directory", "path", dir, "graft_point", graft)
		if err := w.AddImageEntry(dir, graft); err != nil {
			return err
		}
	}

	newDisc, err := NewDisc(ctx, w, req.Rebuild, req.TodayIsStart, req.Blank)
	if err != nil {
		return err
	}
	if err := w.SetImageNewDisc(newDisc); err != nil {
		return err
	}
	logger.InfoContext(ctx, "writing staging directories", "count", len(req.StagingDirs), "new_disc", newDisc, "label", label)
	return w.WriteImage(ctx, "", false, true)
}

// InitializeMedia writes a nearly empty image carrying a cback label, so
// later checks recognize the media. Only rewritable media can be
// initialized.
func InitializeMedia(ctx context.Context, w writer.Writer, workingDir string, now time.Time) error {
	if !w.IsRewritable() {
		return errors.Wrapf(ErrNotRewritable, "media type %s", w.Media().Type())
	}
	if err := w.RefreshMedia(ctx); err != nil {
		return err
	}

	label := medialabel.Build(now)
	if err := w.InitializeImage(true, workingDir, label); err != nil {
		return err
	}
	dir, err := os.MkdirTemp(workingDir, "cback-init-")
	if err != nil {
		return errors.Wrap(err, "creating initialization directory")
	}
	defer func() {
		if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).WarnContext(ctx, "unable to remove initialization directory", "path", dir, "error", err)
		}
	}()

	if err := w.AddImageEntry(dir, InitDirName); err != nil {
		return err
	}
	logging.FromContext(ctx).InfoContext(ctx, "initializing media", "label", label)
	return w.WriteImage(ctx, "", false, true)
}
