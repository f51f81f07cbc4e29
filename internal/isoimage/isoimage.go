// Package isoimage estimates and builds ISO 9660 images with mkisofs.
//
// Entries map a local path to the graft point it is placed under inside the
// image. Unlike plain mkisofs, a directory added without contentsOnly keeps
// its own name inside the image: adding /etc/X11 with no graft point
// creates /X11 on the disc.
package isoimage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/process"
)

// Command is the logical name of the image tool.
const Command = "mkisofs"

var (
	// ErrNoEntries is returned when estimating or writing an empty image.
	ErrNoEntries = errors.New("image does not contain any entries")

	// ErrInvalidEntry is returned for paths that cannot be added to an image.
	ErrInvalidEntry = errors.New("invalid image entry")

	// ErrTool is returned when mkisofs fails or prints something unexpected.
	ErrTool = errors.New("mkisofs failed")
)

// Image is an ISO image under construction.
type Image struct {
	runner process.Runner

	device     string
	boundaries *media.Boundaries

	applicationID string
	volumeID      string

	entries map[string]string
}

// Option configures an Image.
type Option func(*Image)

// WithMultisession appends the image to an existing session on device. Both
// values are required; a nil boundary produces a single-session image.
func WithMultisession(device string, b *media.Boundaries) Option {
	return func(img *Image) {
		img.device = device
		img.boundaries = b
	}
}

// WithVolumeID sets the ISO volume id (the disc label).
func WithVolumeID(id string) Option {
	return func(img *Image) {
		img.volumeID = id
	}
}

// WithApplicationID sets the ISO application id header.
func WithApplicationID(id string) Option {
	return func(img *Image) {
		img.applicationID = id
	}
}

// New creates an empty image whose mkisofs invocations go through runner.
func New(runner process.Runner, opts ...Option) *Image {
	img := &Image{
		runner:  runner,
		entries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(img)
	}
	return img
}

// AddEntry adds a file or directory to the image.
//
// An explicit graft overrides the image-wide default. With contentsOnly a
// directory's children are placed directly under the graft point, which is
// the standard mkisofs behavior. Adding a path twice fails unless override
// is set. Symbolic links are rejected.
func (img *Image) AddEntry(p, graft string, override, contentsOnly bool) error {
	if _, exists := img.entries[p]; exists && !override {
		return errors.Wrapf(ErrInvalidEntry, "path %s has already been added", p)
	}

	info, err := os.Lstat(p)
	if err != nil {
		return errors.Wrapf(ErrInvalidEntry, "path %s: %v", p, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return errors.Wrapf(ErrInvalidEntry, "path %s must not be a link", p)
	}

	switch {
	case info.IsDir():
		if contentsOnly {
			img.entries[p] = graft
		} else if graft != "" {
			img.entries[p] = path.Join(graft, filepath.Base(p))
		} else {
			img.entries[p] = filepath.Base(p)
		}
	case info.Mode().IsRegular():
		img.entries[p] = graft
	default:
		return errors.Wrapf(ErrInvalidEntry, "path %s must be a file or a directory", p)
	}
	return nil
}

// Entries returns a copy of the path to graft point mapping. An empty graft
// point means the entry is placed at the image root.
func (img *Image) Entries() map[string]string {
	out := make(map[string]string, len(img.entries))
	for k, v := range img.entries {
		out[k] = v
	}
	return out
}

// EstimatedSize returns the size of the image in bytes as reported by
// mkisofs -print-size.
func (img *Image) EstimatedSize(ctx context.Context) (float64, error) {
	if len(img.entries) == 0 {
		return 0, ErrNoEntries
	}

	res, err := img.runner.Run(ctx, process.Command{
		Name:         Command,
		Args:         img.SizeArgs(),
		IgnoreStderr: true,
	})
	if err != nil {
		return 0, err
	}
	if !res.Success() {
		return 0, errors.Wrapf(ErrTool, "exit status %d estimating size", res.ExitCode)
	}
	if len(res.Output) != 1 {
		return 0, errors.Wrapf(ErrTool, "unable to parse size output (%d lines)", len(res.Output))
	}

	sectors, err := strconv.ParseFloat(strings.TrimSpace(res.Output[0]), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrTool, "unable to parse size output %q", res.Output[0])
	}
	return media.SectorsToBytes(sectors), nil
}

// Write builds the image at imagePath.
func (img *Image) Write(ctx context.Context, imagePath string) error {
	if len(img.entries) == 0 {
		return ErrNoEntries
	}

	res, err := img.runner.Run(ctx, process.Command{
		Name: Command,
		Args: img.WriteArgs(imagePath),
	})
	if err != nil {
		return err
	}
	if !res.Success() {
		return errors.Wrapf(ErrTool, "exit status %d building image", res.ExitCode)
	}
	return nil
}

// SizeArgs returns the mkisofs arguments used to estimate the image size.
func (img *Image) SizeArgs() []string {
	args := img.generalArgs()
	args = append(args, "-print-size", "-graft-points", "-r")
	args = append(args, img.multisessionArgs()...)
	return append(args, GraftEntries(img.entries)...)
}

// WriteArgs returns the mkisofs arguments used to build the image at
// imagePath.
func (img *Image) WriteArgs(imagePath string) []string {
	args := img.generalArgs()
	args = append(args, "-graft-points", "-r")
	args = append(args, "-o", imagePath)
	args = append(args, img.multisessionArgs()...)
	return append(args, GraftEntries(img.entries)...)
}

func (img *Image) generalArgs() []string {
	var args []string
	if img.applicationID != "" {
		args = append(args, "-A", img.applicationID)
	}
	if img.volumeID != "" {
		args = append(args, "-V", img.volumeID)
	}
	return args
}

func (img *Image) multisessionArgs() []string {
	if img.device == "" || img.boundaries == nil {
		return nil
	}
	return []string{"-C", img.boundaries.String(), "-M", img.device}
}

// GraftEntries renders entries for -graft-points in path order, so equal
// entry sets always produce identical arguments. An entry with a graft point
// becomes "graft/=path"; one without stays a bare path.
func GraftEntries(entries map[string]string) []string {
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		graft := entries[p]
		if graft == "" {
			out = append(out, p)
			continue
		}
		out = append(out, fmt.Sprintf("%s/=%s", strings.Trim(graft, "/"), p))
	}
	return out
}
