package writer

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

// Error categories. Every error returned by this package matches exactly
// one of these with errors.Is.
var (
	// ErrConfiguration covers invalid devices, SCSI ids, drive speeds and
	// media types, and staging calls made out of order.
	ErrConfiguration = errors.New("writer configuration error")

	// ErrDeviceIO covers failed burner and eject commands.
	ErrDeviceIO = errors.New("device I/O error")

	// ErrCapacityExceeded is matched by *CapacityError.
	ErrCapacityExceeded = errors.New("media does not contain enough capacity to store image")

	// ErrParse is returned when required tool output has an unexpected shape.
	ErrParse = errors.New("unable to parse tool output")
)

// CapacityError reports an image that does not fit on the media.
type CapacityError struct {
	// Available and Requested are in bytes.
	Available float64
	Requested float64
	// Known is false when the burner reported an overburn without usable
	// numbers.
	Known bool
}

func (e *CapacityError) Error() string {
	if !e.Known {
		return ErrCapacityExceeded.Error()
	}
	return ErrCapacityExceeded.Error() + ": image " + humanize.IBytes(uint64(e.Requested)) +
		", available " + humanize.IBytes(uint64(e.Available))
}

// Unwrap makes a CapacityError match ErrCapacityExceeded.
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

func configErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

func deviceErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrDeviceIO, format, args...)
}

// markDevice attaches ErrDeviceIO to a collaborator error while keeping the
// original cause inspectable.
func markDevice(err error, msg string) error {
	return fmt.Errorf("%w: %s: %w", ErrDeviceIO, msg, err)
}

// markConfig attaches ErrConfiguration to a collaborator error.
func markConfig(err error, msg string) error {
	return fmt.Errorf("%w: %s: %w", ErrConfiguration, msg, err)
}
