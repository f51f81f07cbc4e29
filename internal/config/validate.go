package config

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/store"
	"github.com/thoreinstein/cback/internal/writer"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrInvalidValue indicates a field holds an unsupported value.
	ErrInvalidValue = errors.New("invalid value")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrMissingValue indicates a required field is empty.
	ErrMissingValue = errors.New("value is required")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	if cfg.WorkingDir != "" {
		if err := validatePath(cfg.WorkingDir); err != nil {
			errs = append(errs, &FieldError{Field: "working_dir", Value: cfg.WorkingDir, Err: err})
		}
	}

	errs = append(errs, validateStore(&cfg.Store)...)

	for name, path := range cfg.Commands {
		if err := validatePath(path); err != nil {
			errs = append(errs, &FieldError{Field: "commands." + name, Value: path, Err: err})
		}
	}

	return errs
}

func validateStore(s *Store) []error {
	var errs []error

	deviceType := strings.ToLower(s.DeviceType)
	if deviceType != writer.DeviceTypeCD && deviceType != writer.DeviceTypeDVD {
		errs = append(errs, &FieldError{Field: "store.device_type", Value: s.DeviceType, Err: ErrInvalidValue})
	}

	mt, err := media.ParseType(s.MediaType)
	switch {
	case err != nil:
		errs = append(errs, &FieldError{Field: "store.media_type", Value: s.MediaType, Err: ErrInvalidValue})
	case deviceType == writer.DeviceTypeCD && !mt.IsCD(), deviceType == writer.DeviceTypeDVD && !mt.IsDVD():
		errs = append(errs, &FieldError{
			Field: "store.media_type",
			Value: s.MediaType,
			Err:   errors.Wrapf(ErrInvalidValue, "not supported by %s", deviceType),
		})
	}

	switch {
	case s.DevicePath == "":
		errs = append(errs, &FieldError{Field: "store.device_path", Err: ErrMissingValue})
	case !filepath.IsAbs(s.DevicePath):
		errs = append(errs, &FieldError{Field: "store.device_path", Value: s.DevicePath, Err: ErrInvalidPath})
	}

	if err := writer.ValidateScsiID(s.ScsiID); err != nil {
		errs = append(errs, &FieldError{Field: "store.scsi_id", Value: s.ScsiID, Err: ErrInvalidValue})
	}
	if s.DriveSpeed < 0 {
		errs = append(errs, &FieldError{Field: "store.drive_speed", Err: errors.Wrap(ErrInvalidValue, "must be >= 1 when set")})
	}
	if s.RefreshMediaDelay < 0 {
		errs = append(errs, &FieldError{Field: "store.refresh_media_delay", Err: errors.Wrap(ErrInvalidValue, "must not be negative")})
	}
	if s.EjectDelay < 0 {
		errs = append(errs, &FieldError{Field: "store.eject_delay", Err: errors.Wrap(ErrInvalidValue, "must not be negative")})
	}
	if _, err := store.ParseWeekday(s.StartingDay); err != nil {
		errs = append(errs, &FieldError{Field: "store.starting_day", Value: s.StartingDay, Err: ErrInvalidValue})
	}

	if b := s.BlankBehavior; b != nil {
		mode := store.BlankMode(strings.ToLower(b.Mode))
		if mode != store.BlankDaily && mode != store.BlankWeekly {
			errs = append(errs, &FieldError{Field: "store.blank_behavior.mode", Value: b.Mode, Err: ErrInvalidValue})
		}
		if b.Factor <= 0 {
			errs = append(errs, &FieldError{Field: "store.blank_behavior.factor", Err: errors.Wrap(ErrInvalidValue, "must be positive")})
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Empty paths are valid (they mean "use default")
	if path == "" {
		return nil
	}

	// Check for null bytes which are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}

// FieldError reports a problem with one configuration field.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
