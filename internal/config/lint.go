package config

import (
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/validator"
)

// Lint reports the Validate errors of cfg together with settings that are
// accepted but probably unintended.
func Lint(cfg *Config) *validator.Result {
	result := &validator.Result{}

	for _, err := range Validate(cfg) {
		var fe *FieldError
		if errors.As(err, &fe) {
			var value any
			if fe.Value != "" {
				value = fe.Value
			}
			result.AddError(fe.Field, fe.Err.Error(), value)
			continue
		}
		result.AddError("", err.Error(), nil)
	}
	if cfg == nil {
		return result
	}

	s := cfg.Store
	if cfg.WorkingDir != "" && !filepath.IsAbs(cfg.WorkingDir) {
		result.AddWarning("working_dir", "is relative; images are staged relative to the current directory", cfg.WorkingDir)
	}
	if mt, err := media.ParseType(s.MediaType); err == nil {
		if p, err := media.NewProfile(mt); err == nil && p.Rewritable() && !s.CheckMedia {
			result.AddWarning("store.check_media", "is disabled; rewritable media is overwritten without checking its label", false)
		}
		if s.BlankBehavior != nil && s.BlankBehavior.Factor > 100 {
			result.AddWarning("store.blank_behavior.factor", "is large enough that media is rewritten on every run", s.BlankBehavior.Factor)
		}
	}
	if s.NoEject && s.RefreshMediaDelay > 0 {
		result.AddInfo("store.refresh_media_delay", "still applies with no_eject; the tray is not cycled but cback waits", s.RefreshMediaDelay)
	}
	if s.DriveSpeed == 0 {
		result.AddInfo("store.drive_speed", "not set; the drive default is used", nil)
	}
	if s.BlankBehavior == nil {
		result.AddInfo("store.blank_behavior", "not set; media is rewritten on "+s.StartingDay, nil)
	}
	for i := range result.Issues {
		result.Issues[i].Context = map[string]string{"device_type": s.DeviceType}
	}

	return result
}
