package writer

import (
	"context"
	"strings"
)

// Device types accepted by New.
const (
	DeviceTypeCD  = "cdwriter"
	DeviceTypeDVD = "dvdwriter"
)

// New creates the writer for deviceType.
func New(ctx context.Context, deviceType string, cfg Config, opts ...Option) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(deviceType)) {
	case DeviceTypeCD:
		w, err := NewCDWriter(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return w, nil
	case DeviceTypeDVD:
		w, err := NewDVDWriter(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, configErrorf("unknown device type %q (valid: %s, %s)", deviceType, DeviceTypeCD, DeviceTypeDVD)
	}
}
