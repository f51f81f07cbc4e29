// Package medialabel manages the volume label cback writes on the media it
// prepares, and checks whether a loaded disc carries it.
package medialabel

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kdomanski/iso9660"

	"github.com/thoreinstein/cback/internal/logging"
)

// Prefix starts every label written by cback.
const Prefix = "CEDAR BACKUP"

// ErrNotInitialized indicates the loaded media was not prepared by cback.
var ErrNotInitialized = errors.New("media has not been initialized")

// Build returns the label for media written at now, for example
// "CEDAR BACKUP 02-JAN-2024".
func Build(now time.Time) string {
	return strings.ToUpper(Prefix + " " + now.Format("02-Jan-2006"))
}

// Read returns the ISO9660 volume label of the image or device at path.
func Read(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	img, err := iso9660.OpenImage(f)
	if err != nil {
		return "", errors.Wrapf(err, "reading ISO9660 descriptors from %s", path)
	}
	label, err := img.Label()
	if err != nil {
		return "", errors.Wrapf(err, "reading volume label from %s", path)
	}
	return strings.TrimSpace(label), nil
}

// Check decides whether media with the given label is usable. An empty label
// means the media has none. Rewritable media must carry a cback label;
// write-once media may be unlabeled since it cannot be initialized, but a
// foreign label is still rejected.
func Check(label string, rewritable bool) error {
	switch {
	case label == "" && rewritable:
		return errors.Wrap(ErrNotInitialized, "no media label available")
	case label == "":
		return nil
	case !strings.HasPrefix(label, Prefix):
		return errors.Wrapf(ErrNotInitialized, "unrecognized media label %q", label)
	}
	return nil
}

// CheckMediaState reads the label from device and applies Check. A disc
// whose label cannot be read is treated as unlabeled.
func CheckMediaState(ctx context.Context, device string, rewritable bool) error {
	logger := logging.FromContext(ctx)

	label, err := Read(device)
	if err != nil {
		logger.DebugContext(ctx, "unable to read media label", "device", device, "error", err)
		label = ""
	}
	if label == "" && !rewritable {
		logger.InfoContext(ctx, "media has no label; assuming OK since media is not rewritable", "device", device)
	}
	if err := Check(label, rewritable); err != nil {
		return err
	}
	logger.DebugContext(ctx, "media state OK", "device", device, "label", label)
	return nil
}
