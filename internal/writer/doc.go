// Package writer drives optical media burners.
//
// A [Writer] wraps one physical drive. It discovers the drive's
// [Capabilities] once at construction, manages the tray, computes media
// capacity and burns either an existing ISO image or a staged set of
// entries. Two implementations exist: [CDWriter] on top of cdrecord and
// [DVDWriter] on top of growisofs. [New] picks one by device type.
//
// Every hardware interaction is a blocking external command run through a
// [process.Runner]. The argument builders ([CDWriteArgs], [DVDWriteArgs],
// ...) and output parsers ([ParseCapabilities], [ParseBoundaries],
// [ParseSectorsUsed], [SearchForOverburn]) are pure functions.
//
// # Staging
//
// A burn of loose files starts with InitializeImage, followed by any number
// of AddImageEntry calls and finally WriteImage with an empty image path:
//
//	if err := w.InitializeImage(true, "/var/tmp", label); err != nil {
//		return err
//	}
//	if err := w.AddImageEntry("/opt/backup/stage/2024/01/02", "2024/01/02"); err != nil {
//		return err
//	}
//	return w.WriteImage(ctx, "", false, true)
//
// The staged write checks the estimated image size against the available
// capacity before any burn command is issued.
//
// # Errors
//
// Errors match one of [ErrConfiguration], [ErrDeviceIO],
// [ErrCapacityExceeded] or [ErrParse]. Capacity failures are returned as
// [*CapacityError].
package writer
