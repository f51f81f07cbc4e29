// Package media describes optical media geometry and the capacity arithmetic
// used to decide whether an image fits on a disc.
//
// All capacities are tracked in ISO sectors of [SectorSize] bytes. A
// [Profile] is built once from a [Type] and never changes afterwards:
//
//	profile, err := media.NewProfile(media.CDRW74)
//	if err != nil {
//		return err
//	}
//	capacity := media.ComputeCapacity(profile, nil)
//	fmt.Println(capacity.BytesAvailable)
//
// # Multisession
//
// When a disc already carries one or more sessions, the burner reports the
// session boundaries as a pair of sector offsets. [ComputeCapacity] treats a
// nil boundary, or an upper boundary of zero, as a full-disc rewrite and
// charges the initial lead-in; otherwise it charges the (smaller) lead-in of
// a successive session against the space after the upper boundary.
package media
