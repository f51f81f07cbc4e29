package writer

import (
	"os"
	"slices"
	"unicode/utf8"
)

// MaxLabelLength is the longest media label accepted by InitializeImage.
const MaxLabelLength = 25

// ApplicationID is recorded in the ISO header of images the CD writer builds.
const ApplicationID = "cback"

// StagedImage describes the next burn before it is materialized.
type StagedImage struct {
	NewDisc bool
	// TempDir receives the temporary image file on the staged write path.
	TempDir string
	// Label is the ISO volume id; empty means none.
	Label string

	entries map[string]string
}

func newStagedImage(newDisc bool, tempDir, label string) (*StagedImage, error) {
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return nil, configErrorf("media label %q exceeds %d characters", label, MaxLabelLength)
	}
	return &StagedImage{
		NewDisc: newDisc,
		TempDir: tempDir,
		Label:   label,
		entries: make(map[string]string),
	}, nil
}

// add maps path to graft, replacing any earlier mapping for the same path.
func (s *StagedImage) add(path, graft string) error {
	if _, err := os.Stat(path); err != nil {
		return markConfig(err, "image entry "+path)
	}
	s.entries[path] = graft
	return nil
}

// Entries returns a copy of the staged path to graft point mapping.
func (s *StagedImage) Entries() map[string]string {
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Paths returns the staged paths in sorted order.
func (s *StagedImage) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Len returns the number of staged entries.
func (s *StagedImage) Len() int {
	return len(s.entries)
}
