package medialabel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kdomanski/iso9660"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/cback/internal/logging"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC), "CEDAR BACKUP 02-JAN-2024"},
		{time.Date(2005, 12, 25, 0, 0, 0, 0, time.UTC), "CEDAR BACKUP 25-DEC-2005"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := Build(tt.now)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 25, "labels must fit the staged image limit")
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		label      string
		rewritable bool
		wantErr    bool
	}{
		{"rewritable with label", "CEDAR BACKUP 02-JAN-2024", true, false},
		{"rewritable without label", "", true, true},
		{"rewritable foreign label", "UBUNTU 24.04", true, true},
		{"write-once without label", "", false, false},
		{"write-once with label", "CEDAR BACKUP 02-JAN-2024", false, false},
		{"write-once foreign label", "PHOTOS", false, true},
		{"prefix is case sensitive", "cedar backup 02-jan-2024", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.label, tt.rewritable)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotInitialized)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// buildISO writes a small ISO9660 image with the given volume label.
func buildISO(t *testing.T, label string) string {
	t.Helper()
	w, err := iso9660.NewWriter()
	require.NoError(t, err)
	defer func() {
		_ = w.Cleanup()
	}()

	require.NoError(t, w.AddFile(strings.NewReader("cback"), "CEDARBACKUP/README"))

	path := filepath.Join(t.TempDir(), "media.iso")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, w.WriteTo(f, label))
	return path
}

func TestRead(t *testing.T) {
	path := buildISO(t, "CEDAR BACKUP 02-JAN-2024")

	label, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "CEDAR BACKUP 02-JAN-2024", label)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o600))
	_, err = Read(garbage)
	assert.Error(t, err)
}

func TestCheckMediaState(t *testing.T) {
	ctx := logging.NewContext(context.Background(), logging.ForTest(t))
	labeled := buildISO(t, "CEDAR BACKUP 02-JAN-2024")
	foreign := buildISO(t, "PHOTOS")
	blank := filepath.Join(t.TempDir(), "blank")
	require.NoError(t, os.WriteFile(blank, nil, 0o600))

	assert.NoError(t, CheckMediaState(ctx, labeled, true))
	assert.NoError(t, CheckMediaState(ctx, labeled, false))
	assert.ErrorIs(t, CheckMediaState(ctx, foreign, false), ErrNotInitialized)
	assert.ErrorIs(t, CheckMediaState(ctx, blank, true), ErrNotInitialized)
	assert.NoError(t, CheckMediaState(ctx, blank, false))
}
