package config

import (
	"testing"

	"github.com/thoreinstein/cback/internal/validator"
)

func issueFields(issues []validator.Issue) map[string]bool {
	fields := make(map[string]bool, len(issues))
	for _, i := range issues {
		fields[i.Field] = true
	}
	return fields
}

func TestLint_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.Store.CheckMedia = true
	cfg.Store.DriveSpeed = 4
	cfg.Store.BlankBehavior = &BlankBehavior{Mode: "weekly", Factor: 1.3}

	result := Lint(cfg)
	if len(result.Issues) != 0 {
		t.Errorf("Lint() = %v, want no issues", result.Issues)
	}
}

func TestLint_ErrorsCarryFields(t *testing.T) {
	cfg := validConfig()
	cfg.Store.DevicePath = "cdrw"
	cfg.Store.MediaType = "dvd+rw"

	result := Lint(cfg)
	if !result.HasErrors() {
		t.Fatal("HasErrors() = false, want true")
	}
	fields := issueFields(result.Errors())
	for _, want := range []string{"store.device_path", "store.media_type"} {
		if !fields[want] {
			t.Errorf("Errors() missing field %q: %v", want, result.Errors())
		}
	}
	for _, issue := range result.Issues {
		if issue.Context["device_type"] != "cdwriter" {
			t.Errorf("issue %q context = %v, want device_type=cdwriter", issue.Field, issue.Context)
		}
	}
}

func TestLint_WarningsAndNotes(t *testing.T) {
	cfg := validConfig()
	cfg.WorkingDir = "tmp"
	cfg.Store.NoEject = true
	cfg.Store.RefreshMediaDelay = 5
	cfg.Store.BlankBehavior = &BlankBehavior{Mode: "daily", Factor: 500}

	result := Lint(cfg)
	if result.HasErrors() {
		t.Fatalf("HasErrors() = true: %v", result.Errors())
	}

	warnings := issueFields(result.Warnings())
	for _, want := range []string{"working_dir", "store.check_media", "store.blank_behavior.factor"} {
		if !warnings[want] {
			t.Errorf("Warnings() missing %q: %v", want, result.Warnings())
		}
	}
	infos := issueFields(result.Infos())
	for _, want := range []string{"store.refresh_media_delay", "store.drive_speed"} {
		if !infos[want] {
			t.Errorf("Infos() missing %q: %v", want, result.Infos())
		}
	}
	if infos["store.blank_behavior"] {
		t.Error("blank_behavior note reported although a behavior is configured")
	}
}

func TestLint_WriteOnceMediaSkipsCheckMediaWarning(t *testing.T) {
	cfg := validConfig()
	cfg.Store.MediaType = "cdr-80"

	if issueFields(Lint(cfg).Warnings())["store.check_media"] {
		t.Error("check_media warning reported for write-once media")
	}
}

func TestLint_Nil(t *testing.T) {
	result := Lint(nil)
	if len(result.Issues) != 1 || !result.HasErrors() {
		t.Errorf("Lint(nil) = %v, want one error", result.Issues)
	}
}
