package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/store"
)

func TestInit(t *testing.T) {
	Init()

	if viper.GetInt("version") != 1 {
		t.Errorf("expected version default 1, got %d", viper.GetInt("version"))
	}
	if got := viper.GetString("store.device_type"); got != "cdwriter" {
		t.Errorf("store.device_type default = %q, want cdwriter", got)
	}
	if got := viper.GetString("working_dir"); got != "/var/tmp" {
		t.Errorf("working_dir default = %q, want /var/tmp", got)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	Init()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.Store.MediaType != "cdrw-74" || cfg.Store.StartingDay != "monday" {
		t.Errorf("expected defaults, got %+v", cfg.Store)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := []byte(`version: 1
working_dir: /srv/work
store:
  device_type: dvdwriter
  media_type: dvd+rw
  device_path: /dev/dvd
  drive_speed: 4
  eject_delay: 3
  blank_behavior:
    mode: weekly
    factor: 1.3
commands:
  growisofs: /opt/bin/growisofs
`)
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		t.Fatal(err)
	}

	Init()
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.WorkingDir != "/srv/work" {
		t.Errorf("WorkingDir = %q, want /srv/work", cfg.WorkingDir)
	}
	if cfg.Store.DevicePath != "/dev/dvd" || cfg.Store.DriveSpeed != 4 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.BlankBehavior == nil || cfg.Store.BlankBehavior.Factor != 1.3 {
		t.Errorf("BlankBehavior = %+v, want weekly/1.3", cfg.Store.BlankBehavior)
	}
	if cfg.Commands["growisofs"] != "/opt/bin/growisofs" {
		t.Errorf("Commands = %v", cfg.Commands)
	}
	if cfg.Store.StartingDay != "monday" {
		t.Errorf("StartingDay = %q, want default monday", cfg.Store.StartingDay)
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestLoad_FormatFromExtension(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"config.toml", "working_dir = \"/srv/work\"\n\n[store]\ndevice_path = \"/dev/sr1\"\nmedia_type = \"cdr-80\"\n"},
		{"config.json", `{"working_dir": "/srv/work", "store": {"device_path": "/dev/sr1", "media_type": "cdr-80"}}`},
		{"config.yml", "working_dir: /srv/work\nstore:\n  device_path: /dev/sr1\n  media_type: cdr-80\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.name)
			if err := os.WriteFile(configPath, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			Init()
			cfg, err := Load(configPath)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.WorkingDir != "/srv/work" || cfg.Store.DevicePath != "/dev/sr1" || cfg.Store.MediaType != "cdr-80" {
				t.Errorf("Load() = %+v, want values from %s", cfg, tt.name)
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("store:\n  device_path: /dev/cdrw\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CBACK_STORE_DEVICE_PATH", "/dev/sr1")

	Init()
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Store.DevicePath != "/dev/sr1" {
		t.Errorf("DevicePath = %q, want env override /dev/sr1", cfg.Store.DevicePath)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	Init()

	_, err := Load("/non/existent/path/config.yaml")
	if err == nil {
		t.Error("Load() with non-existent explicit path should error")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("store: [unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	Init()
	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for malformed YAML")
	}
}

func TestStore_WriterConfig(t *testing.T) {
	s := Store{
		MediaType:         "cdr-80",
		DevicePath:        "/dev/cdrw",
		ScsiID:            "0,0,0",
		DriveSpeed:        8,
		NoEject:           true,
		RefreshMediaDelay: 5,
		EjectDelay:        2,
	}
	got, err := s.WriterConfig()
	if err != nil {
		t.Fatalf("WriterConfig() error = %v", err)
	}
	if got.MediaType != media.CDR80 || got.Device != "/dev/cdrw" || got.ScsiID != "0,0,0" || !got.NoEject {
		t.Errorf("WriterConfig() = %+v", got)
	}
	if got.DriveSpeed == nil || *got.DriveSpeed != 8 {
		t.Errorf("DriveSpeed = %v, want 8", got.DriveSpeed)
	}
	if got.RefreshMediaDelay != 5*time.Second || got.EjectDelay != 2*time.Second {
		t.Errorf("delays = %v/%v, want 5s/2s", got.RefreshMediaDelay, got.EjectDelay)
	}

	s.DriveSpeed = 0
	got, err = s.WriterConfig()
	if err != nil {
		t.Fatalf("WriterConfig() error = %v", err)
	}
	if got.DriveSpeed != nil {
		t.Errorf("DriveSpeed = %v, want nil for drive default", *got.DriveSpeed)
	}

	s.MediaType = "bluray"
	if _, err := s.WriterConfig(); err == nil {
		t.Error("WriterConfig() expected error for unknown media type")
	}
}

func TestStore_Blank(t *testing.T) {
	if got := (Store{}).Blank(); got != nil {
		t.Errorf("Blank() = %+v, want nil", got)
	}
	got := Store{BlankBehavior: &BlankBehavior{Mode: "Daily", Factor: 2}}.Blank()
	if got == nil || got.Mode != store.BlankDaily || got.Factor != 2 {
		t.Errorf("Blank() = %+v, want daily/2", got)
	}
}
