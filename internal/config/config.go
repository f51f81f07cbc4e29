// Package config provides configuration management for cback using Viper.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/paths"
	"github.com/thoreinstein/cback/internal/store"
	"github.com/thoreinstein/cback/internal/writer"
)

// AppName is the application name used for config file naming.
const AppName = paths.AppName

// EnvPrefix prefixes environment overrides, e.g. CBACK_STORE_DEVICE_PATH.
const EnvPrefix = "CBACK"

// Config represents the top-level configuration structure.
type Config struct {
	Version    int    `mapstructure:"version" yaml:"version" toml:"version" json:"version"`
	WorkingDir string `mapstructure:"working_dir" yaml:"working_dir" toml:"working_dir" json:"working_dir"`
	Store      Store  `mapstructure:"store" yaml:"store" toml:"store" json:"store"`
	// Commands overrides the executable used for a command name, e.g.
	// cdrecord: /usr/local/bin/cdrecord.
	Commands map[string]string `mapstructure:"commands" yaml:"commands,omitempty" toml:"commands,omitempty" json:"commands,omitempty"`
}

// Store configures the drive written by the store commands.
type Store struct {
	DeviceType  string `mapstructure:"device_type" yaml:"device_type" toml:"device_type" json:"device_type"`
	MediaType   string `mapstructure:"media_type" yaml:"media_type" toml:"media_type" json:"media_type"`
	DevicePath  string `mapstructure:"device_path" yaml:"device_path" toml:"device_path" json:"device_path"`
	ScsiID      string `mapstructure:"scsi_id" yaml:"scsi_id,omitempty" toml:"scsi_id,omitempty" json:"scsi_id,omitempty"`
	DriveSpeed  int    `mapstructure:"drive_speed" yaml:"drive_speed,omitempty" toml:"drive_speed,omitempty" json:"drive_speed,omitempty"`
	NoEject     bool   `mapstructure:"no_eject" yaml:"no_eject" toml:"no_eject" json:"no_eject"`
	CheckMedia  bool   `mapstructure:"check_media" yaml:"check_media" toml:"check_media" json:"check_media"`
	StartingDay string `mapstructure:"starting_day" yaml:"starting_day" toml:"starting_day" json:"starting_day"`
	// Delays are in seconds.
	RefreshMediaDelay int            `mapstructure:"refresh_media_delay" yaml:"refresh_media_delay" toml:"refresh_media_delay" json:"refresh_media_delay"`
	EjectDelay        int            `mapstructure:"eject_delay" yaml:"eject_delay" toml:"eject_delay" json:"eject_delay"`
	BlankBehavior     *BlankBehavior `mapstructure:"blank_behavior" yaml:"blank_behavior,omitempty" toml:"blank_behavior,omitempty" json:"blank_behavior,omitempty"`
}

// BlankBehavior configures early rewriting of nearly full media.
type BlankBehavior struct {
	Mode   string  `mapstructure:"mode" yaml:"mode" toml:"mode" json:"mode"`
	Factor float64 `mapstructure:"factor" yaml:"factor" toml:"factor" json:"factor"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:    1,
		WorkingDir: paths.DefaultWorkingDir,
		Store: Store{
			DeviceType:  writer.DeviceTypeCD,
			MediaType:   media.CDRW74.String(),
			StartingDay: "monday",
		},
	}
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	def := Default()
	viper.SetDefault("version", def.Version)
	viper.SetDefault("working_dir", def.WorkingDir)
	viper.SetDefault("store.device_type", def.Store.DeviceType)
	viper.SetDefault("store.media_type", def.Store.MediaType)
	viper.SetDefault("store.device_path", "")
	viper.SetDefault("store.scsi_id", "")
	viper.SetDefault("store.drive_speed", 0)
	viper.SetDefault("store.no_eject", false)
	viper.SetDefault("store.check_media", false)
	viper.SetDefault("store.starting_day", def.Store.StartingDay)
	viper.SetDefault("store.refresh_media_delay", 0)
	viper.SetDefault("store.eject_delay", 0)
}

// fileType picks the viper config type from the file extension. Unknown or
// missing extensions are read as YAML.
func fileType(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "toml":
		return "toml"
	case "json":
		return "json"
	default:
		return "yaml"
	}
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType(fileType(path))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// Implicit load without a file: defaults apply
		case errors.As(err, &notFound):
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	return &cfg, nil
}

// Media parses the configured media type.
func (s Store) Media() (media.Type, error) {
	return media.ParseType(s.MediaType)
}

// WriterConfig converts the store section to a writer configuration.
func (s Store) WriterConfig() (writer.Config, error) {
	mt, err := s.Media()
	if err != nil {
		return writer.Config{}, err
	}
	cfg := writer.Config{
		Device:            s.DevicePath,
		ScsiID:            s.ScsiID,
		MediaType:         mt,
		NoEject:           s.NoEject,
		RefreshMediaDelay: time.Duration(s.RefreshMediaDelay) * time.Second,
		EjectDelay:        time.Duration(s.EjectDelay) * time.Second,
	}
	if s.DriveSpeed != 0 {
		speed := s.DriveSpeed
		cfg.DriveSpeed = &speed
	}
	return cfg, nil
}

// Blank converts the blank behavior, or returns nil when none is set.
func (s Store) Blank() *store.BlankBehavior {
	if s.BlankBehavior == nil {
		return nil
	}
	return &store.BlankBehavior{
		Mode:   store.BlankMode(strings.ToLower(s.BlankBehavior.Mode)),
		Factor: s.BlankBehavior.Factor,
	}
}

// Weekday parses the configured starting day of the week.
func (s Store) Weekday() (time.Weekday, error) {
	return store.ParseWeekday(s.StartingDay)
}
