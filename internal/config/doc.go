// Package config provides configuration management for the cback CLI.
//
// # Configuration File
//
// The default configuration file location is ~/.config/cback/config.yaml.
// The configuration file uses YAML format with the following structure:
//
//	version: 1
//	working_dir: /var/tmp
//	store:
//	  device_type: cdwriter      # cdwriter | dvdwriter
//	  media_type: cdrw-74        # cdr-74 | cdrw-74 | cdr-80 | cdrw-80 | dvd+r | dvd+rw
//	  device_path: /dev/cdrw
//	  scsi_id: "0,0,0"           # optional
//	  drive_speed: 4             # optional
//	  no_eject: false
//	  refresh_media_delay: 0     # seconds
//	  eject_delay: 0             # seconds
//	  check_media: false
//	  starting_day: monday
//	  blank_behavior:            # optional
//	    mode: weekly             # daily | weekly
//	    factor: 1.3
//	commands:                    # optional executable overrides
//	  cdrecord: /usr/bin/cdrecord
//
// Any key can be overridden from the environment with the CBACK_ prefix and
// dots replaced by underscores, e.g. CBACK_STORE_DEVICE_PATH=/dev/sr0.
//
// # Loading Configuration
//
// Call [Init] once, then [Load] with an explicit path or "" to search the
// current directory and the default location:
//
//	config.Init()
//	cfg, err := config.Load("")
//
// # Validation
//
// [Load] does not validate, so commands that only edit the file keep
// working on a broken configuration. Commands that touch the drive call
// [Validate], which reports every problem at once:
//
//	if errs := config.Validate(cfg); len(errs) > 0 {
//	    for _, e := range errs {
//	        fmt.Println(e)
//	    }
//	}
package config
