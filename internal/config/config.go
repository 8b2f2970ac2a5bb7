// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Columns names the three location columns appended to merged weather logs.
type Columns struct {
	Latitude  string `yaml:"latitude" validate:"required"`
	Longitude string `yaml:"longitude" validate:"required"`
	Elevation string `yaml:"elevation" validate:"required"`
}

// Config represents the root configuration file structure.
type Config struct {
	// Timezone is the IANA name of the zone the weather-log timestamps are
	// recorded in. Kestrel exports carry no zone of their own.
	Timezone string `yaml:"timezone" validate:"required"`

	TimeField  string `yaml:"time_field" validate:"required"`
	TimeLayout string `yaml:"time_layout" validate:"required"`

	// PreambleLines is the number of device metadata lines above the header.
	PreambleLines int `yaml:"preamble_lines" validate:"min=0"`

	Columns Columns `yaml:"columns"`

	TrackExt string `yaml:"track_ext" validate:"required,startswith=."`
	LogExt   string `yaml:"log_ext" validate:"required,startswith=."`

	LocatedDir    string `yaml:"located_dir" validate:"required"`
	OriginalsDir  string `yaml:"originals_dir" validate:"required"`
	LocatedSuffix string `yaml:"located_suffix"`

	KeepOriginals bool `yaml:"keep_originals"`
	Concurrency   int  `yaml:"concurrency" validate:"min=1"`
}

// Default returns the built-in configuration matching Kestrel Link CSV
// exports and the usual field-trip directory layout.
func Default() *Config {
	return &Config{
		Timezone:      "CET",
		TimeField:     "Time",
		TimeLayout:    "2006-01-02 15:04:05",
		PreambleLines: 9,
		Columns: Columns{
			Latitude:  "latitude",
			Longitude: "longitude",
			Elevation: "elevation",
		},
		TrackExt:      ".gpx",
		LogExt:        ".csv",
		LocatedDir:    "located_data",
		OriginalsDir:  "original_data",
		LocatedSuffix: "-located",
		Concurrency:   4,
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// An empty path yields the defaults; keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and that the configured zone resolves.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// Location resolves the configured source time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
