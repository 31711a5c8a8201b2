package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for a restore run
type Config struct {
	ExifToolPath     string
	FFmpegPath       string
	FileTimeout      time.Duration
	Timezone         string
	Location         *time.Location
	ReportURI        string
	MinTruncatedStem int

	DeleteJSON    bool
	ConvertAVI    bool
	FixExtensions bool
	DryRun        bool
}

// Load reads configuration from the environment, falling back to defaults.
// A .env file, if present, has already been loaded by the root command.
func Load() (*Config, error) {
	cfg := &Config{
		ExifToolPath:  getenv("TAKEOUT_EXIFTOOL", "exiftool"),
		FFmpegPath:    getenv("TAKEOUT_FFMPEG", "ffmpeg"),
		ReportURI:     os.Getenv("TAKEOUT_REPORT_URI"),
		FixExtensions: true,
	}

	timeout, err := time.ParseDuration(getenv("TAKEOUT_FILE_TIMEOUT", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAKEOUT_FILE_TIMEOUT: %w", err)
	}
	cfg.FileTimeout = timeout

	stem, err := strconv.Atoi(getenv("TAKEOUT_MIN_TRUNCATED_STEM", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAKEOUT_MIN_TRUNCATED_STEM: %w", err)
	}
	cfg.MinTruncatedStem = stem

	if err := cfg.SetTimezone(getenv("TAKEOUT_TIMEZONE", "Local")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetTimezone resolves name to a location used when formatting EXIF timestamps
func (c *Config) SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	c.Timezone = name
	c.Location = loc
	return nil
}

// Validate checks values that flags may have overridden
func (c *Config) Validate() error {
	if c.FileTimeout <= 0 {
		return fmt.Errorf("file timeout must be positive, got %s", c.FileTimeout)
	}
	if c.MinTruncatedStem < 1 {
		return fmt.Errorf("minimum truncated stem must be at least 1, got %d", c.MinTruncatedStem)
	}
	if c.Location == nil {
		return fmt.Errorf("timezone not set")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
