// Package config provides configuration management for the compression server.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/alharthydev/compresspro/internal/types"
)

var (
	// ErrFFmpegPathRequired is returned when the ffmpeg path is empty.
	ErrFFmpegPathRequired = errors.New("ffmpeg path is required")
	// ErrFFprobePathRequired is returned when the ffprobe path is empty.
	ErrFFprobePathRequired = errors.New("ffprobe path is required")
	// ErrInvalidPort is returned when port number is invalid.
	ErrInvalidPort = errors.New("invalid port number")
	// ErrInvalidLogLevel is returned when log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidHardware is returned when the hardware preference is unknown.
	ErrInvalidHardware = errors.New("invalid hardware preference")
)

// Config holds the application configuration.
type Config struct {
	Port         int
	LogLevel     string
	FFmpegPath   string
	FFprobePath  string
	Hardware     string
	SettingsPath string
	PresetsPath  string
}

// New creates a new configuration instance by parsing command-line flags.
func New() (*Config, error) {
	cfg := &Config{}

	flag.IntVar(&cfg.Port, "port", 8080, "Port to listen on")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.FFmpegPath, "ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	flag.StringVar(&cfg.FFprobePath, "ffprobe", "ffprobe", "Path to the ffprobe binary")
	flag.StringVar(&cfg.Hardware, "hardware", "auto", "Default hardware preference (auto, nvenc, qsv, vaapi, videotoolbox, cpu)")
	flag.StringVar(&cfg.SettingsPath, "settings", "", "Path to the settings file (default: ~/.compresspro_settings.json)")
	flag.StringVar(&cfg.PresetsPath, "presets", "", "Path to a quality presets YAML file (optional)")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.FFmpegPath == "" {
		return ErrFFmpegPathRequired
	}

	if c.FFprobePath == "" {
		return ErrFFprobePathRequired
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}

	if !types.HardwareType(c.Hardware).Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidHardware, c.Hardware)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: %s (must be debug, info, warn, or error)", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}
