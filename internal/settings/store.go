// Package settings persists the last-used compression settings between runs.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/internal/types"
)

// defaultFileName matches the settings file of earlier releases.
const defaultFileName = ".compresspro_settings.json"

// Settings are the last-used request fields restored at startup.
type Settings struct {
	Codec        string `json:"codec"`
	QualityMode  string `json:"quality_mode"`
	CRF          int    `json:"crf_value"`
	Bitrate      string `json:"bitrate"`
	Resolution   string `json:"resolution"`
	FrameRate    string `json:"fps"`
	Hardware     string `json:"gpu_acceleration"`
	Preset       string `json:"preset"`
	Threads      int    `json:"threads"`
	AudioCodec   string `json:"audio_codec"`
	AudioBitrate string `json:"audio_bitrate"`
}

// Default returns the settings used before any job has completed.
func Default() Settings {
	return Settings{
		Codec:        string(types.CodecH264),
		QualityMode:  string(types.QualityCRF),
		CRF:          23,
		Bitrate:      "1M",
		Resolution:   string(types.ResolutionOriginal),
		FrameRate:    string(types.FrameRateOriginal),
		Hardware:     string(types.HardwareAuto),
		Preset:       "medium",
		Threads:      0,
		AudioCodec:   "aac",
		AudioBitrate: "128k",
	}
}

// FromRequest captures the persistable fields of a completed request.
func FromRequest(req types.CompressionRequest) Settings {
	return Settings{
		Codec:        string(req.Codec),
		QualityMode:  string(req.QualityMode),
		CRF:          req.CRF,
		Bitrate:      req.Bitrate,
		Resolution:   string(req.Resolution),
		FrameRate:    string(req.FrameRate),
		Hardware:     string(req.Hardware),
		Preset:       req.Preset,
		Threads:      req.Threads,
		AudioCodec:   req.AudioCodec,
		AudioBitrate: req.AudioBitrate,
	}
}

// Store reads and writes the settings file.
type Store struct {
	path   string
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewStore creates a store for the given file path.
func NewStore(path string, logger *logrus.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// DefaultPath returns the settings file location in the user home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, defaultFileName), nil
}

// Load reads the stored settings. A missing or unreadable file degrades
// to defaults; persistence must never block startup.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WithError(err).Warn("Failed to read settings file, using defaults")
		}
		return Default()
	}

	loaded := Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.WithError(err).Warn("Failed to parse settings file, using defaults")
		return Default()
	}
	return loaded
}

// Save writes the settings to disk, creating the file if needed.
func (s *Store) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
