package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownPreset is returned when a preset name is not defined.
var ErrUnknownPreset = errors.New("unknown quality preset")

// QualityPreset bundles the encoder speed preset with CRF defaults so
// callers can request "high" instead of tuning numbers.
type QualityPreset struct {
	Preset       string `yaml:"preset"`
	CRF          int    `yaml:"crf"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

// Presets maps preset names to their settings.
type Presets map[string]QualityPreset

// DefaultPresets returns the built-in quality presets.
func DefaultPresets() Presets {
	return Presets{
		"default": {Preset: "medium", CRF: 23, AudioBitrate: "128k"},
		"high":    {Preset: "slow", CRF: 18, AudioBitrate: "192k"},
		"fast":    {Preset: "veryfast", CRF: 28, AudioBitrate: "128k"},
	}
}

// LoadPresets reads presets from a YAML file, merged over the built-in
// set. An empty path returns the built-ins unchanged. Unknown YAML keys
// are rejected so typos fail loudly at startup.
func LoadPresets(path string) (Presets, error) {
	presets := DefaultPresets()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}

	loaded := make(Presets)
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&loaded); err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}

	for name, preset := range loaded {
		if preset.CRF < 0 || preset.CRF > 51 {
			return nil, fmt.Errorf("preset %q: CRF %d out of range 0-51", name, preset.CRF)
		}
		presets[name] = preset
	}

	return presets, nil
}

// Get returns the named preset.
func (p Presets) Get(name string) (QualityPreset, error) {
	preset, ok := p[name]
	if !ok {
		return QualityPreset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return preset, nil
}
