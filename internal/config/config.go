// Package config holds the typed trainer configuration. All options have
// named fields with documented defaults and enumerated legal values; there is
// no open-ended key/value blob and no process-wide singleton.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// electrodeNames is the montage of the supported 32-channel cap, in device
// channel order. Channel selections are validated against this set.
var electrodeNames = []string{
	"FP1", "FP2", "AF3", "AF4", "F7", "F3", "FZ", "F4", "F8",
	"FC5", "FC1", "FC2", "FC6", "T7", "C3", "CZ", "C4", "T8",
	"CP5", "CP1", "CP2", "CP6", "P7", "P3", "PZ", "P4", "P8",
	"PO7", "PO3", "PO4", "PO8", "OZ",
}

// KnownElectrode reports whether name is part of the supported montage.
func KnownElectrode(name string) bool {
	for _, e := range electrodeNames {
		if e == name {
			return true
		}
	}
	return false
}

// TrainerConfig is the root configuration for the trainer service. Fields
// omitted from the JSON file retain their defaults, so partial configs are
// safe. The Get* accessors supply those defaults.
type TrainerConfig struct {
	// Acquisition params
	SamplingRateHz *int    `json:"sampling_rate_hz,omitempty"` // 250 or 500
	LeftChannel    *string `json:"left_channel,omitempty"`     // electrode over left motor cortex
	CenterChannel  *string `json:"center_channel,omitempty"`
	RightChannel   *string `json:"right_channel,omitempty"`
	NotchHz        *int    `json:"notch_hz,omitempty"` // 0 (off), 50, or 60

	// Analysis params
	BandLowHz        *float64 `json:"band_low_hz,omitempty"`
	BandHighHz       *float64 `json:"band_high_hz,omitempty"`
	AnalysisInterval *string  `json:"analysis_interval,omitempty"` // duration string like "250ms"

	// Transport params
	SerialPort *string `json:"serial_port,omitempty"`
	BaudRate   *int    `json:"baud_rate,omitempty"`

	// Storage params
	LeaderboardPath *string `json:"leaderboard_path,omitempty"`
	DatabasePath    *string `json:"database_path,omitempty"`
	RecordingDir    *string `json:"recording_dir,omitempty"`
}

// EmptyTrainerConfig returns a TrainerConfig with all fields unset.
func EmptyTrainerConfig() *TrainerConfig {
	return &TrainerConfig{}
}

// Load reads a TrainerConfig from a JSON file. The path must carry a .json
// extension and stay under the max file size.
func Load(path string) (*TrainerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTrainerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are inside their legal sets.
func (c *TrainerConfig) Validate() error {
	if c.SamplingRateHz != nil {
		switch *c.SamplingRateHz {
		case 250, 500:
		default:
			return fmt.Errorf("sampling_rate_hz must be 250 or 500, got %d", *c.SamplingRateHz)
		}
	}

	if c.NotchHz != nil {
		switch *c.NotchHz {
		case 0, 50, 60:
		default:
			return fmt.Errorf("notch_hz must be 0, 50 or 60, got %d", *c.NotchHz)
		}
	}

	for _, ch := range []struct {
		field string
		value *string
	}{
		{"left_channel", c.LeftChannel},
		{"center_channel", c.CenterChannel},
		{"right_channel", c.RightChannel},
	} {
		if ch.value != nil && !KnownElectrode(*ch.value) {
			return fmt.Errorf("%s %q is not a known electrode", ch.field, *ch.value)
		}
	}

	low, high := c.GetBandLowHz(), c.GetBandHighHz()
	if low <= 0 || high <= low {
		return fmt.Errorf("band edges must satisfy 0 < low < high, got [%v, %v]", low, high)
	}
	if nyquist := float64(c.GetSamplingRateHz()) / 2; high >= nyquist {
		return fmt.Errorf("band_high_hz %v must be below Nyquist (%v)", high, nyquist)
	}

	if c.AnalysisInterval != nil && *c.AnalysisInterval != "" {
		if _, err := time.ParseDuration(*c.AnalysisInterval); err != nil {
			return fmt.Errorf("invalid analysis_interval '%s': %w", *c.AnalysisInterval, err)
		}
	}

	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}

	return nil
}

// GetSamplingRateHz returns the device sampling rate or the default.
func (c *TrainerConfig) GetSamplingRateHz() int {
	if c.SamplingRateHz == nil {
		return 250 // default
	}
	return *c.SamplingRateHz
}

// GetLeftChannel returns the left motor-cortex electrode or the default.
func (c *TrainerConfig) GetLeftChannel() string {
	if c.LeftChannel == nil {
		return "C3"
	}
	return *c.LeftChannel
}

// GetCenterChannel returns the central electrode or the default.
func (c *TrainerConfig) GetCenterChannel() string {
	if c.CenterChannel == nil {
		return "CZ"
	}
	return *c.CenterChannel
}

// GetRightChannel returns the right motor-cortex electrode or the default.
func (c *TrainerConfig) GetRightChannel() string {
	if c.RightChannel == nil {
		return "C4"
	}
	return *c.RightChannel
}

// GetNotchHz returns the mains notch frequency or the default (50 Hz).
func (c *TrainerConfig) GetNotchHz() int {
	if c.NotchHz == nil {
		return 50
	}
	return *c.NotchHz
}

// GetBandLowHz returns the analysis band's lower edge or the default.
func (c *TrainerConfig) GetBandLowHz() float64 {
	if c.BandLowHz == nil {
		return 8.0
	}
	return *c.BandLowHz
}

// GetBandHighHz returns the analysis band's upper edge or the default.
func (c *TrainerConfig) GetBandHighHz() float64 {
	if c.BandHighHz == nil {
		return 30.0
	}
	return *c.BandHighHz
}

// GetAnalysisInterval parses and returns the AnalysisInterval as a duration.
func (c *TrainerConfig) GetAnalysisInterval() time.Duration {
	if c.AnalysisInterval == nil || *c.AnalysisInterval == "" {
		return 250 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.AnalysisInterval)
	if err != nil {
		return 250 * time.Millisecond // default on parse error
	}
	return d
}

// GetSerialPort returns the headset serial port or the default.
func (c *TrainerConfig) GetSerialPort() string {
	if c.SerialPort == nil {
		return "/dev/ttyUSB0"
	}
	return *c.SerialPort
}

// GetBaudRate returns the serial baud rate or the default.
func (c *TrainerConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return 115200
	}
	return *c.BaudRate
}

// GetLeaderboardPath returns the leaderboard file path or the default.
func (c *TrainerConfig) GetLeaderboardPath() string {
	if c.LeaderboardPath == nil {
		return "leaderboard.json"
	}
	return *c.LeaderboardPath
}

// GetDatabasePath returns the session database path or the default.
func (c *TrainerConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return "trainer.db"
	}
	return *c.DatabasePath
}

// GetRecordingDir returns the raw-sample recording directory or the default.
func (c *TrainerConfig) GetRecordingDir() string {
	if c.RecordingDir == nil {
		return "recordings"
	}
	return *c.RecordingDir
}
