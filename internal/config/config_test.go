package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }

func TestDefaults(t *testing.T) {
	cfg := EmptyTrainerConfig()

	if cfg.GetSamplingRateHz() != 250 {
		t.Errorf("GetSamplingRateHz() = %d, want 250", cfg.GetSamplingRateHz())
	}
	if cfg.GetLeftChannel() != "C3" || cfg.GetCenterChannel() != "CZ" || cfg.GetRightChannel() != "C4" {
		t.Errorf("default montage = %s/%s/%s, want C3/CZ/C4",
			cfg.GetLeftChannel(), cfg.GetCenterChannel(), cfg.GetRightChannel())
	}
	if cfg.GetNotchHz() != 50 {
		t.Errorf("GetNotchHz() = %d, want 50", cfg.GetNotchHz())
	}
	if cfg.GetBandLowHz() != 8.0 || cfg.GetBandHighHz() != 30.0 {
		t.Errorf("default band = [%v, %v], want [8, 30]", cfg.GetBandLowHz(), cfg.GetBandHighHz())
	}
	if cfg.GetAnalysisInterval() != 250*time.Millisecond {
		t.Errorf("GetAnalysisInterval() = %v, want 250ms", cfg.GetAnalysisInterval())
	}
	if cfg.GetBaudRate() != 115200 {
		t.Errorf("GetBaudRate() = %d, want 115200", cfg.GetBaudRate())
	}
	if cfg.GetLeaderboardPath() != "leaderboard.json" {
		t.Errorf("GetLeaderboardPath() = %q", cfg.GetLeaderboardPath())
	}
	if cfg.GetDatabasePath() != "trainer.db" {
		t.Errorf("GetDatabasePath() = %q", cfg.GetDatabasePath())
	}
	if cfg.GetRecordingDir() != "recordings" {
		t.Errorf("GetRecordingDir() = %q", cfg.GetRecordingDir())
	}
}

func TestLoadPartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "trainer.json")

	testJSON := `{
  "sampling_rate_hz": 500,
  "left_channel": "FC1",
  "analysis_interval": "500ms"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetSamplingRateHz() != 500 {
		t.Errorf("GetSamplingRateHz() = %d, want 500", cfg.GetSamplingRateHz())
	}
	if cfg.GetLeftChannel() != "FC1" {
		t.Errorf("GetLeftChannel() = %q, want FC1", cfg.GetLeftChannel())
	}
	if cfg.GetAnalysisInterval() != 500*time.Millisecond {
		t.Errorf("GetAnalysisInterval() = %v, want 500ms", cfg.GetAnalysisInterval())
	}
	// omitted fields keep their defaults
	if cfg.GetRightChannel() != "C4" {
		t.Errorf("GetRightChannel() = %q, want default C4", cfg.GetRightChannel())
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "trainer.yaml")
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("Load should reject non-.json files")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     TrainerConfig
		wantErr bool
	}{
		{"empty is valid", TrainerConfig{}, false},
		{"legal 500 Hz", TrainerConfig{SamplingRateHz: intPtr(500)}, false},
		{"illegal sampling rate", TrainerConfig{SamplingRateHz: intPtr(300)}, true},
		{"notch off", TrainerConfig{NotchHz: intPtr(0)}, false},
		{"notch 60", TrainerConfig{NotchHz: intPtr(60)}, false},
		{"illegal notch", TrainerConfig{NotchHz: intPtr(45)}, true},
		{"unknown electrode", TrainerConfig{LeftChannel: stringPtr("XX9")}, true},
		{"known alternate electrode", TrainerConfig{LeftChannel: stringPtr("FC5")}, false},
		{"inverted band", TrainerConfig{BandLowHz: floatPtr(30), BandHighHz: floatPtr(8)}, true},
		{"band above Nyquist", TrainerConfig{BandHighHz: floatPtr(130)}, true},
		{"band at 500 Hz Nyquist ok", TrainerConfig{SamplingRateHz: intPtr(500), BandHighHz: floatPtr(130)}, false},
		{"bad interval", TrainerConfig{AnalysisInterval: stringPtr("soon")}, true},
		{"bad baud rate", TrainerConfig{BaudRate: intPtr(-1)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestKnownElectrode(t *testing.T) {
	for _, name := range []string{"C3", "CZ", "C4", "FP1", "OZ"} {
		if !KnownElectrode(name) {
			t.Errorf("KnownElectrode(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "c3", "A1", "REF"} {
		if KnownElectrode(name) {
			t.Errorf("KnownElectrode(%q) = true, want false", name)
		}
	}
}
