package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/airobo-data/neurotrainer/internal/eeg"
)

func TestRecorderLifecycle(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, "C3", "CZ", "C4")

	if r.Active() {
		t.Fatal("fresh recorder should not be active")
	}

	if err := r.Start("session.csv"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !r.Active() {
		t.Error("recorder should be active after Start")
	}

	samples := []eeg.Sample{
		{Left: 1.5, Center: -2.25, Right: 3},
		{Left: 0, Center: 0.125, Right: -10},
	}
	for _, s := range samples {
		if err := r.Record(s); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if r.Rows() != 2 {
		t.Errorf("Rows() = %d, want 2", r.Rows())
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if r.Active() {
		t.Error("recorder should be inactive after Stop")
	}

	f, err := os.Open(filepath.Join(dir, "session.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"C3", "CZ", "C4"},
		{"1.5", "-2.25", "3"},
		{"0", "0.125", "-10"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("CSV content mismatch (-want +got):\n%s", diff)
	}
}

func TestStartTwiceFails(t *testing.T) {
	r := NewRecorder(t.TempDir(), "C3", "CZ", "C4")
	if err := r.Start("a.csv"); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	if err := r.Start("b.csv"); err == nil {
		t.Error("second Start should fail while recording is active")
	}
}

func TestRecordWhileInactiveIsDropped(t *testing.T) {
	r := NewRecorder(t.TempDir(), "C3", "CZ", "C4")
	if err := r.Record(eeg.Sample{Left: 1}); err != nil {
		t.Errorf("Record while inactive should be a silent no-op, got %v", err)
	}
	if r.Rows() != 0 {
		t.Errorf("Rows() = %d, want 0", r.Rows())
	}
}

func TestStopWhileInactiveIsNoOp(t *testing.T) {
	r := NewRecorder(t.TempDir(), "C3", "CZ", "C4")
	if err := r.Stop(); err != nil {
		t.Errorf("Stop while inactive should be a no-op, got %v", err)
	}
}

func TestRestartAfterStop(t *testing.T) {
	r := NewRecorder(t.TempDir(), "C3", "CZ", "C4")
	if err := r.Start("first.csv"); err != nil {
		t.Fatal(err)
	}
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start("second.csv"); err != nil {
		t.Errorf("Start after Stop should succeed, got %v", err)
	}
	r.Stop()
}

func TestDefaultFilename(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	got := DefaultFilename(250, now)
	if got != "raw_eeg_250hz_02_01_2026_15_04_05.csv" {
		t.Errorf("DefaultFilename = %q", got)
	}
}
