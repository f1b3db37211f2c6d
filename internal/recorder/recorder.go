// Package recorder writes raw electrode samples to CSV files for offline
// analysis and replay.
package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/airobo-data/neurotrainer/internal/eeg"
)

// Recorder appends raw samples to a CSV file: a header row of electrode
// names, then one row per sample in acquisition order. No timestamps are
// written; the sampling rate in the filename fixes the time base.
type Recorder struct {
	baseDir  string
	channels [3]string

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	rows   int
}

// NewRecorder creates a Recorder writing under baseDir. The channel names
// become the CSV header (left, center, right order).
func NewRecorder(baseDir string, left, center, right string) *Recorder {
	return &Recorder{
		baseDir:  baseDir,
		channels: [3]string{left, center, right},
	}
}

// DefaultFilename returns a timestamped recording filename embedding the
// sampling rate, e.g. raw_eeg_250hz_02_01_2026_15_04_05.csv.
func DefaultFilename(sampleRateHz int, now time.Time) string {
	return fmt.Sprintf("raw_eeg_%dhz_%s.csv", sampleRateHz, now.Format("02_01_2006_15_04_05"))
}

// Start opens the recording file and writes the header row. Starting an
// already-active recorder is an error.
func (r *Recorder) Start(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return fmt.Errorf("recording already active (%s)", r.file.Name())
	}

	if err := os.MkdirAll(r.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create recording directory: %w", err)
	}

	f, err := os.Create(filepath.Join(r.baseDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create recording file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(r.channels[:]); err != nil {
		f.Close()
		return fmt.Errorf("failed to write recording header: %w", err)
	}

	r.file = f
	r.writer = w
	r.rows = 0
	return nil
}

// Record appends one sample. Samples arriving while no recording is active
// are silently dropped so the acquisition loop can stay unconditional.
func (r *Recorder) Record(s eeg.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil {
		return nil
	}

	row := []string{
		strconv.FormatFloat(s.Left, 'g', -1, 64),
		strconv.FormatFloat(s.Center, 'g', -1, 64),
		strconv.FormatFloat(s.Right, 'g', -1, 64),
	}
	if err := r.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	r.rows++
	return nil
}

// Active reports whether a recording is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file != nil
}

// Rows returns the number of samples written to the current recording.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Stop flushes and closes the current recording. Stopping an inactive
// recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}

	r.writer.Flush()
	flushErr := r.writer.Error()
	closeErr := r.file.Close()

	r.file = nil
	r.writer = nil

	if flushErr != nil {
		return fmt.Errorf("failed to flush recording: %w", flushErr)
	}
	return closeErr
}
