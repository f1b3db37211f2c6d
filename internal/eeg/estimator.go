// Package eeg converts a rolling three-channel motor-cortex EEG buffer into
// left/right intention scores via band-power laterality analysis.
//
// Motor imagery of one hand suppresses mu/beta power over the contralateral
// motor cortex (event-related desynchronization). The laterality index over
// the combined mu+beta band is a lightweight proxy for this, avoiding a full
// spectral decomposition or a trained classifier.
package eeg

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/airobo-data/neurotrainer/internal/monitoring"
)

// Sample is one instant's readings for the three selected motor channels
// (typically C3, CZ, C4), in microvolts. Amplitudes are accepted
// uninterpreted; the estimator does not range-check physiological values.
type Sample struct {
	Left   float64
	Center float64
	Right  float64
}

// IntentionPair is a left/right engagement score pair. Both values are
// independently clamped to [0, 100]; they do not need to sum to 100.
type IntentionPair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Neutral is the defined fallback pair returned when the buffers hold too few
// samples for a meaningful spectral estimate, or when filtering fails.
var Neutral = IntentionPair{Left: 50, Right: 50}

const (
	// DefaultBandLowHz and DefaultBandHighHz bound the combined mu+beta
	// motor band analysed when no band is configured.
	DefaultBandLowHz  = 8.0
	DefaultBandHighHz = 30.0

	// bufferSeconds is the rolling analysis window per channel.
	bufferSeconds = 2

	// minSamples is the minimum buffer fill before a spectral estimate is
	// attempted; below this CalculateAttention returns Neutral.
	minSamples = 100
)

// Estimator maintains rolling per-channel sample buffers and computes
// intention score pairs on demand. Methods are ordinary synchronous calls
// with no internal locking; callers must serialize access per instance.
type Estimator struct {
	sampleRateHz        int
	left, center, right *ringBuffer
	sections            []biquad
	designErr           error
}

// NewEstimator returns an Estimator for the given device sampling rate,
// analysing the default mu+beta band with no mains notch. The rolling window
// holds two seconds of samples per channel.
func NewEstimator(sampleRateHz int) *Estimator {
	return NewBandEstimator(sampleRateHz, DefaultBandLowHz, DefaultBandHighHz, 0)
}

// NewBandEstimator returns an Estimator restricted to the [lowHz, highHz]
// band, with an additional mains notch at notchHz when notchHz is non-zero.
// An unsatisfiable design (inverted band edges, edge or notch at or above
// Nyquist) is not an error here; CalculateAttention then logs the design
// failure and returns Neutral.
func NewBandEstimator(sampleRateHz int, lowHz, highHz float64, notchHz int) *Estimator {
	capacity := bufferSeconds * sampleRateHz
	if capacity < minSamples {
		capacity = minSamples
	}
	sections, err := designCascade(lowHz, highHz, float64(notchHz), float64(sampleRateHz))
	return &Estimator{
		sampleRateHz: sampleRateHz,
		left:         newRingBuffer(capacity),
		center:       newRingBuffer(capacity),
		right:        newRingBuffer(capacity),
		sections:     sections,
		designErr:    err,
	}
}

// SampleRate returns the configured device sampling rate in Hz.
func (e *Estimator) SampleRate() int {
	return e.sampleRateHz
}

// AddSample appends one electrode triple to the rolling buffers, evicting the
// oldest samples once the two-second window is full.
func (e *Estimator) AddSample(s Sample) {
	e.left.push(s.Left)
	e.center.push(s.Center)
	e.right.push(s.Right)
}

// BufferFill returns the current per-channel buffer length.
func (e *Estimator) BufferFill() int {
	return e.left.len()
}

// CalculateAttention computes the current left/right intention pair from
// band-power laterality. It never fails: insufficient data or a numerical
// problem during filtering yields the Neutral pair, with the failure logged.
func (e *Estimator) CalculateAttention() IntentionPair {
	if e.left.len() < minSamples || e.center.len() < minSamples || e.right.len() < minSamples {
		return Neutral
	}
	if e.designErr != nil {
		monitoring.Logf("eeg: band-pass design failed (%v); returning neutral intention", e.designErr)
		return Neutral
	}

	leftPower := e.bandPower(e.left.values())
	rightPower := e.bandPower(e.right.values())
	if !isFinite(leftPower) || !isFinite(rightPower) {
		monitoring.Logf("eeg: non-finite band power (left=%v right=%v); returning neutral intention", leftPower, rightPower)
		return Neutral
	}

	laterality := 0.0
	if denom := rightPower + leftPower; denom != 0 {
		laterality = (rightPower - leftPower) / denom
	}
	if !isFinite(laterality) {
		monitoring.Logf("eeg: non-finite laterality; returning neutral intention")
		return Neutral
	}

	return IntentionPair{
		Left:  int(clampScore(50 - laterality*50)),
		Right: int(clampScore(50 + laterality*50)),
	}
}

// bandPower is the RMS of the signal restricted to the mu+beta band.
func (e *Estimator) bandPower(signal []float64) float64 {
	filtered := filtFilt(e.sections, signal)
	return math.Sqrt(floats.Dot(filtered, filtered) / float64(len(filtered)))
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
