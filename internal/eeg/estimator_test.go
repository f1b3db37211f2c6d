package eeg

import (
	"math"
	"strings"
	"testing"

	"github.com/airobo-data/neurotrainer/internal/monitoring"
)

// feedSine pushes n samples of per-channel sines with the given amplitudes.
// 12 Hz sits inside the mu band, so amplitude differences translate directly
// into band-power differences.
func feedSine(e *Estimator, n int, leftAmp, rightAmp float64) {
	rate := float64(e.SampleRate())
	for i := 0; i < n; i++ {
		phase := 2 * math.Pi * 12 * float64(i) / rate
		e.AddSample(Sample{
			Left:   leftAmp * math.Sin(phase),
			Center: math.Sin(phase),
			Right:  rightAmp * math.Sin(phase),
		})
	}
}

func TestCalculateAttentionBelowMinimumIsNeutral(t *testing.T) {
	for _, n := range []int{0, 1, 50, 99} {
		e := NewEstimator(250)
		feedSine(e, n, 1, 10)
		if got := e.CalculateAttention(); got != Neutral {
			t.Errorf("with %d samples, CalculateAttention() = %+v, want %+v", n, got, Neutral)
		}
	}
}

func TestCalculateAttentionLeftDesynchronization(t *testing.T) {
	e := NewEstimator(250)
	// Lower power on the left channel than the right: the subject's left
	// motor cortex is desynchronized, so left attention must trail right.
	feedSine(e, 400, 1, 10)

	got := e.CalculateAttention()
	if got.Left >= got.Right {
		t.Errorf("left-desync input should score Left < Right, got %+v", got)
	}
	if got.Left < 0 || got.Left > 100 || got.Right < 0 || got.Right > 100 {
		t.Errorf("scores out of [0,100]: %+v", got)
	}
}

func TestCalculateAttentionRightDesynchronization(t *testing.T) {
	e := NewEstimator(250)
	feedSine(e, 400, 10, 1)

	got := e.CalculateAttention()
	if got.Right >= got.Left {
		t.Errorf("right-desync input should score Right < Left, got %+v", got)
	}
}

func TestCalculateAttentionBalancedIsNearNeutral(t *testing.T) {
	e := NewEstimator(250)
	feedSine(e, 400, 5, 5)

	got := e.CalculateAttention()
	if got.Left != 50 || got.Right != 50 {
		t.Errorf("balanced channels should be neutral, got %+v", got)
	}
}

func TestCalculateAttentionZeroSignal(t *testing.T) {
	e := NewEstimator(250)
	for i := 0; i < 300; i++ {
		e.AddSample(Sample{})
	}
	// Both band powers are zero; the laterality denominator guard applies.
	if got := e.CalculateAttention(); got != Neutral {
		t.Errorf("zero signal should be neutral, got %+v", got)
	}
}

func TestCalculateAttentionIdempotent(t *testing.T) {
	e := NewEstimator(250)
	feedSine(e, 400, 2, 7)

	first := e.CalculateAttention()
	second := e.CalculateAttention()
	if first != second {
		t.Errorf("repeated calls without AddSample differ: %+v vs %+v", first, second)
	}
}

func TestCalculateAttentionExtremeAsymmetryClamps(t *testing.T) {
	e := NewEstimator(250)
	feedSine(e, 400, 0, 10)

	got := e.CalculateAttention()
	if got.Left != 0 || got.Right != 100 {
		t.Errorf("one-sided power should saturate to (0, 100), got %+v", got)
	}
}

func TestCalculateAttentionNonFiniteFallsBackToNeutral(t *testing.T) {
	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, format)
	})
	defer monitoring.SetLogger(nil)

	e := NewEstimator(250)
	for i := 0; i < 300; i++ {
		e.AddSample(Sample{Left: math.NaN(), Center: 0, Right: 1})
	}

	if got := e.CalculateAttention(); got != Neutral {
		t.Errorf("NaN contamination should be neutral, got %+v", got)
	}
	found := false
	for _, f := range logged {
		if strings.Contains(f, "neutral") {
			found = true
		}
	}
	if !found {
		t.Error("fallback path should be logged via monitoring.Logf")
	}
}

func TestBandEdgesGovernAnalysis(t *testing.T) {
	// The left channel carries its power at 10 Hz, the right channel mostly
	// at 25 Hz. Over the full mu+beta band the right side dominates; a band
	// narrowed below 25 Hz excludes the beta tone and flips the reading.
	feed := func(e *Estimator) {
		rate := float64(e.SampleRate())
		for i := 0; i < 600; i++ {
			tSec := float64(i) / rate
			e.AddSample(Sample{
				Left:   math.Sin(2 * math.Pi * 10 * tSec),
				Center: 0,
				Right:  0.2*math.Sin(2*math.Pi*10*tSec) + 1.5*math.Sin(2*math.Pi*25*tSec),
			})
		}
	}

	wide := NewBandEstimator(250, 8, 30, 0)
	feed(wide)
	if got := wide.CalculateAttention(); got.Right <= got.Left {
		t.Errorf("8-30 Hz band should score Right > Left, got %+v", got)
	}

	narrow := NewBandEstimator(250, 8, 15, 0)
	feed(narrow)
	if got := narrow.CalculateAttention(); got.Left <= got.Right {
		t.Errorf("8-15 Hz band should score Left > Right, got %+v", got)
	}
}

func TestNotchSuppressesMainsInterference(t *testing.T) {
	// 50 Hz mains rides on the left channel only. With the band opened up
	// to 60 Hz the interference inflates the left power; the notch removes
	// it and restores a near-neutral reading.
	feed := func(e *Estimator) {
		rate := float64(e.SampleRate())
		for i := 0; i < 600; i++ {
			tSec := float64(i) / rate
			mu := 0.5 * math.Sin(2*math.Pi*12*tSec)
			e.AddSample(Sample{
				Left:   mu + 2*math.Sin(2*math.Pi*50*tSec),
				Center: mu,
				Right:  mu,
			})
		}
	}

	plain := NewBandEstimator(250, 8, 60, 0)
	feed(plain)
	if got := plain.CalculateAttention(); got.Left <= got.Right {
		t.Errorf("unnotched mains interference should score Left > Right, got %+v", got)
	}

	notched := NewBandEstimator(250, 8, 60, 50)
	feed(notched)
	got := notched.CalculateAttention()
	if got.Left < 45 || got.Left > 55 || got.Right < 45 || got.Right > 55 {
		t.Errorf("notched reading should be near neutral, got %+v", got)
	}
}

func TestNewBandEstimatorBadNotchIsNeutral(t *testing.T) {
	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, format)
	})
	defer monitoring.SetLogger(nil)

	e := NewBandEstimator(250, 8, 30, 130)
	feedSine(e, 300, 1, 10)
	if got := e.CalculateAttention(); got != Neutral {
		t.Errorf("notch at/above Nyquist should fall back to neutral, got %+v", got)
	}
	if len(logged) == 0 {
		t.Error("design failure should be logged via monitoring.Logf")
	}
}

func TestAddSampleWindowIsTwoSeconds(t *testing.T) {
	e := NewEstimator(500)
	for i := 0; i < 5000; i++ {
		e.AddSample(Sample{Left: 1, Center: 1, Right: 1})
	}
	if got := e.BufferFill(); got != 1000 {
		t.Errorf("buffer fill = %d, want 1000 (2 s at 500 Hz)", got)
	}
}
