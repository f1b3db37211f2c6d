package eeg

import (
	"fmt"
	"math"
)

// biquad is a single second-order IIR section in normalized direct form
// (a0 folded into the remaining coefficients).
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// apply runs the section over src and returns the filtered signal. State
// starts at zero; the zero-phase pass below compensates the resulting edge
// transient by filtering in both directions.
func (f biquad) apply(src []float64) []float64 {
	out := make([]float64, len(src))
	var x1, x2, y1, y2 float64
	for i, x := range src {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		out[i] = y
		x2, x1 = x1, x
		y2, y1 = y1, y
	}
	return out
}

// butterworthQ is the pole quality factor of a second-order Butterworth
// section (1/sqrt 2), giving a maximally flat passband.
const butterworthQ = 1.0 / math.Sqrt2

// notchQ sets the mains-notch width; at Q=30 the stopband is under 2 Hz
// wide at 50/60 Hz, narrow enough to leave a high beta edge intact.
const notchQ = 30.0

// designCascade builds the full analysis filter: the 4th-order band-pass,
// plus a mains notch section when notchHz is non-zero.
func designCascade(lowHz, highHz, notchHz, sampleRateHz float64) ([]biquad, error) {
	sections, err := designBandPass(lowHz, highHz, sampleRateHz)
	if err != nil {
		return nil, err
	}
	if notchHz > 0 {
		if notchHz >= sampleRateHz/2 {
			return nil, fmt.Errorf("notch frequency %v Hz must be below Nyquist (%v Hz)", notchHz, sampleRateHz/2)
		}
		sections = append(sections, designNotch(notchHz, sampleRateHz))
	}
	return sections, nil
}

// designBandPass builds a 4th-order Butterworth band-pass as a cascade of a
// second-order high-pass at lowHz and a second-order low-pass at highHz,
// using the RBJ cookbook bilinear-transform coefficients.
func designBandPass(lowHz, highHz, sampleRateHz float64) ([]biquad, error) {
	if sampleRateHz <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", sampleRateHz)
	}
	if lowHz <= 0 || highHz <= lowHz {
		return nil, fmt.Errorf("band edges must satisfy 0 < low < high, got [%v, %v]", lowHz, highHz)
	}
	nyquist := sampleRateHz / 2
	if highHz >= nyquist {
		return nil, fmt.Errorf("upper band edge %v Hz must be below Nyquist (%v Hz)", highHz, nyquist)
	}

	return []biquad{
		designHighPass(lowHz, sampleRateHz),
		designLowPass(highHz, sampleRateHz),
	}, nil
}

func designLowPass(cutoffHz, sampleRateHz float64) biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	cosw0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)
	a0 := 1 + alpha

	return biquad{
		b0: (1 - cosw0) / 2 / a0,
		b1: (1 - cosw0) / a0,
		b2: (1 - cosw0) / 2 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

func designHighPass(cutoffHz, sampleRateHz float64) biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	cosw0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)
	a0 := 1 + alpha

	return biquad{
		b0: (1 + cosw0) / 2 / a0,
		b1: -(1 + cosw0) / a0,
		b2: (1 + cosw0) / 2 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

func designNotch(centerHz, sampleRateHz float64) biquad {
	w0 := 2 * math.Pi * centerHz / sampleRateHz
	cosw0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * notchQ)
	a0 := 1 + alpha

	return biquad{
		b0: 1 / a0,
		b1: -2 * cosw0 / a0,
		b2: 1 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// filtFilt applies the section cascade forward and then backward over the
// signal. The two passes cancel each other's phase response, so band-power
// estimates are not skewed by group delay.
func filtFilt(sections []biquad, signal []float64) []float64 {
	out := make([]float64, len(signal))
	copy(out, signal)

	for _, s := range sections {
		out = s.apply(out)
	}
	reverse(out)
	for _, s := range sections {
		out = s.apply(out)
	}
	reverse(out)
	return out
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
