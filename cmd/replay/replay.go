// Command replay re-runs the attention estimator over a raw EEG recording
// produced by the trainer, printing intention statistics and optionally
// writing a PNG timeline of the left/right intention.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/airobo-data/neurotrainer/internal/eeg"
)

var (
	input   = flag.String("in", "", "Raw EEG recording CSV to replay")
	rate    = flag.Int("rate", 250, "Sampling rate of the recording in Hz")
	step    = flag.Int("step", 0, "Samples between analyses (default rate/4)")
	bandLow = flag.Float64("low", eeg.DefaultBandLowHz, "Lower analysis band edge in Hz")
	bandHi  = flag.Float64("high", eeg.DefaultBandHighHz, "Upper analysis band edge in Hz")
	notch   = flag.Int("notch", 0, "Mains notch frequency in Hz (0 disables)")
	pngPath = flag.String("png", "", "Optional PNG path for the intention timeline")
)

type replayPoint struct {
	sampleIdx int
	pair      eeg.IntentionPair
}

func readSamples(r io.Reader) ([]eeg.Sample, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("recording is empty")
	}

	// First row is the channel-name header written by the recorder.
	var samples []eeg.Sample
	for i, row := range rows[1:] {
		if len(row) != 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", i+2, len(row))
		}
		var vals [3]float64
		for j, field := range row {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: failed to parse %q: %w", i+2, field, err)
			}
			vals[j] = v
		}
		samples = append(samples, eeg.Sample{Left: vals[0], Center: vals[1], Right: vals[2]})
	}
	return samples, nil
}

func replay(samples []eeg.Sample, sampleRateHz, analysisStep int, lowHz, highHz float64, notchHz int) []replayPoint {
	estimator := eeg.NewBandEstimator(sampleRateHz, lowHz, highHz, notchHz)

	var points []replayPoint
	for i, s := range samples {
		estimator.AddSample(s)
		if (i+1)%analysisStep == 0 {
			points = append(points, replayPoint{
				sampleIdx: i + 1,
				pair:      estimator.CalculateAttention(),
			})
		}
	}
	return points
}

func printStats(points []replayPoint, sampleRateHz int) {
	if len(points) == 0 {
		fmt.Println("no analysis windows produced")
		return
	}

	var leftSum, rightSum float64
	maxLeft, maxRight := 0, 0
	neutral := 0
	for _, p := range points {
		leftSum += float64(p.pair.Left)
		rightSum += float64(p.pair.Right)
		if p.pair.Left > maxLeft {
			maxLeft = p.pair.Left
		}
		if p.pair.Right > maxRight {
			maxRight = p.pair.Right
		}
		if p.pair == eeg.Neutral {
			neutral++
		}
	}

	n := float64(len(points))
	duration := float64(points[len(points)-1].sampleIdx) / float64(sampleRateHz)
	fmt.Printf("analysed %d windows over %.1fs of recording\n", len(points), duration)
	fmt.Printf("mean intention  left=%.1f right=%.1f\n", leftSum/n, rightSum/n)
	fmt.Printf("peak intention  left=%d right=%d\n", maxLeft, maxRight)
	fmt.Printf("neutral windows %d (%.0f%%)\n", neutral, 100*float64(neutral)/n)
}

func savePlot(points []replayPoint, sampleRateHz int, path string) error {
	p := plot.New()
	p.Title.Text = "Intention Timeline"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Intention"
	p.Y.Min = 0
	p.Y.Max = 100

	leftPts := make(plotter.XYs, len(points))
	rightPts := make(plotter.XYs, len(points))
	for i, pt := range points {
		t := float64(pt.sampleIdx) / float64(sampleRateHz)
		leftPts[i] = plotter.XY{X: t, Y: float64(pt.pair.Left)}
		rightPts[i] = plotter.XY{X: t, Y: float64(pt.pair.Right)}
	}

	leftLine, err := plotter.NewLine(leftPts)
	if err != nil {
		return fmt.Errorf("failed to build left line: %w", err)
	}
	leftLine.Width = vg.Points(1)
	leftLine.Color = color.RGBA{R: 220, G: 50, B: 50, A: 255}

	rightLine, err := plotter.NewLine(rightPts)
	if err != nil {
		return fmt.Errorf("failed to build right line: %w", err)
	}
	rightLine.Width = vg.Points(1)
	rightLine.Color = color.RGBA{R: 50, G: 50, B: 220, A: 255}

	p.Add(leftLine, rightLine)
	p.Legend.Add("left", leftLine)
	p.Legend.Add("right", rightLine)

	return p.Save(12*vg.Inch, 4*vg.Inch, path)
}

func main() {
	flag.Parse()

	if *input == "" {
		log.Fatal("-in is required")
	}
	if *rate <= 0 {
		log.Fatal("-rate must be positive")
	}
	analysisStep := *step
	if analysisStep <= 0 {
		analysisStep = *rate / 4
	}

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("failed to open recording: %v", err)
	}
	defer f.Close()

	samples, err := readSamples(f)
	if err != nil {
		log.Fatalf("failed to parse recording: %v", err)
	}

	points := replay(samples, *rate, analysisStep, *bandLow, *bandHi, *notch)
	printStats(points, *rate)

	if *pngPath != "" {
		if err := savePlot(points, *rate, *pngPath); err != nil {
			log.Fatalf("failed to save plot: %v", err)
		}
		fmt.Printf("wrote %s\n", *pngPath)
	}
}
