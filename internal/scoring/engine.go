// Package scoring turns a stream of timestamped intention readings and
// instruction-mode changes into a session score with bonus conditions and a
// persisted top-10 leaderboard.
package scoring

import (
	"time"

	"github.com/airobo-data/neurotrainer/internal/monitoring"
	"github.com/airobo-data/neurotrainer/internal/timeutil"
)

// Mode is the on-screen instruction shown to the subject during a period.
type Mode string

const (
	ModeRelax Mode = "relax"
	ModeLeft  Mode = "left"
	ModeRight Mode = "right"
)

// Valid reports whether m is one of the three defined instruction modes.
func (m Mode) Valid() bool {
	return m == ModeRelax || m == ModeLeft || m == ModeRight
}

// Scorable reports whether periods of this mode can earn points. Relax
// periods carry no direction-specific intention signal, so only left and
// right periods are graded.
func (m Mode) Scorable() bool {
	return m == ModeLeft || m == ModeRight
}

// IntentionSample is one timestamped intention reading from the estimator.
type IntentionSample struct {
	Timestamp time.Time `json:"timestamp"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
}

// InstructionPeriod is a closed interval during which a single instruction
// mode was active, with the points it earned. Immutable once recorded.
type InstructionPeriod struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Mode         Mode      `json:"mode"`
	AvgIntention float64   `json:"avg_intention"`
	Points       int       `json:"points"`
}

// Engine tracks one training session: the open instruction period, the
// intention history, the running score, and the persisted leaderboard.
//
// Methods are plain synchronous calls with no internal locking. If the
// acquisition worker and the instruction trigger run on different goroutines
// the caller must serialize access (the HTTP layer holds one mutex per
// trainer instance).
type Engine struct {
	clock           timeutil.Clock
	leaderboardPath string

	currentScore int
	periods      []InstructionPeriod
	history      []IntentionSample
	currentMode  Mode
	periodStart  time.Time // zero until StartExperiment opens a period

	leaderboard []ScoreEntry
}

// NewEngine creates a scoring engine backed by the leaderboard file at path.
// A missing or malformed file yields an empty leaderboard; no error is
// raised. A nil clock falls back to wall-clock time.
func NewEngine(leaderboardPath string, clock timeutil.Clock) *Engine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Engine{
		clock:           clock,
		leaderboardPath: leaderboardPath,
		currentMode:     ModeRelax,
		leaderboard:     loadLeaderboard(leaderboardPath),
	}
}

// StartExperiment resets the session: score to zero, histories cleared, mode
// relax, and a fresh period opened at the current time. It must be called
// before any scoring activity and may be called again to restart.
func (e *Engine) StartExperiment() {
	e.currentScore = 0
	e.periods = nil
	e.history = nil
	e.currentMode = ModeRelax
	e.periodStart = e.clock.Now()
}

// UpdateIntention appends a timestamped intention reading. It has no side
// effects beyond storage; points are only attributed when a period closes.
func (e *Engine) UpdateIntention(left, right int) {
	e.history = append(e.history, IntentionSample{
		Timestamp: e.clock.Now(),
		Left:      left,
		Right:     right,
	})
}

// ChangeInstruction closes the current instruction period and opens a new one
// in newMode. Closing a left or right period awards points from the period's
// average matching-side intention. Calls before StartExperiment and
// identical-mode calls are complete no-ops.
func (e *Engine) ChangeInstruction(newMode Mode) {
	if e.periodStart.IsZero() {
		return
	}
	if !newMode.Valid() {
		monitoring.Logf("scoring: ignoring unknown instruction mode %q", newMode)
		return
	}
	if newMode == e.currentMode {
		// repeated cue for the same mode; the open period keeps running
		return
	}

	now := e.clock.Now()

	// Every transition between distinct modes grades the departing period;
	// a departing relax period contributes nothing below because relax is
	// not scorable.
	if e.currentMode.Scorable() {
		values := e.intentionsIn(e.periodStart, now, e.currentMode)
		if len(values) > 0 {
			avg := mean(values)
			points := pointsForAverage(avg)
			e.currentScore += points
			e.periods = append(e.periods, InstructionPeriod{
				Start:        e.periodStart,
				End:          now,
				Mode:         e.currentMode,
				AvgIntention: avg,
				Points:       points,
			})
		}
	}

	e.currentMode = newMode
	e.periodStart = now
}

// EndExperiment applies the end-of-session bonus and returns the final
// score. Each recorded left/right period's mean is recomputed independently
// from the intention history; if the grand average of those period means
// exceeds 90 a flat +200 bonus is added. The still-open period is not closed
// and earns nothing.
func (e *Engine) EndExperiment() int {
	var periodMeans []float64
	for _, p := range e.periods {
		if !p.Mode.Scorable() {
			continue
		}
		values := e.intentionsIn(p.Start, p.End, p.Mode)
		if len(values) > 0 {
			periodMeans = append(periodMeans, mean(values))
		}
	}

	if len(periodMeans) > 0 && mean(periodMeans) > 90 {
		e.currentScore += sessionBonus
	}

	return e.currentScore
}

// GetCurrentScore returns the running session score.
func (e *Engine) GetCurrentScore() int {
	return e.currentScore
}

// CurrentMode returns the mode of the open instruction period.
func (e *Engine) CurrentMode() Mode {
	return e.currentMode
}

// Periods returns a copy of the recorded instruction periods.
func (e *Engine) Periods() []InstructionPeriod {
	out := make([]InstructionPeriod, len(e.periods))
	copy(out, e.periods)
	return out
}

// IntentionHistory returns a copy of the session's intention samples.
func (e *Engine) IntentionHistory() []IntentionSample {
	out := make([]IntentionSample, len(e.history))
	copy(out, e.history)
	return out
}

// intentionsIn collects the side-matching intention values whose timestamps
// fall inside [start, end] (both ends inclusive).
func (e *Engine) intentionsIn(start, end time.Time, mode Mode) []float64 {
	var out []float64
	for _, s := range e.history {
		if s.Timestamp.Before(start) || s.Timestamp.After(end) {
			continue
		}
		switch mode {
		case ModeLeft:
			out = append(out, float64(s.Left))
		case ModeRight:
			out = append(out, float64(s.Right))
		}
	}
	return out
}

// sessionBonus is the flat award for a session whose left/right period means
// average above 90.
const sessionBonus = 200

// pointsForAverage maps a period's average intention to points. The table is
// a monotone step function with inclusive lower bounds.
func pointsForAverage(avgIntention float64) int {
	switch {
	case avgIntention >= 90:
		return 100
	case avgIntention >= 80:
		return 75
	case avgIntention >= 70:
		return 50
	case avgIntention >= 60:
		return 25
	case avgIntention >= 50:
		return 10
	default:
		return 0
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
