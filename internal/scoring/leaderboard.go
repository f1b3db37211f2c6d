package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/airobo-data/neurotrainer/internal/monitoring"
)

// maxLeaderboardEntries caps the persisted leaderboard. The full file is
// rewritten on every submission; with ten entries the write cost is bounded.
const maxLeaderboardEntries = 10

// leaderboardTimeLayout is ISO-8601 with seconds precision, the format the
// GUI's leaderboard dialog consumes.
const leaderboardTimeLayout = "2006-01-02T15:04:05"

// ScoreEntry is one leaderboard record.
type ScoreEntry struct {
	Score     int
	Name      string
	Timestamp time.Time
}

type scoreEntryJSON struct {
	Score     int    `json:"score"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// MarshalJSON writes the timestamp as an ISO-8601 string with seconds
// precision.
func (s ScoreEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(scoreEntryJSON{
		Score:     s.Score,
		Name:      s.Name,
		Timestamp: s.Timestamp.Format(leaderboardTimeLayout),
	})
}

// UnmarshalJSON accepts seconds-precision timestamps and, for files written
// by older builds, timestamps carrying fractional seconds or an offset.
func (s *ScoreEntry) UnmarshalJSON(data []byte) error {
	var raw scoreEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(leaderboardTimeLayout, raw.Timestamp)
	if err != nil {
		ts, err = time.Parse("2006-01-02T15:04:05.999999999Z07:00", raw.Timestamp)
		if err != nil {
			return fmt.Errorf("invalid leaderboard timestamp %q: %w", raw.Timestamp, err)
		}
	}
	s.Score = raw.Score
	s.Name = raw.Name
	s.Timestamp = ts
	return nil
}

// loadLeaderboard reads the leaderboard file. A missing or malformed file is
// treated as an empty leaderboard; the condition is logged, never surfaced.
func loadLeaderboard(path string) []ScoreEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			monitoring.Logf("scoring: cannot read leaderboard %s: %v; starting empty", path, err)
		}
		return nil
	}

	var entries []ScoreEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		monitoring.Logf("scoring: malformed leaderboard %s: %v; starting empty", path, err)
		return nil
	}
	return entries
}

// saveLeaderboard rewrites the whole leaderboard file.
func saveLeaderboard(path string, entries []ScoreEntry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create leaderboard directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write leaderboard: %w", err)
	}
	return nil
}

// SubmitScore records the current session score under name, re-ranks the
// leaderboard, truncates it to the top ten, and persists it. It reports
// whether the new entry survived truncation. A persistence failure is
// returned to the caller (a dropped score submission is user-visible data
// loss); the in-memory leaderboard is updated either way so the save can be
// retried.
func (e *Engine) SubmitScore(name string) (bool, error) {
	entry := ScoreEntry{
		Score:     e.currentScore,
		Name:      name,
		Timestamp: e.clock.Now().Truncate(time.Second),
	}
	e.leaderboard = append(e.leaderboard, entry)

	// Stable sort: an equal newer score ranks below an equal older one.
	sort.SliceStable(e.leaderboard, func(i, j int) bool {
		return e.leaderboard[i].Score > e.leaderboard[j].Score
	})

	// The new entry was appended last, so after the stable sort it is the
	// last entry of its score group.
	position := -1
	for i, le := range e.leaderboard {
		if le.Score == entry.Score {
			position = i
		}
	}
	survived := position >= 0 && position < maxLeaderboardEntries

	if len(e.leaderboard) > maxLeaderboardEntries {
		e.leaderboard = e.leaderboard[:maxLeaderboardEntries]
	}

	if err := saveLeaderboard(e.leaderboardPath, e.leaderboard); err != nil {
		return survived, err
	}
	return survived, nil
}

// IsTopTenScore reports whether score would enter the leaderboard: true when
// fewer than ten entries exist or score beats the current minimum.
func (e *Engine) IsTopTenScore(score int) bool {
	if len(e.leaderboard) < maxLeaderboardEntries {
		return true
	}
	min := e.leaderboard[0].Score
	for _, le := range e.leaderboard[1:] {
		if le.Score < min {
			min = le.Score
		}
	}
	return score > min
}

// GetLeaderboard returns a copy of the leaderboard; caller mutation does not
// affect engine state.
func (e *Engine) GetLeaderboard() []ScoreEntry {
	out := make([]ScoreEntry, len(e.leaderboard))
	copy(out, e.leaderboard)
	return out
}
