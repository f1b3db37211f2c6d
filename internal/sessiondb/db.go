package sessiondb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/airobo-data/neurotrainer/internal/scoring"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the session database at path and
// applies any pending schema migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

type Session struct {
	SessionID  string    `json:"session_id"`
	PlayerName string    `json:"player_name"`
	TotalScore int       `json:"total_score"`
	Bonus      bool      `json:"bonus"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

func (s *Session) String() string {
	return fmt.Sprintf(
		"SessionID: %s, PlayerName: %s, TotalScore: %d, Bonus: %t, StartedAt: %s, EndedAt: %s",
		s.SessionID, s.PlayerName, s.TotalScore, s.Bonus,
		s.StartedAt.Format(time.RFC3339), s.EndedAt.Format(time.RFC3339),
	)
}

type PeriodRow struct {
	SessionID    string    `json:"session_id"`
	Mode         string    `json:"mode"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	AvgIntention float64   `json:"avg_intention"`
	Points       int       `json:"points"`
}

// RecordSession stores a finished training session together with its
// instruction periods and returns the generated session ID.
func (db *DB) RecordSession(
	playerName string,
	totalScore int,
	bonus bool,
	startedAt, endedAt time.Time,
	periods []scoring.InstructionPeriod,
) (string, error) {
	sessionID := uuid.New().String()

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, player_name, total_score, bonus, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, playerName, totalScore, boolToInt(bonus),
		formatTime(startedAt), formatTime(endedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	for _, p := range periods {
		_, err = tx.Exec(
			`INSERT INTO instruction_periods (session_id, mode, started_at, ended_at, avg_intention, points)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID, string(p.Mode), formatTime(p.Start), formatTime(p.End),
			p.AvgIntention, p.Points,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert instruction period: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Sessions returns the most recent sessions, newest first.
func (db *DB) Sessions(limit int) ([]Session, error) {
	rows, err := db.Query(
		`SELECT session_id, player_name, total_score, bonus, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s                  Session
			bonus              int64
			startedAt, endedAt string
		)
		if err := rows.Scan(&s.SessionID, &s.PlayerName, &s.TotalScore, &bonus, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		s.Bonus = bonus != 0
		if s.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if s.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// SessionPeriods returns the instruction periods recorded for a session,
// in chronological order.
func (db *DB) SessionPeriods(sessionID string) ([]PeriodRow, error) {
	rows, err := db.Query(
		`SELECT session_id, mode, started_at, ended_at, avg_intention, points
		 FROM instruction_periods WHERE session_id = ? ORDER BY started_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []PeriodRow
	for rows.Next() {
		var (
			p                  PeriodRow
			startedAt, endedAt string
		)
		if err := rows.Scan(&p.SessionID, &p.Mode, &startedAt, &endedAt, &p.AvgIntention, &p.Points); err != nil {
			return nil, err
		}
		if p.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if p.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return periods, nil
}

type DailyRollup struct {
	Day      string  `json:"day"`
	Sessions int     `json:"sessions"`
	AvgScore float64 `json:"avg_score"`
	MaxScore int     `json:"max_score"`
}

// SessionRollup aggregates sessions started at or after since into
// per-day counts and score statistics, newest day first.
func (db *DB) SessionRollup(since time.Time) ([]DailyRollup, error) {
	rows, err := db.Query(
		`SELECT substr(started_at, 1, 10) AS day, COUNT(*), AVG(total_score), MAX(total_score)
		 FROM sessions WHERE started_at >= ?
		 GROUP BY day ORDER BY day DESC`, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rollups []DailyRollup
	for rows.Next() {
		var r DailyRollup
		if err := rows.Scan(&r.Day, &r.Sessions, &r.AvgScore, &r.MaxScore); err != nil {
			return nil, err
		}
		rollups = append(rollups, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rollups, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
