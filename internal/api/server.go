package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/airobo-data/neurotrainer/internal/eeg"
	"github.com/airobo-data/neurotrainer/internal/monitoring"
	"github.com/airobo-data/neurotrainer/internal/recorder"
	"github.com/airobo-data/neurotrainer/internal/scoring"
	"github.com/airobo-data/neurotrainer/internal/sessiondb"
	"github.com/airobo-data/neurotrainer/internal/timeutil"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server is the serialisation point for the training pipeline: the sample
// feed, the analysis tick and every HTTP handler take the same mutex, so
// the estimator and engine underneath never see concurrent calls.
type Server struct {
	mu        sync.Mutex
	estimator *eeg.Estimator
	engine    *scoring.Engine
	db        *sessiondb.DB
	rec       *recorder.Recorder
	clock     timeutil.Clock

	latest       eeg.IntentionPair
	sessionOpen  bool
	sessionStart time.Time
}

// NewServer wires the training core behind an HTTP surface. db and rec may
// be nil; the session endpoints then skip persistence and raw recording.
func NewServer(estimator *eeg.Estimator, engine *scoring.Engine, db *sessiondb.DB, rec *recorder.Recorder, clock timeutil.Clock) *Server {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{
		estimator: estimator,
		engine:    engine,
		db:        db,
		rec:       rec,
		clock:     clock,
		latest:    eeg.Neutral,
	}
}

// FeedSample pushes one raw headset sample into the estimator buffers and,
// while a session is open, into the raw recording.
func (s *Server) FeedSample(sample eeg.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.estimator.AddSample(sample)
	if s.rec != nil && s.rec.Active() {
		if err := s.rec.Record(sample); err != nil {
			monitoring.Logf("failed to record sample: %v", err)
		}
	}
}

// RunAnalysis computes the current intention pair and feeds it to the
// scoring engine. Called on the analysis tick.
func (s *Server) RunAnalysis() eeg.IntentionPair {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := s.estimator.CalculateAttention()
	s.latest = pair
	if s.sessionOpen {
		s.engine.UpdateIntention(pair.Left, pair.Right)
	}
	return pair
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/attention", s.showAttention)
	mux.HandleFunc("/score", s.showScore)
	mux.HandleFunc("/leaderboard", s.showLeaderboard)
	mux.HandleFunc("/leaderboard/check", s.checkLeaderboard)
	mux.HandleFunc("/sessions", s.listSessions)
	mux.HandleFunc("/sessions/periods", s.listSessionPeriods)
	mux.HandleFunc("/sessions/rollup", s.showSessionRollup)
	mux.HandleFunc("/session/start", s.startSession)
	mux.HandleFunc("/session/end", s.endSession)
	mux.HandleFunc("/instruction", s.changeInstruction)
	mux.HandleFunc("/score/submit", s.submitScore)
	mux.HandleFunc("/monitor/intention", s.showIntentionChart)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) showAttention(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.Lock()
	resp := map[string]interface{}{
		"left":        s.latest.Left,
		"right":       s.latest.Right,
		"buffer_fill": s.estimator.BufferFill(),
		"sample_rate": s.estimator.SampleRate(),
	}
	s.mu.Unlock()

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write attention")
		return
	}
}

func (s *Server) showScore(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.Lock()
	resp := map[string]interface{}{
		"score":        s.engine.GetCurrentScore(),
		"mode":         string(s.engine.CurrentMode()),
		"session_open": s.sessionOpen,
	}
	s.mu.Unlock()

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write score")
		return
	}
}

func (s *Server) showLeaderboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.Lock()
	entries := s.engine.GetLeaderboard()
	s.mu.Unlock()

	if entries == nil {
		entries = []scoring.ScoreEntry{}
	}
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write leaderboard")
		return
	}
}

func (s *Server) checkLeaderboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	scoreParam := r.URL.Query().Get("score")
	score, err := strconv.Atoi(scoreParam)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'score' parameter")
		return
	}

	s.mu.Lock()
	qualifies := s.engine.IsTopTenScore(score)
	s.mu.Unlock()

	resp := map[string]interface{}{
		"score":     score,
		"qualifies": qualifies,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write check result")
		return
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Session database not configured")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	sessions, err := s.db.Sessions(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []sessiondb.Session{}
	}

	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write sessions")
		return
	}
}

func (s *Server) listSessionPeriods(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Session database not configured")
		return
	}

	sessionID := r.URL.Query().Get("id")
	if sessionID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'id' parameter")
		return
	}

	periods, err := s.db.SessionPeriods(sessionID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve session periods: %v", err))
		return
	}
	if periods == nil {
		periods = []sessiondb.PeriodRow{}
	}

	if err := json.NewEncoder(w).Encode(periods); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write session periods")
		return
	}
}

func (s *Server) showSessionRollup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Session database not configured")
		return
	}

	days := 7
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'days' parameter")
			return
		}
		days = parsed
	}

	since := s.clock.Now().AddDate(0, 0, -days)
	rollups, err := s.db.SessionRollup(since)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve session rollup: %v", err))
		return
	}
	if rollups == nil {
		rollups = []sessiondb.DailyRollup{}
	}

	if err := json.NewEncoder(w).Encode(rollups); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write session rollup")
		return
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionOpen {
		s.writeJSONError(w, http.StatusConflict, "Session already running")
		return
	}

	s.engine.StartExperiment()
	s.sessionOpen = true
	s.sessionStart = s.clock.Now()

	if s.rec != nil {
		filename := recorder.DefaultFilename(s.estimator.SampleRate(), s.sessionStart)
		if err := s.rec.Start(filename); err != nil {
			monitoring.Logf("failed to start raw recording: %v", err)
		}
	}

	resp := map[string]interface{}{
		"status":     "started",
		"started_at": s.sessionStart.UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write session state")
		return
	}
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sessionOpen {
		s.writeJSONError(w, http.StatusConflict, "No session running")
		return
	}

	finalScore := s.engine.EndExperiment()
	s.sessionOpen = false

	if s.rec != nil {
		if err := s.rec.Stop(); err != nil {
			monitoring.Logf("failed to stop raw recording: %v", err)
		}
	}

	periods := s.engine.Periods()
	periodTotal := 0
	for _, p := range periods {
		periodTotal += p.Points
	}
	bonus := finalScore > periodTotal

	resp := map[string]interface{}{
		"final_score":      finalScore,
		"bonus":            bonus,
		"top_ten":          s.engine.IsTopTenScore(finalScore),
		"duration_seconds": s.clock.Since(s.sessionStart).Seconds(),
	}

	if s.db != nil {
		sessionID, err := s.db.RecordSession(
			r.FormValue("name"), finalScore, bonus,
			s.sessionStart, s.clock.Now(), periods,
		)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to persist session: %v", err))
			return
		}
		resp["session_id"] = sessionID
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write session result")
		return
	}
}

func (s *Server) changeInstruction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	mode := scoring.Mode(r.FormValue("mode"))
	if !mode.Valid() {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'mode' parameter")
		return
	}

	s.mu.Lock()
	if !s.sessionOpen {
		s.mu.Unlock()
		s.writeJSONError(w, http.StatusConflict, "No session running")
		return
	}
	s.engine.ChangeInstruction(mode)
	current := s.engine.CurrentMode()
	s.mu.Unlock()

	resp := map[string]interface{}{
		"mode": string(current),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write instruction state")
		return
	}
}

func (s *Server) submitScore(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'name' parameter")
		return
	}

	s.mu.Lock()
	topTen, err := s.engine.SubmitScore(name)
	s.mu.Unlock()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to save leaderboard: %v", err))
		return
	}

	resp := map[string]interface{}{
		"name":    name,
		"top_ten": topTen,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write submit result")
		return
	}
}
