package api

import (
	"bytes"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// showIntentionChart renders a quick line chart (HTML) of the current
// session's intention history using go-echarts. This is a debugging-only
// endpoint (no auth) to eyeball the estimator output without the GUI.
func (s *Server) showIntentionChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.Lock()
	history := s.engine.IntentionHistory()
	s.mu.Unlock()

	if len(history) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "No intention history available")
		return
	}

	timestamps := make([]string, 0, len(history))
	leftSeries := make([]opts.LineData, 0, len(history))
	rightSeries := make([]opts.LineData, 0, len(history))
	for _, sample := range history {
		timestamps = append(timestamps, sample.Timestamp.Format("15:04:05.000"))
		leftSeries = append(leftSeries, opts.LineData{Value: sample.Left})
		rightSeries = append(rightSeries, opts.LineData{Value: sample.Right})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Intention History", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Intention History", Subtitle: "left/right motor imagery intention, 0-100"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "Intention"}),
	)
	line.SetXAxis(timestamps).
		AddSeries("left", leftSeries).
		AddSeries("right", rightSeries)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to render intention chart")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
