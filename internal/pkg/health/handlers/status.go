package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Vodeneev/tennispbp/internal/pkg/performance"
)

// HandlePing handles /ping endpoint
func HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

// HandleHealth handles /health. It reports degraded with 503 once matches
// were attempted and every one of them failed.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	m := performance.GetTracker().GetMetrics()
	if m.Overall.TotalMatches > 0 && m.Overall.FailedMatches == m.Overall.TotalMatches {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "degraded: %d of %d matches failed\n", m.Overall.FailedMatches, m.Overall.TotalMatches)
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

// HandleMetrics handles /metrics: counters and timings of the analysis worker.
func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := performance.GetTracker().GetMetrics()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(metrics); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode metrics: %v", err), http.StatusInternalServerError)
	}
}
