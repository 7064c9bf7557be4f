package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// GetAnalysesFunc returns every stored analysis
type GetAnalysesFunc func() []models.MatchAnalysis

// GetAnalysisFunc returns the analysis of one match
type GetAnalysisFunc func(matchID string) (models.MatchAnalysis, bool)

// GetAnalysesByNameFunc returns analyses matching a player name
type GetAnalysesByNameFunc func(name string) []models.MatchAnalysis

var (
	getAnalysesFunc       GetAnalysesFunc
	getAnalysisFunc       GetAnalysisFunc
	getAnalysesByNameFunc GetAnalysesByNameFunc
)

func SetGetAnalysesFunc(fn GetAnalysesFunc) {
	getAnalysesFunc = fn
}

func SetGetAnalysisFunc(fn GetAnalysisFunc) {
	getAnalysisFunc = fn
}

func SetGetAnalysesByNameFunc(fn GetAnalysesByNameFunc) {
	getAnalysesByNameFunc = fn
}

// HandleMatches handles /matches: every latest analysis, or one with ?id=.
func HandleMatches(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		var (
			a  models.MatchAnalysis
			ok bool
		)
		if getAnalysisFunc != nil {
			a, ok = getAnalysisFunc(id)
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf("match %q not analyzed", id)})
			return
		}
		writeJSON(w, a)
		return
	}

	var analyses []models.MatchAnalysis
	if getAnalysesFunc != nil {
		analyses = getAnalysesFunc()
	}
	if analyses == nil {
		analyses = []models.MatchAnalysis{}
	}

	duration := time.Since(startTime)
	w.Header().Set("X-Query-Duration", duration.String())
	w.Header().Set("X-Matches-Count", fmt.Sprintf("%d", len(analyses)))
	w.Header().Set("X-Source", "memory")

	slog.Debug("Retrieved analyses from memory", "count", len(analyses), "duration", duration)

	writeJSON(w, map[string]any{
		"matches": analyses,
		"meta": map[string]any{
			"count":    len(analyses),
			"duration": duration.String(),
			"source":   "memory",
		},
	})
}

// HandleMatchByName handles /match-by-name?name=Sinner
func HandleMatchByName(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, `missing query parameter "name"`, http.StatusBadRequest)
		return
	}

	analyses := []models.MatchAnalysis{}
	if getAnalysesByNameFunc != nil {
		analyses = getAnalysesByNameFunc(name)
	}

	duration := time.Since(startTime)
	w.Header().Set("X-Query-Duration", duration.String())
	w.Header().Set("X-Matches-Count", fmt.Sprintf("%d", len(analyses)))

	slog.Info("Match-by-name query", "name", name, "count", len(analyses), "duration", duration)

	writeJSON(w, map[string]any{
		"matches": analyses,
		"meta": map[string]any{
			"query":    name,
			"count":    len(analyses),
			"duration": duration.String(),
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, fmt.Sprintf("Failed to encode: %v", err), http.StatusInternalServerError)
	}
}
