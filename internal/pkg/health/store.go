package health

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// InMemoryAnalysisStore keeps the latest analysis per match for fast API access
type InMemoryAnalysisStore struct {
	mu       sync.RWMutex
	analyses map[string]*models.MatchAnalysis // key: match_id
}

var globalAnalysisStore = &InMemoryAnalysisStore{
	analyses: make(map[string]*models.MatchAnalysis),
}

// AddAnalysis stores an analysis, replacing an older one for the same match.
func AddAnalysis(a *models.MatchAnalysis) {
	if a == nil || a.MatchID == "" {
		return
	}
	globalAnalysisStore.mu.Lock()
	defer globalAnalysisStore.mu.Unlock()

	if existing, ok := globalAnalysisStore.analyses[a.MatchID]; ok && existing.AnalyzedAt.After(a.AnalyzedAt) {
		slog.Debug("Skipping stale analysis", "match_id", a.MatchID)
		return
	}
	analysisCopy := *a
	globalAnalysisStore.analyses[a.MatchID] = &analysisCopy
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug("Stored analysis", "match_id", a.MatchID, "unresolved_sets", a.UnresolvedSets(), "total_in_store", len(globalAnalysisStore.analyses))
	}
}

// GetAnalyses returns all analyses, most recent first.
func GetAnalyses() []models.MatchAnalysis {
	globalAnalysisStore.mu.RLock()
	defer globalAnalysisStore.mu.RUnlock()

	out := make([]models.MatchAnalysis, 0, len(globalAnalysisStore.analyses))
	for _, a := range globalAnalysisStore.analyses {
		out = append(out, *a)
	}
	sortByRecency(out)
	return out
}

// GetAnalysis returns the analysis of one match.
func GetAnalysis(matchID string) (models.MatchAnalysis, bool) {
	globalAnalysisStore.mu.RLock()
	defer globalAnalysisStore.mu.RUnlock()

	a, ok := globalAnalysisStore.analyses[matchID]
	if !ok {
		return models.MatchAnalysis{}, false
	}
	return *a, true
}

// GetAnalysesByName returns analyses whose player names or match id contain
// the query (case-insensitive).
func GetAnalysesByName(nameQuery string) []models.MatchAnalysis {
	q := strings.ToLower(strings.TrimSpace(nameQuery))
	if q == "" {
		return []models.MatchAnalysis{}
	}

	globalAnalysisStore.mu.RLock()
	defer globalAnalysisStore.mu.RUnlock()

	out := make([]models.MatchAnalysis, 0)
	for _, a := range globalAnalysisStore.analyses {
		home := strings.ToLower(a.Registry.HomeName)
		away := strings.ToLower(a.Registry.AwayName)
		if strings.Contains(home, q) || strings.Contains(away, q) ||
			strings.Contains(home+" vs "+away, q) || strings.Contains(strings.ToLower(a.MatchID), q) {
			out = append(out, *a)
		}
	}
	sortByRecency(out)
	return out
}

// ClearAnalyses clears all analyses from the in-memory store
func ClearAnalyses() {
	globalAnalysisStore.mu.Lock()
	defer globalAnalysisStore.mu.Unlock()

	clearedCount := len(globalAnalysisStore.analyses)
	globalAnalysisStore.analyses = make(map[string]*models.MatchAnalysis)
	slog.Info("Cleared analyses from in-memory store", "cleared_count", clearedCount)
}

func sortByRecency(out []models.MatchAnalysis) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].AnalyzedAt.Equal(out[j].AnalyzedAt) {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].AnalyzedAt.After(out[j].AnalyzedAt)
	})
}
