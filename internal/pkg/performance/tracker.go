package performance

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

const maxMatchTimings = 1000

// Tracker tracks performance and resolution metrics for analysis cycles
type Tracker struct {
	mu sync.RWMutex

	// Overall metrics
	TotalCycles      int
	TotalMatches     int
	FailedMatches    int
	TotalSets        int
	ResolvedSets     int
	UnresolvedSets   int
	AmbiguousGames   int
	InferredPoints   int
	MomentumRecords  int
	MomentumIssues   int
	ModeCounts       map[string]int
	UnresolvedReason map[string]int

	// Timing metrics
	CycleDuration   time.Duration
	FetchDuration   time.Duration
	AnalyzeDuration time.Duration
	StoreDuration   time.Duration

	// Per-match metrics, newest last
	MatchTimings []MatchTiming
}

// MatchTiming tracks timing for a single match
type MatchTiming struct {
	MatchID     string
	FetchTime   time.Duration
	AnalyzeTime time.Duration
	StoreTime   time.Duration
	TotalTime   time.Duration
	Success     bool
	RecordedAt  time.Time
}

var globalTracker = newTracker()

func newTracker() *Tracker {
	return &Tracker{
		ModeCounts:       make(map[string]int),
		UnresolvedReason: make(map[string]int),
		MatchTimings:     make([]MatchTiming, 0, 64),
	}
}

// GetTracker returns the global performance tracker
func GetTracker() *Tracker {
	return globalTracker
}

// Reset resets all metrics
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fresh := newTracker()
	t.TotalCycles = 0
	t.TotalMatches = 0
	t.FailedMatches = 0
	t.TotalSets = 0
	t.ResolvedSets = 0
	t.UnresolvedSets = 0
	t.AmbiguousGames = 0
	t.InferredPoints = 0
	t.MomentumRecords = 0
	t.MomentumIssues = 0
	t.ModeCounts = fresh.ModeCounts
	t.UnresolvedReason = fresh.UnresolvedReason
	t.CycleDuration = 0
	t.FetchDuration = 0
	t.AnalyzeDuration = 0
	t.StoreDuration = 0
	t.MatchTimings = fresh.MatchTimings
}

// RecordCycle records a complete cycle over the configured matches
func (t *Tracker) RecordCycle(total time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.TotalCycles++
	t.CycleDuration += total
}

// RecordMatch records timing for a single match. analysis may be nil when the match failed.
func (t *Tracker) RecordMatch(timing MatchTiming, analysis *models.MatchAnalysis) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.TotalMatches++
	if !timing.Success {
		t.FailedMatches++
	}
	t.FetchDuration += timing.FetchTime
	t.AnalyzeDuration += timing.AnalyzeTime
	t.StoreDuration += timing.StoreTime

	if timing.RecordedAt.IsZero() {
		timing.RecordedAt = time.Now()
	}
	t.MatchTimings = append(t.MatchTimings, timing)
	if len(t.MatchTimings) > maxMatchTimings {
		t.MatchTimings = t.MatchTimings[len(t.MatchTimings)-maxMatchTimings:]
	}

	if analysis == nil {
		return
	}
	for _, s := range analysis.Sets {
		t.TotalSets++
		if s.Resolved {
			t.ResolvedSets++
			t.ModeCounts[s.Mode.String()]++
		} else {
			t.UnresolvedSets++
			t.UnresolvedReason[s.Reason]++
		}
	}
	t.AmbiguousGames += analysis.AmbiguousGames()
	t.InferredPoints += analysis.InferredPoints()
	t.MomentumRecords += len(analysis.Momentum)
	t.MomentumIssues += len(analysis.MomentumIssues)
}

// PrintSummary logs a performance summary
func (t *Tracker) PrintSummary() {
	m := t.GetMetrics()
	if m.Overall.TotalCycles == 0 {
		slog.Info("No performance data collected yet")
		return
	}
	slog.Info("Analysis summary",
		"cycles", m.Overall.TotalCycles,
		"matches", m.Overall.TotalMatches,
		"failed_matches", m.Overall.FailedMatches,
		"sets", m.Resolution.TotalSets,
		"resolved_rate", m.Resolution.ResolvedRate,
		"ambiguous_games", m.Resolution.AmbiguousGames,
		"inferred_points", m.Resolution.InferredPoints,
		"momentum_issues", m.Resolution.MomentumIssues)
	slog.Info("Timing breakdown (average per match)",
		"fetch", m.Timing.AvgFetch,
		"analyze", m.Timing.AvgAnalyze,
		"store", m.Timing.AvgStore,
		"cycle", m.Timing.AvgCycle)
	for _, s := range m.SlowestMatches {
		slog.Info("Slowest match", "match_id", s.MatchID, "duration", s.Duration)
	}
}

// MetricsResponse represents the JSON response structure for /metrics endpoint
type MetricsResponse struct {
	Overall struct {
		TotalCycles   int `json:"total_cycles"`
		TotalMatches  int `json:"total_matches"`
		FailedMatches int `json:"failed_matches"`
	} `json:"overall"`

	Resolution struct {
		TotalSets        int            `json:"total_sets"`
		ResolvedSets     int            `json:"resolved_sets"`
		UnresolvedSets   int            `json:"unresolved_sets"`
		ResolvedRate     float64        `json:"resolved_rate"`
		AmbiguousGames   int            `json:"ambiguous_games"`
		InferredPoints   int            `json:"inferred_points"`
		MomentumRecords  int            `json:"momentum_records"`
		MomentumIssues   int            `json:"momentum_issues"`
		Modes            map[string]int `json:"modes"`
		UnresolvedReason map[string]int `json:"unresolved_reasons"`
	} `json:"resolution"`

	Timing struct {
		AvgCycle   string `json:"avg_cycle"`
		AvgFetch   string `json:"avg_fetch"`
		AvgAnalyze string `json:"avg_analyze"`
		AvgStore   string `json:"avg_store"`
	} `json:"timing"`

	SlowestMatches []struct {
		MatchID  string `json:"match_id"`
		Duration string `json:"duration"`
	} `json:"slowest_matches"`
}

// GetMetrics returns structured metrics for JSON API
func (t *Tracker) GetMetrics() MetricsResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var resp MetricsResponse
	resp.Overall.TotalCycles = t.TotalCycles
	resp.Overall.TotalMatches = t.TotalMatches
	resp.Overall.FailedMatches = t.FailedMatches

	resp.Resolution.TotalSets = t.TotalSets
	resp.Resolution.ResolvedSets = t.ResolvedSets
	resp.Resolution.UnresolvedSets = t.UnresolvedSets
	if t.TotalSets > 0 {
		resp.Resolution.ResolvedRate = float64(t.ResolvedSets) / float64(t.TotalSets) * 100
	}
	resp.Resolution.AmbiguousGames = t.AmbiguousGames
	resp.Resolution.InferredPoints = t.InferredPoints
	resp.Resolution.MomentumRecords = t.MomentumRecords
	resp.Resolution.MomentumIssues = t.MomentumIssues
	resp.Resolution.Modes = copyCounts(t.ModeCounts)
	resp.Resolution.UnresolvedReason = copyCounts(t.UnresolvedReason)

	if t.TotalCycles > 0 {
		resp.Timing.AvgCycle = (t.CycleDuration / time.Duration(t.TotalCycles)).String()
	}
	if t.TotalMatches > 0 {
		n := time.Duration(t.TotalMatches)
		resp.Timing.AvgFetch = (t.FetchDuration / n).String()
		resp.Timing.AvgAnalyze = (t.AnalyzeDuration / n).String()
		resp.Timing.AvgStore = (t.StoreDuration / n).String()
	}

	slowest := make([]MatchTiming, len(t.MatchTimings))
	copy(slowest, t.MatchTimings)
	sort.SliceStable(slowest, func(i, j int) bool {
		return slowest[i].TotalTime > slowest[j].TotalTime
	})
	if len(slowest) > 5 {
		slowest = slowest[:5]
	}
	for _, mt := range slowest {
		resp.SlowestMatches = append(resp.SlowestMatches, struct {
			MatchID  string `json:"match_id"`
			Duration string `json:"duration"`
		}{MatchID: mt.MatchID, Duration: mt.TotalTime.String()})
	}
	return resp
}

func copyCounts(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
