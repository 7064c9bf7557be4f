package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/tennispbp/internal/pkg/interfaces"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/pkg/performance"
)

type stubWorker struct {
	name string
	err  error
	runs int
}

func (s *stubWorker) Start(ctx context.Context) error   { return nil }
func (s *stubWorker) Stop() error                       { return nil }
func (s *stubWorker) GetName() string                   { return s.name }
func (s *stubWorker) RunOnce(ctx context.Context) error { s.runs++; return s.err }

func seedStore(t *testing.T) {
	t.Helper()
	ClearAnalyses()
	t.Cleanup(ClearAnalyses)

	base := time.Date(2026, 7, 13, 16, 0, 0, 0, time.UTC)
	AddAnalysis(&models.MatchAnalysis{
		MatchID:    "m1",
		Registry:   models.PlayerRegistry{HomeName: "Jannik Sinner", AwayName: "Carlos Alcaraz"},
		AnalyzedAt: base,
	})
	AddAnalysis(&models.MatchAnalysis{
		MatchID:    "m2",
		Registry:   models.PlayerRegistry{HomeName: "Iga Swiatek", AwayName: "Coco Gauff"},
		AnalyzedAt: base.Add(time.Minute),
	})
}

func get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPingAndHealth(t *testing.T) {
	performance.GetTracker().Reset()
	assert.Equal(t, "pong\n", get(t, "/ping").Body.String())
	assert.Equal(t, "ok\n", get(t, "/health").Body.String())
}

func TestHealth_DegradedWhenEveryMatchFails(t *testing.T) {
	tracker := performance.GetTracker()
	tracker.Reset()
	t.Cleanup(tracker.Reset)
	tracker.RecordMatch(performance.MatchTiming{MatchID: "m1"}, nil)

	rec := get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded: 1 of 1 matches failed\n", rec.Body.String())

	tracker.RecordMatch(performance.MatchTiming{MatchID: "m2", Success: true}, &models.MatchAnalysis{MatchID: "m2"})
	assert.Equal(t, http.StatusOK, get(t, "/health").Code)
}

func TestMatches(t *testing.T) {
	seedStore(t)

	rec := get(t, "/matches")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Matches-Count"))

	var body struct {
		Matches []models.MatchAnalysis `json:"matches"`
		Meta    struct {
			Count  int    `json:"count"`
			Source string `json:"source"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Matches, 2)
	assert.Equal(t, "m2", body.Matches[0].MatchID)
	assert.Equal(t, "memory", body.Meta.Source)
}

func TestMatches_ByID(t *testing.T) {
	seedStore(t)

	rec := get(t, "/matches?id=m1")
	require.Equal(t, http.StatusOK, rec.Code)
	var a models.MatchAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "Jannik Sinner", a.Registry.HomeName)

	assert.Equal(t, http.StatusNotFound, get(t, "/matches?id=nope").Code)
}

func TestMatchByName(t *testing.T) {
	seedStore(t)

	assert.Equal(t, http.StatusBadRequest, get(t, "/match-by-name").Code)

	rec := get(t, "/match-by-name?name=alcaraz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Matches-Count"))
	assert.Contains(t, rec.Body.String(), `"match_id":"m1"`)
}

func TestAddAnalysis_KeepsNewest(t *testing.T) {
	seedStore(t)
	AddAnalysis(&models.MatchAnalysis{MatchID: "m1", AnalyzedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})

	a, ok := GetAnalysis("m1")
	require.True(t, ok)
	assert.Equal(t, "Jannik Sinner", a.Registry.HomeName)
}

func TestAnalyze(t *testing.T) {
	ok := &stubWorker{name: "pbp"}
	bad := &stubWorker{name: "other", err: errors.New("fetch failed")}
	RegisterWorkers([]interfaces.Worker{ok, bad})
	t.Cleanup(func() { RegisterWorkers(nil) })

	rec := get(t, "/analyze?worker=PBP")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ok.runs)
	assert.Zero(t, bad.runs)

	rec = get(t, "/analyze")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fetch failed")
	assert.Equal(t, 2, ok.runs)

	assert.Equal(t, http.StatusNotFound, get(t, "/analyze?worker=missing").Code)

	req := httptest.NewRequest(http.MethodDelete, "/analyze", nil)
	del := httptest.NewRecorder()
	NewMux().ServeHTTP(del, req)
	assert.Equal(t, http.StatusMethodNotAllowed, del.Code)
}

func TestAnalyze_NoWorkers(t *testing.T) {
	RegisterWorkers(nil)
	assert.Equal(t, http.StatusInternalServerError, get(t, "/analyze").Code)
}

func TestMetrics(t *testing.T) {
	rec := get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"resolution"`)
}

func TestAddrFor(t *testing.T) {
	addr, err := AddrFor(8080)
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	_, err = AddrFor(0)
	assert.Error(t, err)
}

func TestRun_RequiresTimeout(t *testing.T) {
	assert.Error(t, Run(context.Background(), ":0", "test", 0))
}
