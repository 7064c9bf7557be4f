package storage

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/tennispbp/internal/pkg/config"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

func newTestStorage(t *testing.T) *SQLAnalysisStorage {
	t.Helper()
	s, err := NewSQLiteAnalysisStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleAnalysis() *models.MatchAnalysis {
	return &models.MatchAnalysis{
		MatchID:    "sinner|alcaraz|2026-07-13T14:00:00Z",
		AnalyzedAt: time.Date(2026, 7, 13, 16, 0, 0, 0, time.UTC),
		Sets: []models.SetResolution{
			{
				SetNumber:  1,
				Mode:       models.ModeReceiverRowChronological,
				FinalScore: models.SetScore{Home: 1, Away: 1},
				Oracle:     &models.SetScore{Home: 1, Away: 1},
				Resolved:   true,
				Warnings:   []string{"set 1 game 2: unknown server \"x\""},
				Games: []models.ResolvedGame{
					{SetNumber: 1, GameNumber: 1, ServerSide: models.SideAway, GameWinner: models.SideHome, IsBreak: true,
						Points: []models.Point{{ServerScore: 0, ReceiverScore: 1, Winner: models.RoleReceiver}}},
					{SetNumber: 1, GameNumber: 2, ServerSide: models.SideHome, GameWinner: models.SideAway, IsBreak: true,
						Points: []models.Point{{ServerScore: 2, ReceiverScore: 4, Winner: models.RoleReceiver, IsInferred: true}}},
				},
			},
			{
				SetNumber:  2,
				Mode:       models.ModeServerRowChronological,
				FinalScore: models.SetScore{Home: 0, Away: 1},
				Reason:     "oracle score unavailable",
				Games: []models.ResolvedGame{
					{SetNumber: 2, GameNumber: 1, ServerSide: models.SideNone, GameWinner: models.SideAway, IsTiebreak: true},
				},
			},
		},
		Momentum: []models.MomentumRecord{
			{SetNumber: 1, GameNumber: 1, Value: 42.5, ValueAPI: models.Float(42.5), ValueSVG: models.Float(40), Source: models.SourceAPI, BreakOccurred: true, Zone: "home_edge", FavoredPlayer: "home"},
			{SetNumber: 1, GameNumber: 2, Value: math.NaN(), Source: models.SourceSVG, Zone: "balanced", FavoredPlayer: "none"},
		},
	}
}

func TestSQLAnalysisStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	a := sampleAnalysis()

	require.NoError(t, s.StoreAnalysis(ctx, a))

	sets, err := s.LoadSets(ctx, a.MatchID)
	require.NoError(t, err)
	if diff := cmp.Diff(a.Sets, sets); diff != "" {
		t.Errorf("sets mismatch (-want +got):\n%s", diff)
	}

	momentum, err := s.LoadMomentum(ctx, a.MatchID)
	require.NoError(t, err)
	require.Len(t, momentum, 2)
	assert.Equal(t, a.Momentum[0], momentum[0])
	assert.True(t, math.IsNaN(momentum[1].Value))
	assert.Nil(t, momentum[1].ValueAPI)
	assert.Equal(t, models.SourceSVG, momentum[1].Source)
}

func TestSQLAnalysisStorage_StoreReplacesPreviousRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	a := sampleAnalysis()
	require.NoError(t, s.StoreAnalysis(ctx, a))

	a.Sets[0].Games = a.Sets[0].Games[:1]
	a.Sets[0].Resolved = false
	a.Momentum = a.Momentum[:1]
	require.NoError(t, s.StoreAnalysis(ctx, a))

	sets, err := s.LoadSets(ctx, a.MatchID)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.False(t, sets[0].Resolved)
	assert.Len(t, sets[0].Games, 1)

	momentum, err := s.LoadMomentum(ctx, a.MatchID)
	require.NoError(t, err)
	assert.Len(t, momentum, 1)
}

func TestSQLAnalysisStorage_StoreDropsSetsMissingFromNewRun(t *testing.T) {
	tests := []struct {
		name     string
		keep     int
		wantSets []int
	}{
		{name: "trailing set dropped", keep: 1, wantSets: []int{1}},
		{name: "all sets dropped", keep: 0, wantSets: nil},
		{name: "no sets dropped", keep: 2, wantSets: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStorage(t)
			a := sampleAnalysis()
			require.NoError(t, s.StoreAnalysis(ctx, a))

			a.Sets = a.Sets[:tt.keep]
			require.NoError(t, s.StoreAnalysis(ctx, a))

			sets, err := s.LoadSets(ctx, a.MatchID)
			require.NoError(t, err)
			var got []int
			for _, set := range sets {
				got = append(got, set.SetNumber)
			}
			assert.Equal(t, tt.wantSets, got)
		})
	}
}

func TestSQLAnalysisStorage_UnknownMatch(t *testing.T) {
	s := newTestStorage(t)
	sets, err := s.LoadSets(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestSQLAnalysisStorage_RejectsMissingMatchID(t *testing.T) {
	s := newTestStorage(t)
	assert.Error(t, s.StoreAnalysis(context.Background(), &models.MatchAnalysis{}))
	assert.Error(t, s.StoreAnalysis(context.Background(), nil))
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", rebind(config.DriverPostgres, q))
	assert.Equal(t, q, rebind(config.DriverSQLite, q))
}

func TestNew_Drivers(t *testing.T) {
	st, err := New(&config.Config{Storage: config.StorageConfig{Driver: config.DriverNone}})
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = New(&config.Config{Storage: config.StorageConfig{Driver: config.DriverPostgres}})
	assert.Error(t, err)

	_, err = New(&config.Config{Storage: config.StorageConfig{Driver: "mongo"}})
	assert.Error(t, err)
}

func TestDeleteMatch(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	a := sampleAnalysis()
	require.NoError(t, s.StoreAnalysis(ctx, a))

	require.NoError(t, s.DeleteMatch(ctx, a.MatchID))

	sets, err := s.LoadSets(ctx, a.MatchID)
	require.NoError(t, err)
	assert.Empty(t, sets)
	records, err := s.LoadMomentum(ctx, a.MatchID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPurgeBefore(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	old := sampleAnalysis()
	fresh := sampleAnalysis()
	fresh.MatchID = "fresh"
	fresh.AnalyzedAt = old.AnalyzedAt.Add(48 * time.Hour)
	require.NoError(t, s.StoreAnalysis(ctx, old))
	require.NoError(t, s.StoreAnalysis(ctx, fresh))

	n, err := s.PurgeBefore(ctx, old.AnalyzedAt.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sets, err := s.LoadSets(ctx, old.MatchID)
	require.NoError(t, err)
	assert.Empty(t, sets)
	sets, err = s.LoadSets(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, sets, 2)
}
