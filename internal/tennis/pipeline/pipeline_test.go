package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

const matchMarkup = `
<div class="participant participant--home" data-player-id="p1"><span class="participant__name">Home Player</span></div>
<div class="participant participant--away" data-player-id="p2"><span class="participant__name">Away Player</span></div>
<div class="pbp-set" data-set="1"><span class="pbp-set__title">Set 1</span><span class="pbp-set__duration">12 min</span></div>
<div class="pbp-game">
  <div class="pbp-game__server" data-player-id="p2"></div>
  <div class="pbp-game__row">0 15 30</div>
  <div class="pbp-game__row">15 30 40</div>
</div>
<div class="pbp-game">
  <div class="pbp-game__server" data-player-id="p1"></div>
  <div class="pbp-game__row">15 30 40</div>
  <div class="pbp-game__row">0 0 15</div>
</div>
<div class="pbp-set" data-set="2"><span class="pbp-set__title">Set 2</span></div>
<div class="pbp-game">
  <div class="pbp-game__server" data-player-id="p1"></div>
  <div class="pbp-game__row">15 30 40</div>
  <div class="pbp-game__row">0 0 15</div>
</div>`

func newAnalyzer(calc bool) *Analyzer {
	a := New(Options{CalculatedFallback: calc})
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a
}

func TestAnalyze(t *testing.T) {
	in := Input{
		MatchID: "home player|away player|unknown-time",
		Markup:  matchMarkup,
		Oracle: map[int]models.SetScore{
			1: {Home: 2, Away: 0},
		},
		APISeries: []models.MomentumPoint{{SetNumber: 1, GameNumber: 1, Value: models.Float(35)}},
		SVGSeries: []models.MomentumPoint{
			{SetNumber: 1, GameNumber: 1, Value: models.Float(30)},
			{SetNumber: 1, GameNumber: 2, Value: models.Float(180)},
		},
	}

	got, err := newAnalyzer(false).Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "p1", got.Registry.HomeID)
	assert.Equal(t, "Away Player", got.Registry.AwayName)
	assert.Len(t, got.SetHeaders, 2)
	require.Len(t, got.Sets, 2)

	set1 := got.Sets[0]
	assert.True(t, set1.Resolved)
	assert.Equal(t, models.ModeServerRowChronological, set1.Mode)
	assert.Equal(t, models.SideHome, set1.Games[0].GameWinner)
	assert.True(t, set1.Games[0].IsBreak)
	assert.Equal(t, 2, got.InferredPoints())

	set2 := got.Sets[1]
	assert.False(t, set2.Resolved)
	assert.Equal(t, "oracle score unavailable", set2.Reason)
	assert.Zero(t, set2.Games[0].InferredPoints())
	assert.Equal(t, []int{2}, got.UnresolvedSets())

	require.Len(t, got.Momentum, 2)
	assert.Equal(t, models.SourceAPI, got.Momentum[0].Source)
	assert.Equal(t, models.SourceSVG, got.Momentum[1].Source)
	require.Len(t, got.MomentumIssues, 1)
	assert.Equal(t, 2, got.MomentumIssues[0].GameNumber)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got.AnalyzedAt)
}

func TestAnalyze_CalculatedFallback(t *testing.T) {
	in := Input{
		Markup: matchMarkup,
		Oracle: map[int]models.SetScore{1: {Home: 2}, 2: {Home: 1}},
	}

	got, err := newAnalyzer(true).Analyze(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, got.Momentum, 3)
	for _, r := range got.Momentum {
		assert.Equal(t, models.SourceCalculated, r.Source)
	}
	assert.Empty(t, got.MomentumIssues)
}

func TestAnalyze_NoPointByPointData(t *testing.T) {
	got, err := newAnalyzer(true).Analyze(context.Background(), Input{MatchID: "m", Markup: "<p>no data</p>"})
	require.NoError(t, err)

	assert.Empty(t, got.Sets)
	assert.Empty(t, got.Momentum)
	assert.False(t, got.Registry.Complete())
}

func TestAnalyze_SetsWithoutGameBlocks(t *testing.T) {
	tests := []struct {
		name       string
		markup     string
		oracle     map[int]models.SetScore
		wantSets   []int
		wantReason map[int]string
	}{
		{
			name:       "header without games",
			markup:     matchMarkup + `<div class="pbp-set" data-set="3"><span class="pbp-set__title">Set 3</span></div>`,
			oracle:     map[int]models.SetScore{1: {Home: 2}, 2: {Home: 1}, 3: {Home: 6, Away: 4}},
			wantSets:   []int{1, 2, 3},
			wantReason: map[int]string{3: "no point-by-point blocks"},
		},
		{
			name:       "header without games or oracle",
			markup:     matchMarkup + `<div class="pbp-set" data-set="3"></div>`,
			oracle:     map[int]models.SetScore{1: {Home: 2}, 2: {Home: 1}},
			wantSets:   []int{1, 2, 3},
			wantReason: map[int]string{3: "oracle score unavailable"},
		},
		{
			name:       "oracle set missing from markup",
			markup:     matchMarkup,
			oracle:     map[int]models.SetScore{1: {Home: 2}, 2: {Home: 1}, 3: {Away: 6, Home: 3}},
			wantSets:   []int{1, 2, 3},
			wantReason: map[int]string{3: "no point-by-point blocks"},
		},
		{
			name:   "no point-by-point data",
			markup: "<p>no data</p>",
			oracle: map[int]models.SetScore{1: {Home: 6, Away: 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newAnalyzer(false).Analyze(context.Background(), Input{Markup: tt.markup, Oracle: tt.oracle})
			require.NoError(t, err)

			var numbers []int
			for _, s := range got.Sets {
				numbers = append(numbers, s.SetNumber)
			}
			assert.Equal(t, tt.wantSets, numbers)

			var unresolved []int
			for n, reason := range tt.wantReason {
				unresolved = append(unresolved, n)
				s := got.Sets[n-1]
				assert.False(t, s.Resolved)
				assert.Equal(t, reason, s.Reason)
				assert.Empty(t, s.Games)
			}
			if len(unresolved) > 0 {
				assert.Equal(t, unresolved, got.UnresolvedSets())
			}
		})
	}
}

func TestAnalyze_SeparateParticipantMarkup(t *testing.T) {
	in := Input{
		Markup:            matchMarkup,
		ParticipantMarkup: `<div class="participant--home" data-player-id="p2"></div><div class="participant--away" data-player-id="p1"></div>`,
		Oracle:            map[int]models.SetScore{2: {Away: 1}},
	}

	got, err := newAnalyzer(false).Analyze(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "p2", got.Registry.HomeID)
	assert.True(t, got.Sets[1].Resolved)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAnalyzer(false).Analyze(ctx, Input{Markup: matchMarkup})
	assert.True(t, errors.Is(err, context.Canceled))
}
