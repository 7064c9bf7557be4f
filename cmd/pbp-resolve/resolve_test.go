package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/pkg/storage"
)

const pageMarkup = `
<div class="participant participant--home" data-player-id="p1"><span class="participant__name">Home Player</span></div>
<div class="participant participant--away" data-player-id="p2"><span class="participant__name">Away Player</span></div>
<div class="pbp-set" data-set="1"><span class="pbp-set__title">Set 1</span></div>
<div class="pbp-game">
  <div class="pbp-game__server" data-player-id="p2"></div>
  <div class="pbp-game__row">0 15 30</div>
  <div class="pbp-game__row">15 30 40</div>
</div>
<div class="pbp-game">
  <div class="pbp-game__server" data-player-id="p1"></div>
  <div class="pbp-game__row">15 30 40</div>
  <div class="pbp-game__row">0 0 15</div>
</div>`

func TestParseOracle(t *testing.T) {
	got, err := parseOracle(" 1=7-6, 2 = 4-6 ")
	require.NoError(t, err)
	assert.Equal(t, map[int]models.SetScore{
		1: {Home: 7, Away: 6},
		2: {Home: 4, Away: 6},
	}, got)

	empty, err := parseOracle("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseOracle_Errors(t *testing.T) {
	for _, in := range []string{"7-6", "x=7-6", "0=7-6", "1=76", "1=a-6", "1=-1-6", "1=6-4,1=7-5"} {
		_, err := parseOracle(in)
		assert.Error(t, err, in)
	}
}

func TestRunAnalyze_StoresInSQLite(t *testing.T) {
	dir := t.TempDir()
	markupPath := filepath.Join(dir, "final.html")
	require.NoError(t, os.WriteFile(markupPath, []byte(pageMarkup), 0o644))
	dbPath := filepath.Join(dir, "pbp.db")

	err := runAnalyze(context.Background(), &analyzeOptions{
		markup:     markupPath,
		oracle:     "1=2-0",
		sqlitePath: dbPath,
		timeout:    time.Minute,
	})
	require.NoError(t, err)

	st, err := storage.NewSQLiteAnalysisStorage(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sets, err := st.LoadSets(context.Background(), "final")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.True(t, sets[0].Resolved)
	assert.Equal(t, models.SetScore{Home: 2, Away: 0}, sets[0].FinalScore)
}

func TestRunAnalyze_MissingMarkup(t *testing.T) {
	err := runAnalyze(context.Background(), &analyzeOptions{
		markup:  filepath.Join(t.TempDir(), "missing.html"),
		timeout: time.Minute,
	})
	assert.Error(t, err)
}

func TestWriteAnalysis(t *testing.T) {
	a := &models.MatchAnalysis{
		MatchID:  "m1",
		Registry: models.PlayerRegistry{HomeName: "Home Player", AwayName: "Away Player"},
		Sets: []models.SetResolution{
			{SetNumber: 1, Mode: models.ModeServerRowChronological, FinalScore: models.SetScore{Home: 6, Away: 4}, Resolved: true},
			{SetNumber: 2, FinalScore: models.SetScore{Home: 3, Away: 5}, Reason: "oracle score unavailable"},
		},
		Momentum: []models.MomentumRecord{
			{SetNumber: 1, GameNumber: 1, Value: 40, Source: models.SourceAPI, Zone: "home", FavoredPlayer: "home"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeAnalysis(&buf, a))
	out := buf.String()
	assert.Contains(t, out, "Home Player vs Away Player")
	assert.Contains(t, out, "server_row_chronological")
	assert.Contains(t, out, "oracle score unavailable")
	assert.Contains(t, out, "Momentum: 1 values")
}

func TestWriteModes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeModes(&buf))
	for _, m := range models.SemanticModes {
		assert.Contains(t, buf.String(), m.String())
	}
}
