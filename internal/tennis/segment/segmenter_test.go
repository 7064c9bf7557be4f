package segment

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

const twoSetMarkup = `
<div class="pbp">
  <div class="pbp-set" data-set="1">
    <span class="pbp-set__title">Set 1</span>
    <span class="pbp-set__duration">48 min</span>
  </div>
  <div class="pbp-game">
    <div class="pbp-game__server" data-player-id="p2"></div>
    <div class="pbp-game__score">1-0</div>
    <div class="pbp-game__row"><span class="pbp-point">0</span><span class="pbp-point">15</span><span class="pbp-point">30</span></div>
    <div class="pbp-game__row"><span class="pbp-point">15</span><span class="pbp-point">15</span><span class="pbp-point">40</span></div>
  </div>
  <div class="pbp-game">
    <div class="pbp-game__server" data-player-id="p1"></div>
    <div class="pbp-game__row"><span class="pbp-point">15</span><span class="pbp-point">??</span><span class="pbp-point">AD</span></div>
    <div class="pbp-game__row"><span class="pbp-point">0</span><span class="pbp-point">40</span></div>
  </div>
  <div class="pbp-set"><span class="pbp-set__title">Set 2</span><span class="pbp-set__duration">1:05</span></div>
  <div class="pbp-game">
    <div class="pbp-game__server">p1</div>
    <div class="pbp-game__row">15, 30, 40</div>
    <div class="pbp-game__row">0, 0, 0</div>
  </div>
</div>`

func TestSegment_TwoSets(t *testing.T) {
	res := Segment(twoSetMarkup)

	require.Len(t, res.SetHeaders, 2)
	assert.Equal(t, models.SetHeader{SetIndex: 1, DurationMinutes: 48}, res.SetHeaders[0])
	assert.Equal(t, models.SetHeader{SetIndex: 2, DurationMinutes: 65}, res.SetHeaders[1])
	assert.Equal(t, []int{1, 2}, res.SortedSetIndices)
	require.Len(t, res.RawBlocks, 3)
	assert.Len(t, res.BlocksBySet[1], 2)
	assert.Len(t, res.BlocksBySet[2], 1)
	assert.Equal(t, 1, res.SkippedTokens)
	assert.Zero(t, res.OrphanBlocks)

	want := models.RawBlock{
		SetIndex:         1,
		BlockIndex:       0,
		ServerIdentifier: "p2",
		Row1Points:       []string{"0", "15", "30"},
		Row2Points:       []string{"15", "15", "40"},
		BlockFinalScore:  &models.ScorePair{First: 1, Second: 0},
	}
	if diff := cmp.Diff(want, res.BlocksBySet[1][0]); diff != "" {
		t.Errorf("first block mismatch (-want +got):\n%s", diff)
	}

	second := res.BlocksBySet[1][1]
	assert.Equal(t, 1, second.BlockIndex)
	assert.Equal(t, []string{"15", "AD"}, second.Row1Points)
	assert.Nil(t, second.BlockFinalScore)

	plain := res.BlocksBySet[2][0]
	assert.Equal(t, "p1", plain.ServerIdentifier)
	assert.Equal(t, []string{"15", "30", "40"}, plain.Row1Points)
	assert.Equal(t, []string{"0", "0", "0"}, plain.Row2Points)
}

func TestSegment_OrphanAndUnterminatedBlocks(t *testing.T) {
	markup := `
<div class="pbp-game"><div class="pbp-game__row">15</div><div class="pbp-game__row">0</div></div>
<div class="pbp-set" data-set="3"></div>
<div class="pbp-game"><div class="pbp-game__server" data-player-id="x"></div>
  <div class="pbp-game__row">15</div><div class="pbp-game__row">0</div></div>
<div class="pbp-game"><div class="pbp-game__row">30`

	res := Segment(markup)

	assert.Equal(t, 1, res.OrphanBlocks)
	require.Len(t, res.RawBlocks, 1)
	assert.Equal(t, 3, res.RawBlocks[0].SetIndex)
	assert.Equal(t, []int{3}, res.SortedSetIndices)
}

func TestSegment_NoPointByPointData(t *testing.T) {
	for _, markup := range []string{"", "<<<>>> not html at all", `<div class="summary">6-4 6-3</div>`} {
		res := Segment(markup)
		assert.True(t, res.Empty())
		assert.Empty(t, res.SetHeaders)
		assert.Empty(t, res.SortedSetIndices)
		assert.NotNil(t, res.BlocksBySet)
	}
}

func TestSegment_BlocksCarryNoSemanticLabels(t *testing.T) {
	typ := reflect.TypeOf(models.RawBlock{})
	for i := 0; i < typ.NumField(); i++ {
		name := strings.ToLower(typ.Field(i).Name)
		for _, banned := range []string{"winner", "side", "role", "home", "away", "receiver"} {
			assert.NotContains(t, name, banned)
		}
	}

	res := Segment(twoSetMarkup)
	for _, b := range res.RawBlocks {
		// server identifiers stay verbatim markup ids, never sides
		assert.NotEqual(t, string(models.SideHome), b.ServerIdentifier)
		assert.NotEqual(t, string(models.SideAway), b.ServerIdentifier)
	}
}

func TestSegmentWithDialect_CustomClasses(t *testing.T) {
	d := Dialect{
		SetHeaderClass: "set-marker",
		GameClass:      "game",
		RowClass:       "line",
		ServerClass:    "serve",
		ServerAttr:     "data-id",
	}
	markup := `<h3 class="set-marker">SET 4</h3>
<li class="game"><i class="serve" data-id="42"></i><p class="line">40</p><p class="line">15</p></li>`

	res := SegmentWithDialect(markup, d)

	require.Len(t, res.RawBlocks, 1)
	assert.Equal(t, 4, res.RawBlocks[0].SetIndex)
	assert.Equal(t, "42", res.RawBlocks[0].ServerIdentifier)
	assert.Equal(t, []string{"40"}, res.RawBlocks[0].Row1Points)
}

func TestParseDuration(t *testing.T) {
	tests := map[string]int{
		"58 min":  58,
		"1:05":    65,
		"1h 12m":  72,
		"2 hours": 120,
		"":        0,
		"n/a":     0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseDuration(in), in)
	}
}

func TestScan_SelfClosingAndStrayEndTags(t *testing.T) {
	var starts, ends []string
	err := Scan(`<div><rect class="bar"/></span><br></div>`, Visitor{
		Start: func(el Element) { starts = append(starts, el.Tag) },
		End:   func(el Element) { ends = append(ends, el.Tag) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"div", "rect", "br"}, starts)
	assert.Equal(t, []string{"rect", "br", "div"}, ends)
}
