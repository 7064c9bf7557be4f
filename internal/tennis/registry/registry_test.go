package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/segment"
)

func TestBuild(t *testing.T) {
	markup := `
<header>
  <div class="participant participant--home" data-player-id="p1">
    <img src="flag.png"><span class="participant__name"> Jannik
      Sinner </span><span class="seed">(1)</span>
  </div>
  <div class="participant participant--away" data-player-id="p2">
    <span class="participant__name">Carlos Alcaraz</span>
  </div>
</header>`

	got := Build(markup)

	assert.Equal(t, models.PlayerRegistry{
		HomeID:   "p1",
		AwayID:   "p2",
		HomeName: "Jannik Sinner",
		AwayName: "Carlos Alcaraz",
	}, got)
	assert.True(t, got.Complete())
	assert.Equal(t, models.SideAway, got.SideOf("p2"))
}

func TestBuild_MissingParticipant(t *testing.T) {
	got := Build(`<div class="participant participant--home" data-player-id="p1"></div>`)

	assert.Equal(t, "p1", got.HomeID)
	assert.Empty(t, got.AwayID)
	assert.False(t, got.Complete())
}

func TestBuild_NothingToFind(t *testing.T) {
	for _, markup := range []string{"", "plain text", "<div><span>6-4</span></div>"} {
		got := Build(markup)
		assert.False(t, got.Complete())
		assert.Equal(t, models.PlayerRegistry{}, got)
	}
}

func TestBuild_FirstParticipantWins(t *testing.T) {
	markup := `<div class="participant--home" data-player-id="a"></div>
<div class="participant--away" data-player-id="b"></div>
<div class="participant--home" data-player-id="c"></div>`

	got := Build(markup)

	assert.Equal(t, "a", got.HomeID)
	assert.Equal(t, "b", got.AwayID)
}

func TestBuildWithDialect(t *testing.T) {
	d := segment.Dialect{
		HomeParticipantClass: "team-1",
		AwayParticipantClass: "team-2",
		ParticipantIDAttr:    "data-id",
		ParticipantNameClass: "name",
	}
	markup := `<a class="team-1" data-id="10"><b class="name">Home Player</b></a>
<a class="team-2" data-id="20"><b class="name">Away Player</b></a>`

	got := BuildWithDialect(markup, d)

	assert.Equal(t, "10", got.HomeID)
	assert.Equal(t, "20", got.AwayID)
	assert.Equal(t, "Away Player", got.AwayName)
}
