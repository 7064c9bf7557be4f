package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

func TestScoreTokenToOrdinal(t *testing.T) {
	tests := []struct {
		token string
		want  int
		ok    bool
	}{
		{"0", 0, true},
		{"15", 1, true},
		{"30", 2, true},
		{"40", 3, true},
		{"AD", 4, true},
		{"A", 4, true},
		{" ad ", 4, true},
		{"7", 7, true},
		{"12", 12, true},
		{"-1", 0, false},
		{"game", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ScoreTokenToOrdinal(tt.token)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIsTiebreakToken(t *testing.T) {
	for _, tok := range []string{"1", "2", "5", "7", "10", "16"} {
		assert.True(t, IsTiebreakToken(tok), tok)
	}
	for _, tok := range []string{"0", "15", "30", "40", "AD", "A", "x"} {
		assert.False(t, IsTiebreakToken(tok), tok)
	}
}

func TestDetectGameType(t *testing.T) {
	tests := []struct {
		name     string
		server   []string
		receiver []string
		ctx      GameContext
		want     GameType
	}{
		{"ordinary game", []string{"15", "30", "40"}, []string{"0", "0", "15"}, GameContext{GameNumber: 3}, Normal},
		{"tiebreak tokens", []string{"1", "1", "2"}, []string{"0", "1", "1"}, GameContext{GameNumber: 1}, Tiebreak},
		{"deciding game at six all", []string{"0"}, []string{"0"}, GameContext{GameNumber: 13, Before: models.SetScore{Home: 6, Away: 6}}, Tiebreak},
		{"thirteenth game not level", []string{"15"}, []string{"0"}, GameContext{GameNumber: 13, Before: models.SetScore{Home: 7, Away: 5}}, Normal},
		{"custom deciding game", []string{"15"}, []string{"0"}, GameContext{GameNumber: 9, Before: models.SetScore{Home: 4, Away: 4}, TiebreakGame: 9, TiebreakAt: 4}, Tiebreak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectGameType(tt.server, tt.receiver, tt.ctx))
		})
	}
}

func TestComputeGameWinner(t *testing.T) {
	tests := []struct {
		name     string
		server   []string
		receiver []string
		gt       GameType
		want     models.Role
	}{
		{"server holds from AD", []string{"40", "AD"}, []string{"40", "40"}, Normal, models.RoleNone},
		{"incomplete at 40-30", []string{"40"}, []string{"30"}, Normal, models.RoleNone},
		{"recorded closing point", []string{"30", "AD"}, []string{"40", "30"}, Normal, models.RoleServer},
		{"tiebreak 7-5", []string{"6", "7"}, []string{"5", "5"}, Tiebreak, models.RoleServer},
		{"tiebreak 6-8", []string{"6"}, []string{"8"}, Tiebreak, models.RoleReceiver},
		{"tiebreak 7-6 not over", []string{"7"}, []string{"6"}, Tiebreak, models.RoleNone},
		{"empty rows", nil, nil, Normal, models.RoleNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeGameWinner(tt.server, tt.receiver, tt.gt))
		})
	}
}

func TestTerminalWinnerNormalGame(t *testing.T) {
	assert.Equal(t, models.RoleServer, TerminalWinner(4, 2, Normal))
	assert.Equal(t, models.RoleReceiver, TerminalWinner(3, 5, Normal))
	assert.Equal(t, models.RoleNone, TerminalWinner(4, 3, Normal))
	assert.Equal(t, models.RoleNone, TerminalWinner(3, 3, Normal))
}

func TestClosingWinner(t *testing.T) {
	tests := []struct {
		name     string
		server   string
		receiver string
		gt       GameType
		want     models.Role
	}{
		{"break point converted", "30", "40", Normal, models.RoleReceiver},
		{"game point held", "40", "15", Normal, models.RoleServer},
		{"advantage server", "AD", "40", Normal, models.RoleServer},
		{"advantage receiver", "40", "AD", Normal, models.RoleReceiver},
		{"deuce is ambiguous", "40", "40", Normal, models.RoleNone},
		{"thirty all is ambiguous", "30", "30", Normal, models.RoleNone},
		{"tiebreak 6-4", "6", "4", Tiebreak, models.RoleServer},
		{"tiebreak 6-6 ambiguous", "6", "6", Tiebreak, models.RoleNone},
		{"tiebreak 8-9", "8", "9", Tiebreak, models.RoleReceiver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClosingWinner([]string{tt.server}, []string{tt.receiver}, tt.gt)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPoints(t *testing.T) {
	server := []string{"15", "15", "30", "40", "40", "AD", "40"}
	receiver := []string{"0", "15", "15", "15", "40", "40", "40"}

	points := BuildPoints(server, receiver, Normal)

	want := []models.Role{
		models.RoleServer,
		models.RoleReceiver,
		models.RoleServer,
		models.RoleServer,
		models.RoleNone, // 40-15 to 40-40 skips a recorded point
		models.RoleServer,
		models.RoleReceiver,
	}
	if assert.Len(t, points, len(want)) {
		for i, p := range points {
			assert.Equal(t, want[i], p.Winner, "point %d", i)
			assert.False(t, p.IsInferred)
		}
	}
	assert.Equal(t, 4, points[5].ServerScore)
	assert.Equal(t, 3, points[5].ReceiverScore)
}

func TestBuildPointsTiebreakSkipsInvalidColumns(t *testing.T) {
	points := BuildPoints([]string{"1", "AD", "2"}, []string{"0", "1", "0"}, Tiebreak)
	if assert.Len(t, points, 2) {
		assert.Equal(t, models.RoleServer, points[0].Winner)
		assert.Equal(t, models.RoleServer, points[1].Winner)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "40-AD", Label(3, 4, Normal))
	assert.Equal(t, "GAME-30", Label(4, 2, Normal))
	assert.Equal(t, "40-GAME", Label(3, 5, Normal))
	assert.Equal(t, "7-5", Label(7, 5, Tiebreak))
}
