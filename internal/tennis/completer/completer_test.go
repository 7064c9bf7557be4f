package completer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/scoring"
)

func pts(pairs ...[2]int) []models.Point {
	out := make([]models.Point, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.Point{ServerScore: p[0], ReceiverScore: p[1]})
	}
	return out
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name       string
		game       models.ResolvedGame
		wantServer int
		wantRecv   int
		wantWinner models.Role
	}{
		{
			name:       "break at 30-40",
			game:       models.ResolvedGame{ServerSide: models.SideAway, GameWinner: models.SideHome, Points: pts([2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3})},
			wantServer: 2, wantRecv: 4, wantWinner: models.RoleReceiver,
		},
		{
			name:       "hold from advantage",
			game:       models.ResolvedGame{ServerSide: models.SideHome, GameWinner: models.SideHome, Points: pts([2]int{3, 3}, [2]int{4, 3})},
			wantServer: 5, wantRecv: 3, wantWinner: models.RoleServer,
		},
		{
			name:       "tiebreak at 6-5",
			game:       models.ResolvedGame{ServerSide: models.SideHome, GameWinner: models.SideHome, IsTiebreak: true, Points: pts([2]int{6, 5})},
			wantServer: 7, wantRecv: 5, wantWinner: models.RoleServer,
		},
		{
			name:       "extended tiebreak",
			game:       models.ResolvedGame{ServerSide: models.SideAway, GameWinner: models.SideHome, IsTiebreak: true, Points: pts([2]int{9, 10})},
			wantServer: 9, wantRecv: 11, wantWinner: models.RoleReceiver,
		},
		{
			name:       "hold from deuce",
			game:       models.ResolvedGame{ServerSide: models.SideHome, GameWinner: models.SideHome, Points: pts([2]int{2, 3}, [2]int{3, 3})},
			wantServer: 5, wantRecv: 3, wantWinner: models.RoleServer,
		},
		{
			name:       "level extended tiebreak",
			game:       models.ResolvedGame{ServerSide: models.SideAway, GameWinner: models.SideAway, IsTiebreak: true, Points: pts([2]int{8, 8})},
			wantServer: 10, wantRecv: 8, wantWinner: models.RoleServer,
		},
		{
			name:       "no recorded points",
			game:       models.ResolvedGame{ServerSide: models.SideHome, GameWinner: models.SideAway},
			wantServer: 0, wantRecv: 4, wantWinner: models.RoleReceiver,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(tt.game.Points)
			got := Complete(tt.game)

			require.Len(t, got.Points, before+1)
			last := got.Points[len(got.Points)-1]
			assert.True(t, last.IsInferred)
			assert.Equal(t, tt.wantServer, last.ServerScore)
			assert.Equal(t, tt.wantRecv, last.ReceiverScore)
			assert.Equal(t, tt.wantWinner, last.Winner)
			assert.Equal(t, tt.game.GameWinner, got.GameWinner)
			assert.Equal(t, 1, got.InferredPoints())
			assert.Len(t, tt.game.Points, before, "input must not be modified")

			gt := scoring.Normal
			if got.IsTiebreak {
				gt = scoring.Tiebreak
			}
			assert.Equal(t, tt.wantWinner, scoring.TerminalWinner(last.ServerScore, last.ReceiverScore, gt))
		})
	}
}

func TestComplete_Idempotent(t *testing.T) {
	g := models.ResolvedGame{ServerSide: models.SideAway, GameWinner: models.SideHome, Points: pts([2]int{2, 3})}

	once := Complete(g)
	twice := Complete(once)

	assert.Equal(t, once, twice)
	assert.Equal(t, 1, twice.InferredPoints())
}

func TestComplete_AlreadyTerminal(t *testing.T) {
	g := models.ResolvedGame{ServerSide: models.SideHome, GameWinner: models.SideHome, Points: pts([2]int{3, 1}, [2]int{4, 1})}
	assert.Equal(t, g, Complete(g))
}

func TestComplete_UnknownWinnerOrServer(t *testing.T) {
	for _, g := range []models.ResolvedGame{
		{ServerSide: models.SideHome, Points: pts([2]int{3, 3})},
		{GameWinner: models.SideHome, Points: pts([2]int{3, 1})},
	} {
		got := Complete(g)
		assert.Equal(t, g, got)
		assert.Zero(t, got.InferredPoints())
	}
}

func TestCompleteSet(t *testing.T) {
	res := models.SetResolution{
		SetNumber: 1,
		Resolved:  true,
		Games: []models.ResolvedGame{
			{GameNumber: 1, ServerSide: models.SideAway, GameWinner: models.SideHome, Points: pts([2]int{2, 3})},
			{GameNumber: 2, ServerSide: models.SideHome, Points: pts([2]int{3, 3})},
		},
	}

	got := CompleteSet(res)

	assert.Equal(t, 1, got.Games[0].InferredPoints())
	assert.Zero(t, got.Games[1].InferredPoints())
	assert.Zero(t, res.Games[0].InferredPoints())

	res.Resolved = false
	assert.Equal(t, res, CompleteSet(res))
}
