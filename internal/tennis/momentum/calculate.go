package momentum

import (
	"math"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

const (
	breakSwing     = 25.0
	smoothingAlpha = 0.6
)

// CalculateFromGames derives a momentum series from resolved games: each game's
// point share, a swing toward the side that broke serve, then exponential
// smoothing across the match. Games must be in match order.
func CalculateFromGames(games []models.ResolvedGame) []models.MomentumPoint {
	out := make([]models.MomentumPoint, 0, len(games))
	prev := 0.0
	for i, g := range games {
		raw := gameSwing(g)
		v := raw
		if i > 0 {
			v = smoothingAlpha*raw + (1-smoothingAlpha)*prev
		}
		v = clamp(v)
		prev = v

		out = append(out, models.MomentumPoint{
			SetNumber:     g.SetNumber,
			GameNumber:    g.GameNumber,
			Value:         models.Float(math.Round(v*10) / 10),
			BreakOccurred: models.Bool(g.IsBreak),
		})
	}
	return out
}

func gameSwing(g models.ResolvedGame) float64 {
	home, away := 0, 0
	if g.ServerSide.Known() {
		for _, p := range g.Points {
			if p.Winner == models.RoleNone {
				continue
			}
			side := g.ServerSide
			if p.Winner == models.RoleReceiver {
				side = side.Opponent()
			}
			if side == models.SideHome {
				home++
			} else {
				away++
			}
		}
	}

	v := 0.0
	switch {
	case home+away > 0:
		v = 100 * float64(home-away) / float64(home+away)
	case g.GameWinner == models.SideHome:
		v = strongThreshold
	case g.GameWinner == models.SideAway:
		v = -strongThreshold
	}
	if g.IsBreak {
		if g.GameWinner == models.SideHome {
			v += breakSwing
		} else {
			v -= breakSwing
		}
	}
	return v
}

func clamp(v float64) float64 {
	return math.Max(MinValue, math.Min(MaxValue, v))
}
