// Package completer appends the closing point that sources tend to leave out.
package completer

import (
	"slices"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/scoring"
)

func gameType(g models.ResolvedGame) scoring.GameType {
	if g.IsTiebreak {
		return scoring.Tiebreak
	}
	return scoring.Normal
}

// Complete returns g with one inferred closing point when the recorded points
// stop short of a terminal score. The winner is taken from g as resolved and is
// never derived from the inferred point: games with an unknown winner or server
// come back unchanged. Completing a complete game is a no-op.
//
// The inferred point is placed at the first terminal score reachable by the
// winner, so from deuce or a level extended tiebreak it stands for more than
// one unrecorded rally (40-40 becomes 5-3, 8-8 becomes 10-8).
func Complete(g models.ResolvedGame) models.ResolvedGame {
	winner := g.WinnerRole()
	if winner == models.RoleNone {
		return g
	}
	gt := gameType(g)

	var s, r int
	if n := len(g.Points); n > 0 {
		last := g.Points[n-1]
		s, r = last.ServerScore, last.ReceiverScore
	}
	if scoring.IsTerminal(s, r, gt) {
		return g
	}

	target := scoring.Target(gt)
	closing := models.Point{Winner: winner, IsInferred: true}
	if winner == models.RoleServer {
		closing.ServerScore = max(target, r+scoring.WinningMargin)
		closing.ReceiverScore = r
	} else {
		closing.ServerScore = s
		closing.ReceiverScore = max(target, s+scoring.WinningMargin)
	}

	g.Points = append(slices.Clone(g.Points), closing)
	return g
}

// CompleteSet completes every game of a resolution. Unresolved sets are
// returned unchanged.
func CompleteSet(res models.SetResolution) models.SetResolution {
	if !res.Resolved {
		return res
	}
	games := make([]models.ResolvedGame, len(res.Games))
	for i, g := range res.Games {
		games[i] = Complete(g)
	}
	res.Games = games
	return res
}
