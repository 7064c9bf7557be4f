package resolver

import (
	"fmt"
	"slices"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/scoring"
)

// Candidate is one set reconstruction under a single semantic mode.
type Candidate struct {
	Mode     models.SemanticMode
	Games    []models.ResolvedGame
	Score    models.SetScore
	Warnings []string
}

// Ambiguous counts games without a determined winner.
func (c Candidate) Ambiguous() int {
	n := 0
	for _, g := range c.Games {
		if g.Ambiguous() {
			n++
		}
	}
	return n
}

// ApplyMode interprets one set's blocks under mode. The blocks are not modified.
func ApplyMode(mode models.SemanticMode, setNumber int, blocks []models.RawBlock, reg models.PlayerRegistry, cfg Config) (Candidate, error) {
	if mode.Priority() == 0 {
		return Candidate{}, fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	if setNumber < 1 {
		return Candidate{}, fmt.Errorf("%w: %d", ErrInvalidSetNumber, setNumber)
	}

	ordered := slices.Clone(blocks)
	if mode.Reversed() {
		slices.Reverse(ordered)
	}

	c := Candidate{Mode: mode, Games: make([]models.ResolvedGame, 0, len(ordered))}
	var prevTally models.ScorePair
	var prev *models.ResolvedGame

	for i, b := range ordered {
		gameNumber := i + 1
		row1, row2 := b.Row1Points, b.Row2Points
		if mode.Reversed() {
			row1, row2 = reversed(row1), reversed(row2)
		}
		serverPts, receiverPts := row1, row2
		if !mode.ServerRowFirst() {
			serverPts, receiverPts = row2, row1
		}

		serverSide := reg.SideOf(b.ServerIdentifier)
		gt := scoring.DetectGameType(serverPts, receiverPts, scoring.GameContext{
			GameNumber:   gameNumber,
			Before:       c.Score,
			TiebreakGame: cfg.TiebreakGame,
			TiebreakAt:   cfg.TiebreakAt,
		})

		winner := models.SideNone
		role := scoring.ComputeGameWinner(serverPts, receiverPts, gt)
		if role == models.RoleNone {
			role = scoring.ClosingWinner(serverPts, receiverPts, gt)
		}
		if role != models.RoleNone && serverSide.Known() {
			winner = serverSide
			if role == models.RoleReceiver {
				winner = serverSide.Opponent()
			}
		}
		if !winner.Known() && b.BlockFinalScore != nil {
			winner = tallyWinner(prevTally, *b.BlockFinalScore)
		}
		if b.BlockFinalScore != nil {
			prevTally = *b.BlockFinalScore
		}

		game := models.ResolvedGame{
			SetNumber:  setNumber,
			GameNumber: gameNumber,
			ServerSide: serverSide,
			Points:     scoring.BuildPoints(serverPts, receiverPts, gt),
			GameWinner: winner,
			IsTiebreak: gt == scoring.Tiebreak,
		}
		game.IsBreak = !game.IsTiebreak && serverSide.Known() && winner.Known() && winner != serverSide

		if !serverSide.Known() && b.ServerIdentifier != "" {
			c.Warnings = append(c.Warnings, fmt.Sprintf("set %d game %d: unknown server %q", setNumber, gameNumber, b.ServerIdentifier))
		}
		if prev != nil && !prev.IsTiebreak && !game.IsTiebreak &&
			prev.ServerSide.Known() && prev.ServerSide == serverSide {
			c.Warnings = append(c.Warnings, fmt.Sprintf("set %d game %d: %s served consecutive games", setNumber, gameNumber, serverSide))
		}

		c.Score = c.Score.Add(winner)
		c.Games = append(c.Games, game)
		prev = &c.Games[len(c.Games)-1]
	}
	return c, nil
}

// tallyWinner names the side whose displayed game count advanced by one. The
// tally is printed home-first in every mode: First is home, Second is away.
func tallyWinner(prev, cur models.ScorePair) models.Side {
	switch {
	case cur.First == prev.First+1 && cur.Second == prev.Second:
		return models.SideHome
	case cur.Second == prev.Second+1 && cur.First == prev.First:
		return models.SideAway
	}
	return models.SideNone
}

func reversed(tokens []string) []string {
	out := slices.Clone(tokens)
	slices.Reverse(out)
	return out
}
