// Package scoring applies tennis scoring rules to raw score tokens.
//
// Every function here is pure. Normal games are evaluated on ordinals
// (0, 15, 30, 40, AD -> 0..4); tiebreaks on raw point counts.
package scoring

import (
	"strconv"
	"strings"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// GameType distinguishes ordinary games from tiebreaks.
type GameType string

const (
	Normal   GameType = "normal"
	Tiebreak GameType = "tiebreak"
)

const (
	// GamePointTarget is the ordinal a side must reach to win a normal game.
	GamePointTarget = 4
	// TiebreakPointTarget is the count a side must reach to win a tiebreak.
	TiebreakPointTarget = 7
	// WinningMargin applies to both game types.
	WinningMargin = 2

	DefaultTiebreakGame = 13
	DefaultTiebreakAt   = 6
)

var ordinals = map[string]int{
	"0":  0,
	"15": 1,
	"30": 2,
	"40": 3,
	"AD": 4,
	"A":  4,
}

var labels = []string{"0", "15", "30", "40", "AD"}

func normalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// ScoreTokenToOrdinal converts an ordinary token to its ordinal. Tiebreak
// integers pass through unchanged. ok is false for anything else.
func ScoreTokenToOrdinal(token string) (int, bool) {
	t := normalizeToken(token)
	if v, ok := ordinals[t]; ok {
		return v, true
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// IsValidToken reports whether the token belongs to the score vocabulary.
func IsValidToken(token string) bool {
	_, ok := ScoreTokenToOrdinal(token)
	return ok
}

// IsTiebreakToken reports whether the token is an integer outside the ordinary
// 0/15/30/40 vocabulary.
func IsTiebreakToken(token string) bool {
	t := normalizeToken(token)
	if _, ordinary := ordinals[t]; ordinary {
		return false
	}
	n, err := strconv.Atoi(t)
	return err == nil && n >= 0
}

// TokenValue reads a token under the rules of the given game type.
func TokenValue(token string, gt GameType) (int, bool) {
	t := normalizeToken(token)
	if gt == Tiebreak {
		n, err := strconv.Atoi(t)
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	v, ok := ordinals[t]
	return v, ok
}

// GameContext positions a game inside its set.
type GameContext struct {
	GameNumber int
	// Before is the game tally prior to this game.
	Before       models.SetScore
	TiebreakGame int
	TiebreakAt   int
}

func (c GameContext) tiebreakGame() int {
	if c.TiebreakGame > 0 {
		return c.TiebreakGame
	}
	return DefaultTiebreakGame
}

func (c GameContext) tiebreakAt() int {
	if c.TiebreakAt > 0 {
		return c.TiebreakAt
	}
	return DefaultTiebreakAt
}

// DetectGameType classifies a game. A single tiebreak token is enough; otherwise
// the game is a tiebreak only at the deciding position of a level set.
func DetectGameType(serverPoints, receiverPoints []string, ctx GameContext) GameType {
	for _, t := range serverPoints {
		if IsTiebreakToken(t) {
			return Tiebreak
		}
	}
	for _, t := range receiverPoints {
		if IsTiebreakToken(t) {
			return Tiebreak
		}
	}
	at := ctx.tiebreakAt()
	if ctx.GameNumber == ctx.tiebreakGame() && ctx.Before.Home == at && ctx.Before.Away == at {
		return Tiebreak
	}
	return Normal
}

// Target is the score a side must reach to win a game of this type.
func Target(gt GameType) int {
	if gt == Tiebreak {
		return TiebreakPointTarget
	}
	return GamePointTarget
}

// TerminalWinner returns the role that has won at the given score, if any.
func TerminalWinner(server, receiver int, gt GameType) models.Role {
	t := Target(gt)
	switch {
	case server >= t && server-receiver >= WinningMargin:
		return models.RoleServer
	case receiver >= t && receiver-server >= WinningMargin:
		return models.RoleReceiver
	}
	return models.RoleNone
}

// IsTerminal reports whether the score ends the game.
func IsTerminal(server, receiver int, gt GameType) bool {
	return TerminalWinner(server, receiver, gt) != models.RoleNone
}

func lastValues(serverPoints, receiverPoints []string, gt GameType) (int, int, bool) {
	if len(serverPoints) == 0 || len(receiverPoints) == 0 {
		return 0, 0, false
	}
	s, ok := TokenValue(serverPoints[len(serverPoints)-1], gt)
	if !ok {
		return 0, 0, false
	}
	r, ok := TokenValue(receiverPoints[len(receiverPoints)-1], gt)
	if !ok {
		return 0, 0, false
	}
	return s, r, true
}

// ComputeGameWinner compares the last recorded tokens. It returns RoleNone when
// neither side has reached the target with the required margin.
func ComputeGameWinner(serverPoints, receiverPoints []string, gt GameType) models.Role {
	s, r, ok := lastValues(serverPoints, receiverPoints, gt)
	if !ok {
		return models.RoleNone
	}
	return TerminalWinner(s, r, gt)
}

// ClosingWinner infers the winner of a game whose closing point is missing from
// the record: exactly one side must be able to end the game with one more point.
// From 40-40 either side still needs two points, so the result is RoleNone.
func ClosingWinner(serverPoints, receiverPoints []string, gt GameType) models.Role {
	s, r, ok := lastValues(serverPoints, receiverPoints, gt)
	if !ok {
		return models.RoleNone
	}
	if w := TerminalWinner(s, r, gt); w != models.RoleNone {
		return w
	}
	serverCloses := TerminalWinner(s+1, r, gt) == models.RoleServer
	receiverCloses := TerminalWinner(s, r+1, gt) == models.RoleReceiver
	switch {
	case serverCloses && !receiverCloses:
		return models.RoleServer
	case receiverCloses && !serverCloses:
		return models.RoleReceiver
	}
	return models.RoleNone
}

// BuildPoints pairs the two rows column by column. Columns holding a token that
// is invalid for the game type are skipped.
func BuildPoints(serverPoints, receiverPoints []string, gt GameType) []models.Point {
	n := min(len(serverPoints), len(receiverPoints))
	points := make([]models.Point, 0, n)
	prevS, prevR := 0, 0
	for i := 0; i < n; i++ {
		s, ok := TokenValue(serverPoints[i], gt)
		if !ok {
			continue
		}
		r, ok := TokenValue(receiverPoints[i], gt)
		if !ok {
			continue
		}
		points = append(points, models.Point{
			ServerScore:   s,
			ReceiverScore: r,
			Winner:        transitionWinner(prevS, prevR, s, r, gt),
		})
		prevS, prevR = s, r
	}
	return points
}

func transitionWinner(prevS, prevR, s, r int, gt GameType) models.Role {
	switch {
	case s == prevS+1 && r == prevR:
		return models.RoleServer
	case r == prevR+1 && s == prevS:
		return models.RoleReceiver
	}
	if gt == Normal && s == 3 && r == 3 {
		// advantage lost: back to deuce
		if prevS == 4 && prevR == 3 {
			return models.RoleReceiver
		}
		if prevS == 3 && prevR == 4 {
			return models.RoleServer
		}
	}
	return models.RoleNone
}

// Label renders a score pair the way a scoreboard would ("40-AD", "GAME-30", "7-5").
func Label(server, receiver int, gt GameType) string {
	if gt == Tiebreak {
		return strconv.Itoa(server) + "-" + strconv.Itoa(receiver)
	}
	w := TerminalWinner(server, receiver, gt)
	return ordinalLabel(server, w == models.RoleServer) + "-" + ordinalLabel(receiver, w == models.RoleReceiver)
}

func ordinalLabel(v int, won bool) string {
	if won {
		return "GAME"
	}
	if v >= 0 && v < len(labels) {
		return labels[v]
	}
	return strconv.Itoa(v)
}
