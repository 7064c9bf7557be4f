package models

import (
	"fmt"
	"time"
)

// Side identifies a match participant.
type Side string

const (
	SideNone Side = ""
	SideHome Side = "home"
	SideAway Side = "away"
)

// Known reports whether the side is home or away.
func (s Side) Known() bool {
	return s == SideHome || s == SideAway
}

// Opponent returns the other participant. SideNone stays SideNone.
func (s Side) Opponent() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	default:
		return SideNone
	}
}

// Role is a participant's role inside one game.
type Role string

const (
	RoleNone     Role = ""
	RoleServer   Role = "server"
	RoleReceiver Role = "receiver"
)

// Other returns the opposite role.
func (r Role) Other() Role {
	switch r {
	case RoleServer:
		return RoleReceiver
	case RoleReceiver:
		return RoleServer
	default:
		return RoleNone
	}
}

// ScorePair is an uninterpreted pair of integers as displayed in a block.
// Which participant each number belongs to is not known at extraction time.
// A block's displayed game tally is later read home-first regardless of mode.
type ScorePair struct {
	First  int `json:"first"`
	Second int `json:"second"`
}

// SetHeader is a set boundary found in the point-by-point section.
type SetHeader struct {
	SetIndex        int `json:"set_index"`
	DurationMinutes int `json:"duration_minutes"`
}

// RawBlock is one game's markup extraction. It is structural only: rows are
// not mapped to players and nothing about the outcome is decided here.
type RawBlock struct {
	SetIndex         int        `json:"set_index"`
	BlockIndex       int        `json:"block_index"`
	ServerIdentifier string     `json:"server_identifier"`
	Row1Points       []string   `json:"row1_points"`
	Row2Points       []string   `json:"row2_points"`
	BlockFinalScore  *ScorePair `json:"block_final_score,omitempty"`
}

// PlayerRegistry maps markup player identifiers to sides.
// An empty ID means the participant could not be located.
type PlayerRegistry struct {
	HomeID   string `json:"home_id"`
	AwayID   string `json:"away_id"`
	HomeName string `json:"home_name"`
	AwayName string `json:"away_name"`
}

// Complete reports whether both identities were found.
func (r PlayerRegistry) Complete() bool {
	return r.HomeID != "" && r.AwayID != "" && r.HomeID != r.AwayID
}

// SideOf translates a server identifier into a side.
func (r PlayerRegistry) SideOf(id string) Side {
	if id == "" {
		return SideNone
	}
	switch id {
	case r.HomeID:
		return SideHome
	case r.AwayID:
		return SideAway
	}
	return SideNone
}

// NameOf returns the display name of a side.
func (r PlayerRegistry) NameOf(s Side) string {
	switch s {
	case SideHome:
		return r.HomeName
	case SideAway:
		return r.AwayName
	}
	return ""
}

// SetScore is a per-set game tally.
type SetScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s SetScore) String() string {
	return fmt.Sprintf("%d-%d", s.Home, s.Away)
}

// Valid reports whether both components are non-negative.
func (s SetScore) Valid() bool {
	return s.Home >= 0 && s.Away >= 0
}

// Add credits one game to the given side.
func (s SetScore) Add(side Side) SetScore {
	switch side {
	case SideHome:
		s.Home++
	case SideAway:
		s.Away++
	}
	return s
}

// Point is one rally outcome inside a game. Scores are ordinals (0, 15, 30, 40, AD
// map to 0..4) for normal games and raw point counts for tiebreaks.
type Point struct {
	ServerScore   int  `json:"server_score"`
	ReceiverScore int  `json:"receiver_score"`
	Winner        Role `json:"point_winner"`
	IsInferred    bool `json:"is_inferred"`
}

// ResolvedGame is a game interpreted under a validated semantic mode.
type ResolvedGame struct {
	SetNumber  int     `json:"set_number"`
	GameNumber int     `json:"game_number"`
	ServerSide Side    `json:"server_side"`
	Points     []Point `json:"points"`
	GameWinner Side    `json:"game_winner"`
	IsBreak    bool    `json:"is_break"`
	IsTiebreak bool    `json:"is_tiebreak"`
}

// Ambiguous reports whether the winner could not be determined.
func (g ResolvedGame) Ambiguous() bool {
	return !g.GameWinner.Known()
}

// WinnerRole returns the winner as server or receiver, or RoleNone when either
// the winner or the server is unknown.
func (g ResolvedGame) WinnerRole() Role {
	if !g.GameWinner.Known() || !g.ServerSide.Known() {
		return RoleNone
	}
	if g.GameWinner == g.ServerSide {
		return RoleServer
	}
	return RoleReceiver
}

// InferredPoints counts synthesized points.
func (g ResolvedGame) InferredPoints() int {
	n := 0
	for _, p := range g.Points {
		if p.IsInferred {
			n++
		}
	}
	return n
}

// SetResolution is the outcome of resolving one set against its oracle score.
// When Resolved is false the games come from the top-priority mode and must not
// be trusted downstream.
type SetResolution struct {
	SetNumber          int            `json:"set_number"`
	Mode               SemanticMode   `json:"mode"`
	FinalScore         SetScore       `json:"final_score"`
	Oracle             *SetScore      `json:"oracle,omitempty"`
	Games              []ResolvedGame `json:"games"`
	Resolved           bool           `json:"resolved"`
	AmbiguousGameCount int            `json:"ambiguous_game_count"`
	Reason             string         `json:"reason,omitempty"`
	Warnings           []string       `json:"warnings,omitempty"`
}

// MatchAnalysis is the full per-match record produced by one analysis run.
type MatchAnalysis struct {
	MatchID        string           `json:"match_id"`
	SnapshotID     string           `json:"snapshot_id,omitempty"`
	Registry       PlayerRegistry   `json:"registry"`
	SetHeaders     []SetHeader      `json:"set_headers"`
	Sets           []SetResolution  `json:"sets"`
	Momentum       []MomentumRecord `json:"momentum"`
	MomentumIssues []MomentumIssue  `json:"momentum_issues,omitempty"`
	AnalyzedAt     time.Time        `json:"analyzed_at"`
}

// UnresolvedSets returns the numbers of sets that failed oracle validation.
func (a *MatchAnalysis) UnresolvedSets() []int {
	var out []int
	for _, s := range a.Sets {
		if !s.Resolved {
			out = append(out, s.SetNumber)
		}
	}
	return out
}

// InferredPoints counts synthesized points across all sets.
func (a *MatchAnalysis) InferredPoints() int {
	n := 0
	for _, s := range a.Sets {
		for _, g := range s.Games {
			n += g.InferredPoints()
		}
	}
	return n
}

// AmbiguousGames sums ambiguous games across all sets.
func (a *MatchAnalysis) AmbiguousGames() int {
	n := 0
	for _, s := range a.Sets {
		n += s.AmbiguousGameCount
	}
	return n
}
