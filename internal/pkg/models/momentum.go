package models

import (
	"encoding/json"
	"math"
)

// MomentumSource tags where a reconciled momentum value came from.
type MomentumSource string

const (
	SourceAPI        MomentumSource = "api"
	SourceSVG        MomentumSource = "svg_dom"
	SourceCalculated MomentumSource = "calculated"
)

// Valid reports whether the tag is one of the recognized sources.
func (s MomentumSource) Valid() bool {
	switch s {
	case SourceAPI, SourceSVG, SourceCalculated:
		return true
	}
	return false
}

// MomentumKey identifies a game inside a match.
type MomentumKey struct {
	SetNumber  int
	GameNumber int
}

// MomentumPoint is one entry of an input series. Value is nil when the source
// had no numeric value for the game.
type MomentumPoint struct {
	SetNumber     int      `json:"set_number"`
	GameNumber    int      `json:"game_number"`
	Value         *float64 `json:"value"`
	BreakOccurred *bool    `json:"break_occurred,omitempty"`
	Zone          string   `json:"zone,omitempty"`
	FavoredPlayer string   `json:"favored_player,omitempty"`
}

func (p MomentumPoint) Key() MomentumKey {
	return MomentumKey{SetNumber: p.SetNumber, GameNumber: p.GameNumber}
}

// MomentumRecord is the canonical per-game momentum value. Positive values favor home.
type MomentumRecord struct {
	SetNumber     int            `json:"set_number"`
	GameNumber    int            `json:"game_number"`
	Value         float64        `json:"value"`
	ValueAPI      *float64       `json:"value_api"`
	ValueSVG      *float64       `json:"value_svg"`
	Source        MomentumSource `json:"source"`
	BreakOccurred bool           `json:"break_occurred"`
	Zone          string         `json:"zone"`
	FavoredPlayer string         `json:"favored_player"`
}

func (r MomentumRecord) Key() MomentumKey {
	return MomentumKey{SetNumber: r.SetNumber, GameNumber: r.GameNumber}
}

// MarshalJSON writes non-finite values as null; encoding/json rejects NaN.
func (r MomentumRecord) MarshalJSON() ([]byte, error) {
	type alias MomentumRecord
	aux := struct {
		alias
		Value    *float64 `json:"value"`
		ValueAPI *float64 `json:"value_api"`
		ValueSVG *float64 `json:"value_svg"`
	}{
		alias:    alias(r),
		Value:    finite(&r.Value),
		ValueAPI: finite(r.ValueAPI),
		ValueSVG: finite(r.ValueSVG),
	}
	return json.Marshal(aux)
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// MomentumIssue flags a record that failed validation. Flagged records are kept.
type MomentumIssue struct {
	SetNumber  int    `json:"set_number"`
	GameNumber int    `json:"game_number"`
	Reason     string `json:"reason"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
