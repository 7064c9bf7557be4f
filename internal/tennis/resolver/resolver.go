// Package resolver chooses the semantic mode under which a set's raw blocks
// reconstruct the authoritative set score.
package resolver

import (
	"errors"
	"fmt"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/scoring"
)

var (
	ErrInvalidSetNumber = errors.New("invalid set number")
	ErrInvalidOracle    = errors.New("invalid oracle score")
	ErrInvalidMode      = errors.New("invalid semantic mode")
	ErrSetMismatch      = errors.New("block belongs to another set")
)

// Unresolved reasons.
const (
	ReasonIncompleteRegistry = "player registry incomplete"
	ReasonMissingOracle      = "oracle score unavailable"
	ReasonNoBlocks           = "no point-by-point blocks"
	ReasonNoModeMatched      = "no semantic mode reconstructs the oracle score"
)

// Config tunes tiebreak detection by position.
type Config struct {
	// TiebreakGame is the game number played as a tiebreak when the set is level.
	TiebreakGame int `yaml:"tiebreak_game"`
	// TiebreakAt is the per-side game count that makes the set level.
	TiebreakAt int `yaml:"tiebreak_at"`
}

// DefaultConfig is the standard six-all tiebreak.
func DefaultConfig() Config {
	return Config{TiebreakGame: scoring.DefaultTiebreakGame, TiebreakAt: scoring.DefaultTiebreakAt}
}

// Resolver is stateless and safe for concurrent use.
type Resolver struct {
	cfg Config
}

func New(cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.TiebreakGame <= 0 {
		cfg.TiebreakGame = def.TiebreakGame
	}
	if cfg.TiebreakAt <= 0 {
		cfg.TiebreakAt = def.TiebreakAt
	}
	return &Resolver{cfg: cfg}
}

// Resolve resolves one set with the default configuration.
func Resolve(setNumber int, blocks []models.RawBlock, reg models.PlayerRegistry, oracle *models.SetScore) (models.SetResolution, error) {
	return New(DefaultConfig()).Resolve(setNumber, blocks, reg, oracle)
}

// Resolve tries every semantic mode in priority order and picks the first whose
// reconstructed score equals the oracle. Data problems never produce an error:
// they come back as an unresolved SetResolution carrying the top-priority
// mode's games. Errors are returned only for invalid arguments.
func (r *Resolver) Resolve(setNumber int, blocks []models.RawBlock, reg models.PlayerRegistry, oracle *models.SetScore) (models.SetResolution, error) {
	if setNumber < 1 {
		return models.SetResolution{}, fmt.Errorf("%w: %d", ErrInvalidSetNumber, setNumber)
	}
	if oracle != nil && !oracle.Valid() {
		return models.SetResolution{}, fmt.Errorf("%w: %s", ErrInvalidOracle, oracle)
	}
	for _, b := range blocks {
		if b.SetIndex != setNumber {
			return models.SetResolution{}, fmt.Errorf("%w: block %d has set %d, want %d", ErrSetMismatch, b.BlockIndex, b.SetIndex, setNumber)
		}
	}

	candidates := make([]Candidate, 0, len(models.SemanticModes))
	for _, mode := range models.SemanticModes {
		c, err := ApplyMode(mode, setNumber, blocks, reg, r.cfg)
		if err != nil {
			return models.SetResolution{}, fmt.Errorf("failed to apply mode %s: %w", mode, err)
		}
		candidates = append(candidates, c)
	}

	top := candidates[0]
	var reason string
	switch {
	case !reg.Complete():
		reason = ReasonIncompleteRegistry
	case oracle == nil:
		reason = ReasonMissingOracle
	case len(blocks) == 0:
		reason = ReasonNoBlocks
	default:
		for _, c := range candidates {
			if c.Score == *oracle {
				return resolution(setNumber, c, oracle, true, ""), nil
			}
		}
		reason = fmt.Sprintf("%s %s", ReasonNoModeMatched, oracle)
	}
	return resolution(setNumber, top, oracle, false, reason), nil
}

func resolution(setNumber int, c Candidate, oracle *models.SetScore, resolved bool, reason string) models.SetResolution {
	var o *models.SetScore
	if oracle != nil {
		cp := *oracle
		o = &cp
	}
	return models.SetResolution{
		SetNumber:          setNumber,
		Mode:               c.Mode,
		FinalScore:         c.Score,
		Oracle:             o,
		Games:              c.Games,
		Resolved:           resolved,
		AmbiguousGameCount: c.Ambiguous(),
		Reason:             reason,
		Warnings:           c.Warnings,
	}
}
