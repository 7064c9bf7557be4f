package validation

import (
	"fmt"

	"github.com/Vodeneev/tennispbp/internal/pkg/interfaces"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// Validator checks structural invariants of an analysis. Data quality
// (unresolved sets, ambiguous games) is not an error here.
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() interfaces.AnalysisValidator {
	return &Validator{}
}

// ValidateAnalysis validates match data
func (v *Validator) ValidateAnalysis(a *models.MatchAnalysis) error {
	if a == nil {
		return fmt.Errorf("analysis cannot be nil")
	}
	if a.MatchID == "" {
		return fmt.Errorf("match ID cannot be empty")
	}

	prev := 0
	for i := range a.Sets {
		set := &a.Sets[i]
		if set.SetNumber <= prev {
			return fmt.Errorf("set %d out of order after set %d", set.SetNumber, prev)
		}
		prev = set.SetNumber
		if err := v.ValidateResolution(set); err != nil {
			return fmt.Errorf("set %d validation failed: %w", set.SetNumber, err)
		}
	}

	for _, r := range a.Momentum {
		if r.SetNumber < 1 || r.GameNumber < 1 {
			return fmt.Errorf("momentum record %d/%d has an invalid key", r.SetNumber, r.GameNumber)
		}
		if !r.Source.Valid() {
			return fmt.Errorf("momentum record %d/%d has unknown source %q", r.SetNumber, r.GameNumber, r.Source)
		}
	}
	return nil
}

// ValidateResolution validates one set. A resolved set must reproduce its
// oracle exactly and its games must add up to the final score.
func (v *Validator) ValidateResolution(set *models.SetResolution) error {
	if set == nil {
		return fmt.Errorf("set cannot be nil")
	}
	if set.SetNumber < 1 {
		return fmt.Errorf("invalid set number %d", set.SetNumber)
	}
	if !set.FinalScore.Valid() {
		return fmt.Errorf("invalid final score %s", set.FinalScore)
	}

	var tally models.SetScore
	for i, g := range set.Games {
		if g.GameNumber != i+1 {
			return fmt.Errorf("game %d has number %d", i+1, g.GameNumber)
		}
		if g.SetNumber != set.SetNumber {
			return fmt.Errorf("game %d belongs to set %d", g.GameNumber, g.SetNumber)
		}
		if g.IsBreak && (g.IsTiebreak || !g.ServerSide.Known() || g.GameWinner != g.ServerSide.Opponent()) {
			return fmt.Errorf("game %d is flagged as a break inconsistently", g.GameNumber)
		}
		for j, p := range g.Points {
			if p.ServerScore < 0 || p.ReceiverScore < 0 {
				return fmt.Errorf("game %d point %d has a negative score", g.GameNumber, j+1)
			}
		}
		tally = tally.Add(g.GameWinner)
	}
	if tally != set.FinalScore {
		return fmt.Errorf("games add up to %s, final score is %s", tally, set.FinalScore)
	}

	if !set.Resolved {
		return nil
	}
	if set.Mode.Priority() == 0 {
		return fmt.Errorf("resolved set has no semantic mode")
	}
	if set.Oracle == nil {
		return fmt.Errorf("resolved set has no oracle score")
	}
	if *set.Oracle != set.FinalScore {
		return fmt.Errorf("resolved score %s differs from oracle %s", set.FinalScore, *set.Oracle)
	}
	return nil
}
