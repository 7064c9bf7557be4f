package momentum

import (
	"fmt"
	"math"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

const (
	MinValue = -100.0
	MaxValue = 100.0
)

// Validate flags records with a NaN or out-of-range value or an unrecognized
// source. Flagged records are reported, never corrected.
func Validate(records []models.MomentumRecord) []models.MomentumIssue {
	var issues []models.MomentumIssue
	for _, r := range records {
		if reason := check(r); reason != "" {
			issues = append(issues, models.MomentumIssue{
				SetNumber:  r.SetNumber,
				GameNumber: r.GameNumber,
				Reason:     reason,
			})
		}
	}
	return issues
}

// Partition splits records into those passing validation and those flagged.
func Partition(records []models.MomentumRecord) (valid, flagged []models.MomentumRecord) {
	for _, r := range records {
		if check(r) == "" {
			valid = append(valid, r)
		} else {
			flagged = append(flagged, r)
		}
	}
	return valid, flagged
}

func check(r models.MomentumRecord) string {
	switch {
	case math.IsNaN(r.Value):
		return "value is NaN"
	case r.Value < MinValue || r.Value > MaxValue:
		return fmt.Sprintf("value %g outside [%g, %g]", r.Value, MinValue, MaxValue)
	case !r.Source.Valid():
		return fmt.Sprintf("unknown source %q", r.Source)
	}
	return ""
}
