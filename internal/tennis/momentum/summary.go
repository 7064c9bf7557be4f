package momentum

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// Summary describes a reconciled series.
type Summary struct {
	Count            int                           `json:"count"`
	Mean             float64                       `json:"mean"`
	StdDev           float64                       `json:"std_dev"`
	HomeFavoredShare float64                       `json:"home_favored_share"`
	Breaks           int                           `json:"breaks"`
	BySource         map[models.MomentumSource]int `json:"by_source"`
}

// Summarize computes statistics over the finite values of records.
func Summarize(records []models.MomentumRecord) Summary {
	s := Summary{BySource: map[models.MomentumSource]int{}}
	values := make([]float64, 0, len(records))
	home := 0
	for _, r := range records {
		s.BySource[r.Source]++
		if r.BreakOccurred {
			s.Breaks++
		}
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		values = append(values, r.Value)
		if r.Value > 0 {
			home++
		}
	}

	s.Count = len(values)
	switch len(values) {
	case 0:
		return s
	case 1:
		s.Mean = values[0]
	default:
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	}
	s.HomeFavoredShare = float64(home) / float64(len(values))
	return s
}
