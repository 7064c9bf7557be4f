package scraper

import (
	"strconv"
	"strings"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/segment"
)

// ParseSetScores reads the per-set game totals of the match summary. Only text
// directly inside the home/away cells counts, so tiebreak superscripts are ignored.
// Sets whose totals cannot be read are left out.
func ParseSetScores(markup string, d segment.Dialect) map[int]models.SetScore {
	d = d.WithDefaults()
	out := make(map[int]models.SetScore)

	depth := 0
	setDepth, homeDepth, awayDepth := 0, 0, 0
	ordinal := 0
	var setIndex int
	var home, away strings.Builder

	err := segment.Scan(markup, segment.Visitor{
		Start: func(el segment.Element) {
			depth++
			switch {
			case setDepth == 0 && el.HasClass(d.SummarySetClass):
				setDepth = depth
				ordinal++
				setIndex = ordinal
				if v, ok := el.Attr(d.SetIndexAttr); ok {
					if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
						setIndex = n
					}
				}
				home.Reset()
				away.Reset()
			case setDepth > 0 && el.HasClass(d.SummaryHomeClass):
				homeDepth = depth
			case setDepth > 0 && el.HasClass(d.SummaryAwayClass):
				awayDepth = depth
			}
		},
		End: func(segment.Element) {
			switch {
			case homeDepth > 0 && depth == homeDepth:
				homeDepth = 0
			case awayDepth > 0 && depth == awayDepth:
				awayDepth = 0
			case setDepth > 0 && depth == setDepth:
				setDepth = 0
				h, errH := strconv.Atoi(strings.TrimSpace(home.String()))
				a, errA := strconv.Atoi(strings.TrimSpace(away.String()))
				if errH == nil && errA == nil && h >= 0 && a >= 0 {
					if _, dup := out[setIndex]; !dup {
						out[setIndex] = models.SetScore{Home: h, Away: a}
					}
				}
			}
			depth--
		},
		Text: func(t string) {
			switch {
			case homeDepth > 0 && depth == homeDepth:
				home.WriteString(t)
			case awayDepth > 0 && depth == awayDepth:
				away.WriteString(t)
			}
		},
	})
	if err != nil {
		return map[int]models.SetScore{}
	}
	return out
}
