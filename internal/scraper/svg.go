package scraper

import (
	"math"
	"strconv"
	"strings"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/segment"
)

const (
	defaultMidline = 50.0
	defaultScale   = 50.0
)

// ExtractSVGMomentum turns momentum chart bars into a series. Bars above the
// midline favor home. The value is 100*extent/scale rounded to one decimal and
// is not clamped. Bars without usable geometry keep a nil value.
func ExtractSVGMomentum(markup string, d segment.Dialect) []models.MomentumPoint {
	d = d.WithDefaults()
	var out []models.MomentumPoint

	depth, chartDepth := 0, 0
	midline, scale := defaultMidline, defaultScale
	chartSet := 0
	counters := map[int]int{}

	err := segment.Scan(markup, segment.Visitor{
		Start: func(el segment.Element) {
			depth++
			if chartDepth == 0 {
				if el.HasClass(d.MomentumChartClass) {
					chartDepth = depth
					midline = attrFloat(el, d.MidlineAttr, defaultMidline)
					scale = attrFloat(el, d.ScaleAttr, defaultScale)
					chartSet = attrInt(el, d.SetIndexAttr, 0)
				}
				return
			}
			if !el.HasClass(d.MomentumBarClass) {
				return
			}

			set := attrInt(el, d.SetIndexAttr, chartSet)
			if set <= 0 {
				set = 1
			}
			counters[set]++
			p := models.MomentumPoint{
				SetNumber:  set,
				GameNumber: attrInt(el, d.GameIndexAttr, counters[set]),
				Value:      barValue(el, midline, scale),
			}
			if v, ok := el.Attr(d.BreakAttr); ok {
				p.BreakOccurred = models.Bool(isTruthy(v))
			}
			out = append(out, p)
		},
		End: func(segment.Element) {
			if depth == chartDepth {
				chartDepth = 0
			}
			depth--
		},
	})
	if err != nil {
		return nil
	}
	return out
}

func barValue(el segment.Element, midline, scale float64) *float64 {
	y, okY := parseFloatAttr(el, "y")
	h, okH := parseFloatAttr(el, "height")
	if !okY || !okH || scale <= 0 || h < 0 {
		return nil
	}

	top, bottom := y, y+h
	var extent float64
	switch {
	case bottom <= midline:
		extent = h
	case top >= midline:
		extent = -h
	default:
		extent = (midline - top) - (bottom - midline)
	}
	return models.Float(math.Round(1000*extent/scale) / 10)
}

func parseFloatAttr(el segment.Element, name string) (float64, bool) {
	v, ok := el.Attr(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "px")), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func attrFloat(el segment.Element, name string, def float64) float64 {
	if f, ok := parseFloatAttr(el, name); ok {
		return f
	}
	return def
}

func attrInt(el segment.Element, name string, def int) int {
	v, ok := el.Attr(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
