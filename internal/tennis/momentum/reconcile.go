// Package momentum merges per-game momentum series into one canonical series.
// Positive values favor the home player.
package momentum

import (
	"cmp"
	"slices"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// Zones, strongest home edge first.
const (
	ZoneHomeStrong = "home_strong"
	ZoneHomeEdge   = "home_edge"
	ZoneBalanced   = "balanced"
	ZoneAwayEdge   = "away_edge"
	ZoneAwayStrong = "away_strong"

	FavoredNone = "none"
)

const (
	strongThreshold = 50.0
	edgeThreshold   = 15.0
)

// Reconcile merges the API and SVG series over the union of their keys. For each
// key the API value wins when numeric, then the SVG value; keys with neither are
// omitted. Descriptive fields prefer the API series. The result is ordered by
// set and game.
func Reconcile(api, svg []models.MomentumPoint) []models.MomentumRecord {
	return ReconcileWithFallback(api, svg, nil)
}

// ReconcileWithFallback is Reconcile with a third, calculated series used only
// for keys that got no numeric value from the API or SVG series.
func ReconcileWithFallback(api, svg, calculated []models.MomentumPoint) []models.MomentumRecord {
	apiByKey := index(api)
	svgByKey := index(svg)
	calcByKey := index(calculated)

	keys := make(map[models.MomentumKey]struct{}, len(apiByKey)+len(svgByKey))
	for k := range apiByKey {
		keys[k] = struct{}{}
	}
	for k := range svgByKey {
		keys[k] = struct{}{}
	}

	out := make([]models.MomentumRecord, 0, len(keys))
	for k := range keys {
		a, hasAPI := apiByKey[k]
		s, hasSVG := svgByKey[k]

		rec := models.MomentumRecord{SetNumber: k.SetNumber, GameNumber: k.GameNumber}
		if hasAPI {
			rec.ValueAPI = copyFloat(a.Value)
		}
		if hasSVG {
			rec.ValueSVG = copyFloat(s.Value)
		}

		switch {
		case rec.ValueAPI != nil:
			rec.Value = *rec.ValueAPI
			rec.Source = models.SourceAPI
		case rec.ValueSVG != nil:
			rec.Value = *rec.ValueSVG
			rec.Source = models.SourceSVG
		default:
			continue
		}

		describe(&rec, pick(a, hasAPI), pick(s, hasSVG))
		out = append(out, rec)
		delete(calcByKey, k)
	}

	for k, c := range calcByKey {
		if c.Value == nil {
			continue
		}
		rec := models.MomentumRecord{
			SetNumber:  k.SetNumber,
			GameNumber: k.GameNumber,
			Value:      *c.Value,
			Source:     models.SourceCalculated,
		}
		describe(&rec, &c)
		out = append(out, rec)
	}

	slices.SortFunc(out, func(x, y models.MomentumRecord) int {
		if c := cmp.Compare(x.SetNumber, y.SetNumber); c != 0 {
			return c
		}
		return cmp.Compare(x.GameNumber, y.GameNumber)
	})
	return out
}

// index keeps the first point seen for every key.
func index(series []models.MomentumPoint) map[models.MomentumKey]models.MomentumPoint {
	m := make(map[models.MomentumKey]models.MomentumPoint, len(series))
	for _, p := range series {
		if _, ok := m[p.Key()]; !ok {
			m[p.Key()] = p
		}
	}
	return m
}

func pick(p models.MomentumPoint, ok bool) *models.MomentumPoint {
	if !ok {
		return nil
	}
	return &p
}

// describe fills descriptive fields from the first source that has them, then
// derives whatever is still missing from the merged value.
func describe(rec *models.MomentumRecord, sources ...*models.MomentumPoint) {
	breakSet := false
	for _, p := range sources {
		if p == nil {
			continue
		}
		if !breakSet && p.BreakOccurred != nil {
			rec.BreakOccurred = *p.BreakOccurred
			breakSet = true
		}
		if rec.Zone == "" {
			rec.Zone = p.Zone
		}
		if rec.FavoredPlayer == "" {
			rec.FavoredPlayer = p.FavoredPlayer
		}
	}
	if rec.Zone == "" {
		rec.Zone = Zone(rec.Value)
	}
	if rec.FavoredPlayer == "" {
		rec.FavoredPlayer = Favored(rec.Value)
	}
}

// Zone buckets a momentum value.
func Zone(v float64) string {
	switch {
	case v >= strongThreshold:
		return ZoneHomeStrong
	case v >= edgeThreshold:
		return ZoneHomeEdge
	case v <= -strongThreshold:
		return ZoneAwayStrong
	case v <= -edgeThreshold:
		return ZoneAwayEdge
	}
	return ZoneBalanced
}

// Favored names the side a momentum value leans to.
func Favored(v float64) string {
	switch {
	case v > 0:
		return string(models.SideHome)
	case v < 0:
		return string(models.SideAway)
	}
	return FavoredNone
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
