// Package registry locates the two match participants in point-by-point markup.
package registry

import (
	"strings"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/segment"
)

type participant struct {
	id    string
	name  strings.Builder
	depth int
	found bool
}

// Build extracts the registry using the default dialect.
func Build(markup string) models.PlayerRegistry {
	return BuildWithDialect(markup, segment.DefaultDialect())
}

// BuildWithDialect extracts participant identities. It never fails: a side that
// cannot be located keeps an empty id, and a registry with equal ids is reported
// as incomplete by PlayerRegistry.Complete.
func BuildWithDialect(markup string, d segment.Dialect) models.PlayerRegistry {
	d = d.WithDefaults()

	var home, away participant
	var current *participant
	depth := 0
	nameDepth := 0

	err := segment.Scan(markup, segment.Visitor{
		Start: func(el segment.Element) {
			depth++
			switch {
			case current == nil && !home.found && el.HasClass(d.HomeParticipantClass):
				current = &home
			case current == nil && !away.found && el.HasClass(d.AwayParticipantClass):
				current = &away
			default:
				if current != nil && nameDepth == 0 && el.HasClass(d.ParticipantNameClass) {
					nameDepth = depth
				}
				return
			}
			current.found = true
			current.depth = depth
			if id, ok := el.Attr(d.ParticipantIDAttr); ok {
				current.id = strings.TrimSpace(id)
			}
		},
		End: func(segment.Element) {
			if nameDepth == depth {
				nameDepth = 0
			}
			if current != nil && current.depth == depth {
				current = nil
			}
			depth--
		},
		Text: func(t string) {
			if current != nil && nameDepth > 0 {
				current.name.WriteString(t)
			}
		},
	})
	if err != nil {
		return models.PlayerRegistry{}
	}

	return models.PlayerRegistry{
		HomeID:   home.id,
		AwayID:   away.id,
		HomeName: cleanName(home.name.String()),
		AwayName: cleanName(away.name.String()),
	}
}

func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
