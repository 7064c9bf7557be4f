package models

import (
	"regexp"
	"strings"
	"time"
)

// seedSuffix matches trailing seed/entry markers such as "(1)", "(WC)", "(Q)" and "[ESP]".
var seedSuffix = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]\s*$`)

// CanonicalMatchID builds a stable match identifier from the two players and the start time.
//
// Scrapers show the same player as "Alcaraz C. (2)" on one page and "alcaraz c." on another,
// so names are normalized before joining.
// Format: home|away|time
func CanonicalMatchID(homePlayer, awayPlayer string, startTime time.Time) string {
	home := normalizeKeyPart(NormalizePlayerName(homePlayer))
	away := normalizeKeyPart(NormalizePlayerName(awayPlayer))

	ts := "unknown-time"
	if !startTime.IsZero() {
		ts = startTime.UTC().Format(time.RFC3339)
	}

	return home + "|" + away + "|" + ts
}

// NormalizePlayerName strips seed and country markers and collapses whitespace.
func NormalizePlayerName(name string) string {
	s := strings.TrimSpace(name)
	for {
		stripped := seedSuffix.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	return strings.Join(strings.Fields(s), " ")
}

func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "|", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}
