package validation

import (
	"regexp"
	"strings"

	"github.com/Vodeneev/tennispbp/internal/pkg/interfaces"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

var (
	controlCharsRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	spacesRegex       = regexp.MustCompile(`\s+`)
)

// Sanitizer implements data sanitization
type Sanitizer struct{}

// NewSanitizer creates a new sanitizer
func NewSanitizer() interfaces.AnalysisSanitizer {
	return &Sanitizer{}
}

// SanitizeRegistry cleans player names and identifiers taken from markup.
func (s *Sanitizer) SanitizeRegistry(r *models.PlayerRegistry) {
	if r == nil {
		return
	}
	r.HomeID = s.sanitizeString(r.HomeID, 100)
	r.AwayID = s.sanitizeString(r.AwayID, 100)
	r.HomeName = s.sanitizePlayerName(r.HomeName)
	r.AwayName = s.sanitizePlayerName(r.AwayName)
}

// SanitizeAnalysis sanitizes match data
func (s *Sanitizer) SanitizeAnalysis(a *models.MatchAnalysis) error {
	if a == nil {
		return nil
	}
	a.MatchID = s.sanitizeString(a.MatchID, 200)
	s.SanitizeRegistry(&a.Registry)
	for i := range a.Sets {
		for j, w := range a.Sets[i].Warnings {
			a.Sets[i].Warnings[j] = s.sanitizeString(w, 200)
		}
	}
	return nil
}

func (s *Sanitizer) sanitizeString(str string, limit int) string {
	sanitized := strings.TrimSpace(str)
	sanitized = controlCharsRegex.ReplaceAllString(sanitized, "")
	if len(sanitized) > limit {
		sanitized = truncateUTF8(sanitized, limit)
	}
	return sanitized
}

func (s *Sanitizer) sanitizePlayerName(name string) string {
	sanitized := spacesRegex.ReplaceAllString(name, " ")
	return s.sanitizeString(sanitized, 100)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
