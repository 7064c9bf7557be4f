package interfaces

import "github.com/Vodeneev/tennispbp/internal/pkg/models"

// AnalysisValidator checks an analysis before it is persisted or published.
type AnalysisValidator interface {
	// ValidateAnalysis validates the whole record
	ValidateAnalysis(analysis *models.MatchAnalysis) error

	// ValidateResolution validates one set
	ValidateResolution(set *models.SetResolution) error
}

// AnalysisSanitizer normalizes free text scraped from markup.
type AnalysisSanitizer interface {
	SanitizeRegistry(registry *models.PlayerRegistry)
	SanitizeAnalysis(analysis *models.MatchAnalysis) error
}
