package storage

import (
	"context"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// AnalysisStorage persists match analyses.
type AnalysisStorage interface {
	// StoreAnalysis replaces everything stored for the analysis' match.
	StoreAnalysis(ctx context.Context, analysis *models.MatchAnalysis) error

	// LoadSets returns the stored set resolutions of a match ordered by set number.
	LoadSets(ctx context.Context, matchID string) ([]models.SetResolution, error)

	// LoadMomentum returns the stored momentum series ordered by set and game.
	LoadMomentum(ctx context.Context, matchID string) ([]models.MomentumRecord, error)

	// Close closes the database connection
	Close() error
}
