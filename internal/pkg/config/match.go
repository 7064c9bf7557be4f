package config

import "github.com/Vodeneev/tennispbp/internal/pkg/models"

// Key returns the configured id or, when absent, the canonical match id.
func (m MatchSource) Key() string {
	if m.ID != "" {
		return m.ID
	}
	if m.HomePlayer == "" && m.AwayPlayer == "" {
		return m.PageURL
	}
	return models.CanonicalMatchID(m.HomePlayer, m.AwayPlayer, m.StartTime)
}

// SummaryPage returns the page carrying the set totals.
func (m MatchSource) SummaryPage() string {
	if m.SummaryURL != "" {
		return m.SummaryURL
	}
	return m.PageURL
}
