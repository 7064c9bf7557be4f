// Package pipeline runs a full match analysis: segmentation, participant lookup,
// per-set resolution, point completion and momentum reconciliation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/tennis/completer"
	"github.com/Vodeneev/tennispbp/internal/tennis/momentum"
	"github.com/Vodeneev/tennispbp/internal/tennis/registry"
	"github.com/Vodeneev/tennispbp/internal/tennis/resolver"
	"github.com/Vodeneev/tennispbp/internal/tennis/segment"
)

// Input is everything one analysis run consumes. Oracle holds the authoritative
// per-set tally keyed by set number; sets missing from it stay unresolved.
type Input struct {
	MatchID    string
	SnapshotID string
	Markup     string
	// ParticipantMarkup is searched for participants when set; Markup otherwise.
	ParticipantMarkup string
	Oracle            map[int]models.SetScore
	APISeries         []models.MomentumPoint
	SVGSeries         []models.MomentumPoint
}

// Options configure an Analyzer.
type Options struct {
	Dialect  segment.Dialect
	Resolver resolver.Config
	// CalculatedFallback fills momentum gaps from resolved games.
	CalculatedFallback bool
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	dialect  segment.Dialect
	resolver *resolver.Resolver
	calc     bool
	now      func() time.Time
}

func New(opts Options) *Analyzer {
	return &Analyzer{
		dialect:  opts.Dialect.WithDefaults(),
		resolver: resolver.New(opts.Resolver),
		calc:     opts.CalculatedFallback,
		now:      time.Now,
	}
}

// Analyze runs one analysis. Missing point-by-point data, unresolved sets and
// flagged momentum values are all reported inside the result. An error means the
// context was cancelled or the resolver rejected its arguments.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*models.MatchAnalysis, error) {
	seg := segment.SegmentWithDialect(in.Markup, a.dialect)
	participants := in.ParticipantMarkup
	if participants == "" {
		participants = in.Markup
	}
	reg := registry.BuildWithDialect(participants, a.dialect)

	if seg.OrphanBlocks > 0 || seg.SkippedTokens > 0 {
		slog.Debug("Segmentation dropped data",
			"match_id", in.MatchID,
			"orphan_blocks", seg.OrphanBlocks,
			"skipped_tokens", seg.SkippedTokens)
	}

	setNumbers := setsToResolve(seg, in.Oracle)
	sets := make([]models.SetResolution, len(setNumbers))
	g, gctx := errgroup.WithContext(ctx)
	for i, setNumber := range setNumbers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var oracle *models.SetScore
			if s, ok := in.Oracle[setNumber]; ok {
				oracle = &s
			}
			res, err := a.resolver.Resolve(setNumber, seg.BlocksBySet[setNumber], reg, oracle)
			if err != nil {
				return fmt.Errorf("failed to resolve set %d: %w", setNumber, err)
			}
			sets[i] = completer.CompleteSet(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range sets {
		if !s.Resolved {
			slog.Warn("Set unresolved",
				"match_id", in.MatchID,
				"set", s.SetNumber,
				"reason", s.Reason,
				"reconstructed", s.FinalScore.String())
		}
	}

	var calculated []models.MomentumPoint
	if a.calc {
		var games []models.ResolvedGame
		for _, s := range sets {
			if s.Resolved {
				games = append(games, s.Games...)
			}
		}
		calculated = momentum.CalculateFromGames(games)
	}
	records := momentum.ReconcileWithFallback(in.APISeries, in.SVGSeries, calculated)

	return &models.MatchAnalysis{
		MatchID:        in.MatchID,
		SnapshotID:     in.SnapshotID,
		Registry:       reg,
		SetHeaders:     seg.SetHeaders,
		Sets:           sets,
		Momentum:       records,
		MomentumIssues: momentum.Validate(records),
		AnalyzedAt:     a.now().UTC(),
	}, nil
}

// setsToResolve lists every set the markup or the oracle knows about, so a set
// with a header or an oracle tally but no game blocks is reported unresolved
// instead of dropped. Markup without any point-by-point structure yields none.
func setsToResolve(seg segment.Result, oracle map[int]models.SetScore) []int {
	if len(seg.SetHeaders) == 0 && len(seg.SortedSetIndices) == 0 {
		return nil
	}
	seen := make(map[int]struct{})
	add := func(n int) {
		if n >= 1 {
			seen[n] = struct{}{}
		}
	}
	for _, h := range seg.SetHeaders {
		add(h.SetIndex)
	}
	for _, n := range seg.SortedSetIndices {
		add(n)
	}
	for n := range oracle {
		add(n)
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
