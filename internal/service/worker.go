// Package service drives periodic point-by-point analysis of the configured matches.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/tennispbp/internal/pkg/config"
	"github.com/Vodeneev/tennispbp/internal/pkg/interfaces"
	"github.com/Vodeneev/tennispbp/internal/pkg/jobutil"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/pkg/performance"
	"github.com/Vodeneev/tennispbp/internal/pkg/storage"
	"github.com/Vodeneev/tennispbp/internal/scraper"
	"github.com/Vodeneev/tennispbp/internal/tennis/pipeline"
)

const workerName = "pbp"

// Notifier receives every finished analysis and decides whether to alert.
type Notifier interface {
	NotifyAnalysis(ctx context.Context, a *models.MatchAnalysis) (bool, error)
}

// Deps are the collaborators a Worker talks to. Storage, Notifier and Publish may be nil.
type Deps struct {
	Fetcher   interfaces.Fetcher
	Cache     scraper.MarkupCache
	Storage   storage.AnalysisStorage
	Notifier  Notifier
	Validator interfaces.AnalysisValidator
	Sanitizer interfaces.AnalysisSanitizer
	Tracker   *performance.Tracker
	// Publish exposes an analysis to readers, e.g. the health server store.
	Publish func(a *models.MatchAnalysis)
}

var _ interfaces.CycleWorker = (*Worker)(nil)

// Worker analyzes every configured match once per cycle.
type Worker struct {
	cfg      *config.Config
	deps     Deps
	analyzer *pipeline.Analyzer
	state    *jobutil.CycleState
}

func NewWorker(cfg *config.Config, deps Deps) *Worker {
	if deps.Tracker == nil {
		deps.Tracker = performance.GetTracker()
	}
	return &Worker{
		cfg:  cfg,
		deps: deps,
		analyzer: pipeline.New(pipeline.Options{
			Dialect:            cfg.Markup,
			Resolver:           cfg.Resolver,
			CalculatedFallback: cfg.Momentum.CalculatedFallback,
		}),
	}
}

func (w *Worker) GetName() string {
	return workerName
}

// Start starts the cycle loop bounded by the configured cycle timeout.
func (w *Worker) Start(ctx context.Context) error {
	return w.StartCycles(ctx, w.cfg.Service.CycleTimeout)
}

// StartCycles starts the loop in background and triggers the first cycle.
func (w *Worker) StartCycles(ctx context.Context, timeout time.Duration) error {
	if w.state != nil && w.state.IsRunning() {
		slog.Warn("Cycle loop already started, skipping", "worker", workerName)
		return nil
	}
	w.state = jobutil.NewCycleState(ctx)
	go jobutil.RunCycleLoop(w.state, workerName, timeout, w.RunOnce)
	return w.state.TriggerNewCycle(workerName)
}

func (w *Worker) TriggerNewCycle() error {
	if w.state == nil {
		return fmt.Errorf("cycle loop not started")
	}
	return w.state.TriggerNewCycle(workerName)
}

func (w *Worker) Stop() error {
	if w.state != nil {
		w.state.Stop()
	}
	return nil
}

// RunOnce analyzes every configured match in parallel. It fails only when
// every match failed.
func (w *Worker) RunOnce(ctx context.Context) error {
	start := time.Now()
	matches := w.cfg.Scraper.Matches

	if sweeper, ok := w.deps.Cache.(interface{ Sweep() int }); ok {
		if n := sweeper.Sweep(); n > 0 {
			slog.Debug("Swept expired snapshots", "count", n)
		}
	}

	failures := jobutil.RunJobs(ctx, matches, func(ctx context.Context, m config.MatchSource) error {
		_, err := w.AnalyzeMatch(ctx, m)
		return err
	}, jobutil.RunOptions[config.MatchSource]{
		Workers:           w.cfg.Service.Workers,
		WaitForCompletion: true,
		Name:              func(m config.MatchSource) string { return m.Key() },
		OnError: func(m config.MatchSource, err error) {
			slog.Error("Match analysis failed", "match_id", m.Key(), "error", err)
		},
	})

	duration := time.Since(start)
	w.deps.Tracker.RecordCycle(duration)
	slog.Info("Analysis cycle done", "matches", len(matches), "failed", failures, "duration", duration)

	if len(matches) > 0 && failures == len(matches) {
		return fmt.Errorf("all %d matches failed", failures)
	}
	return ctx.Err()
}

// AnalyzeMatch fetches, analyzes, stores and publishes one match.
func (w *Worker) AnalyzeMatch(ctx context.Context, m config.MatchSource) (*models.MatchAnalysis, error) {
	matchID := m.Key()
	timing := performance.MatchTiming{MatchID: matchID}
	start := time.Now()

	var analysis *models.MatchAnalysis
	defer func() {
		timing.TotalTime = time.Since(start)
		w.deps.Tracker.RecordMatch(timing, analysis)
	}()

	fetchStart := time.Now()
	in, err := w.collect(ctx, m, matchID)
	timing.FetchTime = time.Since(fetchStart)
	if err != nil {
		return nil, err
	}

	analyzeStart := time.Now()
	a, err := w.analyzer.Analyze(ctx, in)
	timing.AnalyzeTime = time.Since(analyzeStart)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", matchID, err)
	}

	if w.deps.Sanitizer != nil {
		if err := w.deps.Sanitizer.SanitizeAnalysis(a); err != nil {
			return nil, fmt.Errorf("failed to sanitize %s: %w", matchID, err)
		}
	}
	if w.deps.Validator != nil {
		if err := w.deps.Validator.ValidateAnalysis(a); err != nil {
			return nil, fmt.Errorf("analysis of %s is inconsistent: %w", matchID, err)
		}
	}

	if w.deps.Storage != nil {
		storeStart := time.Now()
		err := w.deps.Storage.StoreAnalysis(ctx, a)
		timing.StoreTime = time.Since(storeStart)
		if err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", matchID, err)
		}
	}

	analysis = a
	timing.Success = true

	if w.deps.Publish != nil {
		w.deps.Publish(a)
	}
	if w.deps.Notifier != nil {
		if _, err := w.deps.Notifier.NotifyAnalysis(ctx, a); err != nil {
			slog.Warn("Failed to queue alert", "match_id", matchID, "error", err)
		}
	}

	slog.Info("Match analyzed",
		"match_id", matchID,
		"sets", len(a.Sets),
		"unresolved_sets", a.UnresolvedSets(),
		"momentum_records", len(a.Momentum),
		"momentum_issues", len(a.MomentumIssues))
	return a, nil
}

// collect gathers the pipeline input. A failed page fetch falls back to the
// latest cached snapshot; failed summary or momentum fetches only degrade the result.
func (w *Worker) collect(ctx context.Context, m config.MatchSource, matchID string) (pipeline.Input, error) {
	in := pipeline.Input{MatchID: matchID}

	markup, err := w.deps.Fetcher.FetchMarkup(ctx, m.PageURL)
	switch {
	case err == nil:
		in.Markup = markup
		if w.deps.Cache != nil {
			snap, err := w.deps.Cache.Put(ctx, matchID, markup)
			if err != nil {
				slog.Warn("Failed to cache markup", "match_id", matchID, "error", err)
			} else {
				in.SnapshotID = snap.ID
			}
		}
	case w.deps.Cache != nil:
		snap, ok, cacheErr := w.deps.Cache.Latest(ctx, matchID)
		if cacheErr != nil || !ok {
			return in, fmt.Errorf("failed to fetch %s: %w", m.PageURL, err)
		}
		slog.Warn("Using cached markup", "match_id", matchID, "snapshot_id", snap.ID, "fetched_at", snap.FetchedAt, "error", err)
		in.Markup = snap.Markup
		in.SnapshotID = snap.ID
	default:
		return in, fmt.Errorf("failed to fetch %s: %w", m.PageURL, err)
	}

	summary := in.Markup
	if page := m.SummaryPage(); page != m.PageURL {
		summary, err = w.deps.Fetcher.FetchMarkup(ctx, page)
		if err != nil {
			slog.Warn("Failed to fetch summary, sets stay unresolved", "match_id", matchID, "error", err)
			summary = ""
		}
	}
	if summary != "" {
		in.Oracle = scraper.ParseSetScores(summary, w.cfg.Markup)
	}

	if w.cfg.Momentum.UseSVG {
		in.SVGSeries = scraper.ExtractSVGMomentum(in.Markup, w.cfg.Markup)
	}
	if m.MomentumURL != "" {
		in.APISeries, err = w.deps.Fetcher.FetchMomentum(ctx, m.MomentumURL)
		if err != nil {
			slog.Warn("Failed to fetch momentum", "match_id", matchID, "error", err)
		}
	}
	return in, nil
}
