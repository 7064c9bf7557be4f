package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vodeneev/tennispbp/internal/pkg/config"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
	"github.com/Vodeneev/tennispbp/internal/pkg/storage"
	"github.com/Vodeneev/tennispbp/internal/pkg/validation"
	"github.com/Vodeneev/tennispbp/internal/scraper"
	"github.com/Vodeneev/tennispbp/internal/tennis/pipeline"
)

type analyzeOptions struct {
	configPath string
	markup     string
	summary    string
	oracle     string
	apiPath    string
	useSVG     bool
	matchID    string
	sqlitePath string
	asJSON     bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pbp-resolve",
		Short:         "Resolve point-by-point markup against set scores offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newModesCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a saved point-by-point page",
		Example: `  pbp-resolve analyze --markup match.html --summary summary.html
  pbp-resolve analyze --markup match.html --oracle 1=7-6,2=6-4 --svg --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "optional service config for markup dialect and resolver settings")
	f.StringVar(&opts.markup, "markup", "", "file with the point-by-point page")
	f.StringVar(&opts.summary, "summary", "", "file with the set summary page")
	f.StringVar(&opts.oracle, "oracle", "", "set scores as set=home-away pairs, e.g. 1=7-6,2=6-4")
	f.StringVar(&opts.apiPath, "api", "", "file with the momentum API response")
	f.BoolVar(&opts.useSVG, "svg", false, "read momentum from the chart embedded in the page")
	f.StringVar(&opts.matchID, "match-id", "", "match id; defaults to the markup file name")
	f.StringVar(&opts.sqlitePath, "sqlite", "", "store the analysis in this SQLite database")
	f.BoolVar(&opts.asJSON, "json", false, "print the analysis as JSON")
	f.DurationVar(&opts.timeout, "timeout", time.Minute, "analysis timeout")
	_ = cmd.MarkFlagRequired("markup")
	return cmd
}

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List semantic modes in resolution order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeModes(cmd.OutOrStdout())
		},
	}
}

func runAnalyze(ctx context.Context, opts *analyzeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	markup, err := readFile(opts.markup)
	if err != nil {
		return err
	}

	oracle := map[int]models.SetScore{}
	if opts.summary != "" {
		summary, err := readFile(opts.summary)
		if err != nil {
			return err
		}
		for set, score := range scraper.ParseSetScores(summary, cfg.Markup) {
			oracle[set] = score
		}
	}
	overrides, err := parseOracle(opts.oracle)
	if err != nil {
		return err
	}
	for set, score := range overrides {
		oracle[set] = score
	}

	in := pipeline.Input{
		MatchID: opts.matchID,
		Markup:  markup,
		Oracle:  oracle,
	}
	if in.MatchID == "" {
		in.MatchID = strings.TrimSuffix(filepath.Base(opts.markup), filepath.Ext(opts.markup))
	}
	if opts.useSVG || cfg.Momentum.UseSVG {
		in.SVGSeries = scraper.ExtractSVGMomentum(markup, cfg.Markup)
	}
	if opts.apiPath != "" {
		data, err := os.ReadFile(opts.apiPath)
		if err != nil {
			return fmt.Errorf("read momentum: %w", err)
		}
		in.APISeries, err = scraper.ParseMomentumAPI(data)
		if err != nil {
			return fmt.Errorf("parse momentum: %w", err)
		}
	}

	analyzer := pipeline.New(pipeline.Options{
		Dialect:            cfg.Markup,
		Resolver:           cfg.Resolver,
		CalculatedFallback: cfg.Momentum.CalculatedFallback,
	})
	analysis, err := analyzer.Analyze(ctx, in)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if err := validation.NewValidator().ValidateAnalysis(analysis); err != nil {
		return fmt.Errorf("analysis failed validation: %w", err)
	}

	if opts.sqlitePath != "" {
		st, err := storage.NewSQLiteAnalysisStorage(opts.sqlitePath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.StoreAnalysis(ctx, analysis); err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}
	return writeAnalysis(os.Stdout, analysis)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.Load(path)
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
