package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vodeneev/tennispbp/internal/notify"
	pkgconfig "github.com/Vodeneev/tennispbp/internal/pkg/config"
	"github.com/Vodeneev/tennispbp/internal/pkg/health"
	"github.com/Vodeneev/tennispbp/internal/pkg/interfaces"
	"github.com/Vodeneev/tennispbp/internal/pkg/logging"
	"github.com/Vodeneev/tennispbp/internal/pkg/performance"
	"github.com/Vodeneev/tennispbp/internal/pkg/storage"
	"github.com/Vodeneev/tennispbp/internal/pkg/validation"
	"github.com/Vodeneev/tennispbp/internal/scraper"
	"github.com/Vodeneev/tennispbp/internal/service"
)

const (
	defaultConfigPath = "configs/production.yaml"
	serviceName       = "pbp-service"
)

type config struct {
	configPath string
	runFor     time.Duration
}

func main() {
	if err := run(); err != nil {
		slog.Error("PBP service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	slog.Info("Starting point-by-point service...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env", "error", err)
	}

	cfg := parseFlags()

	slog.Info("Loading config", "path", cfg.configPath)
	appConfig, err := pkgconfig.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, logCloser, err := logging.SetupLogger(&appConfig.Logging, serviceName)
	if err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	} else {
		defer logCloser.Close()
		slog.Info("Logging initialized", "service", serviceName, "matches", len(appConfig.Scraper.Matches))
	}

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	st, err := storage.New(appConfig)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	if st != nil {
		defer st.Close()
	}

	cache, closeCache := markupCache(appConfig)
	defer closeCache()

	notifier := notify.NewTelegramNotifier(&appConfig.Telegram)
	defer notifier.Stop()

	deps := service.Deps{
		Fetcher:   scraper.NewClient(appConfig.Scraper.Config),
		Cache:     cache,
		Storage:   st,
		Validator: validation.NewValidator(),
		Sanitizer: validation.NewSanitizer(),
		Tracker:   performance.GetTracker(),
		Publish:   health.AddAnalysis,
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	worker := service.NewWorker(appConfig, deps)
	health.RegisterWorkers([]interfaces.Worker{worker})

	healthAddr, err := health.AddrFor(appConfig.Health.Port)
	if err != nil {
		return fmt.Errorf("health.port must be specified in config: %w", err)
	}
	if err := health.Run(ctx, healthAddr, serviceName, appConfig.Health.ReadHeaderTimeout); err != nil {
		return err
	}

	slog.Info("Starting analysis worker...", "interval", appConfig.Service.Interval, "cycle_timeout", appConfig.Service.CycleTimeout)
	if err := worker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	startPeriodicCycles(ctx, worker, appConfig.Service.Interval)

	<-ctx.Done()
	_ = worker.Stop()
	performance.GetTracker().PrintSummary()
	slog.Info("PBP service stopped gracefully")
	return nil
}

func parseFlags() config {
	var cfg config
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "Auto-stop after duration. 0 = run until SIGINT/SIGTERM")
	flag.Parse()
	return cfg
}

// markupCache prefers Redis when configured and reachable.
func markupCache(cfg *pkgconfig.Config) (scraper.MarkupCache, func()) {
	if cfg.Redis.Addr != "" {
		rc, err := storage.NewRedisMarkupCache(&cfg.Redis)
		if err == nil {
			slog.Info("Using Redis markup cache", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
			return rc, func() { _ = rc.Close() }
		}
		slog.Warn("Redis unavailable, using in-memory markup cache", "error", err)
	}
	return scraper.NewMemoryCache(cfg.Scraper.CacheTTL), func() {}
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()
}

func startPeriodicCycles(ctx context.Context, worker interfaces.CycleWorker, interval time.Duration) {
	slog.Info("Starting periodic analysis", "interval", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("Periodic analysis stopped")
				return
			case <-ticker.C:
				if err := worker.TriggerNewCycle(); err != nil {
					slog.Error("Failed to trigger new cycle", "worker", worker.GetName(), "error", err)
				}
			}
		}
	}()
}
