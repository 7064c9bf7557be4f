// clean-db removes stored point-by-point analyses to free space.
// Usage: point it at the service config, then run:
//
//	go run ./cmd/clean-db -older-than 720h
//	# or
//	go run ./cmd/clean-db -match 'sinner|alcaraz|2026-07-13T14:00:00Z'
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vodeneev/tennispbp/internal/pkg/config"
	"github.com/Vodeneev/tennispbp/internal/pkg/storage"
)

func main() {
	_ = godotenv.Load()

	var configPath, matchID string
	var olderThan time.Duration
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/production.yaml"
	}
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file")
	flag.StringVar(&matchID, "match", "", "Delete one match by id")
	flag.DurationVar(&olderThan, "older-than", 0, "Delete matches last analyzed before now minus this duration")
	flag.Parse()

	if matchID == "" && olderThan <= 0 {
		slog.Error("Either -match or -older-than is required")
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := storage.OpenSQL(cfg)
	if err != nil {
		slog.Error("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if matchID != "" {
		if err := st.DeleteMatch(ctx, matchID); err != nil {
			slog.Error("Failed to delete match", "match_id", matchID, "error", err)
			os.Exit(1)
		}
		slog.Info("Deleted match", "match_id", matchID)
	}
	if olderThan > 0 {
		cutoff := time.Now().Add(-olderThan)
		n, err := st.PurgeBefore(ctx, cutoff)
		if err != nil {
			slog.Error("Failed to purge matches", "cutoff", cutoff, "error", err)
			os.Exit(1)
		}
		slog.Info("Purged stale matches", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	}
}
