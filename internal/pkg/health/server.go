package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Vodeneev/tennispbp/internal/pkg/health/handlers"
)

func init() {
	handlers.SetGetAnalysesFunc(GetAnalyses)
	handlers.SetGetAnalysisFunc(GetAnalysis)
	handlers.SetGetAnalysesByNameFunc(GetAnalysesByName)
	handlers.SetGetWorkersFunc(GetWorkers)
}

// NewMux wires every endpoint.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/ping", handlers.HandlePing)
	mux.HandleFunc("/health", handlers.HandleHealth)

	// Metrics endpoint
	mux.HandleFunc("/metrics", handlers.HandleMetrics)

	// Latest analyses, all or ?id=<match_id>
	mux.HandleFunc("/matches", handlers.HandleMatches)

	// Analyses by player name
	mux.HandleFunc("/match-by-name", handlers.HandleMatchByName)

	// Manual analysis cycle
	mux.HandleFunc("/analyze", handlers.HandleAnalyze)

	return mux
}

// Run starts the health server in background; it shuts down when ctx ends.
func Run(ctx context.Context, addr string, service string, readHeaderTimeout time.Duration) error {
	if readHeaderTimeout <= 0 {
		return fmt.Errorf("read_header_timeout must be specified in config")
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Health server listening", "service", service, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Health server error", "service", service, "error", err)
		}
	}()
	return nil
}

func AddrFor(port int) (string, error) {
	if port <= 0 {
		return "", fmt.Errorf("port must be greater than 0")
	}
	return fmt.Sprintf(":%d", port), nil
}
