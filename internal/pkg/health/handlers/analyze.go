package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Vodeneev/tennispbp/internal/pkg/interfaces"
)

const analyzeTimeout = 2 * time.Minute

var getWorkersFunc func() []interfaces.Worker

func SetGetWorkersFunc(fn func() []interfaces.Worker) {
	getWorkersFunc = fn
}

// HandleAnalyze runs one analysis cycle for a specific worker or all workers
// GET /analyze?worker=pbp - run one worker
// GET /analyze - run every worker
func HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	var workers []interfaces.Worker
	if getWorkersFunc != nil {
		workers = getWorkersFunc()
	}
	if len(workers) == 0 {
		http.Error(w, `{"error": "no workers registered"}`, http.StatusInternalServerError)
		return
	}

	target := workers
	if name := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("worker"))); name != "" {
		target = nil
		for _, wk := range workers {
			if strings.ToLower(wk.GetName()) == name {
				target = append(target, wk)
				break
			}
		}
		if len(target) == 0 {
			http.Error(w, fmt.Sprintf(`{"error": "worker '%s' not found"}`, name), http.StatusNotFound)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	results := make([]map[string]any, 0, len(target))
	for _, wk := range target {
		startTime := time.Now()
		slog.Info("Manual analysis triggered", "worker", wk.GetName())

		err := wk.RunOnce(ctx)
		duration := time.Since(startTime)

		result := map[string]any{
			"worker":   wk.GetName(),
			"duration": duration.String(),
			"success":  err == nil,
		}
		if err != nil {
			result["error"] = err.Error()
			slog.Error("Manual analysis failed", "worker", wk.GetName(), "error", err, "duration", duration)
		} else {
			slog.Info("Manual analysis completed", "worker", wk.GetName(), "duration", duration)
		}
		results = append(results, result)
	}

	if err := json.NewEncoder(w).Encode(map[string]any{
		"results": results,
		"count":   len(results),
	}); err != nil {
		slog.Error("Failed to encode analyze response", "error", err)
	}
}
