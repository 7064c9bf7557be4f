package health

import (
	"sync"

	"github.com/Vodeneev/tennispbp/internal/pkg/interfaces"
)

// Global worker registry for on-demand analysis
var (
	globalWorkers   []interfaces.Worker
	globalWorkersMu sync.RWMutex
)

// RegisterWorkers registers workers for on-demand analysis
func RegisterWorkers(workers []interfaces.Worker) {
	globalWorkersMu.Lock()
	defer globalWorkersMu.Unlock()
	globalWorkers = workers
}

// GetWorkers returns a copy of registered workers (thread-safe)
func GetWorkers() []interfaces.Worker {
	globalWorkersMu.RLock()
	defer globalWorkersMu.RUnlock()

	workers := make([]interfaces.Worker, len(globalWorkers))
	copy(workers, globalWorkers)
	return workers
}
