package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	enabled  atomic.Bool
	regMu    sync.Mutex
	registry *prometheus.Registry
)

// InitRegistry creates the process-wide Prometheus registry that backend
// constructors (prometheus.New) register their collectors against, and
// marks metrics collection enabled. Call it once before constructing any
// metrics implementation; calling it again replaces the registry.
func InitRegistry() *prometheus.Registry {
	regMu.Lock()
	defer regMu.Unlock()

	registry = prometheus.NewRegistry()
	enabled.Store(true)
	return registry
}

// IsEnabled reports whether InitRegistry has been called. Backend
// constructors use this to return a nil implementation with zero overhead
// when metrics were never enabled.
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the process-wide registry. Returns nil if
// InitRegistry was never called.
func GetRegistry() *prometheus.Registry {
	regMu.Lock()
	defer regMu.Unlock()
	return registry
}
