// Package metrics exposes Prometheus instrumentation for reliability
// simulations.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics of the engine
type Registry struct {
	// Simulation Metrics
	SimulationRunsTotal       *prometheus.CounterVec
	SimulationTrialsTotal     *prometheus.CounterVec
	SimulationDuration        *prometheus.HistogramVec
	SimulationMTTF            *prometheus.GaugeVec
	SimulationCensoredTotal   *prometheus.CounterVec
	ConvergenceWarningsTotal  *prometheus.CounterVec
	SimulationTrialsPerSecond *prometheus.GaugeVec

	// Topology Metrics
	TopologyFreezesTotal  *prometheus.CounterVec
	TopologyFreezeSeconds prometheus.Histogram
	TopologyBlocks        *prometheus.GaugeVec
	TopologyEdges         *prometheus.GaugeVec

	// Process Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initSimulationMetrics()
	r.initTopologyMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
