package metrics

import (
	"math"
	"runtime"
	"time"
)

// RecordRun records one Monte Carlo run. The MTTF gauge is only updated
// when the run produced a finite estimate.
func (r *Registry) RecordRun(system, status string, trials, censored int, mttf float64, duration time.Duration) {
	r.SimulationRunsTotal.WithLabelValues(system, status).Inc()
	r.SimulationTrialsTotal.WithLabelValues(system).Add(float64(trials))
	r.SimulationDuration.WithLabelValues(system).Observe(duration.Seconds())
	if censored > 0 {
		r.SimulationCensoredTotal.WithLabelValues(system).Add(float64(censored))
	}
	if trials > 0 && !math.IsNaN(mttf) && !math.IsInf(mttf, 0) {
		r.SimulationMTTF.WithLabelValues(system).Set(mttf)
	}
	if s := duration.Seconds(); s > 0 {
		r.SimulationTrialsPerSecond.WithLabelValues(system).Set(float64(trials) / s)
	}
}

// RecordConvergenceWarning counts a run that missed its tolerance
func (r *Registry) RecordConvergenceWarning(system string) {
	r.ConvergenceWarningsTotal.WithLabelValues(system).Inc()
}

// RecordFreeze records a topology validation
func (r *Registry) RecordFreeze(system, status string, blocks, edges int, duration time.Duration) {
	r.TopologyFreezesTotal.WithLabelValues(system, status).Inc()
	r.TopologyFreezeSeconds.Observe(duration.Seconds())
	if status == "success" {
		r.TopologyBlocks.WithLabelValues(system).Set(float64(blocks))
		r.TopologyEdges.WithLabelValues(system).Set(float64(edges))
	}
}

// UpdateSystemMetrics samples process-level gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
