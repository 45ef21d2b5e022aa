package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSimulationMetrics() {
	r.SimulationRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbd_simulation_runs_total",
			Help: "Total number of Monte Carlo runs by outcome",
		},
		[]string{"system", "status"},
	)

	r.SimulationTrialsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbd_simulation_trials_total",
			Help: "Total number of completed simulation trials",
		},
		[]string{"system"},
	)

	r.SimulationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rbd_simulation_duration_seconds",
			Help:    "Monte Carlo run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"system"},
	)

	r.SimulationMTTF = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rbd_simulation_mttf",
			Help: "MTTF estimate of the last completed run",
		},
		[]string{"system"},
	)

	r.SimulationCensoredTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbd_censored_trials_total",
			Help: "Trials whose system never disconnected within the sampled lifetimes",
		},
		[]string{"system"},
	)

	r.ConvergenceWarningsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbd_convergence_warnings_total",
			Help: "Runs whose MTTF confidence interval exceeded the requested tolerance",
		},
		[]string{"system"},
	)

	r.SimulationTrialsPerSecond = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rbd_simulation_trials_per_second",
			Help: "Trial throughput of the last run",
		},
		[]string{"system"},
	)
}
