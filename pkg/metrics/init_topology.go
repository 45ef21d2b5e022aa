package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTopologyMetrics() {
	r.TopologyFreezesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbd_topology_freezes_total",
			Help: "Total number of topology validations by outcome",
		},
		[]string{"system", "status"},
	)

	r.TopologyFreezeSeconds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rbd_topology_freeze_duration_seconds",
			Help:    "Time spent validating and compiling a topology",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

	r.TopologyBlocks = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rbd_topology_blocks",
			Help: "Number of blocks in the last frozen topology",
		},
		[]string{"system"},
	)

	r.TopologyEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rbd_topology_edges",
			Help: "Number of edges in the last frozen topology",
		},
		[]string{"system"},
	)
}
