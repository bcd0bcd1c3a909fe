package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global metrics. promauto registers them with the default registry, which
// the CLI exposes over /metrics.

var (
	// 1. Nodes Created (Counter)
	// Counts node instantiations, labeled by kind and the resolved feature level.
	NodesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noisegraph_nodes_created_total",
			Help: "Total number of nodes instantiated",
		},
		[]string{"kind", "level"},
	)

	// 2. Live Nodes (Gauge)
	// Pooled node slots currently holding a node.
	NodesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "noisegraph_nodes_live",
			Help: "Number of nodes currently alive in the node pool",
		},
	)

	// 3. Generation Duration (Histogram)
	// Wall time of one generation call, labeled by entry point.
	// Buckets cover single samples (microseconds) up to large volumes.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "noisegraph_generation_duration_seconds",
			Help:    "Duration of generation calls in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"entry"},
	)

	// 4. Samples Generated (Counter)
	SamplesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noisegraph_samples_generated_total",
			Help: "Total number of output samples produced",
		},
		[]string{"entry"},
	)

	// 5. Codec Operations (Counter)
	// Encode and decode calls of the node tree codec, labeled by result.
	CodecOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noisegraph_codec_operations_total",
			Help: "Node tree encode/decode operations",
		},
		[]string{"op", "result"},
	)

	// 6. Open Handles (Gauge)
	// Nodes held by the handle table of the binding surface.
	OpenHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "noisegraph_open_handles",
			Help: "Number of node handles currently registered in the handle table",
		},
	)

	// 7. Preset Store Operations (Counter)
	// Writes to the preset log and frames recovered or dropped at open.
	PresetOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noisegraph_preset_operations_total",
			Help: "Preset store operations",
		},
		[]string{"op", "result"},
	)
)
