package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxel"

// Metrics holds the collectors updated by the world and the streaming
// controller. Every series carries the world instance id.
type Metrics struct {
	reg    prometheus.Registerer
	labels prometheus.Labels

	ChunksLoaded   prometheus.Gauge
	ChunksEvicted  prometheus.Counter
	TerrainSeconds prometheus.Histogram
	MeshSeconds    prometheus.Histogram
	MeshVertices   prometheus.Histogram
	BlockEdits     prometheus.Counter
	StreamPending  prometheus.Gauge
}

// New registers the collectors on reg. A nil reg gets a private registry so
// several worlds can coexist in one process (tests do this).
func New(reg prometheus.Registerer, worldID string) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	labels := prometheus.Labels{"world": worldID}
	f := promauto.With(reg)
	return &Metrics{
		reg:    reg,
		labels: labels,
		ChunksLoaded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "chunks_loaded",
			Help:        "Chunks currently registered in the loaded set.",
			ConstLabels: labels,
		}),
		ChunksEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "chunks_evicted_total",
			Help:        "Chunks dropped because they left the required set.",
			ConstLabels: labels,
		}),
		TerrainSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "terrain_seconds",
			Help:        "Time spent generating terrain for one chunk.",
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 12),
			ConstLabels: labels,
		}),
		MeshSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "mesh_seconds",
			Help:        "Time spent building the mesh of one chunk.",
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 12),
			ConstLabels: labels,
		}),
		MeshVertices: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "mesh_vertices",
			Help:        "Vertex count of rebuilt chunk meshes.",
			Buckets:     prometheus.ExponentialBuckets(4, 4, 8),
			ConstLabels: labels,
		}),
		BlockEdits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "block_edits_total",
			Help:        "Block placements and removals applied to populated chunks.",
			ConstLabels: labels,
		}),
		StreamPending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stream_pending",
			Help:        "Chunk coordinates waiting in the streaming queue.",
			ConstLabels: labels,
		}),
	}
}

// WatchPool exports the worker pool backlog.
func (m *Metrics) WatchPool(waiting func() uint64, running func() int64) {
	f := promauto.With(m.reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "pool_waiting_tasks",
		Help:        "Generation tasks queued on the worker pool.",
		ConstLabels: m.labels,
	}, func() float64 { return float64(waiting()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "pool_running_workers",
		Help:        "Workers currently executing a generation task.",
		ConstLabels: m.labels,
	}, func() float64 { return float64(running()) })
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
