// Package metrics exports node activity to Prometheus.
package metrics

import (
	"github.com/nspcc-dev/lukchat"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lukchat"

// Collector implements lukchat.Metrics.
type Collector struct {
	height   prometheus.Gauge
	accepted prometheus.Counter
	rejected *prometheus.CounterVec
	overlap  prometheus.Histogram
	pending  prometheus.Gauge
}

var _ lukchat.Metrics = (*Collector)(nil)

// New registers node metrics with labels on reg. Nodes sharing reg must use
// different labels.
func New(reg prometheus.Registerer, labels prometheus.Labels) *Collector {
	f := promauto.With(reg)

	return &Collector{
		height: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "chain_height",
			Help:        "Length of the node's chain",
			ConstLabels: labels,
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "blocks_accepted_total",
			Help:        "Total number of blocks appended to the node's chain",
			ConstLabels: labels,
		}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "blocks_rejected_total",
			Help:        "Total number of blocks which failed to be appended",
			ConstLabels: labels,
		}, []string{"kind"}),
		overlap: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "chain_overlap",
			Help:        "Share of local blocks present in peer chains",
			Buckets:     prometheus.LinearBuckets(0, 0.1, 11),
			ConstLabels: labels,
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "events_pending",
			Help:        "Number of loose events waiting for a block",
			ConstLabels: labels,
		}),
	}
}

// BlockAccepted implements lukchat.Metrics interface.
func (c *Collector) BlockAccepted(height int) {
	c.accepted.Inc()
	c.height.Set(float64(height))
}

// BlockRejected implements lukchat.Metrics interface.
func (c *Collector) BlockRejected(kind string) {
	c.rejected.WithLabelValues(kind).Inc()
}

// Overlap implements lukchat.Metrics interface.
func (c *Collector) Overlap(score float64) {
	c.overlap.Observe(score)
}

// EventsPending implements lukchat.Metrics interface.
func (c *Collector) EventsPending(n int) {
	c.pending.Set(float64(n))
}
