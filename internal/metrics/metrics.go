// Package metrics exposes Prometheus counters and gauges for a cellar
// environment: commit/abort rates, GC reclamation, and reader pressure.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector groups the metrics for one environment. Callers register it
// with a prometheus.Registerer of their choosing (or prometheus.DefaultRegisterer).
type Collector struct {
	CommitsTotal    prometheus.Counter
	AbortsTotal     prometheus.Counter
	GCReclaimsTotal prometheus.Counter
	GCReclaimedPages prometheus.Counter
	DirtyPages      prometheus.Histogram
	CommitLatency   prometheus.Histogram
	ActiveReaders   prometheus.Gauge
	FileSizeBytes   prometheus.Gauge
}

// New builds a Collector with metric names namespaced under "cellar" and
// labeled by the environment's label.
func New(env string) *Collector {
	constLabels := prometheus.Labels{"env": env}
	return &Collector{
		CommitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellar",
			Name:        "commits_total",
			Help:        "Number of write transactions committed.",
			ConstLabels: constLabels,
		}),
		AbortsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellar",
			Name:        "aborts_total",
			Help:        "Number of write transactions aborted.",
			ConstLabels: constLabels,
		}),
		GCReclaimsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellar",
			Name:        "gc_reclaims_total",
			Help:        "Number of allocation requests satisfied from the GC table.",
			ConstLabels: constLabels,
		}),
		GCReclaimedPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cellar",
			Name:        "gc_reclaimed_pages_total",
			Help:        "Total pages handed out from the GC table instead of growing the file.",
			ConstLabels: constLabels,
		}),
		DirtyPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "cellar",
			Name:        "commit_dirty_pages",
			Help:        "Dirty pages written per commit.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 10),
		}),
		CommitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "cellar",
			Name:        "commit_latency_seconds",
			Help:        "Wall-clock time spent in Commit.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
		ActiveReaders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "cellar",
			Name:        "active_readers",
			Help:        "Currently active reader slots.",
			ConstLabels: constLabels,
		}),
		FileSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "cellar",
			Name:        "file_size_bytes",
			Help:        "Current size of the data file.",
			ConstLabels: constLabels,
		}),
	}
}

// MustRegister registers every collector with r, panicking on duplicate
// registration as prometheus.MustRegister does.
func (c *Collector) MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		c.CommitsTotal,
		c.AbortsTotal,
		c.GCReclaimsTotal,
		c.GCReclaimedPages,
		c.DirtyPages,
		c.CommitLatency,
		c.ActiveReaders,
		c.FileSizeBytes,
	)
}
