// Package metrics counts hashing work in a prometheus registry that can be
// dumped in the node exporter textfile format.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"primesha.org/primesha/sha256"
)

const namespace = "primesha"

// Metrics holds the counters of one process. The zero value is not usable,
// a nil *Metrics discards every observation.
type Metrics struct {
	registry *prometheus.Registry

	filesHashed      prometheus.Counter
	bytesHashed      prometheus.Counter
	blocksCompressed prometheus.Counter
	hashErrors       *prometheus.CounterVec
	cacheHits        prometheus.Counter
	hashDuration     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_hashed_total",
			Help: "Total number of inputs digested.",
		}),
		bytesHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_hashed_total",
			Help: "Total number of message bytes digested.",
		}),
		blocksCompressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "blocks_compressed_total",
			Help: "Total number of 64-byte blocks run through the compression function.",
		}),
		hashErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "hash_errors_total",
			Help: "Total number of inputs that could not be digested, by stage.",
		}, []string{"stage"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_hits_total",
			Help: "Total number of digests served from the cache.",
		}),
		hashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "hash_duration_seconds",
			Help:    "Time spent digesting one input.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	m.registry.MustRegister(m.filesHashed, m.bytesHashed, m.blocksCompressed,
		m.hashErrors, m.cacheHits, m.hashDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHash records one digested message of n bytes.
func (m *Metrics) ObserveHash(n int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.filesHashed.Inc()
	m.bytesHashed.Add(float64(n))
	m.blocksCompressed.Add(float64(sha256.BlockCount(uint64(n))))
	m.hashDuration.Observe(elapsed.Seconds())
}

// ObserveError records a failure at stage, e.g. "read" or "store".
func (m *Metrics) ObserveError(stage string) {
	if m == nil {
		return
	}
	m.hashErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// WriteTextfile atomically writes every metric to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return errors.Wrapf(prometheus.WriteToTextfile(path, m.registry), "write metrics to %s", path)
}
