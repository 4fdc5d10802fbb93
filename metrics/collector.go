// Package metrics exposes search activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/poiesic/bookscan/core"
	"github.com/poiesic/bookscan/search"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookscan"

// Hit kinds used as the "kind" label of the hits counter.
const (
	HitKindDirect = "direct"
	HitKindJoined = "joined"
)

// Collector records search activity. It implements search.SearchMonitor
// and is safe for concurrent use.
type Collector struct {
	searches       prometheus.Counter
	hits           *prometheus.CounterVec
	gaps           prometheus.Counter
	booksScanned   prometheus.Counter
	linesScanned   prometheus.Counter
	searchDuration prometheus.Histogram
	resultSize     prometheus.Histogram
}

var _ search.SearchMonitor = (*Collector)(nil)

// NewCollector creates a collector and registers its metrics with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of searches run",
		}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Total number of hits reported, by match kind",
		}, []string{"kind"}),
		gaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_gaps_total",
			Help:      "Total number of non-adjacent consecutive lines seen while scanning",
		}),
		booksScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "books_scanned_total",
			Help:      "Total number of books scanned",
		}),
		linesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_scanned_total",
			Help:      "Total number of scanned lines examined",
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent running a single search",
			Buckets:   prometheus.DefBuckets,
		}),
		resultSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of hits returned by a single search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	// Pre-create both label values so they export as zero.
	c.hits.WithLabelValues(HitKindDirect)
	c.hits.WithLabelValues(HitKindJoined)

	if reg != nil {
		for _, collector := range []prometheus.Collector{
			c.searches, c.hits, c.gaps, c.booksScanned, c.linesScanned, c.searchDuration, c.resultSize,
		} {
			if err := reg.Register(collector); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

func (c *Collector) Start(_ string, _ int) {
	c.searches.Inc()
}

func (c *Collector) GapDetected(_ string, _, _ core.ScannedLine) {
	c.gaps.Inc()
}

func (c *Collector) DirectHit(_ core.Hit) {
	c.hits.WithLabelValues(HitKindDirect).Inc()
}

func (c *Collector) JoinedHit(_ core.Hit) {
	c.hits.WithLabelValues(HitKindJoined).Inc()
}

func (c *Collector) BookScanned(_ string, lines int) {
	c.booksScanned.Inc()
	c.linesScanned.Add(float64(lines))
}

func (c *Collector) Finish(response *core.SearchResponse, elapsed time.Duration) {
	c.searchDuration.Observe(elapsed.Seconds())
	if response != nil {
		c.resultSize.Observe(float64(len(response.Results)))
	}
}
