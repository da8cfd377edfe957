package trustscore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the trust score engine.
type Metrics struct {
	Computed  *prometheus.CounterVec
	CacheHits prometheus.Counter
	Scores    prometheus.Histogram
}

// NewMetrics registers trust score metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Computed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "simply_trust_scores_computed_total",
			Help: "Trust score recomputations by resulting tier",
		}, []string{"tier"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "simply_trust_score_cache_hits_total",
			Help: "GetScore calls served by a fresh snapshot",
		}),

		Scores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "simply_trust_score_global",
			Help:    "Distribution of computed global scores",
			Buckets: prometheus.LinearBuckets(0, 100, 11),
		}),
	}
}

func (m *Metrics) IncComputed(tier Tier) {
	if m != nil {
		m.Computed.WithLabelValues(string(tier)).Inc()
	}
}

func (m *Metrics) IncCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) ObserveScore(score int) {
	if m != nil {
		m.Scores.Observe(float64(score))
	}
}
