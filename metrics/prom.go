package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freepaste_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freepaste_paste_retrieved_total",
		Help: "no. of pastes retrieved",
	})
	PasteEdited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freepaste_paste_edited_total",
		Help: "no. of pastes edited",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freepaste_cache_hits_total",
		Help: "no. of cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freepaste_cache_misses_total",
		Help: "no. of cache misses",
	})
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "freepaste_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	IDCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freepaste_id_collisions_total",
		Help: "no. of paste id collisions observed at insert",
	})
)

func Init() {
}
