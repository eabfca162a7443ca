package region

import "github.com/prometheus/client_golang/prometheus"

// Metrics grounded on the teacher's prometheus.Register/GaugeOpts usage in
// cmd/qrank-webserver (Namespace-qualified collectors, scraped via
// promhttp.Handler by whatever binary embeds this package).
var (
	tileDecodeSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rl2",
		Subsystem: "region",
		Name:      "tile_decode_seconds",
		Help:      "Time spent fetching and decoding one tile during a region read.",
		Buckets:   prometheus.DefBuckets,
	})
	tileCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rl2",
		Subsystem: "region",
		Name:      "tile_cache_hits_total",
		Help:      "Tiles served from a Reader's decode cache instead of being refetched and redecoded.",
	})
	tileCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rl2",
		Subsystem: "region",
		Name:      "tile_cache_misses_total",
		Help:      "Tiles that required a fresh fetch and decode during a region read.",
	})
)

func init() {
	prometheus.MustRegister(tileDecodeSeconds, tileCacheHits, tileCacheMisses)
}
