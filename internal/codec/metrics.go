package codec

import "github.com/prometheus/client_golang/prometheus"

// corruptBlobTotal counts Decode calls that failed because the blob
// pair's header, framing, or CRC was corrupt — grounded on the teacher's
// prometheus.Register/GaugeOpts usage in cmd/qrank-webserver, generalized
// from a gauge to a counter for a monotonic failure tally.
var corruptBlobTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "rl2",
	Subsystem: "codec",
	Name:      "corrupt_blob_total",
	Help:      "Decode calls that failed because the blob pair was corrupt.",
})

func init() {
	prometheus.MustRegister(corruptBlobTotal)
}
