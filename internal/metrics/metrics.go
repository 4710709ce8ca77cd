package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	exportJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagebinder",
			Name:      "export_jobs_total",
			Help:      "Export jobs by terminal result (success, missing_source, unreadable_image, encoding_failure)",
		},
		[]string{"result"},
	)

	exportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pagebinder",
			Name:      "export_duration_seconds",
			Help:      "Duration of export jobs by fit mode",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	pagesAssembled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pagebinder",
			Name:      "pages_assembled_total",
			Help:      "Total pages fitted and encoded into output documents",
		},
	)

	collectionOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pagebinder",
			Name:      "collection_ops_total",
			Help:      "Collection mutations by operation and outcome (applied, ignored)",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(exportJobs, exportDuration, pagesAssembled, collectionOps)
}

// ObserveExport records a finished export job.
func ObserveExport(result, mode string, pages int, d time.Duration) {
	exportJobs.WithLabelValues(result).Inc()
	exportDuration.WithLabelValues(mode).Observe(d.Seconds())
	if pages > 0 {
		pagesAssembled.Add(float64(pages))
	}
}

// ObserveCollectionOp records a collection mutation request.
func ObserveCollectionOp(op string, applied bool) {
	outcome := "applied"
	if !applied {
		outcome = "ignored"
	}
	collectionOps.WithLabelValues(op, outcome).Inc()
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }
