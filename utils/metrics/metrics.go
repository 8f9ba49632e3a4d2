package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RefreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uniguide",
		Name:      "refresh_runs_total",
		Help:      "Refresh runs by source and terminal status",
	}, []string{"source", "status"})

	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "uniguide",
		Name:      "refresh_duration_seconds",
		Help:      "Wall time of refresh runs",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"source"})

	RefreshRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uniguide",
		Name:      "refresh_records_total",
		Help:      "Course records handled by refresh, by outcome",
	}, []string{"source", "outcome"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uniguide",
		Name:      "cache_lookups_total",
		Help:      "Query cache lookups by namespace and result (hit, miss, error)",
	}, []string{"namespace", "result"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
