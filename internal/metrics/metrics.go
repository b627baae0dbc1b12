// Package metrics holds the Prometheus collectors for map projection and telemetry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProjectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adroute_projections_total",
		Help: "Total number of map overlay projections computed.",
	})

	// SchedulesSkippedTotal counts schedules whose geometry could not be drawn, by reason.
	SchedulesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adroute_schedules_skipped_total",
		Help: "Schedules skipped during projection, by reason.",
	}, []string{"reason"})

	DirectionsLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adroute_directions_lookups_total",
		Help: "Walking directions lookups, by result (ok/error).",
	}, []string{"result"})

	DirectionsCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adroute_directions_cache_total",
		Help: "Directions cache lookups, by result (hit/miss/eviction).",
	}, []string{"result"})

	ScreenSessionsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adroute_screen_sessions_ingested_total",
		Help: "Screen session telemetry samples stored.",
	})
)

// RecordSkip increments the skipped-schedule counter.
func RecordSkip(reason string) {
	SchedulesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordDirectionsLookup records the outcome of a directions call.
func RecordDirectionsLookup(ok bool) {
	if ok {
		DirectionsLookupsTotal.WithLabelValues("ok").Inc()
		return
	}
	DirectionsLookupsTotal.WithLabelValues("error").Inc()
}

func RecordCache(result string) {
	DirectionsCacheTotal.WithLabelValues(result).Inc()
}
