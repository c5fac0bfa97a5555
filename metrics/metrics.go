// Package metrics hält die Prometheus-Metriken des Dienstes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SearchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scholar_searches_total",
			Help: "Total number of search pipeline runs.",
		},
	)

	RowsEnrichedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scholar_rows_enriched_total",
			Help: "Total number of enriched result rows.",
		},
	)

	RecordsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholar_records_skipped_total",
			Help: "Raw records skipped during enrichment, by reason.",
		},
		[]string{"reason"},
	)

	LookupMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholar_lookup_misses_total",
			Help: "Bibliographic lookups that fell back to a sentinel value.",
		},
		[]string{"lookup"},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholar_exports_total",
			Help: "Generated export files, by format.",
		},
		[]string{"format"},
	)

	UpstreamUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scholar_upstream_up",
			Help: "1 if the last health check of the upstream service succeeded.",
		},
		[]string{"service"},
	)
)

func init() {
	prometheus.MustRegister(
		SearchesTotal,
		RowsEnrichedTotal,
		RecordsSkippedTotal,
		LookupMissesTotal,
		ExportsTotal,
		UpstreamUp,
	)
}
