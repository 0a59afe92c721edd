package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridcat_resolutions_total",
			Help: "Total temporal resolutions by cadence and outcome",
		},
		[]string{"cadence", "status"},
	)

	AssembliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridcat_assemblies_total",
			Help: "Total raster handle assemblies by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridcat_extractions_total",
			Help: "Total extractions by geometry kind and outcome",
		},
		[]string{"kind", "status"},
	)

	ExtractionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridcat_extraction_latency_seconds",
			Help:    "Extraction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)
