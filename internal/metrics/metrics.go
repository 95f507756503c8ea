package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedRowsRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canonpipe_feed_rows_read_total",
		Help: "Total rows read from the input feeds, labelled by feed.",
	}, []string{"feed"})

	FeedRowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canonpipe_feed_rows_skipped_total",
		Help: "Total rows skipped during ingestion, labelled by feed.",
	}, []string{"feed"})

	DatesInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canonpipe_dates_invalid_total",
		Help: "Total activity dates that failed normalization.",
	})

	ValuesUnclassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canonpipe_values_unclassified_total",
		Help: "Total raw categorical values that fell through to UNCLASSIFIED, labelled by field.",
	}, []string{"field"})

	ViewRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "canonpipe_view_rows",
		Help: "Canonical record count per view for the latest run.",
	}, []string{"view"})

	ReportRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "canonpipe_report_rows",
		Help: "Output row count per report for the latest run.",
	}, []string{"report"})

	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canonpipe_runs_total",
		Help: "Total pipeline runs attempted.",
	})

	RunFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canonpipe_run_failures_total",
		Help: "Total pipeline runs that ended in error.",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "canonpipe_run_duration_ms",
		Help:    "End-to-end pipeline run duration in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
)
