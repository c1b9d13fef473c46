package metrics

import (
	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// MatchingMetrics records scorer and batch observations.
type MatchingMetrics struct {
	service string

	scoresTotal   *prometheus.CounterVec
	scoreValue    *prometheus.HistogramVec
	modelAttempts *prometheus.HistogramVec
	batchRuns     *prometheus.CounterVec
	batchCreated  *prometheus.CounterVec
	batchFailed   *prometheus.CounterVec
	batchSkipped  *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	batchAnalyzed *prometheus.HistogramVec
}

func NewMatchingMetrics(service string, registerer prometheus.Registerer) *MatchingMetrics {
	m := &MatchingMetrics{
		service: service,
		scoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "scores_total",
				Help:      "Pair scores produced by source.",
			},
			[]string{"service", "source"},
		),
		scoreValue: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "score",
				Help:      "Distribution of pair scores by source.",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"service", "source"},
		),
		modelAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "model_attempts",
				Help:      "External model calls spent per scored pair.",
				Buckets:   []float64{0, 1, 2, 3, 5},
			},
			[]string{"service", "source"},
		),
		batchRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "runs_total",
				Help:      "Completed batch runs.",
			},
			[]string{"service"},
		),
		batchCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "matches_created_total",
				Help:      "Matches created by batch runs by confidence.",
			},
			[]string{"service", "tier"},
		),
		batchFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "failed_pairs_total",
				Help:      "Pairs abandoned because of persistence errors.",
			},
			[]string{"service"},
		),
		batchSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "skipped_total",
				Help:      "Items or pairs skipped by batch runs by reason.",
			},
			[]string{"service", "reason"},
		),
		batchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "duration_seconds",
				Help:      "Batch run duration in seconds.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
			},
			[]string{"service"},
		),
		batchAnalyzed: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "lost_items_analyzed",
				Help:      "Lost items visited per batch run.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"service"},
		),
	}

	registerer.MustRegister(
		m.scoresTotal,
		m.scoreValue,
		m.modelAttempts,
		m.batchRuns,
		m.batchCreated,
		m.batchFailed,
		m.batchSkipped,
		m.batchDuration,
		m.batchAnalyzed,
	)
	return m
}

func (m *MatchingMetrics) RecordScore(source domain.ScoreSource, score int, attempts int) {
	label := string(source)
	if label == "" {
		label = "unknown"
	}
	m.scoresTotal.WithLabelValues(m.service, label).Inc()
	m.scoreValue.WithLabelValues(m.service, label).Observe(float64(score))
	m.modelAttempts.WithLabelValues(m.service, label).Observe(float64(attempts))
}

func (m *MatchingMetrics) RecordBatch(stats domain.BatchStats) {
	m.batchRuns.WithLabelValues(m.service).Inc()
	m.batchCreated.WithLabelValues(m.service, "high").Add(float64(stats.HighConfidenceMatches))
	m.batchCreated.WithLabelValues(m.service, "other").Add(float64(stats.MatchesCreated - stats.HighConfidenceMatches))
	m.batchFailed.WithLabelValues(m.service).Add(float64(stats.FailedPairs))
	m.batchSkipped.WithLabelValues(m.service, "unscorable").Add(float64(stats.SkippedItems))
	m.batchSkipped.WithLabelValues(m.service, "existing").Add(float64(stats.SkippedExisting))
	m.batchDuration.WithLabelValues(m.service).Observe(stats.Duration.Seconds())
	m.batchAnalyzed.WithLabelValues(m.service).Observe(float64(stats.TotalAnalyzed))
}
