package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelinesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assetforge_pipelines_started_total",
		Help: "Total number of generation pipelines started",
	})

	pipelinesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetforge_pipelines_finished_total",
		Help: "Pipelines reaching a terminal state by outcome",
	}, []string{"outcome"}) // outcome=completed|failed

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assetforge_stage_duration_seconds",
		Help:    "Wall-clock duration of pipeline stages",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"stage", "outcome"})

	sseStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assetforge_sse_streams_active",
		Help: "Currently open status stream connections",
	})
)

func IncPipelineStarted() {
	pipelinesStarted.Inc()
}

func IncPipelineFinished(outcome string) {
	pipelinesFinished.WithLabelValues(outcome).Inc()
}

func ObserveStageDuration(stage string, outcome string, d time.Duration) {
	stageDuration.WithLabelValues(stage, outcome).Observe(d.Seconds())
}

func IncSSEStreams() { sseStreams.Inc() }
func DecSSEStreams() { sseStreams.Dec() }
