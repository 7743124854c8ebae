package floor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricVADEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_vad_events_total",
		Help: "Total voice-activity start signals received",
	})

	metricDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floor_decisions_total",
		Help: "Decisions emitted by action",
	}, []string{"action"})

	metricProvisional = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_provisional_decisions_total",
		Help: "Tentative ignore decisions emitted from interim transcripts",
	})

	metricOverrides = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_provisional_overrides_total",
		Help: "Provisional decisions superseded by a later classification",
	})

	metricWaitTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_wait_timeouts_total",
		Help: "Transcript waits that expired with no transcript",
	})

	metricGuardBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_guard_blocks_total",
		Help: "VAD signals dropped inside the post-speech-start guard window",
	})

	metricDroppedTranscripts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floor_transcripts_dropped_total",
		Help: "Transcript events dropped for a malformed or missing utterance id",
	})

	metricDecisionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "floor_decision_latency_ms",
		Help:    "Latency from VAD signal to resolved decision (ms)",
		Buckets: prometheus.ExponentialBuckets(10, 1.6, 10),
	})
)
