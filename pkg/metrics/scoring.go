package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScoringMetrics records recompute pipeline and fraud decision metadata.
type ScoringMetrics struct {
	recomputeDuration *prometheus.HistogramVec
	recomputeSuccess  *prometheus.CounterVec
	recomputeFailure  *prometheus.CounterVec
	queueDepth        prometheus.Gauge
	fraudDecisions    *prometheus.CounterVec
}

// NewScoringMetrics registers the scoring metrics on the provided registerer.
func NewScoringMetrics(reg prometheus.Registerer) *ScoringMetrics {
	if reg == nil {
		return &ScoringMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recompute_duration_seconds",
		Help:    "Duration of trust score recomputes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"reason"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recompute_success",
		Help: "Successful trust score recomputes.",
	}, []string{"reason"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recompute_failure",
		Help: "Failed trust score recomputes.",
	}, []string{"reason"})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recompute_queue_depth",
		Help: "Recompute requests currently queued or running.",
	})
	fraud := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_decisions",
		Help: "Review fraud scoring decisions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, success, failure, depth, fraud)
	return &ScoringMetrics{
		recomputeDuration: duration,
		recomputeSuccess:  success,
		recomputeFailure:  failure,
		queueDepth:        depth,
		fraudDecisions:    fraud,
	}
}

// ObserveRecompute records the duration for a recompute with the given reason.
func (s *ScoringMetrics) ObserveRecompute(reason string, duration time.Duration) {
	if s == nil || s.recomputeDuration == nil {
		return
	}
	s.recomputeDuration.WithLabelValues(normalizeLabel(reason)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the given reason.
func (s *ScoringMetrics) IncSuccess(reason string) {
	if s == nil || s.recomputeSuccess == nil {
		return
	}
	s.recomputeSuccess.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncFailure increments the failure counter for the given reason.
func (s *ScoringMetrics) IncFailure(reason string) {
	if s == nil || s.recomputeFailure == nil {
		return
	}
	s.recomputeFailure.WithLabelValues(normalizeLabel(reason)).Inc()
}

// SetQueueDepth records the current dispatcher queue depth.
func (s *ScoringMetrics) SetQueueDepth(depth int) {
	if s == nil || s.queueDepth == nil {
		return
	}
	s.queueDepth.Set(float64(depth))
}

// IncFraudDecision counts a fraud scoring outcome (auto_verified / held).
func (s *ScoringMetrics) IncFraudDecision(outcome string) {
	if s == nil || s.fraudDecisions == nil {
		return
	}
	s.fraudDecisions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
