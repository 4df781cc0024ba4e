package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// SignupMetrics tracks signup attempts by outcome and the latency of the
// endpoint call.
type SignupMetrics struct {
	attemptsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// SignupOutcomes are pre-initialized so every series exists from startup.
var SignupOutcomes = []string{
	"busy", "blocked_email", "blocked_captcha", "accepted", "rejected", "failed",
}

// NewSignupMetrics creates and registers signup metrics on registry.
func NewSignupMetrics(registry prometheus.Registerer) (*SignupMetrics, error) {
	m := &SignupMetrics{
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "signup_attempts_total",
				Help:      "Signup submissions by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "signup_request_duration_seconds",
				Help:      "Time spent waiting for the signup endpoint",
				Buckets:   prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount11),
			},
			[]string{"outcome"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "signup_requests_in_flight",
			Help:      "Signup endpoint requests currently in flight",
		}),
	}

	for _, outcome := range SignupOutcomes {
		m.attemptsTotal.WithLabelValues(outcome)
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *SignupMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.attemptsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.inFlight.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *SignupMetrics) Collect(ch chan<- prometheus.Metric) {
	m.attemptsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.inFlight.Collect(ch)
}

// RecordOutcome counts one submission.
func (m *SignupMetrics) RecordOutcome(outcome string) {
	m.attemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records the endpoint latency of a completed submission.
func (m *SignupMetrics) ObserveRequest(outcome string, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RequestStarted and RequestFinished bracket an outbound call.
func (m *SignupMetrics) RequestStarted()  { m.inFlight.Inc() }
func (m *SignupMetrics) RequestFinished() { m.inFlight.Dec() }

// InFlight returns the current in-flight gauge value.
func (m *SignupMetrics) InFlight() float64 {
	metric := &dto.Metric{}
	if err := m.inFlight.Write(metric); err != nil {
		return 0
	}
	return metric.GetGauge().GetValue()
}

// Attempts returns the number of submissions recorded for outcome.
func (m *SignupMetrics) Attempts(outcome string) float64 {
	metric := &dto.Metric{}
	if err := m.attemptsTotal.WithLabelValues(outcome).Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}
