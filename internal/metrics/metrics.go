package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/speechgateway/internal/speech"
	"github.com/nikhilbhutani/speechgateway/internal/tts"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	synthesisTotal    *prometheus.CounterVec
	synthesisDuration *prometheus.HistogramVec
	audioBytes        prometheus.Histogram
	rateLimited       prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,

		synthesisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "speech_synthesis_total",
				Help: "Synthesis requests by outcome and provider failure cause.",
			},
			[]string{"outcome", "cause"},
		),

		synthesisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "speech_synthesis_duration_seconds",
				Help:    "Time spent in the gateway per synthesis request.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		),

		audioBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "speech_audio_bytes",
				Help:    "Size of audio payloads returned to clients.",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),

		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "speech_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
		),
	}

	reg.MustRegister(
		m.synthesisTotal,
		m.synthesisDuration,
		m.audioBytes,
		m.rateLimited,
	)

	return m
}

// ObserveSynthesis implements speech.Observer.
func (m *Metrics) ObserveSynthesis(outcome speech.Outcome, cause tts.Cause, elapsed time.Duration) {
	m.synthesisTotal.WithLabelValues(string(outcome), string(cause)).Inc()
	m.synthesisDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAudioBytes(n int) {
	m.audioBytes.Observe(float64(n))
}

func (m *Metrics) IncRateLimited() {
	m.rateLimited.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
