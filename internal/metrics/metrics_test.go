package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/speechgateway/internal/speech"
	"github.com/nikhilbhutani/speechgateway/internal/tts"
)

func TestObserveSynthesis(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSynthesis(speech.OutcomeOK, "", 120*time.Millisecond)
	m.ObserveSynthesis(speech.OutcomeOK, "", 80*time.Millisecond)
	m.ObserveSynthesis(speech.OutcomeProviderError, tts.CauseRateLimited, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.synthesisTotal.WithLabelValues("ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.synthesisTotal.WithLabelValues("provider_error", "rate_limited")))
}

func TestRateLimitedCounter(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncRateLimited()
	m.IncRateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLimited))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSynthesis(speech.OutcomeUnconfigured, "", time.Millisecond)
	m.ObserveAudioBytes(4096)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `speech_synthesis_total{cause="",outcome="unconfigured"} 1`)
	assert.Contains(t, string(body), "speech_audio_bytes_count 1")
}

func TestMetricsImplementsObserver(t *testing.T) {
	var _ speech.Observer = New(prometheus.NewRegistry())
}
