package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stream metrics
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_relay_active_streams",
		Help: "Number of streaming responses currently in flight",
	})

	totalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_requests_total",
		Help: "Total number of /process requests handled",
	})

	streamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_relay_stream_duration_seconds",
		Help:    "Duration of streaming responses in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	})

	// Answer backend metrics
	answerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_answer_requests_total",
		Help: "Total number of answer backend requests",
	}, []string{"status"})

	answerLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_relay_answer_latency_seconds",
		Help:    "Answer backend latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// TTS metrics
	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_tts_requests_total",
		Help: "Total number of TTS synthesis calls",
	}, []string{"status"})

	ttsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_relay_tts_latency_seconds",
		Help:    "TTS synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Segment metrics
	chunksEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_chunks_emitted_total",
		Help: "Total number of audio chunks emitted to clients",
	})

	segmentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_segments_skipped_total",
		Help: "Total number of segments skipped due to synthesis failure",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_relay_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})
)

// RecordStreamStart records the start of a streaming response
func RecordStreamStart() {
	activeStreams.Inc()
	totalRequests.Inc()
}

// RecordStreamEnd records the end of a streaming response
func RecordStreamEnd(started time.Time) {
	activeStreams.Dec()
	streamDuration.Observe(time.Since(started).Seconds())
}

// RecordAnswer records one answer backend round trip
func RecordAnswer(success bool, elapsed time.Duration) {
	answerLatency.Observe(elapsed.Seconds())
	answerRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordTTS records one TTS synthesis call
func RecordTTS(success bool, elapsed time.Duration) {
	ttsLatency.Observe(elapsed.Seconds())
	ttsRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordChunkEmitted records one chunk delivered to a client
func RecordChunkEmitted() {
	chunksEmitted.Inc()
}

// RecordSegmentSkipped records one segment dropped from the stream
func RecordSegmentSkipped() {
	segmentsSkipped.Inc()
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordCircuitBreakerState records a circuit breaker state transition
func RecordCircuitBreakerState(service string, state float64) {
	circuitBreakerState.WithLabelValues(service).Set(state)
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
