package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/modbus-insight/internal/status"
)

var (
	registerOnce sync.Once

	frames = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "insight",
		Name:      "frames_total",
		Help:      "Data frames written to the sink.",
	})
	headers = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "insight",
		Name:      "headers_total",
		Help:      "Schema headers written to the sink.",
	})
	payloadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "insight",
		Name:      "payload_bytes_total",
		Help:      "Raw variable bytes serialized, before escaping.",
	})
	escapeBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "insight",
		Name:      "escape_bytes_total",
		Help:      "Escape bytes inserted into data frames.",
	})
	sinkErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "insight",
		Name:      "sink_errors_total",
		Help:      "Failed writes to the sink.",
	})
	pollResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "insight",
			Subsystem: "poll",
			Name:      "results_total",
			Help:      "Modbus poll cycles by outcome.",
		},
		[]string{"outcome"},
	)
	state = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "insight",
		Name:      "state",
		Help:      "Streamer state: 0 disabled, 1 active, 2 paused.",
	})
	variables = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "insight",
		Name:      "variables",
		Help:      "Registered variables.",
	})
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "insight",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Control API requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "insight",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Control API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(frames, headers, payloadBytes, escapeBytes, sinkErrors, pollResults, state, variables,
			httpRequests, httpDuration)
	})
}

// StatsRecorder turns absolute streamer stats into counter increments.
// A streamer reset zeroes its stats; the recorder rebases instead of
// going backwards.
type StatsRecorder struct {
	last status.Stats
}

// Record publishes snap. Call from the goroutine that owns the streamer.
func (r *StatsRecorder) Record(snap status.Snapshot) {
	RegisterMetrics()
	s := snap.Stats

	frames.Add(delta(s.Frames, r.last.Frames))
	headers.Add(delta(s.Headers, r.last.Headers))
	payloadBytes.Add(delta(s.PayloadBytes, r.last.PayloadBytes))
	escapeBytes.Add(delta(s.EscapeBytes, r.last.EscapeBytes))
	r.last = s

	state.Set(float64(snap.State))
	variables.Set(float64(snap.Variables))
}

func delta(now, last uint64) float64 {
	if now < last {
		return float64(now)
	}
	return float64(now - last)
}

func RecordSinkError() {
	RegisterMetrics()
	sinkErrors.Inc()
}

func RecordPoll(ok bool) {
	RegisterMetrics()
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	pollResults.WithLabelValues(outcome).Inc()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
